package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbn-nutrition/storefront/internal/models"
	"github.com/bbn-nutrition/storefront/internal/transport"
)

func TestCartService_AddMergesLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "c@x.io", models.RoleUser)
	p := f.product(t, "Whey", 10.25, 5)

	view, err := f.cart.AddItem(ctx, u.ID, transport.AddToCartRequest{ProductID: p.ID})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 1, view.Items[0].Quantity)

	view, err = f.cart.AddItem(ctx, u.ID, transport.AddToCartRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.TotalItems)
	assert.Equal(t, 30.75, view.Total)

	_, err = f.cart.AddItem(ctx, u.ID, transport.AddToCartRequest{ProductID: p.ID, Quantity: 3})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = f.cart.AddItem(ctx, u.ID, transport.AddToCartRequest{ProductID: uuid.New(), Quantity: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartService_SetQuantityAndRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "q@x.io", models.RoleUser)
	p := f.product(t, "Whey", 10, 5)

	_, err := f.cart.SetQuantity(ctx, u.ID, p.ID, 2)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.cart.AddItem(ctx, u.ID, transport.AddToCartRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	view, err := f.cart.SetQuantity(ctx, u.ID, p.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, view.TotalItems)

	_, err = f.cart.SetQuantity(ctx, u.ID, p.ID, 6)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	_, err = f.cart.SetQuantity(ctx, u.ID, p.ID, -1)
	assert.ErrorIs(t, err, ErrValidation)

	view, err = f.cart.SetQuantity(ctx, u.ID, p.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	_, err = f.cart.RemoveItem(ctx, u.ID, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartService_Sync(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "s@x.io", models.RoleUser)
	a := f.product(t, "A", 10, 3)
	b := f.product(t, "B", 5, 0)
	c := f.product(t, "C", 1, 10)

	_, err := f.cart.AddItem(ctx, u.ID, transport.AddToCartRequest{ProductID: c.ID, Quantity: 1})
	require.NoError(t, err)

	view, err := f.cart.Sync(ctx, u.ID, []transport.SyncCartItem{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: uuid.New(), Quantity: 1},
		{ProductID: b.ID, Quantity: 1},
		{ProductID: a.ID, Quantity: 4},
	})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, a.ID, view.Items[0].ProductID)
	assert.Equal(t, 3, view.Items[0].Quantity)
	assert.Equal(t, 30.0, view.Total)

	require.NoError(t, f.cart.Clear(ctx, u.ID))
	view, err = f.cart.GetCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}
