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

func TestUserService_Profile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "p@x.io", models.RoleUser)

	_, err := f.users.UpdateProfile(ctx, u.ID, transport.UpdateProfileRequest{Name: "  "})
	assert.ErrorIs(t, err, ErrValidation)

	got, err := f.users.UpdateProfile(ctx, u.ID, transport.UpdateProfileRequest{Name: "Paula"})
	require.NoError(t, err)
	assert.Equal(t, "Paula", got.Name)

	addr, err := f.users.AddAddress(ctx, u.ID, transport.AddressRequest{Label: "home", FullName: "Paula", Phone: "1", Street: "s", City: "c", Country: "US"})
	require.NoError(t, err)
	assert.True(t, addr.IsDefault)

	got, err = f.users.Profile(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, got.Addresses, 1)

	require.NoError(t, f.users.DeleteAddress(ctx, u.ID, addr.ID))
	assert.ErrorIs(t, f.users.DeleteAddress(ctx, u.ID, addr.ID), ErrNotFound)

	_, err = f.users.Profile(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_AdminUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "admin@x.io", models.RoleAdmin)
	u := f.user(t, "plain@x.io", models.RoleUser)

	got, err := f.users.AdminUpdate(ctx, admin.ID, u.ID, transport.AdminUserPatch{Role: ptr("ADMIN"), EmailVerified: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, got.Role)
	assert.True(t, got.EmailVerified)

	_, err = f.users.AdminUpdate(ctx, admin.ID, admin.ID, transport.AdminUserPatch{Role: ptr(models.RoleUser)})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.users.AdminUpdate(ctx, admin.ID, u.ID, transport.AdminUserPatch{Role: ptr("root")})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.users.AdminUpdate(ctx, admin.ID, u.ID, transport.AdminUserPatch{})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.users.AdminUpdate(ctx, admin.ID, uuid.New(), transport.AdminUserPatch{EmailVerified: ptr(false)})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, f.users.Delete(ctx, admin.ID, admin.ID), ErrForbidden)
	require.NoError(t, f.users.Delete(ctx, admin.ID, u.ID))
	assert.ErrorIs(t, f.users.Delete(ctx, admin.ID, u.ID), ErrNotFound)

	total, users, err := f.users.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, admin.ID, users[0].ID)
}

func TestAdminService_Dashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "d@x.io", models.RoleUser)
	low := f.product(t, "Low", 20, 6)
	f.product(t, "Plenty", 5, 100)

	paid := placeOrder(t, f, u.ID, low, 2)
	_, err := f.orders.UpdatePayment(ctx, paid.ID, models.PaymentStatusPaid)
	require.NoError(t, err)
	placeOrder(t, f, u.ID, low, 1)

	d, err := f.admin.Dashboard(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, d.TotalProducts)
	assert.EqualValues(t, 1, d.TotalUsers)
	assert.EqualValues(t, 2, d.TotalOrders)
	assert.True(t, d.Revenue.Equal(paid.Total), d.Revenue.String())
	assert.EqualValues(t, 2, d.OrdersByStatus[models.OrderStatusPending])
	require.Len(t, d.LowStock, 1)
	assert.Equal(t, "Low", d.LowStock[0].Name)
	assert.Len(t, d.RecentOrders, 2)
}
