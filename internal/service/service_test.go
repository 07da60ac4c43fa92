package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/bbn-nutrition/storefront/internal/config"
	"github.com/bbn-nutrition/storefront/internal/events"
	"github.com/bbn-nutrition/storefront/internal/hash"
	"github.com/bbn-nutrition/storefront/internal/models"
	"github.com/bbn-nutrition/storefront/internal/repo"
	"github.com/bbn-nutrition/storefront/internal/testutil"
	"github.com/bbn-nutrition/storefront/internal/tokens"
)

type fixture struct {
	repo    *repo.GormRepo
	events  *events.Recorder
	auth    *AuthService
	users   *UserService
	catalog *CatalogService
	cart    *CartService
	orders  *OrderService
	admin   *AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	r := repo.New(testutil.NewDB(t))
	rec := &events.Recorder{}
	shop := config.DefaultShop()
	return &fixture{
		repo:   r,
		events: rec,
		auth: &AuthService{
			Repo:   r,
			Issuer: &tokens.Issuer{AccessSecret: []byte("access"), RefreshSecret: []byte("refresh")},
			Events: rec,
		},
		users:   &UserService{Repo: r, Events: rec},
		catalog: &CatalogService{Repo: r, Events: rec},
		cart:    &CartService{Repo: r},
		orders:  &OrderService{Repo: r, Shop: shop, Events: rec},
		admin:   &AdminService{Repo: r, Shop: shop},
	}
}

func (f *fixture) product(t *testing.T, name string, price float64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: price, Category: "Whey", Brand: "BBN", StockQuantity: stock}
	require.NoError(t, f.repo.CreateProduct(context.Background(), p))
	return p
}

func (f *fixture) user(t *testing.T, email, role string) *models.User {
	t.Helper()
	pw, err := hash.HashPassword("secret1")
	require.NoError(t, err)
	u := &models.User{Name: "U", Email: email, PasswordHash: pw, Role: role}
	require.NoError(t, f.repo.CreateUserIfNotExists(context.Background(), u))
	return u
}

// fakeIndex records calls and can be told to fail searches.
type fakeIndex struct {
	mu        sync.Mutex
	indexed   []uuid.UUID
	deleted   []uuid.UUID
	searchErr error
	hits      []models.Product
}

func (f *fakeIndex) IndexProduct(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, p.ID)
	return nil
}

func (f *fakeIndex) DeleteProduct(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndex) Search(context.Context, string, int, int) (int64, []models.Product, error) {
	if f.searchErr != nil {
		return 0, nil, f.searchErr
	}
	return int64(len(f.hits)), f.hits, nil
}

var errIndexDown = errors.New("index down")
