package maintenance

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbn-nutrition/storefront/internal/events"
	"github.com/bbn-nutrition/storefront/internal/hash"
	"github.com/bbn-nutrition/storefront/internal/logging"
	"github.com/bbn-nutrition/storefront/internal/models"
	"github.com/bbn-nutrition/storefront/internal/repo"
	"github.com/bbn-nutrition/storefront/internal/testutil"
)

var quiet = logging.NewWithWriter(io.Discard, "error")

type memIndex struct {
	docs map[uuid.UUID]models.Product
}

func newMemIndex() *memIndex { return &memIndex{docs: map[uuid.UUID]models.Product{}} }

func (m *memIndex) IndexProduct(_ context.Context, p *models.Product) error {
	m.docs[p.ID] = *p
	return nil
}

func (m *memIndex) DeleteProduct(_ context.Context, id uuid.UUID) error {
	delete(m.docs, id)
	return nil
}

func (m *memIndex) Search(context.Context, string, int, int) (int64, []models.Product, error) {
	return 0, nil, nil
}

const seedYAML = `
categories:
  - name: Whey Protein
    description: Fast absorbing protein
products:
  - name: Gold Whey
    price: 59.9
    category: Whey Protein
    brand: BBN
    stockQuantity: 12
    tags: [protein, whey]
    nutritionFacts:
      servingSize: 30g
      protein: 24
    variants:
      - name: Chocolate
        sku: GW-CHOC
        stock: 6
  - name: Creatine Mono
    price: 19.5
    category: Creatine
    stockQuantity: 40
`

func TestParseSeed_RejectsBadProducts(t *testing.T) {
	_, err := ParseSeed([]byte("products:\n  - name: X\n    price: 1\n"))
	assert.ErrorContains(t, err, "category is required")

	_, err = ParseSeed([]byte("products:\n  - name: X\n    category: C\n    price: -1\n"))
	assert.ErrorContains(t, err, "must not be negative")

	_, err = ParseSeed([]byte("products: [oops"))
	assert.Error(t, err)
}

func TestSeed_UpsertsByName(t *testing.T) {
	ctx := context.Background()
	r := repo.New(testutil.NewDB(t))

	path := filepath.Join(t.TempDir(), "products.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o644))
	sf, err := LoadSeedFile(path)
	require.NoError(t, err)

	idx := newMemIndex()
	rec := &events.Recorder{}
	sinks := Sinks{Index: idx, Events: rec}

	rep, err := Seed(ctx, r, sf, sinks, quiet)
	require.NoError(t, err)
	assert.Equal(t, &SeedReport{CategoriesCreated: 2, ProductsCreated: 2}, rep)

	p, err := r.FindProductByName(ctx, "gold whey")
	require.NoError(t, err)
	assert.Equal(t, "30g", p.NutritionFacts.ServingSize)
	require.Len(t, p.Variants, 1)
	assert.Equal(t, "GW-CHOC", p.Variants[0].SKU)
	assert.Contains(t, idx.docs, p.ID)
	assert.Len(t, idx.docs, 2)

	sf.Products[0].Price = 49.9
	rep, err = Seed(ctx, r, sf, sinks, quiet)
	require.NoError(t, err)
	assert.Equal(t, &SeedReport{CategoriesUpdated: 1, ProductsUpdated: 2}, rep)

	again, err := r.FindProductByName(ctx, "Gold Whey")
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
	assert.InDelta(t, 49.9, again.Price, 1e-9)
	assert.InDelta(t, 49.9, idx.docs[p.ID].Price, 1e-9)
	assert.Equal(t, []string{"product_created", "product_created", "product_updated", "product_updated"}, rec.Types(events.TopicProducts))

	n, err := r.CountProducts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestFixImages(t *testing.T) {
	ctx := context.Background()
	r := repo.New(testutil.NewDB(t))

	public := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(public, "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(public, "images", "a.png"), []byte("x"), 0o644))

	mixed := &models.Product{Name: "Mixed", Category: "c", Images: []string{"/images/a.png", "/images/missing.png", "relative.png", ""}}
	gone := &models.Product{Name: "Gone", Category: "c", Images: []string{"/images/gone.png"}}
	fine := &models.Product{Name: "Fine", Category: "c", Images: []string{"/images/a.png"}}
	for _, p := range []*models.Product{mixed, gone, fine} {
		require.NoError(t, r.CreateProduct(ctx, p))
	}

	opts := ImageOptions{PublicDir: public, DryRun: true}
	rep, err := FixImages(ctx, r, opts, Sinks{}, quiet)
	require.NoError(t, err)
	assert.Equal(t, &ImageReport{Scanned: 3, Fixed: 2, Removed: 4, Placeholdered: 1}, rep)

	unchanged, err := r.GetProduct(ctx, gone.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"/images/gone.png"}, unchanged.Images)

	opts.DryRun = false
	rec := &events.Recorder{}
	_, err = FixImages(ctx, r, opts, Sinks{Events: rec}, quiet)
	require.NoError(t, err)
	assert.Len(t, rec.Types(events.TopicProducts), 2)

	got, err := r.GetProduct(ctx, mixed.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"/images/a.png"}, got.Images)

	got, err = r.GetProduct(ctx, gone.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultPlaceholder}, got.Images)

	rep, err = FixImages(ctx, r, opts, Sinks{}, quiet)
	require.NoError(t, err)
	assert.Zero(t, rep.Fixed)
}

func TestReindex(t *testing.T) {
	ctx := context.Background()
	r := repo.New(testutil.NewDB(t))
	require.NoError(t, r.CreateProduct(ctx, &models.Product{Name: "A", Category: "c"}))
	require.NoError(t, r.CreateProduct(ctx, &models.Product{Name: "B", Category: "c"}))

	_, err := Reindex(ctx, r, nil, quiet)
	assert.Error(t, err)

	idx := newMemIndex()
	n, err := Reindex(ctx, r, idx, quiet)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, idx.docs, 2)
}

func TestFixImages_RequiresPublicDir(t *testing.T) {
	_, err := FixImages(context.Background(), repo.New(testutil.NewDB(t)), ImageOptions{}, Sinks{}, quiet)
	assert.Error(t, err)
}

func TestFixAdmin(t *testing.T) {
	ctx := context.Background()
	r := repo.New(testutil.NewDB(t))

	_, err := FixAdmin(ctx, r, "admin@bbn.io", "123", "", quiet)
	assert.Error(t, err)

	rep, err := FixAdmin(ctx, r, " Admin@BBN.io ", "secret1", "", quiet)
	require.NoError(t, err)
	assert.True(t, rep.Created)

	u, err := r.FindUserByEmail(ctx, "admin@bbn.io")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.True(t, u.EmailVerified)
	assert.Equal(t, "Administrator", u.Name)

	require.NoError(t, r.DB.Model(&models.User{}).Where("id = ?", u.ID).
		Updates(map[string]any{"role": models.RoleUser, "email_verified": false}).Error)

	rep, err = FixAdmin(ctx, r, "admin@bbn.io", "newsecret", "Boss", quiet)
	require.NoError(t, err)
	assert.False(t, rep.Created)
	assert.Equal(t, u.ID, rep.UserID)

	u, err = r.FindUserByEmail(ctx, "admin@bbn.io")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.True(t, u.EmailVerified)
	assert.Equal(t, "Boss", u.Name)
	assert.True(t, hash.CheckPassword(u.PasswordHash, "newsecret"))
}

func TestFixDB(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	r := repo.New(gdb)

	u := &models.User{Name: "Mixed", Email: "mixed@shop.io", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, r.CreateUserIfNotExists(ctx, u))
	require.NoError(t, r.CreateCategory(ctx, &models.Category{Name: "Whey"}))

	p := &models.Product{Name: "Whey", Category: "whey", StockQuantity: 3}
	orphan := &models.Product{Name: "Old", Category: "whey", StockQuantity: 1}
	require.NoError(t, r.CreateProduct(ctx, p))
	require.NoError(t, r.CreateProduct(ctx, orphan))
	require.NoError(t, r.AddToCart(ctx, &models.CartItem{UserID: u.ID, ProductID: orphan.ID, Quantity: 1}))

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	_, err = sqlDB.ExecContext(ctx, `UPDATE users SET email = '  Mixed@Shop.IO ', role = '' WHERE id = ?`, u.ID.String())
	require.NoError(t, err)
	_, err = sqlDB.ExecContext(ctx, `UPDATE products SET stock_quantity = -4 WHERE id = ?`, p.ID.String())
	require.NoError(t, err)
	_, err = sqlDB.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, orphan.ID.String())
	require.NoError(t, err)

	want := map[string]int64{
		"emails_normalized":          1,
		"negative_stock_clamped":     1,
		"roles_defaulted":            1,
		"category_counts_recomputed": 1,
		"orphan_cart_lines_dropped":  1,
	}

	rep, err := FixDB(ctx, sqlDB, true, quiet)
	require.NoError(t, err)
	assert.Equal(t, want, rep.Repairs)
	assert.EqualValues(t, 5, rep.Total())

	rep, err = FixDB(ctx, sqlDB, false, quiet)
	require.NoError(t, err)
	assert.Equal(t, want, rep.Repairs)

	fixed, err := r.FindUserByEmail(ctx, "mixed@shop.io")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, fixed.Role)

	prod, err := r.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, prod.StockQuantity)

	cat, err := r.FindCategoryByName(ctx, "whey")
	require.NoError(t, err)
	assert.Equal(t, 1, cat.ProductCount)

	cart, err := r.GetCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, cart)

	rep, err = FixDB(ctx, sqlDB, false, quiet)
	require.NoError(t, err)
	assert.Zero(t, rep.Total())
}

func TestFixDB_SkipsEmailCollisions(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	r := repo.New(gdb)

	keep := &models.User{Name: "Keep", Email: "dup@shop.io", PasswordHash: "x", Role: models.RoleUser}
	clash := &models.User{Name: "Clash", Email: "clash@shop.io", PasswordHash: "x", Role: models.RoleUser}
	fixable := &models.User{Name: "Fix", Email: "fix@shop.io", PasswordHash: "x", Role: models.RoleUser}
	for _, u := range []*models.User{keep, clash, fixable} {
		require.NoError(t, r.CreateUserIfNotExists(ctx, u))
	}

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	_, err = sqlDB.ExecContext(ctx, `UPDATE users SET email = ' DUP@shop.io' WHERE id = ?`, clash.ID.String())
	require.NoError(t, err)
	_, err = sqlDB.ExecContext(ctx, `UPDATE users SET email = 'Fix@Shop.io' WHERE id = ?`, fixable.ID.String())
	require.NoError(t, err)

	rep, err := FixDB(ctx, sqlDB, false, quiet)
	require.NoError(t, err)
	assert.EqualValues(t, 1, rep.Repairs["emails_normalized"])
	assert.EqualValues(t, 1, rep.EmailCollisions)

	_, err = r.FindUserByEmail(ctx, "fix@shop.io")
	require.NoError(t, err)

	var stored string
	require.NoError(t, sqlDB.QueryRowContext(ctx, `SELECT email FROM users WHERE id = ?`, clash.ID.String()).Scan(&stored))
	assert.Equal(t, " DUP@shop.io", stored)
}
