package repo

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bbn-nutrition/storefront/internal/models"
)

type ProductFilter struct {
	Category   string
	Brand      string
	Tag        string
	Featured   *bool
	BestSeller *bool
	MinPrice   *float64
	MaxPrice   *float64
	InStock    bool
	Sort       string
	Offset     int
	Limit      int
}

var productSorts = map[string]string{
	"newest":     "created_at DESC",
	"price_asc":  "price ASC",
	"price_desc": "price DESC",
	"name":       "name ASC",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeLiteral escapes s so LIKE matches it verbatim. Use with ESCAPE '\'.
func likeLiteral(s string) string { return likeEscaper.Replace(s) }

func (f ProductFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Category != "" {
		q = q.Where("LOWER(category) = ?", strings.ToLower(f.Category))
	}
	if f.Brand != "" {
		q = q.Where("LOWER(brand) = ?", strings.ToLower(f.Brand))
	}
	if f.Tag != "" {
		// tags is a JSON array; match the tag's exact JSON string form.
		enc, _ := json.Marshal(f.Tag)
		q = q.Where(`tags LIKE ? ESCAPE '\'`, "%"+likeLiteral(string(enc))+"%")
	}
	if f.Featured != nil {
		q = q.Where("featured = ?", *f.Featured)
	}
	if f.BestSeller != nil {
		q = q.Where("best_seller = ?", *f.BestSeller)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.InStock {
		q = q.Where("stock_quantity > 0")
	}
	return q
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter) (int64, []models.Product, error) {
	var total int64
	if err := f.apply(r.DB.WithContext(ctx).Model(&models.Product{})).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	order, ok := productSorts[f.Sort]
	if !ok {
		order = productSorts["newest"]
	}

	items := make([]models.Product, 0, f.Limit)
	if err := f.apply(r.DB.WithContext(ctx).Model(&models.Product{})).
		Order(order).Order("id ASC").
		Offset(f.Offset).Limit(f.Limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) FindProductByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).Where("LOWER(name) = ?", strings.ToLower(name)).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) AllProducts(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Create(prod).Error
}

func (r *GormRepo) SaveProduct(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Save(prod).Error
}

// UpdateProductFields applies a column→value map and returns the fresh row.
func (r *GormRepo) UpdateProductFields(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.Product, error) {
	var prod models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&prod).Error; err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&prod).Updates(fields).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&prod).Error
	})
	if err != nil {
		return nil, err
	}
	return &prod, nil
}

// DeleteProduct removes the product and every cart line pointing at it.
func (r *GormRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.Product{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error
	})
}

func (r *GormRepo) DeleteProducts(ctx context.Context, ids []uuid.UUID) (int64, error) {
	var deleted int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id IN ?", ids).Delete(&models.Product{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return tx.Where("product_id IN ?", ids).Delete(&models.CartItem{}).Error
	})
	return deleted, err
}

// SearchProducts is the database fallback used when no search index is
// configured.
func (r *GormRepo) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	like := "%" + likeLiteral(strings.ToLower(strings.TrimSpace(q))) + "%"
	where := `LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(brand) LIKE ? ESCAPE '\' OR LOWER(category) LIKE ? ESCAPE '\'`

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where(where, like, like, like, like).
		Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	if err := r.DB.WithContext(ctx).
		Where(where, like, like, like, like).
		Order("best_seller DESC").Order("name ASC").
		Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) LowStockProducts(ctx context.Context, threshold, limit int) ([]models.Product, error) {
	var items []models.Product
	if err := r.DB.WithContext(ctx).
		Where("stock_quantity <= ?", threshold).
		Order("stock_quantity ASC").Order("name ASC").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Product{}).Count(&n).Error
	return n, err
}

// CountProductsByCategory groups products by lower-cased category label.
func (r *GormRepo) CountProductsByCategory(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Category string
		Count    int64
	}
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).
		Select("LOWER(category) AS category, COUNT(*) AS count").
		Group("LOWER(category)").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Category] = row.Count
	}
	return out, nil
}
