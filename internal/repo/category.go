package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bbn-nutrition/storefront/internal/models"
)

func (r *GormRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var items []models.Category
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var cat models.Category
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&cat).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *GormRepo) FindCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var cat models.Category
	if err := r.DB.WithContext(ctx).Where("LOWER(name) = ?", strings.ToLower(name)).First(&cat).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, cat *models.Category) error {
	return r.DB.WithContext(ctx).Create(cat).Error
}

func (r *GormRepo) SaveCategory(ctx context.Context, cat *models.Category) error {
	return r.DB.WithContext(ctx).Save(cat).Error
}

// RenameCategory saves cat and moves every product labelled oldName to the
// new name in the same transaction. It returns the relabelled products.
func (r *GormRepo) RenameCategory(ctx context.Context, cat *models.Category, oldName string) ([]models.Product, error) {
	var moved []models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(cat).Error; err != nil {
			return err
		}
		if oldName == cat.Name {
			return nil
		}
		if err := tx.Model(&models.Product{}).
			Where("LOWER(category) = ?", strings.ToLower(oldName)).
			Update("category", cat.Name).Error; err != nil {
			return err
		}
		return tx.Where("category = ?", cat.Name).Find(&moved).Error
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

func (r *GormRepo) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
