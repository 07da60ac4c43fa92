package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bbn-nutrition/storefront/internal/events"
	"github.com/bbn-nutrition/storefront/internal/logging"
	"github.com/bbn-nutrition/storefront/internal/models"
	"github.com/bbn-nutrition/storefront/internal/repo"
	"github.com/bbn-nutrition/storefront/internal/search"
	"github.com/bbn-nutrition/storefront/internal/transport"
)

type CatalogService struct {
	Repo   *repo.GormRepo
	Index  search.Index
	Events events.Publisher
}

func (s *CatalogService) ListProducts(ctx context.Context, f repo.ProductFilter) (int64, []models.Product, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return 0, nil, fmt.Errorf("%w: minPrice is greater than maxPrice", ErrValidation)
	}
	return s.Repo.ListProducts(ctx, f)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	return p, nil
}

// SearchProducts asks the search index first and falls back to the
// database when no index is configured or the index fails.
func (s *CatalogService) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, fmt.Errorf("%w: q is required", ErrValidation)
	}

	if s.Index != nil {
		sctx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
		total, items, err := s.Index.Search(sctx, q, offset, limit)
		cancel()
		if err == nil {
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("search_index_error", "reason", "falling back to database", "error", err)
	}
	return s.Repo.SearchProducts(ctx, q, offset, limit)
}

func validateProduct(p *models.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case p.Category == "":
		return fmt.Errorf("%w: category is required", ErrValidation)
	case p.Price < 0:
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	case p.StockQuantity < 0:
		return fmt.Errorf("%w: stockQuantity cannot be negative", ErrValidation)
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Variants == nil {
		p.Variants = []models.Variant{}
	}
	return nil
}

func applyProductRequest(p *models.Product, req transport.ProductRequest) {
	p.Name = req.Name
	p.Description = req.Description
	p.Price = req.Price
	p.Category = req.Category
	p.Brand = req.Brand
	p.Images = req.Images
	p.StockQuantity = req.StockQuantity
	p.NutritionFacts = req.NutritionFacts
	p.Variants = req.Variants
	p.Tags = req.Tags
	p.Featured = req.Featured
	p.BestSeller = req.BestSeller
}

func (s *CatalogService) productChanged(ctx context.Context, typ string, p *models.Product) {
	indexProduct(ctx, s.Index, p)
	publish(ctx, s.Events, events.TopicProducts, p.ID.String(), typ, p)
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.ProductRequest) (*models.Product, error) {
	p := &models.Product{}
	applyProductRequest(p, req)
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.productChanged(ctx, "product_created", p)
	return p, nil
}

func (s *CatalogService) ReplaceProduct(ctx context.Context, id uuid.UUID, req transport.ProductRequest) (*models.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	applyProductRequest(p, req)
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		return nil, err
	}
	s.productChanged(ctx, "product_updated", p)
	return p, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, id uuid.UUID, req transport.PatchProductRequest) (*models.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Brand != nil {
		p.Brand = *req.Brand
	}
	if req.Images != nil {
		p.Images = *req.Images
	}
	if req.StockQuantity != nil {
		p.StockQuantity = *req.StockQuantity
	}
	if req.NutritionFacts != nil {
		p.NutritionFacts = *req.NutritionFacts
	}
	if req.Variants != nil {
		p.Variants = *req.Variants
	}
	if req.Tags != nil {
		p.Tags = *req.Tags
	}
	if req.Featured != nil {
		p.Featured = *req.Featured
	}
	if req.BestSeller != nil {
		p.BestSeller = *req.BestSeller
	}

	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		return nil, err
	}
	s.productChanged(ctx, "product_updated", p)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return notFound(err, "product")
	}
	unindexProduct(ctx, s.Index, id)
	publish(ctx, s.Events, events.TopicProducts, id.String(), "product_deleted", map[string]any{"id": id})
	return nil
}

func bulkFields(f transport.BulkProductFields) (map[string]any, error) {
	fields := map[string]any{}
	if f.Price != nil {
		if *f.Price < 0 {
			return nil, errors.New("price cannot be negative")
		}
		fields["price"] = *f.Price
	}
	if f.StockQuantity != nil {
		if *f.StockQuantity < 0 {
			return nil, errors.New("stockQuantity cannot be negative")
		}
		fields["stock_quantity"] = *f.StockQuantity
	}
	if f.Category != nil {
		c := strings.TrimSpace(*f.Category)
		if c == "" {
			return nil, errors.New("category cannot be empty")
		}
		fields["category"] = c
	}
	if f.Featured != nil {
		fields["featured"] = *f.Featured
	}
	if f.BestSeller != nil {
		fields["best_seller"] = *f.BestSeller
	}
	if len(fields) == 0 {
		return nil, errors.New("no fields to update")
	}
	return fields, nil
}

// BulkUpdate applies each update on its own; one bad entry does not stop
// the rest.
func (s *CatalogService) BulkUpdate(ctx context.Context, updates []transport.BulkProductUpdate) (*transport.BulkUpdateResult, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: updates are required", ErrValidation)
	}

	res := &transport.BulkUpdateResult{Updated: []uuid.UUID{}, Failed: []transport.BulkFailure{}}
	for _, u := range updates {
		fields, err := bulkFields(u.Fields)
		if err != nil {
			res.Failed = append(res.Failed, transport.BulkFailure{ID: u.ID, Reason: err.Error()})
			continue
		}
		p, err := s.Repo.UpdateProductFields(ctx, u.ID, fields)
		if err != nil {
			if err = notFound(err, "product"); errors.Is(err, ErrNotFound) {
				res.Failed = append(res.Failed, transport.BulkFailure{ID: u.ID, Reason: err.Error()})
				continue
			}
			return nil, err
		}
		s.productChanged(ctx, "product_updated", p)
		res.Updated = append(res.Updated, u.ID)
	}
	return res, nil
}

func (s *CatalogService) BulkDelete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: ids are required", ErrValidation)
	}
	n, err := s.Repo.DeleteProducts(ctx, ids)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		unindexProduct(ctx, s.Index, id)
	}
	publish(ctx, s.Events, events.TopicProducts, "", "products_deleted", map[string]any{"ids": ids, "deleted": n})
	return n, nil
}

func (s *CatalogService) withCounts(ctx context.Context, cats []models.Category) ([]models.Category, error) {
	counts, err := s.Repo.CountProductsByCategory(ctx)
	if err != nil {
		return nil, err
	}
	for i := range cats {
		cats[i].ProductCount = int(counts[strings.ToLower(cats[i].Name)])
	}
	return cats, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	cats, err := s.Repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	return s.withCounts(ctx, cats)
}

func (s *CatalogService) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	cat, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		return nil, notFound(err, "category")
	}
	cats, err := s.withCounts(ctx, []models.Category{*cat})
	if err != nil {
		return nil, err
	}
	return &cats[0], nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, req transport.CategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if _, err := s.Repo.FindCategoryByName(ctx, name); err == nil {
		return nil, fmt.Errorf("%w: category %q already exists", ErrConflict, name)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cat := &models.Category{Name: name, Description: req.Description, Image: req.Image}
	if err := s.Repo.CreateCategory(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, req transport.CategoryRequest) (*models.Category, error) {
	cat, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		return nil, notFound(err, "category")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if other, err := s.Repo.FindCategoryByName(ctx, name); err == nil && other.ID != cat.ID {
		return nil, fmt.Errorf("%w: category %q already exists", ErrConflict, name)
	}

	oldName := cat.Name
	cat.Name = name
	cat.Description = req.Description
	cat.Image = req.Image
	moved, err := s.Repo.RenameCategory(ctx, cat, oldName)
	if err != nil {
		return nil, err
	}
	for i := range moved {
		s.productChanged(ctx, "product_updated", &moved[i])
	}

	cats, err := s.withCounts(ctx, []models.Category{*cat})
	if err != nil {
		return nil, err
	}
	return &cats[0], nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	cat, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		return notFound(err, "category")
	}
	total, _, err := s.Repo.ListProducts(ctx, repo.ProductFilter{Category: cat.Name, Limit: 1})
	if err != nil {
		return err
	}
	if total > 0 {
		return fmt.Errorf("%w: category still has %d products", ErrConflict, total)
	}
	return notFound(s.Repo.DeleteCategory(ctx, id), "category")
}
