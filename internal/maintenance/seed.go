package maintenance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/bbn-nutrition/storefront/internal/models"
	"github.com/bbn-nutrition/storefront/internal/repo"
)

type SeedCategory struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
}

type SeedProduct struct {
	Name           string                `yaml:"name"`
	Description    string                `yaml:"description"`
	Price          float64               `yaml:"price"`
	Category       string                `yaml:"category"`
	Brand          string                `yaml:"brand"`
	Images         []string              `yaml:"images"`
	StockQuantity  int                   `yaml:"stockQuantity"`
	NutritionFacts models.NutritionFacts `yaml:"nutritionFacts"`
	Variants       []models.Variant      `yaml:"variants"`
	Tags           []string              `yaml:"tags"`
	Featured       bool                  `yaml:"featured"`
	BestSeller     bool                  `yaml:"bestSeller"`
}

// SeedFile is the YAML document read by `bbnctl seed`.
type SeedFile struct {
	Categories []SeedCategory `yaml:"categories"`
	Products   []SeedProduct  `yaml:"products"`
}

type SeedReport struct {
	CategoriesCreated int
	CategoriesUpdated int
	ProductsCreated   int
	ProductsUpdated   int
}

func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) (*SeedFile, error) {
	var sf SeedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse seed yaml: %w", err)
	}
	for i, p := range sf.Products {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("product #%d: name is required", i+1)
		}
		if strings.TrimSpace(p.Category) == "" {
			return nil, fmt.Errorf("product %q: category is required", p.Name)
		}
		if p.Price < 0 || p.StockQuantity < 0 {
			return nil, fmt.Errorf("product %q: price and stock must not be negative", p.Name)
		}
	}
	return &sf, nil
}

// Seed upserts categories by name, then products by name. Categories that
// products reference but the file does not list are created bare.
func Seed(ctx context.Context, r *repo.GormRepo, sf *SeedFile, sinks Sinks, l *slog.Logger) (*SeedReport, error) {
	rep := &SeedReport{}

	cats := append([]SeedCategory(nil), sf.Categories...)
	listed := map[string]bool{}
	for _, c := range cats {
		listed[strings.ToLower(strings.TrimSpace(c.Name))] = true
	}
	for _, p := range sf.Products {
		key := strings.ToLower(strings.TrimSpace(p.Category))
		if !listed[key] {
			listed[key] = true
			cats = append(cats, SeedCategory{Name: strings.TrimSpace(p.Category)})
		}
	}

	for _, sc := range cats {
		name := strings.TrimSpace(sc.Name)
		if name == "" {
			continue
		}
		cat, err := r.FindCategoryByName(ctx, name)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			cat = &models.Category{Name: name, Description: sc.Description, Image: sc.Image}
			if err := r.CreateCategory(ctx, cat); err != nil {
				return rep, fmt.Errorf("create category %q: %w", name, err)
			}
			rep.CategoriesCreated++
			l.Info("seed_category_created", "name", name)
		case err != nil:
			return rep, fmt.Errorf("find category %q: %w", name, err)
		default:
			if sc.Description == "" && sc.Image == "" {
				continue
			}
			if sc.Description != "" {
				cat.Description = sc.Description
			}
			if sc.Image != "" {
				cat.Image = sc.Image
			}
			if err := r.SaveCategory(ctx, cat); err != nil {
				return rep, fmt.Errorf("update category %q: %w", name, err)
			}
			rep.CategoriesUpdated++
			l.Info("seed_category_updated", "name", name)
		}
	}

	for _, sp := range sf.Products {
		name := strings.TrimSpace(sp.Name)
		p, err := r.FindProductByName(ctx, name)
		created := false
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			p = &models.Product{}
			created = true
		case err != nil:
			return rep, fmt.Errorf("find product %q: %w", name, err)
		}

		p.Name = name
		p.Description = sp.Description
		p.Price = sp.Price
		p.Category = strings.TrimSpace(sp.Category)
		p.Brand = sp.Brand
		p.Images = sp.Images
		p.StockQuantity = sp.StockQuantity
		p.NutritionFacts = sp.NutritionFacts
		p.Variants = sp.Variants
		p.Tags = sp.Tags
		p.Featured = sp.Featured
		p.BestSeller = sp.BestSeller

		if created {
			if err := r.CreateProduct(ctx, p); err != nil {
				return rep, fmt.Errorf("create product %q: %w", name, err)
			}
			rep.ProductsCreated++
			l.Info("seed_product_created", "name", name, "id", p.ID)
			sinks.productChanged(ctx, l, "product_created", p)
			continue
		}
		if err := r.SaveProduct(ctx, p); err != nil {
			return rep, fmt.Errorf("update product %q: %w", name, err)
		}
		rep.ProductsUpdated++
		l.Info("seed_product_updated", "name", name, "id", p.ID)
		sinks.productChanged(ctx, l, "product_updated", p)
	}
	return rep, nil
}
