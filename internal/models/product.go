package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NutritionFacts struct {
	ServingSize          string  `json:"servingSize,omitempty"          yaml:"servingSize"`
	ServingsPerContainer int     `json:"servingsPerContainer,omitempty" yaml:"servingsPerContainer"`
	Calories             float64 `json:"calories,omitempty"             yaml:"calories"`
	Protein              float64 `json:"protein,omitempty"              yaml:"protein"`
	Carbohydrates        float64 `json:"carbohydrates,omitempty"        yaml:"carbohydrates"`
	Fat                  float64 `json:"fat,omitempty"                  yaml:"fat"`
	Sugar                float64 `json:"sugar,omitempty"                yaml:"sugar"`
	Sodium               float64 `json:"sodium,omitempty"               yaml:"sodium"`
}

// Variant is a flavour or size of a product. PriceDelta is added to the
// base product price.
type Variant struct {
	Name       string  `json:"name"       yaml:"name"`
	SKU        string  `json:"sku"        yaml:"sku"`
	PriceDelta float64 `json:"priceDelta" yaml:"priceDelta"`
	Stock      int     `json:"stock"      yaml:"stock"`
}

type Product struct {
	ID             uuid.UUID      `gorm:"primaryKey"                  json:"id"`
	Name           string         `gorm:"not null;index"              json:"name"`
	Description    string         `                                   json:"description"`
	Price          float64        `gorm:"not null"                    json:"price"`
	Category       string         `gorm:"not null;index"              json:"category"`
	Brand          string         `gorm:"index"                       json:"brand"`
	Images         []string       `gorm:"type:text;serializer:json"   json:"images"`
	StockQuantity  int            `gorm:"not null;default:0"          json:"stockQuantity"`
	NutritionFacts NutritionFacts `gorm:"type:text;serializer:json"   json:"nutritionFacts"`
	Variants       []Variant      `gorm:"type:text;serializer:json"   json:"variants"`
	Tags           []string       `gorm:"type:text;serializer:json"   json:"tags"`
	Featured       bool           `gorm:"not null;default:false"      json:"featured"`
	BestSeller     bool           `gorm:"not null;default:false"      json:"bestSeller"`
	CreatedAt      time.Time      `                                   json:"createdAt"`
	UpdatedAt      time.Time      `                                   json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Product) InStock() bool { return p.StockQuantity > 0 }

type Category struct {
	ID           uuid.UUID `gorm:"primaryKey"          json:"id"`
	Name         string    `gorm:"uniqueIndex;not null" json:"name"`
	Description  string    `                           json:"description"`
	Image        string    `                           json:"image"`
	ProductCount int       `gorm:"not null;default:0"  json:"productCount"`
	CreatedAt    time.Time `                           json:"createdAt"`
	UpdatedAt    time.Time `                           json:"updatedAt"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
