package transport

import (
	"github.com/google/uuid"

	"github.com/bbn-nutrition/storefront/internal/models"
)

type ProductRequest struct {
	Name           string                `json:"name"          validate:"required,max=200"`
	Description    string                `json:"description"`
	Price          float64               `json:"price"         validate:"gte=0"`
	Category       string                `json:"category"      validate:"required"`
	Brand          string                `json:"brand"`
	Images         []string              `json:"images"`
	StockQuantity  int                   `json:"stockQuantity" validate:"gte=0"`
	NutritionFacts models.NutritionFacts `json:"nutritionFacts"`
	Variants       []models.Variant      `json:"variants"`
	Tags           []string              `json:"tags"`
	Featured       bool                  `json:"featured"`
	BestSeller     bool                  `json:"bestSeller"`
}

type PatchProductRequest struct {
	Name           *string                `json:"name"          validate:"omitempty,min=1,max=200"`
	Description    *string                `json:"description"`
	Price          *float64               `json:"price"         validate:"omitempty,gte=0"`
	Category       *string                `json:"category"      validate:"omitempty,min=1"`
	Brand          *string                `json:"brand"`
	Images         *[]string              `json:"images"`
	StockQuantity  *int                   `json:"stockQuantity" validate:"omitempty,gte=0"`
	NutritionFacts *models.NutritionFacts `json:"nutritionFacts"`
	Variants       *[]models.Variant      `json:"variants"`
	Tags           *[]string              `json:"tags"`
	Featured       *bool                  `json:"featured"`
	BestSeller     *bool                  `json:"bestSeller"`
}

// BulkProductFields is the subset of columns a bulk update may touch.
// Values are checked per entry by the catalog service so one bad entry is
// reported as a failure instead of rejecting the batch.
type BulkProductFields struct {
	Price         *float64 `json:"price"`
	StockQuantity *int     `json:"stockQuantity"`
	Category      *string  `json:"category"`
	Featured      *bool    `json:"featured"`
	BestSeller    *bool    `json:"bestSeller"`
}

type BulkProductUpdate struct {
	ID     uuid.UUID         `json:"id"     validate:"required"`
	Fields BulkProductFields `json:"fields"`
}

type BulkUpdateRequest struct {
	Updates []BulkProductUpdate `json:"updates" validate:"required,min=1,dive"`
}

type BulkFailure struct {
	ID     uuid.UUID `json:"id"`
	Reason string    `json:"reason"`
}

type BulkUpdateResult struct {
	Updated []uuid.UUID   `json:"updated"`
	Failed  []BulkFailure `json:"failed"`
}

type BulkDeleteRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}

type BulkDeleteResult struct {
	Deleted int64 `json:"deleted"`
}

type CategoryRequest struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

type UploadResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}
