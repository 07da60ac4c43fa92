package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bbn-nutrition/storefront/internal/events"
	"github.com/bbn-nutrition/storefront/internal/models"
	"github.com/bbn-nutrition/storefront/internal/repo"
	"github.com/bbn-nutrition/storefront/internal/search"
)

const sinkTimeout = 5 * time.Second

// Sinks receives product writes made by the utilities so the search index
// and event consumers stay in step with the database. Nil fields are skipped.
type Sinks struct {
	Index  search.Index
	Events events.Publisher
}

func (s Sinks) productChanged(ctx context.Context, l *slog.Logger, typ string, p *models.Product) {
	if s.Index != nil {
		ictx, cancel := context.WithTimeout(ctx, sinkTimeout)
		if err := s.Index.IndexProduct(ictx, p); err != nil {
			l.Warn("index_error", "product_id", p.ID, "error", err)
		}
		cancel()
	}
	if s.Events != nil {
		pctx, cancel := context.WithTimeout(ctx, sinkTimeout)
		if err := s.Events.Publish(pctx, events.TopicProducts, p.ID.String(), events.New(typ, p)); err != nil {
			l.Warn("publish_error", "product_id", p.ID, "type", typ, "error", err)
		}
		cancel()
	}
}

// Reindex pushes every product into idx and returns how many were indexed.
func Reindex(ctx context.Context, r *repo.GormRepo, idx search.Index, l *slog.Logger) (int, error) {
	if idx == nil {
		return 0, fmt.Errorf("search index is not configured")
	}
	products, err := r.AllProducts(ctx)
	if err != nil {
		return 0, fmt.Errorf("load products: %w", err)
	}
	for i := range products {
		ictx, cancel := context.WithTimeout(ctx, sinkTimeout)
		err := idx.IndexProduct(ictx, &products[i])
		cancel()
		if err != nil {
			return i, fmt.Errorf("index product %s: %w", products[i].ID, err)
		}
	}
	l.Info("reindex_done", "products", len(products))
	return len(products), nil
}
