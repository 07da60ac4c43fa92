package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bbn-nutrition/storefront/internal/events"
	"github.com/bbn-nutrition/storefront/internal/logging"
	"github.com/bbn-nutrition/storefront/internal/models"
	"github.com/bbn-nutrition/storefront/internal/search"
)

const sideEffectTimeout = 5 * time.Second

// publish sends ev on a detached, bounded context. Failures are logged and
// never surface to the caller.
func publish(ctx context.Context, pub events.Publisher, topic, key, typ string, data any) {
	if pub == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := pub.Publish(pctx, topic, key, events.New(typ, data)); err != nil {
		logging.FromContext(ctx).Warn("publish_error", "topic", topic, "type", typ, "key", key, "error", err)
	}
}

func indexProduct(ctx context.Context, idx search.Index, p *models.Product) {
	if idx == nil {
		return
	}
	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := idx.IndexProduct(ictx, p); err != nil {
		logging.FromContext(ctx).Warn("index_error", "product_id", p.ID, "error", err)
	}
}

func unindexProduct(ctx context.Context, idx search.Index, id uuid.UUID) {
	if idx == nil {
		return
	}
	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := idx.DeleteProduct(ictx, id); err != nil {
		logging.FromContext(ctx).Warn("unindex_error", "product_id", id, "error", err)
	}
}
