package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bbn-nutrition/storefront/internal/repo"
)

const DefaultPlaceholder = "/images/placeholder.png"

type ImageOptions struct {
	PublicDir string
	// UploadDir resolves /uploads/ paths. Empty means they live under PublicDir.
	UploadDir   string
	Placeholder string
	DryRun      bool
}

type ImageReport struct {
	Scanned       int
	Fixed         int
	Removed       int
	Placeholdered int
}

// FixImages drops image paths that are empty, not rooted or missing on disk.
// Products left without images get the placeholder.
func FixImages(ctx context.Context, r *repo.GormRepo, opts ImageOptions, sinks Sinks, l *slog.Logger) (*ImageReport, error) {
	if opts.PublicDir == "" {
		return nil, fmt.Errorf("public dir is required")
	}
	if opts.Placeholder == "" {
		opts.Placeholder = DefaultPlaceholder
	}

	products, err := r.AllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	rep := &ImageReport{Scanned: len(products)}
	for i := range products {
		p := &products[i]

		kept := make([]string, 0, len(p.Images))
		for _, img := range p.Images {
			if opts.exists(img) {
				kept = append(kept, img)
				continue
			}
			rep.Removed++
			l.Info("image_dropped", "product_id", p.ID, "product", p.Name, "image", img)
		}
		if len(kept) == 0 {
			kept = []string{opts.Placeholder}
		}
		if slices.Equal(kept, p.Images) {
			continue
		}
		rep.Fixed++
		if len(kept) == 1 && kept[0] == opts.Placeholder {
			rep.Placeholdered++
		}

		if opts.DryRun {
			continue
		}
		p.Images = kept
		if err := r.SaveProduct(ctx, p); err != nil {
			return rep, fmt.Errorf("save product %s: %w", p.ID, err)
		}
		sinks.productChanged(ctx, l, "product_updated", p)
	}
	return rep, nil
}

func (o ImageOptions) exists(img string) bool {
	img = strings.TrimSpace(img)
	if img == "" || !strings.HasPrefix(img, "/") {
		return false
	}
	if img == o.Placeholder {
		return true
	}

	base := o.PublicDir
	rel := strings.TrimPrefix(img, "/")
	if o.UploadDir != "" && strings.HasPrefix(img, "/uploads/") {
		base = o.UploadDir
		rel = strings.TrimPrefix(img, "/uploads/")
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == "." || strings.HasPrefix(clean, "..") {
		return false
	}
	info, err := os.Stat(filepath.Join(base, clean))
	return err == nil && !info.IsDir()
}
