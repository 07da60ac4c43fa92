package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/bbn-nutrition/storefront/internal/config"
	"github.com/bbn-nutrition/storefront/internal/db"
	"github.com/bbn-nutrition/storefront/internal/events"
	"github.com/bbn-nutrition/storefront/internal/logging"
	"github.com/bbn-nutrition/storefront/internal/maintenance"
	"github.com/bbn-nutrition/storefront/internal/repo"
	"github.com/bbn-nutrition/storefront/internal/search"
)

type app struct {
	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "bbnctl",
		Short:         "Maintenance utilities for the BBN Nutrition storefront",
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.cfg = config.Load()
			a.logger = logging.New(a.cfg.LogLevel).With("service", "bbnctl", "command", cmd.Name())
		},
	}
	root.AddCommand(a.seedCmd(), a.fixImagesCmd(), a.fixAdminCmd(), a.fixDBCmd(), a.reindexCmd())
	return root
}

// withRepo opens the gorm connection used by the model-level utilities.
func (a *app) withRepo(ctx context.Context, fn func(*repo.GormRepo) error) error {
	gdb, err := db.Open(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func(g *gorm.DB) {
		if err := db.Close(g); err != nil {
			a.logger.Warn("db_close_error", "error", err)
		}
	}(gdb)

	if err := db.Migrate(gdb); err != nil {
		return err
	}
	return fn(repo.New(gdb))
}

// sinks connects to Elasticsearch and Kafka when they are configured so
// product writes reach the index and event consumers.
func (a *app) sinks() (maintenance.Sinks, func()) {
	var sinks maintenance.Sinks
	cleanup := func() {}

	if a.cfg.ESURL != "" {
		es, err := search.NewElastic(search.Config{URL: a.cfg.ESURL, User: a.cfg.ESUser, Password: a.cfg.ESPassword, Index: a.cfg.ESIndex})
		if err != nil {
			a.logger.Warn("elasticsearch unavailable, index not updated", "error", err)
		} else {
			sinks.Index = es
		}
	}
	if len(a.cfg.KafkaBrokers) > 0 {
		kafka, err := events.NewKafkaProducer(a.cfg.KafkaBrokers)
		if err != nil {
			a.logger.Warn("kafka unavailable, events not published", "error", err)
		} else {
			sinks.Events = kafka
			cleanup = func() {
				if err := kafka.Close(); err != nil {
					a.logger.Warn("kafka_close_error", "error", err)
				}
			}
		}
	}
	return sinks, cleanup
}

func (a *app) reindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Push every product into the Elasticsearch index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			config.MustNonEmpty(a.cfg.ESURL, "ES_URL")
			es, err := search.NewElastic(search.Config{URL: a.cfg.ESURL, User: a.cfg.ESUser, Password: a.cfg.ESPassword, Index: a.cfg.ESIndex})
			if err != nil {
				return err
			}
			return a.withRepo(cmd.Context(), func(r *repo.GormRepo) error {
				n, err := maintenance.Reindex(cmd.Context(), r, es, a.logger)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "indexed %d products\n", n)
				return nil
			})
		},
	}
}

func (a *app) seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert categories and products from a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sf, err := maintenance.LoadSeedFile(file)
			if err != nil {
				return err
			}
			return a.withRepo(cmd.Context(), func(r *repo.GormRepo) error {
				sinks, cleanup := a.sinks()
				defer cleanup()
				rep, err := maintenance.Seed(cmd.Context(), r, sf, sinks, a.logger)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "categories: %d created, %d updated\nproducts: %d created, %d updated\n",
					rep.CategoriesCreated, rep.CategoriesUpdated, rep.ProductsCreated, rep.ProductsUpdated)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "products.yaml", "seed file")
	return cmd
}

func (a *app) fixImagesCmd() *cobra.Command {
	var opts maintenance.ImageOptions
	cmd := &cobra.Command{
		Use:   "fix-images",
		Short: "Drop broken product image paths and fill in the placeholder",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.PublicDir == "" {
				opts.PublicDir = a.cfg.PublicDir
			}
			if opts.UploadDir == "" {
				opts.UploadDir = a.cfg.UploadDir
			}
			if opts.Placeholder == "" {
				opts.Placeholder = a.cfg.PlaceholderImage
			}
			return a.withRepo(cmd.Context(), func(r *repo.GormRepo) error {
				sinks, cleanup := a.sinks()
				defer cleanup()
				rep, err := maintenance.FixImages(cmd.Context(), r, opts, sinks, a.logger)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "scanned %d products, fixed %d, removed %d images, %d now use the placeholder (dry run: %t)\n",
					rep.Scanned, rep.Fixed, rep.Removed, rep.Placeholdered, opts.DryRun)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.PublicDir, "public-dir", "", "directory served as the site root (default $PUBLIC_DIR)")
	cmd.Flags().StringVar(&opts.UploadDir, "upload-dir", "", "directory behind /uploads/ (default $UPLOAD_DIR)")
	cmd.Flags().StringVar(&opts.Placeholder, "placeholder", "", "placeholder image path (default $PLACEHOLDER_IMAGE)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report without writing")
	return cmd
}

func (a *app) fixAdminCmd() *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "fix-admin",
		Short: "Create or repair the admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRepo(cmd.Context(), func(r *repo.GormRepo) error {
				rep, err := maintenance.FixAdmin(cmd.Context(), r, email, password, name, a.logger)
				if err != nil {
					return err
				}
				verb := "updated"
				if rep.Created {
					verb = "created"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "admin %s %s\n", rep.UserID, verb)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) fixDBCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "fix-db",
		Short: "Run raw SQL data repairs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			config.MustNonEmpty(a.cfg.DatabaseURL, "DATABASE_URL")

			sqlDB, err := sql.Open("postgres", a.cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer sqlDB.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			if err := sqlDB.PingContext(ctx); err != nil {
				return fmt.Errorf("ping db: %w", err)
			}

			rep, err := maintenance.FixDB(ctx, sqlDB, dryRun, a.logger)
			if err != nil {
				return err
			}
			for _, name := range slices.Sorted(maps.Keys(rep.Repairs)) {
				fmt.Fprintf(cmd.OutOrStdout(), "%-28s %d\n", name, rep.Repairs[name])
			}
			if rep.EmailCollisions > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%-28s %d (skipped, fix by hand)\n", "email_collisions", rep.EmailCollisions)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "total rows: %d (dry run: %t)\n", rep.Total(), dryRun)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "count affected rows without writing")
	return cmd
}
