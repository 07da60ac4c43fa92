package maintenance

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

type repair struct {
	name  string
	count string
	fix   string
}

const (
	emailDirty     = `email <> LOWER(TRIM(email))`
	emailCollision = `EXISTS (SELECT 1 FROM users other WHERE other.id <> users.id AND LOWER(TRIM(other.email)) = LOWER(TRIM(users.email)))`
)

const categoryCount = `(SELECT COUNT(*) FROM products p WHERE LOWER(p.category) = LOWER(categories.name))`

// Plain SQL without placeholders so the same statements run on postgres and sqlite.
var repairs = []repair{
	{
		name:  "emails_normalized",
		count: `SELECT COUNT(*) FROM users WHERE ` + emailDirty + ` AND NOT ` + emailCollision,
		fix:   `UPDATE users SET email = LOWER(TRIM(email)) WHERE ` + emailDirty + ` AND NOT ` + emailCollision,
	},
	{
		name:  "negative_stock_clamped",
		count: `SELECT COUNT(*) FROM products WHERE stock_quantity < 0`,
		fix:   `UPDATE products SET stock_quantity = 0 WHERE stock_quantity < 0`,
	},
	{
		name:  "roles_defaulted",
		count: `SELECT COUNT(*) FROM users WHERE role IS NULL OR TRIM(role) = ''`,
		fix:   `UPDATE users SET role = 'user' WHERE role IS NULL OR TRIM(role) = ''`,
	},
	{
		name:  "category_counts_recomputed",
		count: `SELECT COUNT(*) FROM categories WHERE product_count <> ` + categoryCount,
		fix:   `UPDATE categories SET product_count = ` + categoryCount + ` WHERE product_count <> ` + categoryCount,
	},
	{
		name:  "orphan_cart_lines_dropped",
		count: `SELECT COUNT(*) FROM cart_items WHERE product_id NOT IN (SELECT id FROM products)`,
		fix:   `DELETE FROM cart_items WHERE product_id NOT IN (SELECT id FROM products)`,
	},
}

// DBReport maps each repair to the number of rows it touched (or would
// touch on a dry run).
type DBReport struct {
	DryRun  bool
	Repairs map[string]int64
	// EmailCollisions counts accounts left untouched because normalising
	// their email would clash with another account.
	EmailCollisions int64
}

func (r *DBReport) Total() int64 {
	var n int64
	for _, v := range r.Repairs {
		n += v
	}
	return n
}

// FixDB runs all repairs in one transaction. A dry run only counts.
func FixDB(ctx context.Context, db *sql.DB, dryRun bool, l *slog.Logger) (*DBReport, error) {
	rep := &DBReport{DryRun: dryRun, Repairs: make(map[string]int64, len(repairs))}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE `+emailDirty+` AND `+emailCollision).Scan(&rep.EmailCollisions)
	if err != nil {
		return nil, fmt.Errorf("email collisions: %w", err)
	}
	if rep.EmailCollisions > 0 {
		l.Warn("fix_db_email_collisions", "rows", rep.EmailCollisions)
	}

	for _, rp := range repairs {
		var n int64
		if dryRun {
			if err := tx.QueryRowContext(ctx, rp.count).Scan(&n); err != nil {
				return nil, fmt.Errorf("%s: %w", rp.name, err)
			}
		} else {
			res, err := tx.ExecContext(ctx, rp.fix)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", rp.name, err)
			}
			if n, err = res.RowsAffected(); err != nil {
				return nil, fmt.Errorf("%s: %w", rp.name, err)
			}
		}
		rep.Repairs[rp.name] = n
		l.Info("fix_db", "repair", rp.name, "rows", n, "dry_run", dryRun)
	}

	if dryRun {
		return rep, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return rep, nil
}
