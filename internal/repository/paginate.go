package repository

import (
	"context"
	"database/sql"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/project-archive/internal/query"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// paginate runs the count and page statements derived from sel concurrently
// on the pool and waits for both.  A failure of either fails the call.
func paginate[T any](ctx context.Context, db *sql.DB, op string, sel *query.Select, p query.Page, scan func(rowScanner) (T, error)) ([]T, int64, error) {
	countSQL, countArgs := sel.Count()
	pageSQL, pageArgs := sel.Page(p)

	var (
		total int64
		out   = []T{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return db.QueryRowContext(gctx, countSQL, countArgs...).Scan(&total)
	})
	g.Go(func() error {
		rows, err := db.QueryContext(gctx, pageSQL, pageArgs...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			v, err := scan(rows)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return rows.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, 0, storeErr(op, err)
	}
	return out, total, nil
}
