package repository

import (
	"context"
	"database/sql"
)

// withTx runs fn inside one transaction, committing when fn returns nil and
// rolling back on any error or panic.  fn's error is returned unchanged so
// sentinel errors survive; begin/commit failures become StoreErrors.  A panic
// is re-raised after the rollback.
func withTx(ctx context.Context, db *sql.DB, op string, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(op, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return storeErr(op, err)
	}
	return nil
}
