package service

import (
	"context"

	"gorm.io/gorm"
)

// runTx executes fn inside a database transaction. A nil db runs fn without
// one, which lets unit tests drive services against in-memory repositories.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}
