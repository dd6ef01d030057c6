package service

import (
	"context"

	"gorm.io/gorm"
)

// txRunner abstracts gorm's transaction entry point so services can be
// exercised without a live database.
type txRunner func(ctx context.Context, fn func(tx *gorm.DB) error) error

func gormTx(db *gorm.DB) txRunner {
	return func(ctx context.Context, fn func(tx *gorm.DB) error) error {
		return db.WithContext(ctx).Transaction(fn)
	}
}
