package database

import (
	"context"

	"gorm.io/gorm"
)

// TxRunner runs a function inside one atomic unit. The SQL-backed
// implementation opens a database transaction and threads it through
// the context so every repository call inside fn joins it; fn's error
// rolls the whole unit back.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txContextKey struct{}

// WithTx runs fn inside a single PostgreSQL transaction.
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.PostgreSQL.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewTxContext(ctx, tx))
	})
}

// NewTxContext returns a context carrying tx so repository calls made
// with it join the transaction.
func NewTxContext(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// FromContext returns the transaction carried by ctx, or fallback when
// the caller is not running inside WithTx.
func FromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback
}

// InTx reports whether ctx carries a transaction. Steps that are only
// correct outside a shared transaction (such as a compensating write
// after a failure, which an aborted transaction would roll back anyway)
// check this before running.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txContextKey{}).(*gorm.DB)
	return ok
}

// NopTxRunner satisfies TxRunner without a database. Used with ledger
// implementations that carry their own atomicity (memory, Redis),
// where the reservation transaction's compensating release is the
// rollback mechanism.
type NopTxRunner struct{}

func (NopTxRunner) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
