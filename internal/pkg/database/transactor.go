package database

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Transactor runs fn atomically. Repositories called with the ctx passed to fn
// join the same transaction; a nested WithinTx reuses the outer one.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// ContextWithTx stores tx so repositories pick it up through GetQuerier
func ContextWithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the transaction stored in ctx, if any
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}
