package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying handle via `tx`. Every mutating escrow/voucher
// operation runs as one WithTx unit: either all of its record writes (and
// any token transfer issued inside the callback) take effect, or none do.
//
// Repositories accept `tx Tx` and must gracefully accept nil (the
// non-transactional read path). The concrete type is infra-defined
// (pgx.Tx for Postgres).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
