package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying handle via `tx`. Repository methods accept a nil Tx
// for the non-transactional path; inside WithTx they receive the concrete
// pgx.Tx and may use SELECT ... FOR UPDATE.
//
// The IPN reconciler depends on this: the already-completed check and the
// balance credit must observe and mutate the same persisted state.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
