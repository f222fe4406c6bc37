package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "serviapp/pkg/domain-errors"
	txcontext "serviapp/pkg/platform/tx"
)

const defaultApprovalTxTimeout = 5 * time.Second

// approvalPostgresTx runs the approval unit of work inside a single SQL
// transaction. The transaction rides the context, so the registration and
// provider stores join it without knowing a transaction is in flight.
type approvalPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newApprovalPostgresTx(db *sql.DB) *approvalPostgresTx {
	return &approvalPostgresTx{db: db}
}

func (t *approvalPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultApprovalTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}
