package store

import (
	"context"
	"database/sql"
	"time"

	dErrors "odontoforense/pkg/domain-errors"
	txcontext "odontoforense/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// PostgresTx runs a callback inside one SQL transaction. The transaction is
// bound into the context so every store touched by the callback joins it;
// this is what makes the case-delete cascade atomic.
type PostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresTx(db *sql.DB) *PostgresTx {
	return &PostgresTx{db: db}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
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

	return tx.Commit()
}

// InMemoryTx is the in-process stand-in: a coarse lock giving the callback
// exclusive access, which is all the memory stores need for atomicity.
type InMemoryTx struct {
	mu chan struct{}
}

func NewInMemoryTx() *InMemoryTx {
	t := &InMemoryTx{mu: make(chan struct{}, 1)}
	t.mu <- struct{}{}
	return t
}

func (t *InMemoryTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	select {
	case <-t.mu:
	case <-ctx.Done():
		return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	defer func() { t.mu <- struct{}{} }()
	return fn(ctx)
}
