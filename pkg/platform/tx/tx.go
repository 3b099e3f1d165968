// Package tx carries an open SQL transaction through context so that
// several stores can join the same unit of work. The case cascade delete
// relies on this: one transaction spans the case, victim, odontogram and
// evidence tables.
package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx returns a context carrying the transaction. A nil transaction
// leaves the context unchanged.
func WithTx(ctx context.Context, t *sql.Tx) context.Context {
	if t == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, t)
}

// From returns the transaction carried by the context, or nil when the
// caller is not inside one. Stores fall back to their plain DB handle in
// that case.
func From(ctx context.Context) *sql.Tx {
	t, _ := ctx.Value(txKey).(*sql.Tx)
	return t
}
