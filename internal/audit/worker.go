package audit

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	id "odontoforense/pkg/domain"
)

// Worker consumes audit events from a channel and appends them to one or
// more sinks. Domain services emit into the inbox without blocking on Kafka
// round trips.
type Worker struct {
	stores []Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(inbox <-chan Event, logger *slog.Logger, stores ...Store) *Worker {
	return &Worker{stores: stores, inbox: inbox, logger: logger}
}

// Run drains the inbox until the context is cancelled. Each event is fanned
// out to every sink; a failing sink is logged and does not block the others.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			g, gctx := errgroup.WithContext(ctx)
			for _, store := range w.stores {
				g.Go(func() error {
					return store.Append(gctx, event)
				})
			}
			if err := g.Wait(); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", string(event.Action),
					"error", err,
				)
			}
		}
	}
}

// ChannelStore adapts an inbox channel to the Store interface so services
// publish through the same Publisher regardless of sink.
type ChannelStore struct {
	inbox chan<- Event
}

func NewChannelStore(inbox chan<- Event) *ChannelStore {
	return &ChannelStore{inbox: inbox}
}

func (s *ChannelStore) Append(ctx context.Context, event Event) error {
	select {
	case s.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ListByCase is unsupported on the write-side channel adapter; query the
// materialized store instead.
func (s *ChannelStore) ListByCase(context.Context, id.CaseID) ([]Event, error) {
	return nil, fmt.Errorf("channel audit store is write-only")
}
