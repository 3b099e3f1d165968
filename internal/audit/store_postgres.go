package audit

import (
	"context"
	"database/sql"
	"fmt"

	id "odontoforense/pkg/domain"
	txcontext "odontoforense/pkg/platform/tx"
)

// PostgresStore materializes audit events for querying. Bootstrapped by the
// audit_events migration; the Kafka topic remains the long-term trail.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx := txcontext.From(ctx); tx != nil {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events
			(occurred_at, actor_id, actor_role, action, case_id, subject, decision, reason, request_id, client_ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	var actorID, caseID any
	if !event.ActorID.IsNil() {
		actorID = event.ActorID.String()
	}
	if !event.CaseID.IsNil() {
		caseID = event.CaseID.String()
	}
	_, err := s.execer(ctx).ExecContext(ctx, query,
		event.Timestamp,
		actorID,
		event.ActorRole.String(),
		string(event.Action),
		caseID,
		event.Subject,
		event.Decision,
		event.Reason,
		event.RequestID,
		event.ClientIP,
		event.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByCase(ctx context.Context, caseID id.CaseID) ([]Event, error) {
	query := `
		SELECT occurred_at, COALESCE(actor_id::text, ''), actor_role, action,
		       COALESCE(subject, ''), decision, COALESCE(reason, ''),
		       COALESCE(request_id, ''), COALESCE(client_ip, ''), COALESCE(user_agent, '')
		FROM audit_events
		WHERE case_id = $1
		ORDER BY occurred_at
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, caseID.String())
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e                     Event
			actorID, role, action string
		)
		if err := rows.Scan(&e.Timestamp, &actorID, &role, &action,
			&e.Subject, &e.Decision, &e.Reason,
			&e.RequestID, &e.ClientIP, &e.UserAgent); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if actorID != "" {
			if parsed, err := id.ParseUserID(actorID); err == nil {
				e.ActorID = parsed
			}
		}
		e.ActorRole = id.Role(role)
		e.Action = Action(action)
		e.CaseID = caseID
		events = append(events, e)
	}
	return events, rows.Err()
}
