package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"odontoforense/internal/casefile/models"
	id "odontoforense/pkg/domain"
	"odontoforense/pkg/platform/sentinel"
	txcontext "odontoforense/pkg/platform/tx"
)

// Postgres persists cases and team membership. Team members live in the
// case_team_members relation; the responsible expert stays on the case row
// (distinct, privileged relation).
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbtx {
	if tx := txcontext.From(ctx); tx != nil {
		return tx
	}
	return s.db
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Postgres) Create(ctx context.Context, c *models.Case) error {
	query := `
		INSERT INTO cases
			(id, name, description, status, location, category, occurred_at, responsible_expert, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		c.ID.String(), c.Name, c.Description, c.Status.String(), c.Location,
		c.Category.String(), c.OccurredAt, c.ResponsibleExpert.String(),
		c.Version, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), status, location, category,
		       occurred_at, responsible_expert, version, created_at, updated_at
		FROM cases
		WHERE id = $1
	`
	c, err := s.scanCase(s.execer(ctx).QueryRowContext(ctx, query, caseID.String()))
	if err != nil {
		return nil, err
	}
	team, err := s.loadTeam(ctx, caseID)
	if err != nil {
		return nil, err
	}
	c.Team = team
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Postgres) scanCase(row rowScanner) (*models.Case, error) {
	var (
		c                          models.Case
		cid, status, category, exp string
	)
	err := row.Scan(&cid, &c.Name, &c.Description, &status, &c.Location, &category,
		&c.OccurredAt, &exp, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan case: %w", err)
	}
	parsedID, err := id.ParseCaseID(cid)
	if err != nil {
		return nil, fmt.Errorf("case row has invalid id %q", cid)
	}
	expert, err := id.ParseUserID(exp)
	if err != nil {
		return nil, fmt.Errorf("case row has invalid responsible expert %q", exp)
	}
	c.ID = parsedID
	c.Status = models.CaseStatus(status)
	c.Category = models.CaseCategory(category)
	c.ResponsibleExpert = expert
	return &c, nil
}

func (s *Postgres) loadTeam(ctx context.Context, caseID id.CaseID) ([]id.UserID, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT member_id FROM case_team_members WHERE case_id = $1 ORDER BY added_at`,
		caseID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("load team: %w", err)
	}
	defer rows.Close()

	var team []id.UserID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		member, err := id.ParseUserID(raw)
		if err != nil {
			return nil, fmt.Errorf("team row has invalid member %q", raw)
		}
		team = append(team, member)
	}
	return team, rows.Err()
}

func (s *Postgres) List(ctx context.Context, filter models.ListFilter) ([]*models.Case, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), status, location, category,
		       occurred_at, responsible_expert, version, created_at, updated_at
		FROM cases
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR category = $2)
		  AND ($3 = '' OR name ILIKE '%' || $3 || '%')
		ORDER BY created_at DESC
		LIMIT CASE WHEN $4 > 0 THEN $4 ELSE NULL END
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query,
		filter.Status.String(), filter.Category.String(), filter.NameContains, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var out []*models.Case
	for rows.Next() {
		c, err := s.scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, c := range out {
		team, err := s.loadTeam(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		c.Team = team
	}
	return out, nil
}

// Update persists the mutable case columns with an optimistic version check.
func (s *Postgres) Update(ctx context.Context, c *models.Case) error {
	query := `
		UPDATE cases
		SET name = $1, description = $2, status = $3, location = $4,
		    category = $5, occurred_at = $6, version = version + 1, updated_at = $7
		WHERE id = $8 AND version = $9
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		c.Name, c.Description, c.Status.String(), c.Location,
		c.Category.String(), c.OccurredAt, c.UpdatedAt,
		c.ID.String(), c.Version,
	)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	if affected == 0 {
		// Either the row vanished or the version is stale.
		if _, findErr := s.FindByID(ctx, c.ID); errors.Is(findErr, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	c.Version++
	return nil
}

// Execute runs validate-then-mutate while holding a row lock, mirroring the
// in-memory store's semantics. Used for team membership edits.
func (s *Postgres) Execute(ctx context.Context, caseID id.CaseID, validate func(*models.Case) error, mutate func(*models.Case)) (*models.Case, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin execute: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	txCtx := txcontext.WithTx(ctx, tx)

	if _, err := tx.ExecContext(ctx, `SELECT id FROM cases WHERE id = $1 FOR UPDATE`, caseID.String()); err != nil {
		return nil, fmt.Errorf("lock case: %w", err)
	}

	c, err := s.FindByID(txCtx, caseID)
	if err != nil {
		return nil, err
	}
	before := append([]id.UserID{}, c.Team...)
	if err := validate(c); err != nil {
		return nil, err
	}
	mutate(c)

	if err := s.saveTeamDiff(txCtx, c, before); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE cases SET version = version + 1, updated_at = $1 WHERE id = $2`,
		c.UpdatedAt, caseID.String()); err != nil {
		return nil, fmt.Errorf("bump case version: %w", err)
	}
	c.Version++

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit execute: %w", err)
	}
	return c, nil
}

func (s *Postgres) saveTeamDiff(ctx context.Context, c *models.Case, before []id.UserID) error {
	prev := make(map[id.UserID]bool, len(before))
	for _, m := range before {
		prev[m] = true
	}
	next := make(map[id.UserID]bool, len(c.Team))
	for _, m := range c.Team {
		next[m] = true
		if !prev[m] {
			if _, err := s.execer(ctx).ExecContext(ctx,
				`INSERT INTO case_team_members (id, case_id, member_id, added_at) VALUES ($1, $2, $3, $4)`,
				uuid.NewString(), c.ID.String(), m.String(), time.Now()); err != nil {
				if isUniqueViolation(err) {
					return sentinel.ErrAlreadyExists
				}
				return fmt.Errorf("insert team member: %w", err)
			}
		}
	}
	for _, m := range before {
		if !next[m] {
			if _, err := s.execer(ctx).ExecContext(ctx,
				`DELETE FROM case_team_members WHERE case_id = $1 AND member_id = $2`,
				c.ID.String(), m.String()); err != nil {
				return fmt.Errorf("delete team member: %w", err)
			}
		}
	}
	return nil
}

// Delete removes the case row. Victim/odontogram/evidence rows are removed
// by their stores inside the same transaction; the service owns the ordering.
func (s *Postgres) Delete(ctx context.Context, caseID id.CaseID) error {
	if _, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM case_team_members WHERE case_id = $1`, caseID.String()); err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM cases WHERE id = $1`, caseID.String())
	if err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.execer(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM cases`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cases: %w", err)
	}
	return n, nil
}
