package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"odontoforense/internal/victim/models"
	id "odontoforense/pkg/domain"
	"odontoforense/pkg/platform/sentinel"
	"odontoforense/pkg/platform/tx"
)

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// execer returns the transaction bound to ctx if one is present, so victim
// writes join the case-delete cascade transaction.
func (s *Postgres) execer(ctx context.Context) dbtx {
	if t := tx.From(ctx); t != nil {
		return t
	}
	return s.db
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Postgres) Create(ctx context.Context, v *models.Victim) error {
	query := `
		INSERT INTO victims
			(id, case_id, victim_code, identification_status, name, sex, estimated_age, ethnicity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		v.ID.String(), v.CaseID.String(), v.VictimCode,
		v.IdentificationStatus.String(), nullable(v.Name), nullable(string(v.Sex)),
		nullableInt(v.EstimatedAge), nullable(v.Ethnicity), v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("insert victim: %w", err)
	}
	return nil
}

const victimColumns = `
	id, case_id, victim_code, identification_status,
	COALESCE(name, ''), COALESCE(sex, ''), COALESCE(estimated_age, 0),
	COALESCE(ethnicity, ''), created_at, updated_at`

func (s *Postgres) FindByID(ctx context.Context, victimID id.VictimID) (*models.Victim, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT`+victimColumns+` FROM victims WHERE id = $1`, victimID.String())
	v, err := scanVictim(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find victim: %w", err)
	}
	return v, nil
}

// CaseOf resolves a victim to its owning case.
func (s *Postgres) CaseOf(ctx context.Context, victimID id.VictimID) (id.CaseID, error) {
	var raw string
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT case_id FROM victims WHERE id = $1`, victimID.String()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return id.CaseID{}, sentinel.ErrNotFound
	}
	if err != nil {
		return id.CaseID{}, fmt.Errorf("resolve victim case: %w", err)
	}
	return id.ParseCaseID(raw)
}

func (s *Postgres) ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.Victim, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT`+victimColumns+` FROM victims WHERE case_id = $1 ORDER BY created_at`, caseID.String())
	if err != nil {
		return nil, fmt.Errorf("list victims: %w", err)
	}
	defer rows.Close()

	var out []*models.Victim
	for rows.Next() {
		v, err := scanVictim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan victim: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Postgres) Update(ctx context.Context, v *models.Victim) error {
	query := `
		UPDATE victims
		SET victim_code = $1, identification_status = $2, name = $3, sex = $4,
		    estimated_age = $5, ethnicity = $6, updated_at = $7
		WHERE id = $8
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		v.VictimCode, v.IdentificationStatus.String(), nullable(v.Name),
		nullable(string(v.Sex)), nullableInt(v.EstimatedAge), nullable(v.Ethnicity),
		v.UpdatedAt, v.ID.String(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("update victim: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update victim: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, victimID id.VictimID) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM victims WHERE id = $1`, victimID.String())
	if err != nil {
		return fmt.Errorf("delete victim: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete victim: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) DeleteByCase(ctx context.Context, caseID id.CaseID) (int, error) {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM victims WHERE case_id = $1`, caseID.String())
	if err != nil {
		return 0, fmt.Errorf("delete victims by case: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete victims by case: %w", err)
	}
	return int(affected), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVictim(row rowScanner) (*models.Victim, error) {
	var v models.Victim
	var victimID, caseID, status, sex string
	if err := row.Scan(
		&victimID, &caseID, &v.VictimCode, &status,
		&v.Name, &sex, &v.EstimatedAge, &v.Ethnicity,
		&v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		return nil, err
	}
	parsedID, err := id.ParseVictimID(victimID)
	if err != nil {
		return nil, err
	}
	parsedCase, err := id.ParseCaseID(caseID)
	if err != nil {
		return nil, err
	}
	v.ID = parsedID
	v.CaseID = parsedCase
	v.IdentificationStatus = models.IdentificationStatus(status)
	v.Sex = models.Sex(sex)
	return &v, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
