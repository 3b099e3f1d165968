package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"odontoforense/internal/evidence/models"
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

func (s *Postgres) execer(ctx context.Context) dbtx {
	if t := tx.From(ctx); t != nil {
		return t
	}
	return s.db
}

const evidenceColumns = `
	id, case_id, title, COALESCE(description, ''), type, data,
	COALESCE(category, ''), collected_by, latitude, longitude,
	created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, e *models.Evidence) error {
	lat, lon := locationColumns(e.Location)
	query := `
		INSERT INTO evidences
			(id, case_id, title, description, type, data, category,
			 collected_by, latitude, longitude, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		e.ID.String(), e.CaseID.String(), e.Title, nullable(e.Description),
		string(e.Type), e.Data, nullable(e.Category), e.CollectedBy.String(),
		lat, lon, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert evidence: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, evidenceID id.EvidenceID) (*models.Evidence, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT`+evidenceColumns+` FROM evidences WHERE id = $1`, evidenceID.String())
	e, err := scanEvidence(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find evidence: %w", err)
	}
	return e, nil
}

// FindByIDs resolves a batch of evidence items, failing with not-found when
// any requested ID is missing.
func (s *Postgres) FindByIDs(ctx context.Context, ids []id.EvidenceID) ([]*models.Evidence, error) {
	out := make([]*models.Evidence, 0, len(ids))
	for _, evidenceID := range ids {
		e, err := s.FindByID(ctx, evidenceID)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Postgres) ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.Evidence, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT`+evidenceColumns+` FROM evidences WHERE case_id = $1 ORDER BY created_at`, caseID.String())
	if err != nil {
		return nil, fmt.Errorf("list evidences: %w", err)
	}
	defer rows.Close()

	var out []*models.Evidence
	for rows.Next() {
		e, err := scanEvidence(rows)
		if err != nil {
			return nil, fmt.Errorf("scan evidence: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Postgres) Update(ctx context.Context, e *models.Evidence) error {
	lat, lon := locationColumns(e.Location)
	query := `
		UPDATE evidences
		SET title = $1, description = $2, type = $3, data = $4, category = $5,
		    latitude = $6, longitude = $7, updated_at = $8
		WHERE id = $9
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		e.Title, nullable(e.Description), string(e.Type), e.Data,
		nullable(e.Category), lat, lon, e.UpdatedAt, e.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update evidence: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update evidence: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, evidenceID id.EvidenceID) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM evidences WHERE id = $1`, evidenceID.String())
	if err != nil {
		return fmt.Errorf("delete evidence: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete evidence: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) DeleteByCase(ctx context.Context, caseID id.CaseID) (int, error) {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM evidences WHERE case_id = $1`, caseID.String())
	if err != nil {
		return 0, fmt.Errorf("delete evidences by case: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete evidences by case: %w", err)
	}
	return int(affected), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvidence(row rowScanner) (*models.Evidence, error) {
	var e models.Evidence
	var evidenceID, caseID, evidenceType, collectedBy string
	var lat, lon sql.NullFloat64
	if err := row.Scan(
		&evidenceID, &caseID, &e.Title, &e.Description, &evidenceType,
		&e.Data, &e.Category, &collectedBy, &lat, &lon,
		&e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	parsedID, err := id.ParseEvidenceID(evidenceID)
	if err != nil {
		return nil, err
	}
	parsedCase, err := id.ParseCaseID(caseID)
	if err != nil {
		return nil, err
	}
	parsedCollector, err := id.ParseUserID(collectedBy)
	if err != nil {
		return nil, err
	}
	e.ID = parsedID
	e.CaseID = parsedCase
	e.Type = models.EvidenceType(evidenceType)
	e.CollectedBy = parsedCollector
	if lat.Valid && lon.Valid {
		e.Location = &models.Location{Latitude: lat.Float64, Longitude: lon.Float64}
	}
	return &e, nil
}

func locationColumns(loc *models.Location) (any, any) {
	if loc == nil {
		return nil, nil
	}
	return loc.Latitude, loc.Longitude
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
