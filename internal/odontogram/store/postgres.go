package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"odontoforense/internal/odontogram/models"
	id "odontoforense/pkg/domain"
	"odontoforense/pkg/platform/sentinel"
	"odontoforense/pkg/platform/tx"
)

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres stores charts with the 32 tooth findings in a JSONB column; a
// partial unique index on (victim_id) WHERE type = 'post_mortem' enforces
// post-mortem uniqueness.
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Postgres) Create(ctx context.Context, o *models.Odontogram) error {
	teeth, err := json.Marshal(o.Teeth)
	if err != nil {
		return fmt.Errorf("marshal teeth: %w", err)
	}
	query := `
		INSERT INTO odontograms
			(id, victim_id, case_id, type, examination_date, general_observations,
			 summary_for_identification, teeth, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		o.ID.String(), o.VictimID.String(), o.CaseID.String(), o.Type.String(),
		o.ExaminationDate, nullable(o.GeneralObservations),
		nullable(o.SummaryForIdentification), teeth, o.Version, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("insert odontogram: %w", err)
	}
	return nil
}

const chartColumns = `
	id, victim_id, case_id, type, examination_date,
	COALESCE(general_observations, ''), COALESCE(summary_for_identification, ''),
	teeth, version, created_at, updated_at`

func (s *Postgres) FindByID(ctx context.Context, chartID id.OdontogramID) (*models.Odontogram, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT`+chartColumns+` FROM odontograms WHERE id = $1`, chartID.String())
	o, err := scanChart(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find odontogram: %w", err)
	}
	return o, nil
}

func (s *Postgres) ListByVictim(ctx context.Context, victimID id.VictimID) ([]*models.Odontogram, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT`+chartColumns+` FROM odontograms WHERE victim_id = $1 ORDER BY created_at`,
		victimID.String())
	if err != nil {
		return nil, fmt.Errorf("list odontograms: %w", err)
	}
	defer rows.Close()

	var out []*models.Odontogram
	for rows.Next() {
		o, err := scanChart(rows)
		if err != nil {
			return nil, fmt.Errorf("scan odontogram: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Postgres) PostMortemOf(ctx context.Context, victimID id.VictimID) (*id.OdontogramID, error) {
	var raw string
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT id FROM odontograms WHERE victim_id = $1 AND type = $2`,
		victimID.String(), models.TypePostMortem.String()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post-mortem odontogram: %w", err)
	}
	parsed, err := id.ParseOdontogramID(raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func (s *Postgres) Update(ctx context.Context, o *models.Odontogram) error {
	teeth, err := json.Marshal(o.Teeth)
	if err != nil {
		return fmt.Errorf("marshal teeth: %w", err)
	}
	query := `
		UPDATE odontograms
		SET examination_date = $1, general_observations = $2,
		    summary_for_identification = $3, teeth = $4,
		    version = version + 1, updated_at = $5
		WHERE id = $6 AND version = $7
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		o.ExaminationDate, nullable(o.GeneralObservations),
		nullable(o.SummaryForIdentification), teeth, o.UpdatedAt,
		o.ID.String(), o.Version,
	)
	if err != nil {
		return fmt.Errorf("update odontogram: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update odontogram: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := s.execer(ctx).QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM odontograms WHERE id = $1)`, o.ID.String()).Scan(&exists); err != nil {
			return fmt.Errorf("update odontogram: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	o.Version++
	return nil
}

func (s *Postgres) Delete(ctx context.Context, chartID id.OdontogramID) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM odontograms WHERE id = $1`, chartID.String())
	if err != nil {
		return fmt.Errorf("delete odontogram: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete odontogram: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) DeleteByVictim(ctx context.Context, victimID id.VictimID) (int, error) {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM odontograms WHERE victim_id = $1`, victimID.String())
	if err != nil {
		return 0, fmt.Errorf("delete odontograms by victim: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete odontograms by victim: %w", err)
	}
	return int(affected), nil
}

func (s *Postgres) DeleteByCase(ctx context.Context, caseID id.CaseID) (int, error) {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM odontograms WHERE case_id = $1`, caseID.String())
	if err != nil {
		return 0, fmt.Errorf("delete odontograms by case: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete odontograms by case: %w", err)
	}
	return int(affected), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChart(row rowScanner) (*models.Odontogram, error) {
	var o models.Odontogram
	var chartID, victimID, caseID, chartType string
	var teeth []byte
	if err := row.Scan(
		&chartID, &victimID, &caseID, &chartType, &o.ExaminationDate,
		&o.GeneralObservations, &o.SummaryForIdentification,
		&teeth, &o.Version, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	parsedID, err := id.ParseOdontogramID(chartID)
	if err != nil {
		return nil, err
	}
	parsedVictim, err := id.ParseVictimID(victimID)
	if err != nil {
		return nil, err
	}
	parsedCase, err := id.ParseCaseID(caseID)
	if err != nil {
		return nil, err
	}
	o.ID = parsedID
	o.VictimID = parsedVictim
	o.CaseID = parsedCase
	o.Type = models.ChartType(chartType)
	if err := json.Unmarshal(teeth, &o.Teeth); err != nil {
		return nil, fmt.Errorf("unmarshal teeth: %w", err)
	}
	return &o, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
