package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"odontoforense/internal/identity/models"
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const userColumns = ` id, name, email, role, password_hash, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, name, email, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		u.ID.String(), u.Name, u.Email, u.Role.String(), u.PasswordHash,
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT`+userColumns+` FROM users WHERE id = $1`, userID.String())
	return scanUser(row)
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT`+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (s *Postgres) SearchEligible(ctx context.Context, query string) ([]*models.User, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT`+userColumns+`
		FROM users
		WHERE role IN ($1, $2)
		  AND ($3 = '' OR name ILIKE '%' || $3 || '%' OR email ILIKE '%' || $3 || '%')
		ORDER BY name
	`, id.RolePerito.String(), id.RoleAssistente.String(), query)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var userID, role string
	if err := row.Scan(&userID, &u.Name, &u.Email, &role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	parsedID, err := id.ParseUserID(userID)
	if err != nil {
		return nil, err
	}
	parsedRole, err := id.ParseRole(role)
	if err != nil {
		return nil, err
	}
	u.ID = parsedID
	u.Role = parsedRole
	return &u, nil
}
