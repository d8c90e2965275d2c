package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tubeauth/internal/common"
	"github.com/dmitrijs2005/tubeauth/internal/dbx"
	"github.com/dmitrijs2005/tubeauth/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, username, email, full_name, password_hash, refresh_token, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var refresh sql.NullString
	err := row.Scan(&u.ID, &u.UserName, &u.Email, &u.FullName, &u.PasswordHash, &refresh, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if refresh.Valid {
		u.RefreshToken = &refresh.String
	}
	return u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (id, username, email, full_name, password_hash)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at
		 `

	id := uuid.NewString()
	err := r.db.QueryRowContext(ctx, query,
		id, user.UserName, user.Email, user.FullName, user.PasswordHash).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: user with email or username", common.ErrorConflict)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.ID = id
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	// ids that are not UUIDs cannot exist; don't let Postgres reject the cast
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByUsernameOrEmail(ctx context.Context, userName, email string) (*models.User, error) {
	if userName == "" && email == "" {
		return nil, common.ErrorNotFound
	}

	query := `SELECT ` + userColumns + ` FROM users
		 WHERE ($1 <> '' AND username = $1) OR ($2 <> '' AND email = $2)
		 LIMIT 1`
	return scanUser(r.db.QueryRowContext(ctx, query, userName, email))
}

func (r *PostgresRepository) GetRefreshToken(ctx context.Context, id string) (*string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	var token sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT refresh_token FROM users WHERE id = $1`, id).Scan(&token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if !token.Valid {
		return nil, nil
	}
	return &token.String, nil
}

func (r *PostgresRepository) SetRefreshToken(ctx context.Context, id string, token *string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}

	query :=
		`UPDATE users SET refresh_token = $2, updated_at = now()
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, token)
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}

	query :=
		`UPDATE users SET password_hash = $2, updated_at = now()
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, hash)
}

func (r *PostgresRepository) UpdateAccount(ctx context.Context, id string, fullName, email *string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	query := `UPDATE users
		 SET full_name = COALESCE($2, full_name), email = COALESCE($3, email), updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRowContext(ctx, query, id, fullName, email))
	if err != nil && dbx.IsUniqueViolation(err) {
		return nil, fmt.Errorf("%w: user with email", common.ErrorConflict)
	}
	return u, err
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
