package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/usersvc/internal/common"
	"github.com/dmitrijs2005/usersvc/internal/dbx"
	"github.com/dmitrijs2005/usersvc/internal/server/models"
)

const userColumns = `id, email, username, hashed_password, full_name, is_active, is_superuser, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u         models.User
		fullName  sql.NullString
		updatedAt sql.NullTime
	)

	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.HashedPassword, &fullName,
		&u.IsActive, &u.IsSuperuser, &u.CreatedAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if fullName.Valid {
		u.FullName = &fullName.String
	}
	if updatedAt.Valid {
		u.UpdatedAt = &updatedAt.Time
	}
	return &u, nil
}

// wrapErr maps driver errors onto repository errors.
func wrapErr(err error) error {
	if dbx.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, dbx.ConstraintName(err))
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr(err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *PostgresRepository) List(ctx context.Context, skip, limit int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, skip)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	result := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrapErr(err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err)
	}

	return result, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, username, hashed_password, full_name, is_active, is_superuser)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING ` + userColumns

	created, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.Email, user.Username, user.HashedPassword, user.FullName, user.IsActive, user.IsSuperuser))
	if err != nil {
		return nil, wrapErr(err)
	}

	return created, nil
}

// Update writes only the fields present in the change set and stamps
// updated_at. An empty change set performs no write.
func (r *PostgresRepository) Update(ctx context.Context, id int64, fields models.UserFields) (*models.User, error) {
	if fields.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if fields.Email != nil {
		add("email", *fields.Email)
	}
	if fields.Username != nil {
		add("username", *fields.Username)
	}
	if fields.FullName.Set {
		add("full_name", nullString(fields.FullName.Value))
	}
	if fields.HashedPassword != nil {
		add("hashed_password", *fields.HashedPassword)
	}
	if fields.IsActive != nil {
		add("is_active", *fields.IsActive)
	}
	if fields.IsSuperuser != nil {
		add("is_superuser", *fields.IsSuperuser)
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)

	return r.getOne(ctx, query, args...)
}

// Delete removes the user and returns the row as it was, or nil if there
// was no such user.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `DELETE FROM users WHERE id = $1 RETURNING `+userColumns, id)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
