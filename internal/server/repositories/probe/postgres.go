package probe

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/usersvc/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Hello(ctx context.Context) (string, error) {
	var msg string
	if err := r.db.QueryRowContext(ctx, `SELECT $1`, Greeting).Scan(&msg); err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return msg, nil
}
