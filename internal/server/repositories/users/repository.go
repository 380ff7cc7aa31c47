// Package users provides persistence for user accounts.
//
// Lookups that find nothing return (nil, nil): absence is a normal result,
// not an error.
package users

import (
	"context"

	"github.com/dmitrijs2005/usersvc/internal/server/models"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// List returns users ordered by id ascending.
	List(ctx context.Context, skip, limit int) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, id int64, fields models.UserFields) (*models.User, error)
	Delete(ctx context.Context, id int64) (*models.User, error)
}
