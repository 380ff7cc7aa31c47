// Package services contains server-side business logic. Every operation
// runs as one unit of work: a transaction opened with dbx.InTx, with
// repositories obtained from the registry bound to that transaction.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/usersvc/internal/common"
	"github.com/dmitrijs2005/usersvc/internal/cryptox"
	"github.com/dmitrijs2005/usersvc/internal/dbx"
	"github.com/dmitrijs2005/usersvc/internal/server/auth"
	"github.com/dmitrijs2005/usersvc/internal/server/config"
	"github.com/dmitrijs2005/usersvc/internal/server/models"
	"github.com/dmitrijs2005/usersvc/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/usersvc/internal/server/repositories/users"
)

// UserService provides account management and authentication.
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	hasher                      cryptox.Hasher
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, h cryptox.Hasher, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		hasher:                      h,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// Create registers a regular account. The password is stored only as a hash.
// Duplicate email or username yields common.ErrorAlreadyExists.
func (s *UserService) Create(ctx context.Context, in models.UserCreate) (*models.User, error) {
	return s.create(ctx, in, false)
}

// CreateSuperuser registers an account with administrative rights.
func (s *UserService) CreateSuperuser(ctx context.Context, in models.UserCreate) (*models.User, error) {
	return s.create(ctx, in, true)
}

func (s *UserService) create(ctx context.Context, in models.UserCreate, superuser bool) (*models.User, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		repo := s.repomanager.Users(tx)

		if err := checkUnique(ctx, repo, &in.Email, &in.Username, 0); err != nil {
			return nil, err
		}

		u, err := repo.Create(ctx, &models.User{
			Email:          in.Email,
			Username:       in.Username,
			HashedPassword: hash,
			FullName:       in.FullName,
			IsActive:       true,
			IsSuperuser:    superuser,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating user: %w", err)
		}
		return u, nil
	})
}

// checkUnique rejects an email or username already held by a user other
// than self. Nil values are not checked.
func checkUnique(ctx context.Context, repo users.Repository, email, username *string, self int64) error {
	if email != nil {
		u, err := repo.GetByEmail(ctx, *email)
		if err != nil {
			return err
		}
		if u != nil && u.ID != self {
			return fmt.Errorf("%w: email already registered", common.ErrorAlreadyExists)
		}
	}
	if username != nil {
		u, err := repo.GetByUsername(ctx, *username)
		if err != nil {
			return err
		}
		if u != nil && u.ID != self {
			return fmt.Errorf("%w: username already taken", common.ErrorAlreadyExists)
		}
	}
	return nil
}

// Get returns the user with the given id, or nil if there is none.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	return dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		return s.repomanager.Users(tx).GetByID(ctx, id)
	})
}

// GetByEmail returns the user with the given email, or nil.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		return s.repomanager.Users(tx).GetByEmail(ctx, email)
	})
}

// GetByUsername returns the user with the given username, or nil.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		return s.repomanager.Users(tx).GetByUsername(ctx, username)
	})
}

// List returns a page of users ordered by id. Negative skip and limit count
// as 0; a zero limit yields an empty page.
func (s *UserService) List(ctx context.Context, skip, limit int) ([]*models.User, error) {
	skip = max(skip, 0)
	limit = max(limit, 0)
	return dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) ([]*models.User, error) {
		return s.repomanager.Users(tx).List(ctx, skip, limit)
	})
}

// Update applies the fields present in in. A new password is hashed before
// it is stored. An explicit null full name clears it. An empty update
// writes nothing and returns the current user. Returns nil if the user does
// not exist.
func (s *UserService) Update(ctx context.Context, id int64, in models.UserUpdate) (*models.User, error) {
	if in.IsEmpty() {
		return s.Get(ctx, id)
	}

	fields := models.UserFields{
		Email:    in.Email,
		Username: in.Username,
		FullName: in.FullName,
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("error updating user: %w", err)
		}
		fields.HashedPassword = &hash
	}

	return dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		repo := s.repomanager.Users(tx)

		current, err := repo.GetByID(ctx, id)
		if err != nil || current == nil {
			return nil, err
		}

		if err := checkUnique(ctx, repo, changed(fields.Email, current.Email), changed(fields.Username, current.Username), id); err != nil {
			return nil, err
		}

		u, err := repo.Update(ctx, id, fields)
		if err != nil {
			return nil, fmt.Errorf("error updating user: %w", err)
		}
		return u, nil
	})
}

func changed(next *string, current string) *string {
	if next == nil || *next == current {
		return nil
	}
	return next
}

// Delete removes the user and returns it, or nil if it did not exist.
func (s *UserService) Delete(ctx context.Context, id int64) (*models.User, error) {
	return dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		return s.repomanager.Users(tx).Delete(ctx, id)
	})
}

// Authenticate returns the user when password matches the stored hash.
// An unknown username and a wrong password both yield (nil, nil).
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil || !s.hasher.Verify(u.HashedPassword, password) {
		return nil, nil
	}
	return u, nil
}

// Login authenticates the credentials and issues a bearer token.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.Token, error) {
	u, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if u == nil {
		return nil, common.ErrorUnauthorized
	}
	if !u.IsActive {
		return nil, common.ErrorInactiveUser
	}

	token, err := auth.GenerateToken(u.ID, u.Username, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &models.Token{AccessToken: token, TokenType: common.BearerScheme}, nil
}

// UserFromToken resolves the user a bearer token was issued for.
func (s *UserService) UserFromToken(ctx context.Context, token string) (*models.User, error) {
	id, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, common.ErrorUnauthorized
	}
	return u, nil
}
