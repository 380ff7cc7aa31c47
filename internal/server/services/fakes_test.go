package services

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/usersvc/internal/dbx"
	"github.com/dmitrijs2005/usersvc/internal/server/config"
	"github.com/dmitrijs2005/usersvc/internal/server/models"
	"github.com/dmitrijs2005/usersvc/internal/server/repositories/probe"
	"github.com/dmitrijs2005/usersvc/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                   "k",
		AccessTokenValidityDuration: time.Hour,
	}
}

// plainHasher marks hashes with a prefix so tests can see what was stored.
type plainHasher struct {
	err error
}

func (h plainHasher) Hash(p string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	return "hashed:" + p, nil
}

func (h plainHasher) Verify(hash, p string) bool { return hash == "hashed:"+p }

// fakeUsersRepo is an in-memory users.Repository.
type fakeUsersRepo struct {
	rows    map[int64]*models.User
	next    int64
	err     error
	updates int
}

func newFakeUsersRepo(seed ...*models.User) *fakeUsersRepo {
	f := &fakeUsersRepo{rows: map[int64]*models.User{}}
	for _, u := range seed {
		f.next++
		cp := *u
		cp.ID = f.next
		f.rows[cp.ID] = &cp
	}
	return f
}

func (f *fakeUsersRepo) find(match func(*models.User) bool) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.rows {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Email == email })
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Username == username })
}

func (f *fakeUsersRepo) List(ctx context.Context, skip, limit int) ([]*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	all := make([]*models.User, 0, len(f.rows))
	for _, u := range f.rows {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if skip >= len(all) {
		return []*models.User{}, nil
	}
	all = all[skip:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.next++
	cp := *u
	cp.ID = f.next
	cp.CreatedAt = time.Now()
	f.rows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeUsersRepo) Update(ctx context.Context, id int64, fields models.UserFields) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	if fields.IsEmpty() {
		cp := *u
		return &cp, nil
	}
	f.updates++
	if fields.Email != nil {
		u.Email = *fields.Email
	}
	if fields.Username != nil {
		u.Username = *fields.Username
	}
	if fields.FullName.Set {
		u.FullName = fields.FullName.Value
	}
	if fields.HashedPassword != nil {
		u.HashedPassword = *fields.HashedPassword
	}
	now := time.Now()
	u.UpdatedAt = &now
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) Delete(ctx context.Context, id int64) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	delete(f.rows, id)
	return u, nil
}

type fakeProbeRepo struct {
	msg string
	err error
}

func (f *fakeProbeRepo) Hello(ctx context.Context) (string, error) { return f.msg, f.err }

type fakeRepoManager struct {
	u users.Repository
	p *fakeProbeRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository         { return m.u }
func (m *fakeRepoManager) Probe(db dbx.DBTX) probe.Repository         { return m.p }
