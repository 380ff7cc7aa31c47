package services

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/dmitrijs2005/usersvc/internal/common"
	"github.com/dmitrijs2005/usersvc/internal/server/auth"
	"github.com/dmitrijs2005/usersvc/internal/server/models"
	"github.com/dmitrijs2005/usersvc/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func newUserService(t *testing.T, db *sql.DB, rm repomanager.RepositoryManager) *UserService {
	t.Helper()
	return NewUserService(db, rm, plainHasher{}, testConfig())
}

func alice() *models.User {
	return &models.User{Email: "alice@example.com", Username: "alice", HashedPassword: "hashed:secret1", IsActive: true}
}

func TestCreate_HashesPasswordAndCommits(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := newFakeUsersRepo()
	s := newUserService(t, db, &fakeRepoManager{u: repo})

	u, err := s.Create(context.Background(), models.UserCreate{
		Email: "alice@example.com", Username: "alice", Password: "secret1", FullName: ptr("Alice"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.NotEqual(t, "secret1", u.HashedPassword)
	assert.Equal(t, "hashed:secret1", repo.rows[1].HashedPassword)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsSuperuser)
	assert.Equal(t, "Alice", *u.FullName)
}

func TestCreateSuperuser(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	s := newUserService(t, db, &fakeRepoManager{u: newFakeUsersRepo()})

	u, err := s.CreateSuperuser(context.Background(), models.UserCreate{Email: "root@example.com", Username: "root", Password: "secret1"})
	require.NoError(t, err)
	assert.True(t, u.IsSuperuser)
}

func TestCreate_DuplicateRollsBack(t *testing.T) {
	tests := []struct {
		name string
		in   models.UserCreate
		msg  string
	}{
		{name: "email", in: models.UserCreate{Email: "alice@example.com", Username: "other", Password: "secret1"}, msg: "email already registered"},
		{name: "username", in: models.UserCreate{Email: "new@example.com", Username: "alice", Password: "secret1"}, msg: "username already taken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newSQLMockDB(t)
			mock.ExpectBegin()
			mock.ExpectRollback()

			repo := newFakeUsersRepo(alice())
			s := newUserService(t, db, &fakeRepoManager{u: repo})

			_, err := s.Create(context.Background(), tt.in)
			require.ErrorIs(t, err, common.ErrorAlreadyExists)
			assert.Contains(t, err.Error(), tt.msg)
			assert.Len(t, repo.rows, 1)
		})
	}
}

func TestCreate_RepoErrorWrapped(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := newFakeUsersRepo()
	s := newUserService(t, db, &fakeRepoManager{u: &failingCreateRepo{fakeUsersRepo: repo}})

	_, err := s.Create(context.Background(), models.UserCreate{Email: "a@example.com", Username: "abc", Password: "secret1"})
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`error creating user: .*boom`), err.Error())
}

type failingCreateRepo struct {
	*fakeUsersRepo
}

func (f *failingCreateRepo) Create(context.Context, *models.User) (*models.User, error) {
	return nil, errBoom{}
}

func TestCreate_HashErrorNoTransaction(t *testing.T) {
	db, _ := newSQLMockDB(t)

	s := NewUserService(db, &fakeRepoManager{u: newFakeUsersRepo()}, plainHasher{err: errBoom{}}, testConfig())

	_, err := s.Create(context.Background(), models.UserCreate{Email: "a@example.com", Username: "abc", Password: "secret1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestCreate_BeginError(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin().WillReturnError(errors.New("no connection"))

	repo := newFakeUsersRepo()
	s := newUserService(t, db, &fakeRepoManager{u: repo})

	_, err := s.Create(context.Background(), models.UserCreate{Email: "a@example.com", Username: "abc", Password: "secret1"})
	require.EqualError(t, err, "no connection")
	assert.Empty(t, repo.rows)
}

func TestGetters(t *testing.T) {
	db, mock := newSQLMockDB(t)
	for i := 0; i < 4; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}

	s := newUserService(t, db, &fakeRepoManager{u: newFakeUsersRepo(alice())})
	ctx := context.Background()

	u, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	u, err = s.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)

	u, err = s.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)

	u, err = s.Get(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestGet_RepoErrorRollsBack(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := newFakeUsersRepo()
	repo.err = errBoom{}
	s := newUserService(t, db, &fakeRepoManager{u: repo})

	_, err := s.Get(context.Background(), 1)
	require.ErrorIs(t, err, errBoom{})
}

func TestList_DefaultsAndPaging(t *testing.T) {
	db, mock := newSQLMockDB(t)
	for i := 0; i < 4; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}

	seed := []*models.User{}
	for _, n := range []string{"anna", "bert", "cara"} {
		seed = append(seed, &models.User{Email: n + "@example.com", Username: n})
	}
	s := newUserService(t, db, &fakeRepoManager{u: newFakeUsersRepo(seed...)})
	ctx := context.Background()

	all, err := s.List(ctx, -5, 100)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "anna", all[0].Username)

	empty, err := s.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)

	page, err := s.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "bert", page[0].Username)

	none, err := s.List(ctx, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdate_EmptyLeavesUserUnchanged(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := newFakeUsersRepo(alice())
	before := *repo.rows[1]
	s := newUserService(t, db, &fakeRepoManager{u: repo})

	u, err := s.Update(context.Background(), 1, models.UserUpdate{})
	require.NoError(t, err)
	assert.Equal(t, before, *u)
	assert.Zero(t, repo.updates)
}

func TestUpdate_PasswordChangesOnlyHash(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := newFakeUsersRepo(alice())
	before := *repo.rows[1]
	s := newUserService(t, db, &fakeRepoManager{u: repo})

	u, err := s.Update(context.Background(), 1, models.UserUpdate{Password: ptr("secret2")})
	require.NoError(t, err)
	assert.Equal(t, "hashed:secret2", u.HashedPassword)
	assert.Equal(t, before.Email, u.Email)
	assert.Equal(t, before.Username, u.Username)
	assert.Equal(t, before.FullName, u.FullName)
	assert.NotNil(t, u.UpdatedAt)
}

func TestUpdate_SameEmailIsNotDuplicate(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	s := newUserService(t, db, &fakeRepoManager{u: newFakeUsersRepo(alice())})

	u, err := s.Update(context.Background(), 1, models.UserUpdate{Email: ptr("alice@example.com"), FullName: models.Some("Alice A")})
	require.NoError(t, err)
	assert.Equal(t, "Alice A", *u.FullName)
}

func TestUpdate_EmailOwnedByOtherUser(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	bob := &models.User{Email: "bob@example.com", Username: "bob"}
	s := newUserService(t, db, &fakeRepoManager{u: newFakeUsersRepo(alice(), bob)})

	_, err := s.Update(context.Background(), 1, models.UserUpdate{Email: ptr("bob@example.com")})
	require.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestUpdate_MissingUser(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	s := newUserService(t, db, &fakeRepoManager{u: newFakeUsersRepo()})

	u, err := s.Update(context.Background(), 9, models.UserUpdate{FullName: models.Some("x")})
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestDelete(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := newFakeUsersRepo(alice())
	s := newUserService(t, db, &fakeRepoManager{u: repo})

	u, err := s.Delete(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Empty(t, repo.rows)

	u, err = s.Delete(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantUser bool
	}{
		{name: "correct password", username: "alice", password: "secret1", wantUser: true},
		{name: "wrong password", username: "alice", password: "wrong"},
		{name: "unknown user", username: "nobody", password: "secret1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newSQLMockDB(t)
			mock.ExpectBegin()
			mock.ExpectCommit()

			s := newUserService(t, db, &fakeRepoManager{u: newFakeUsersRepo(alice())})

			u, err := s.Authenticate(context.Background(), tt.username, tt.password)
			require.NoError(t, err)
			if tt.wantUser {
				require.NotNil(t, u)
				assert.Equal(t, "alice", u.Username)
			} else {
				assert.Nil(t, u)
			}
		})
	}
}

func TestLogin_Flows(t *testing.T) {
	inactive := &models.User{Email: "ina@example.com", Username: "inactive", HashedPassword: "hashed:secret1"}

	tests := []struct {
		name     string
		username string
		password string
		repoErr  error
		wantErr  error
	}{
		{name: "ok", username: "alice", password: "secret1"},
		{name: "bad password", username: "alice", password: "nope", wantErr: common.ErrorUnauthorized},
		{name: "unknown", username: "ghost", password: "secret1", wantErr: common.ErrorUnauthorized},
		{name: "inactive", username: "inactive", password: "secret1", wantErr: common.ErrorInactiveUser},
		{name: "repo failure", username: "alice", password: "secret1", repoErr: errBoom{}, wantErr: common.ErrorInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newSQLMockDB(t)
			mock.ExpectBegin()
			if tt.repoErr != nil {
				mock.ExpectRollback()
			} else {
				mock.ExpectCommit()
			}

			repo := newFakeUsersRepo(alice(), inactive)
			repo.err = tt.repoErr
			s := newUserService(t, db, &fakeRepoManager{u: repo})

			tok, err := s.Login(context.Background(), tt.username, tt.password)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "bearer", tok.TokenType)

			id, err := auth.GetUserIDFromToken(tok.AccessToken, []byte("k"))
			require.NoError(t, err)
			assert.Equal(t, int64(1), id)
		})
	}
}

func TestUserFromToken(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	s := newUserService(t, db, &fakeRepoManager{u: newFakeUsersRepo(alice())})
	ctx := context.Background()

	good, err := auth.GenerateToken(1, "alice", []byte("k"), time.Hour)
	require.NoError(t, err)
	u, err := s.UserFromToken(ctx, good)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	gone, err := auth.GenerateToken(5, "ghost", []byte("k"), time.Hour)
	require.NoError(t, err)
	_, err = s.UserFromToken(ctx, gone)
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = s.UserFromToken(ctx, "garbage")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
	require.ErrorIs(t, err, common.ErrInvalidToken)

	expired, err := auth.GenerateToken(1, "alice", []byte("k"), -time.Minute)
	require.NoError(t, err)
	_, err = s.UserFromToken(ctx, expired)
	require.ErrorIs(t, err, common.ErrTokenExpired)
}
