package auth

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "bizmatch/internal/common/errors"
	"bizmatch/internal/common/logger"
	"bizmatch/internal/models"
	"bizmatch/internal/store"
)

func newTestSessionStore(t *testing.T, ttl time.Duration) (*SessionStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionStore(client, ttl), mr
}

func TestSessionStore_CreateAndGet(t *testing.T) {
	sessions, _ := newTestSessionStore(t, time.Hour)
	ctx := context.Background()

	created, err := sessions.Create(ctx, models.Principal{UserID: "user-1", BusinessID: "biz-1"})
	require.NoError(t, err)
	assert.Len(t, created.Token, 64)

	loaded, err := sessions.Get(ctx, created.Token)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, models.Principal{UserID: "user-1", BusinessID: "biz-1"}, loaded.Principal())
}

func TestSessionStore_UnknownTokenResolvesToNil(t *testing.T) {
	sessions, _ := newTestSessionStore(t, time.Hour)

	loaded, err := sessions.Get(context.Background(), "no-such-token")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSessionStore_ExpiredTokenResolvesToNil(t *testing.T) {
	sessions, mr := newTestSessionStore(t, time.Hour)
	ctx := context.Background()

	created, err := sessions.Create(ctx, models.Principal{UserID: "user-1", BusinessID: "biz-1"})
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	loaded, err := sessions.Get(ctx, created.Token)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSessionStore_DeleteRevokesToken(t *testing.T) {
	sessions, _ := newTestSessionStore(t, time.Hour)
	ctx := context.Background()

	created, err := sessions.Create(ctx, models.Principal{UserID: "user-1", BusinessID: "biz-1"})
	require.NoError(t, err)

	require.NoError(t, sessions.Delete(ctx, created.Token))

	loaded, err := sessions.Get(ctx, created.Token)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Revoking again is a no-op.
	assert.NoError(t, sessions.Delete(ctx, created.Token))
}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sessions, _ := newTestSessionStore(t, time.Hour)
	return NewService(store.NewUserStore(db), sessions, logger.NewTestLogger(t)), mock
}

func userRow(t *testing.T, email, password string) *sqlmock.Rows {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return sqlmock.NewRows([]string{
		"id", "business_id", "name", "email", "password_hash", "created_at",
	}).AddRow("user-1", "biz-1", "Ada", email, string(hash), time.Now())
}

func TestServiceRegister(t *testing.T) {
	t.Run("creates business, user and session", func(t *testing.T) {
		svc, mock := newTestService(t)

		mock.ExpectQuery(`FROM users`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO businesses`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		user, session, err := svc.Register(context.Background(), RegisterInput{
			BusinessName: "Acme",
			Name:         "Ada",
			Email:        "Ada@Acme.Test",
			Password:     "correct horse",
		})
		require.NoError(t, err)
		assert.Equal(t, "ada@acme.test", user.Email)
		require.NotNil(t, session)
		assert.Equal(t, user.BusinessID, session.BusinessID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email is a validation failure", func(t *testing.T) {
		svc, mock := newTestService(t)

		mock.ExpectQuery(`FROM users`).
			WillReturnRows(userRow(t, "ada@acme.test", "pw-irrelevant"))

		_, _, err := svc.Register(context.Background(), RegisterInput{
			BusinessName: "Acme",
			Name:         "Ada",
			Email:        "ada@acme.test",
			Password:     "correct horse",
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})

	t.Run("short password is rejected before any I/O", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, _, err := svc.Register(context.Background(), RegisterInput{
			BusinessName: "Acme",
			Name:         "Ada",
			Email:        "ada@acme.test",
			Password:     "short",
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})
}

func TestServiceLogin(t *testing.T) {
	t.Run("valid credentials issue a session", func(t *testing.T) {
		svc, mock := newTestService(t)

		mock.ExpectQuery(`FROM users`).
			WillReturnRows(userRow(t, "ada@acme.test", "correct horse"))

		user, session, err := svc.Login(context.Background(), LoginInput{
			Email:    "ada@acme.test",
			Password: "correct horse",
		})
		require.NoError(t, err)
		assert.Equal(t, "user-1", user.ID)

		principal, err := svc.Resolve(context.Background(), session.Token)
		require.NoError(t, err)
		assert.Equal(t, models.Principal{UserID: "user-1", BusinessID: "biz-1"}, principal)
	})

	t.Run("wrong password and unknown user are indistinguishable", func(t *testing.T) {
		svc, mock := newTestService(t)

		mock.ExpectQuery(`FROM users`).
			WillReturnRows(userRow(t, "ada@acme.test", "correct horse"))
		mock.ExpectQuery(`FROM users`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, _, errWrongPassword := svc.Login(context.Background(), LoginInput{
			Email:    "ada@acme.test",
			Password: "wrong",
		})
		_, _, errUnknownUser := svc.Login(context.Background(), LoginInput{
			Email:    "nobody@acme.test",
			Password: "correct horse",
		})

		assert.True(t, apperrors.IsKind(errWrongPassword, apperrors.KindUnauthenticated))
		assert.True(t, apperrors.IsKind(errUnknownUser, apperrors.KindUnauthenticated))
		assert.Equal(t, errWrongPassword.Error(), errUnknownUser.Error())
	})
}

func TestServiceResolve(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Resolve(context.Background(), "")
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthenticated))

	_, err = svc.Resolve(context.Background(), "bogus-token")
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthenticated))
}

func TestServiceLogoutRevokesSession(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`FROM users`).
		WillReturnRows(userRow(t, "ada@acme.test", "correct horse"))

	_, session, err := svc.Login(context.Background(), LoginInput{
		Email:    "ada@acme.test",
		Password: "correct horse",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), session.Token))

	_, err = svc.Resolve(context.Background(), session.Token)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthenticated))
}
