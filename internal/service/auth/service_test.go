package auth

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinagawa-clinic/reservation-api/internal/model"
	"github.com/shinagawa-clinic/reservation-api/internal/repository"
	"github.com/shinagawa-clinic/reservation-api/internal/repository/store"
	apperrors "github.com/shinagawa-clinic/reservation-api/pkg/errors"
	"github.com/shinagawa-clinic/reservation-api/pkg/security"
	"github.com/shinagawa-clinic/reservation-api/pkg/token"
)

func newTestAuth(t *testing.T, ttl time.Duration) (*Service, repository.StaffUserRepository) {
	t.Helper()

	db, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, store.Migrate(db))
	t.Cleanup(func() { db.Close() })

	repo := store.NewStaffUserRepository(db)
	hasher := security.NewBcryptHasher(4) // MinCost keeps the suite fast
	return NewService(repo, hasher, token.NewCodec("test-secret"), ttl), repo
}

func seedStaff(t *testing.T, repo repository.StaffUserRepository, email, password string, active bool) *model.StaffUser {
	t.Helper()
	hash, err := security.NewBcryptHasher(4).Hash(password)
	require.NoError(t, err)
	user := &model.StaffUser{
		Email:        email,
		Name:         "Dr. Sato",
		PasswordHash: hash,
		Active:       active,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestLoginAndVerifySession(t *testing.T) {
	svc, repo := newTestAuth(t, 12*time.Hour)
	seedStaff(t, repo, "sato@clinic.example", "correct horse", true)

	tok, user, err := svc.Login(context.Background(), "sato@clinic.example", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, tok)
	assert.Equal(t, "sato@clinic.example", user.Email)

	sess, err := svc.VerifySession(tok)
	require.NoError(t, err)
	assert.Equal(t, user.ID, sess.StaffID)
	assert.Equal(t, "sato@clinic.example", sess.Email)
	assert.Equal(t, "Dr. Sato", sess.Name)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, repo := newTestAuth(t, 12*time.Hour)
	seedStaff(t, repo, "sato@clinic.example", "correct horse", true)
	seedStaff(t, repo, "retired@clinic.example", "correct horse", false)

	ctx := context.Background()

	_, _, err := svc.Login(ctx, "nobody@clinic.example", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrUnauthorized))

	_, _, err = svc.Login(ctx, "sato@clinic.example", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrUnauthorized))

	// A deactivated account with the right password fails the same way.
	_, _, err = svc.Login(ctx, "retired@clinic.example", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrUnauthorized))
}

func TestVerifySessionRejectsForgedToken(t *testing.T) {
	svc, repo := newTestAuth(t, 12*time.Hour)
	seedStaff(t, repo, "sato@clinic.example", "correct horse", true)

	tok, _, err := svc.Login(context.Background(), "sato@clinic.example", "correct horse")
	require.NoError(t, err)

	_, err = svc.VerifySession(tok + "x")
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = svc.VerifySession("")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestVerifySessionRejectsWrongPurpose(t *testing.T) {
	svc, repo := newTestAuth(t, 12*time.Hour)
	seedStaff(t, repo, "sato@clinic.example", "correct horse", true)

	// A patient magic link signed with the same secret must not open a
	// staff session.
	link, err := token.NewCodec("test-secret").Issue(map[string]string{
		"email": "sato@clinic.example",
	}, token.PurposeMagicLink)
	require.NoError(t, err)

	_, err = svc.VerifySession(link)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestVerifySessionExpires(t *testing.T) {
	svc, repo := newTestAuth(t, 0)
	seedStaff(t, repo, "sato@clinic.example", "correct horse", true)

	tok, _, err := svc.Login(context.Background(), "sato@clinic.example", "correct horse")
	require.NoError(t, err)

	_, err = svc.VerifySession(tok)
	assert.ErrorIs(t, err, ErrNoSession)
}
