package auth

import (
	"context"
	"errors"
	"time"

	"github.com/shinagawa-clinic/reservation-api/internal/model"
	"github.com/shinagawa-clinic/reservation-api/internal/repository"
	apperrors "github.com/shinagawa-clinic/reservation-api/pkg/errors"
	"github.com/shinagawa-clinic/reservation-api/pkg/security"
	"github.com/shinagawa-clinic/reservation-api/pkg/token"
)

// ErrInvalidCredentials covers unknown email, wrong password and inactive
// account alike; a caller probing the login form learns nothing about which
// one it hit.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrNoSession means the session cookie is missing, forged or past its TTL.
var ErrNoSession = errors.New("no valid staff session")

// Service authenticates staff against the provisioned user store and turns
// successful logins into stateless signed session tokens.
type Service struct {
	repo       repository.StaffUserRepository
	hasher     security.PasswordHasher
	codec      *token.Codec
	sessionTTL time.Duration
}

func NewService(repo repository.StaffUserRepository, hasher security.PasswordHasher, codec *token.Codec, sessionTTL time.Duration) *Service {
	return &Service{
		repo:       repo,
		hasher:     hasher,
		codec:      codec,
		sessionTTL: sessionTTL,
	}
}

// Login verifies email and password and issues a session token on success.
// Every failure comes back as an unauthorized error wrapping
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (string, *model.StaffUser, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, apperrors.Unauthorized(ErrInvalidCredentials)
	}

	// Compare before the active check so an inactive account costs the
	// same as a wrong password.
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return "", nil, apperrors.Unauthorized(ErrInvalidCredentials)
	}
	if !user.Active {
		return "", nil, apperrors.Unauthorized(ErrInvalidCredentials)
	}

	tok, err := s.codec.Issue(map[string]string{
		"staff_id": user.ID,
		"email":    user.Email,
		"name":     user.Name,
	}, token.PurposeStaffSession)
	if err != nil {
		return "", nil, err
	}
	return tok, user, nil
}

// VerifySession checks a session token and returns the staff identity it
// carries.
func (s *Service) VerifySession(tok string) (*model.StaffSession, error) {
	payload, outcome := s.codec.Verify(tok, token.PurposeStaffSession, s.sessionTTL)
	if outcome != token.OutcomeOK {
		return nil, ErrNoSession
	}
	if payload["staff_id"] == "" || payload["email"] == "" {
		return nil, ErrNoSession
	}
	return &model.StaffSession{
		StaffID: payload["staff_id"],
		Email:   payload["email"],
		Name:    payload["name"],
	}, nil
}

// SessionTTL is the lifetime applied to session cookies.
func (s *Service) SessionTTL() time.Duration {
	return s.sessionTTL
}
