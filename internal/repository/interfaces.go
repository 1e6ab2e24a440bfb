package repository

import (
	"context"
	"errors"

	"github.com/shinagawa-clinic/reservation-api/internal/model"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrStaleRecord is returned when a versioned write lost against a
	// concurrent update.
	ErrStaleRecord = errors.New("record was modified concurrently")
)

// UnconditionalVersion skips the optimistic version check on versioned
// writes. The patient resubmit path uses it; staff writes must not.
const UnconditionalVersion int64 = 0

type (
	// ReservationRepository is the durable CRUD surface shared by the
	// patient and staff flows. It enforces no transition legality; that is
	// the reservation service's job.
	ReservationRepository interface {
		// Create persists a new reservation in status pending, ignoring
		// whatever status the caller set, and fills ID and timestamps.
		Create(ctx context.Context, r *model.Reservation) error
		Get(ctx context.Context, id string) (*model.Reservation, error)
		// ListPending returns pending reservations oldest first, so staff
		// work a FIFO queue.
		ListPending(ctx context.Context) ([]*model.Reservation, error)
		ListRecent(ctx context.Context, limit int) ([]*model.Reservation, error)
		// UpdateChoices rewrites the choice pairs, forces status back to
		// pending, clears the confirmed datetime and bumps updated_at.
		// Any new patient submission re-enters the review queue.
		UpdateChoices(ctx context.Context, id string, choices model.ChoiceSet, expectedVersion int64) error
		// UpdateStatus unconditionally overwrites status, confirmed
		// datetime, staff note and handler.
		UpdateStatus(ctx context.Context, id string, upd model.StatusUpdate, expectedVersion int64) error
	}

	StaffUserRepository interface {
		Create(ctx context.Context, u *model.StaffUser) error
		GetByID(ctx context.Context, id string) (*model.StaffUser, error)
		// GetByEmail matches case-insensitively; emails are stored
		// lowercased.
		GetByEmail(ctx context.Context, email string) (*model.StaffUser, error)
		List(ctx context.Context, limit int) ([]*model.StaffUser, error)
		SetActive(ctx context.Context, id string, active bool) error
	}
)
