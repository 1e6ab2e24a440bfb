package reservation

import (
	"context"
	"errors"
	"fmt"

	"github.com/shinagawa-clinic/reservation-api/internal/model"
	"github.com/shinagawa-clinic/reservation-api/internal/repository"
	apperrors "github.com/shinagawa-clinic/reservation-api/pkg/errors"
)

// ErrOwnershipMismatch means a structurally valid reschedule token named a
// reservation whose stored email differs from the token's. Callers must
// render it exactly like an invalid token.
var ErrOwnershipMismatch = errors.New("token email does not match reservation")

// Notifier is the outbound side effect surface of the state machine.
type Notifier interface {
	SendConfirmation(ctx context.Context, to, confirmedDatetime string) error
	SendRescheduleRequest(ctx context.Context, to, reservationID string) error
}

const recentListLimit = 50

// Service owns the reservation status state machine. The store accepts any
// status write; which transitions are meaningful, and which of them notify
// the patient, is decided here.
type Service struct {
	repo     repository.ReservationRepository
	notifier Notifier
}

func NewService(repo repository.ReservationRepository, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
	}
}

// Submit creates a new request. The store forces status to pending.
func (s *Service) Submit(ctx context.Context, res *model.Reservation) error {
	if res.Email == "" {
		return apperrors.BadRequest("email is required", nil)
	}
	if msgs := res.Choices.Validate(); len(msgs) > 0 {
		return apperrors.BadRequest(msgs[0], nil)
	}
	if err := s.repo.Create(ctx, res); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.Reservation, error) {
	res, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("reservation", err)
		}
		return nil, apperrors.Internal(err)
	}
	return res, nil
}

// GetForReschedule loads a reservation for the self-service reschedule flow
// and enforces the ownership check: the email decoded from the token must
// equal the stored email, so a valid token for reservation A cannot be
// replayed against reservation B.
func (s *Service) GetForReschedule(ctx context.Context, id, tokenEmail string) (*model.Reservation, error) {
	res, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Email != tokenEmail {
		return nil, ErrOwnershipMismatch
	}
	return res, nil
}

// Resubmit is the named re-queueing transition: the patient rewrites the
// choice pairs and the reservation re-enters pending, whatever status it
// held before. Demographics and email are untouched.
func (s *Service) Resubmit(ctx context.Context, id string, choices model.ChoiceSet) error {
	if msgs := choices.Validate(); len(msgs) > 0 {
		return apperrors.BadRequest(msgs[0], nil)
	}
	err := s.repo.UpdateChoices(ctx, id, choices, repository.UnconditionalVersion)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("reservation", err)
		}
		return apperrors.Internal(err)
	}
	return nil
}

// Dashboard returns the FIFO pending queue and the most recent requests.
func (s *Service) Dashboard(ctx context.Context) (pending, recent []*model.Reservation, err error) {
	pending, err = s.repo.ListPending(ctx)
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}
	recent, err = s.repo.ListRecent(ctx, recentListLimit)
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}
	return pending, recent, nil
}

// Transition applies a staff-chosen status. Any status may follow any
// status; two carry side effects:
//
//   - to confirmed, when the record was not already confirmed and a
//     confirmed datetime is supplied: one confirmation email. Re-saving an
//     already confirmed record, or confirming without a datetime, sends
//     nothing.
//   - to need_reschedule: always one email carrying a fresh reschedule
//     token, independent of the prior status.
//
// The status write commits before any send is attempted. Send failures come
// back as warnings and never undo the write.
func (s *Service) Transition(ctx context.Context, id string, upd model.StatusUpdate, expectedVersion int64) (*model.Reservation, []string, error) {
	if !upd.Status.Valid() {
		return nil, nil, apperrors.BadRequest(fmt.Sprintf("unknown status %q", upd.Status), nil)
	}

	prev, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	// A confirmation timestamp only makes sense while confirmed; clear it
	// on any other status so it cannot go stale.
	if upd.Status != model.ReservationStatusConfirmed {
		upd.ConfirmedDatetime = ""
	}

	if err := s.repo.UpdateStatus(ctx, id, upd, expectedVersion); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, nil, apperrors.NotFound("reservation", err)
		case errors.Is(err, repository.ErrStaleRecord):
			return nil, nil, apperrors.Stale("reservation", err)
		}
		return nil, nil, apperrors.Internal(err)
	}

	var warnings []string

	if upd.Status == model.ReservationStatusConfirmed &&
		prev.Status != model.ReservationStatusConfirmed &&
		upd.ConfirmedDatetime != "" {
		if err := s.notifier.SendConfirmation(ctx, prev.Email, upd.ConfirmedDatetime); err != nil {
			warnings = append(warnings, "The status was saved but the confirmation email could not be sent.")
		}
	}

	if upd.Status == model.ReservationStatusNeedReschedule {
		if err := s.notifier.SendRescheduleRequest(ctx, prev.Email, id); err != nil {
			warnings = append(warnings, "The status was saved but the reschedule request email could not be sent.")
		}
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, warnings, err
	}
	return updated, warnings, nil
}
