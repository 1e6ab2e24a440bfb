package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinagawa-clinic/reservation-api/internal/model"
	"github.com/shinagawa-clinic/reservation-api/internal/repository"
)

func newReservation(email string) *model.Reservation {
	return &model.Reservation{
		Email:     email,
		LastName:  "Yamada",
		FirstName: "Taro",
		BirthDate: "1980-04-01",
		Sex:       "M",
		Choices: model.ChoiceSet{
			FirstDate:     "2025-06-01",
			FirstTimeSlot: "AM",
		},
	}
}

func TestCreateForcesPendingStatus(t *testing.T) {
	repo := NewReservationRepository(newTestDB(t))
	ctx := context.Background()

	res := newReservation("a@example.com")
	// A hostile caller pre-setting status must be ignored.
	res.Status = model.ReservationStatusConfirmed
	res.ConfirmedDatetime = "2025-06-01 10:00"

	require.NoError(t, repo.Create(ctx, res))
	require.NotEmpty(t, res.ID)

	got, err := repo.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationStatusPending, got.Status)
	assert.Empty(t, got.ConfirmedDatetime)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, "a@example.com", got.Email)
	assert.Equal(t, "2025-06-01", got.Choices.FirstDate)
	assert.Equal(t, "AM", got.Choices.FirstTimeSlot)
	assert.Empty(t, got.Choices.SecondDate)
	assert.Empty(t, got.Choices.ThirdDate)
}

func TestGetNotFound(t *testing.T) {
	repo := NewReservationRepository(newTestDB(t))

	_, err := repo.Get(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListPendingIsOldestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewReservationRepository(db)
	ctx := context.Background()

	ids := make([]string, 3)
	for i, email := range []string{"first@example.com", "second@example.com", "third@example.com"} {
		res := newReservation(email)
		require.NoError(t, repo.Create(ctx, res))
		ids[i] = res.ID
	}

	// Pin distinct creation times so ordering is deterministic.
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range ids {
		_, err := db.Exec(db.Rebind("UPDATE reservations SET created_at = ? WHERE id = ?"), base.Add(time.Duration(i)*time.Minute), id)
		require.NoError(t, err)
	}

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "first@example.com", pending[0].Email)
	assert.Equal(t, "second@example.com", pending[1].Email)
	assert.Equal(t, "third@example.com", pending[2].Email)

	recent, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "third@example.com", recent[0].Email)
	assert.Equal(t, "second@example.com", recent[1].Email)
}

func TestListPendingExcludesHandledRecords(t *testing.T) {
	repo := NewReservationRepository(newTestDB(t))
	ctx := context.Background()

	res := newReservation("a@example.com")
	require.NoError(t, repo.Create(ctx, res))
	other := newReservation("b@example.com")
	require.NoError(t, repo.Create(ctx, other))

	require.NoError(t, repo.UpdateStatus(ctx, res.ID, model.StatusUpdate{
		Status: model.ReservationStatusCancelled,
	}, repository.UnconditionalVersion))

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b@example.com", pending[0].Email)
}

func TestUpdateChoicesResetsStatusToPending(t *testing.T) {
	repo := NewReservationRepository(newTestDB(t))
	ctx := context.Background()

	res := newReservation("a@example.com")
	require.NoError(t, repo.Create(ctx, res))

	require.NoError(t, repo.UpdateStatus(ctx, res.ID, model.StatusUpdate{
		Status:            model.ReservationStatusConfirmed,
		ConfirmedDatetime: "2025-06-01 10:00",
	}, repository.UnconditionalVersion))

	newChoices := model.ChoiceSet{
		FirstDate:      "2025-06-10",
		FirstTimeSlot:  "PM",
		SecondDate:     "2025-06-11",
		SecondTimeSlot: "AM",
	}
	require.NoError(t, repo.UpdateChoices(ctx, res.ID, newChoices, repository.UnconditionalVersion))

	got, err := repo.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationStatusPending, got.Status)
	// The confirmation timestamp belongs to the confirmed status and must
	// not survive the record re-entering the queue.
	assert.Empty(t, got.ConfirmedDatetime)
	assert.Equal(t, newChoices, got.Choices)
	// Demographics and email survive a choice rewrite untouched.
	assert.Equal(t, "a@example.com", got.Email)
	assert.Equal(t, "Yamada", got.LastName)
	assert.Equal(t, int64(3), got.Version)
}

func TestUpdateStatusOverwritesStaffFields(t *testing.T) {
	repo := NewReservationRepository(newTestDB(t))
	ctx := context.Background()

	res := newReservation("a@example.com")
	require.NoError(t, repo.Create(ctx, res))

	require.NoError(t, repo.UpdateStatus(ctx, res.ID, model.StatusUpdate{
		Status:            model.ReservationStatusConfirmed,
		ConfirmedDatetime: "2025-06-01 10:00",
		StaffNote:         "front desk call done",
		HandledBy:         "suzuki",
	}, 1))

	got, err := repo.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationStatusConfirmed, got.Status)
	assert.Equal(t, "2025-06-01 10:00", got.ConfirmedDatetime)
	assert.Equal(t, "front desk call done", got.StaffNote)
	assert.Equal(t, "suzuki", got.HandledBy)
	assert.Equal(t, int64(2), got.Version)
}

func TestUpdateStatusStaleVersion(t *testing.T) {
	repo := NewReservationRepository(newTestDB(t))
	ctx := context.Background()

	res := newReservation("a@example.com")
	require.NoError(t, repo.Create(ctx, res))

	require.NoError(t, repo.UpdateStatus(ctx, res.ID, model.StatusUpdate{
		Status: model.ReservationStatusConfirmed,
	}, 1))

	// Second writer still holds version 1 and must lose.
	err := repo.UpdateStatus(ctx, res.ID, model.StatusUpdate{
		Status: model.ReservationStatusCancelled,
	}, 1)
	assert.ErrorIs(t, err, repository.ErrStaleRecord)

	got, err := repo.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationStatusConfirmed, got.Status)
}

func TestUpdateChoicesStaleVersion(t *testing.T) {
	repo := NewReservationRepository(newTestDB(t))
	ctx := context.Background()

	res := newReservation("a@example.com")
	require.NoError(t, repo.Create(ctx, res))

	choices := model.ChoiceSet{FirstDate: "2025-06-10", FirstTimeSlot: "AM"}
	require.NoError(t, repo.UpdateChoices(ctx, res.ID, choices, 1))

	err := repo.UpdateChoices(ctx, res.ID, choices, 1)
	assert.ErrorIs(t, err, repository.ErrStaleRecord)
}

func TestUpdateStatusNotFound(t *testing.T) {
	repo := NewReservationRepository(newTestDB(t))

	err := repo.UpdateStatus(context.Background(), "no-such-id", model.StatusUpdate{
		Status: model.ReservationStatusCancelled,
	}, repository.UnconditionalVersion)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
