package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shinagawa-clinic/reservation-api/internal/model"
	"github.com/shinagawa-clinic/reservation-api/internal/repository"
)

const reservationColumns = `
	id, email, chart_number, referring_hospital,
	last_name, first_name, last_name_kana, first_name_kana,
	birth_date, sex,
	first_choice_date, first_choice_time_slot,
	second_choice_date, second_choice_time_slot,
	third_choice_date, third_choice_time_slot,
	status, confirmed_datetime, staff_note, handled_by,
	version, created_at, updated_at`

func (r *reservationRepository) Create(ctx context.Context, res *model.Reservation) error {
	query := r.db.Rebind(`
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	res.ID = uuid.New().String()
	// New requests always start in the review queue no matter what the
	// caller set.
	res.Status = model.ReservationStatusPending
	res.ConfirmedDatetime = ""
	res.Version = 1
	res.CreatedAt = time.Now().UTC()
	res.UpdatedAt = res.CreatedAt
	res.ApplyChoices()

	_, err := r.db.ExecContext(ctx, query,
		res.ID,
		res.Email,
		res.ChartNumber,
		res.ReferringHospital,
		res.LastName,
		res.FirstName,
		res.LastNameKana,
		res.FirstNameKana,
		res.BirthDate,
		res.Sex,
		res.FirstChoiceDate,
		res.FirstChoiceTimeSlot,
		res.SecondChoiceDate,
		res.SecondChoiceTimeSlot,
		res.ThirdChoiceDate,
		res.ThirdChoiceTimeSlot,
		res.Status,
		res.ConfirmedDatetime,
		res.StaffNote,
		res.HandledBy,
		res.Version,
		res.CreatedAt,
		res.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

func (r *reservationRepository) Get(ctx context.Context, id string) (*model.Reservation, error) {
	query := r.db.Rebind(`
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE id = ?
	`)

	var res model.Reservation
	if err := r.db.GetContext(ctx, &res, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	res.SyncChoices()
	return &res, nil
}

func (r *reservationRepository) ListPending(ctx context.Context) ([]*model.Reservation, error) {
	query := r.db.Rebind(`
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status = ?
		ORDER BY created_at ASC, id ASC
	`)

	var reservations []*model.Reservation
	if err := r.db.SelectContext(ctx, &reservations, query, model.ReservationStatusPending); err != nil {
		return nil, fmt.Errorf("failed to list pending reservations: %w", err)
	}
	for _, res := range reservations {
		res.SyncChoices()
	}
	return reservations, nil
}

func (r *reservationRepository) ListRecent(ctx context.Context, limit int) ([]*model.Reservation, error) {
	query := r.db.Rebind(`
		SELECT ` + reservationColumns + `
		FROM reservations
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`)

	var reservations []*model.Reservation
	if err := r.db.SelectContext(ctx, &reservations, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent reservations: %w", err)
	}
	for _, res := range reservations {
		res.SyncChoices()
	}
	return reservations, nil
}

func (r *reservationRepository) UpdateChoices(ctx context.Context, id string, choices model.ChoiceSet, expectedVersion int64) error {
	query := `
		UPDATE reservations
		SET first_choice_date = ?, first_choice_time_slot = ?,
			second_choice_date = ?, second_choice_time_slot = ?,
			third_choice_date = ?, third_choice_time_slot = ?,
			status = ?, confirmed_datetime = '',
			version = version + 1, updated_at = ?
		WHERE id = ?
	`
	args := []interface{}{
		choices.FirstDate, choices.FirstTimeSlot,
		choices.SecondDate, choices.SecondTimeSlot,
		choices.ThirdDate, choices.ThirdTimeSlot,
		model.ReservationStatusPending, time.Now().UTC(),
		id,
	}
	if expectedVersion != repository.UnconditionalVersion {
		query += " AND version = ?"
		args = append(args, expectedVersion)
	}

	return r.versionedWrite(ctx, id, r.db.Rebind(query), args)
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, id string, upd model.StatusUpdate, expectedVersion int64) error {
	query := `
		UPDATE reservations
		SET status = ?, confirmed_datetime = ?, staff_note = ?, handled_by = ?,
			version = version + 1, updated_at = ?
		WHERE id = ?
	`
	args := []interface{}{
		upd.Status, upd.ConfirmedDatetime, upd.StaffNote, upd.HandledBy,
		time.Now().UTC(),
		id,
	}
	if expectedVersion != repository.UnconditionalVersion {
		query += " AND version = ?"
		args = append(args, expectedVersion)
	}

	return r.versionedWrite(ctx, id, r.db.Rebind(query), args)
}

// versionedWrite runs an update that may carry a version guard and maps a
// zero-row result to not-found or stale.
func (r *reservationRepository) versionedWrite(ctx context.Context, id, query string, args []interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		if _, err := r.Get(ctx, id); errors.Is(err, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return repository.ErrStaleRecord
	}
	return nil
}
