package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shinagawa-clinic/reservation-api/internal/model"
	"github.com/shinagawa-clinic/reservation-api/internal/repository"
)

func (r *staffUserRepository) Create(ctx context.Context, u *model.StaffUser) error {
	query := r.db.Rebind(`
		INSERT INTO staff_users (id, email, name, password_hash, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)

	u.ID = uuid.New().String()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Active, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create staff user: %w", err)
	}
	return nil
}

func (r *staffUserRepository) GetByID(ctx context.Context, id string) (*model.StaffUser, error) {
	query := r.db.Rebind(`
		SELECT id, email, name, password_hash, is_active, created_at
		FROM staff_users
		WHERE id = ?
	`)

	var u model.StaffUser
	if err := r.db.GetContext(ctx, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get staff user: %w", err)
	}
	return &u, nil
}

func (r *staffUserRepository) GetByEmail(ctx context.Context, email string) (*model.StaffUser, error) {
	query := r.db.Rebind(`
		SELECT id, email, name, password_hash, is_active, created_at
		FROM staff_users
		WHERE email = ?
	`)

	var u model.StaffUser
	if err := r.db.GetContext(ctx, &u, query, strings.ToLower(strings.TrimSpace(email))); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get staff user by email: %w", err)
	}
	return &u, nil
}

func (r *staffUserRepository) List(ctx context.Context, limit int) ([]*model.StaffUser, error) {
	query := r.db.Rebind(`
		SELECT id, email, name, password_hash, is_active, created_at
		FROM staff_users
		ORDER BY created_at DESC
		LIMIT ?
	`)

	var users []*model.StaffUser
	if err := r.db.SelectContext(ctx, &users, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list staff users: %w", err)
	}
	return users, nil
}

func (r *staffUserRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := r.db.Rebind(`
		UPDATE staff_users
		SET is_active = ?
		WHERE id = ?
	`)

	result, err := r.db.ExecContext(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("failed to update staff user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
