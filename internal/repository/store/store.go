package store

import (
	"github.com/jmoiron/sqlx"

	"github.com/shinagawa-clinic/reservation-api/internal/repository"
)

type reservationRepository struct {
	db *sqlx.DB
}

type staffUserRepository struct {
	db *sqlx.DB
}

func NewReservationRepository(db *sqlx.DB) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

func NewStaffUserRepository(db *sqlx.DB) repository.StaffUserRepository {
	return &staffUserRepository{db: db}
}
