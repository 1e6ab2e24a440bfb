package model

import (
	"time"
)

// StaffUser is one clinic staff member. Accounts are provisioned out of
// band (see cmd/staffctl); the web surface only reads them and toggles the
// active flag.
type StaffUser struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Active       bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// StaffSession is the verified content of a staff session cookie.
type StaffSession struct {
	StaffID string
	Email   string
	Name    string
}
