package model

import (
	"time"
)

type ReservationStatus string

const (
	ReservationStatusPending        ReservationStatus = "pending"
	ReservationStatusConfirmed      ReservationStatus = "confirmed"
	ReservationStatusNeedReschedule ReservationStatus = "need_reschedule"
	ReservationStatusCancelled      ReservationStatus = "cancelled"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed,
		ReservationStatusNeedReschedule, ReservationStatusCancelled:
		return true
	}
	return false
}

// Reservation is one appointment request. The email never changes after
// creation; demographic fields are free-form patient input; choice pairs
// hold up to three (date, time-slot) preferences. Version increases on every
// write and backs the stale-write check on staff updates.
type Reservation struct {
	ID                string            `db:"id" json:"id"`
	Email             string            `db:"email" json:"email"`
	ChartNumber       string            `db:"chart_number" json:"chart_number,omitempty"`
	ReferringHospital string            `db:"referring_hospital" json:"referring_hospital,omitempty"`
	LastName          string            `db:"last_name" json:"last_name"`
	FirstName         string            `db:"first_name" json:"first_name"`
	LastNameKana      string            `db:"last_name_kana" json:"last_name_kana,omitempty"`
	FirstNameKana     string            `db:"first_name_kana" json:"first_name_kana,omitempty"`
	BirthDate         string            `db:"birth_date" json:"birth_date"`
	Sex               string            `db:"sex" json:"sex"`
	Choices           ChoiceSet         `db:"-" json:"choices"`
	Status            ReservationStatus `db:"status" json:"status"`
	ConfirmedDatetime string            `db:"confirmed_datetime" json:"confirmed_datetime,omitempty"`
	StaffNote         string            `db:"staff_note" json:"staff_note,omitempty"`
	HandledBy         string            `db:"handled_by" json:"handled_by,omitempty"`
	Version           int64             `db:"version" json:"version"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`

	// Flattened columns for sqlx scanning; read through Choices.
	FirstChoiceDate      string `db:"first_choice_date" json:"-"`
	FirstChoiceTimeSlot  string `db:"first_choice_time_slot" json:"-"`
	SecondChoiceDate     string `db:"second_choice_date" json:"-"`
	SecondChoiceTimeSlot string `db:"second_choice_time_slot" json:"-"`
	ThirdChoiceDate      string `db:"third_choice_date" json:"-"`
	ThirdChoiceTimeSlot  string `db:"third_choice_time_slot" json:"-"`
}

// SyncChoices populates Choices from the flattened columns after a scan.
func (r *Reservation) SyncChoices() {
	r.Choices = ChoiceSet{
		FirstDate:      r.FirstChoiceDate,
		FirstTimeSlot:  r.FirstChoiceTimeSlot,
		SecondDate:     r.SecondChoiceDate,
		SecondTimeSlot: r.SecondChoiceTimeSlot,
		ThirdDate:      r.ThirdChoiceDate,
		ThirdTimeSlot:  r.ThirdChoiceTimeSlot,
	}
}

// ApplyChoices flattens Choices into the scan columns before a write.
func (r *Reservation) ApplyChoices() {
	r.FirstChoiceDate = r.Choices.FirstDate
	r.FirstChoiceTimeSlot = r.Choices.FirstTimeSlot
	r.SecondChoiceDate = r.Choices.SecondDate
	r.SecondChoiceTimeSlot = r.Choices.SecondTimeSlot
	r.ThirdChoiceDate = r.Choices.ThirdDate
	r.ThirdChoiceTimeSlot = r.Choices.ThirdTimeSlot
}

// ChoiceSet holds up to three preferred (date, time-slot) pairs ordered by
// preference. The first pair is required; pairs two and three are each
// atomic, date and slot both set or both empty.
type ChoiceSet struct {
	FirstDate      string `json:"first_choice_date" form:"first_choice_date"`
	FirstTimeSlot  string `json:"first_choice_time_slot" form:"first_choice_time_slot"`
	SecondDate     string `json:"second_choice_date" form:"second_choice_date"`
	SecondTimeSlot string `json:"second_choice_time_slot" form:"second_choice_time_slot"`
	ThirdDate      string `json:"third_choice_date" form:"third_choice_date"`
	ThirdTimeSlot  string `json:"third_choice_time_slot" form:"third_choice_time_slot"`
}

// Validate collects user-facing messages for an inconsistent choice set. An
// empty slice means the set is acceptable.
func (c ChoiceSet) Validate() []string {
	var msgs []string
	if c.FirstDate == "" {
		msgs = append(msgs, "Please enter a date for your first choice.")
	}
	if c.FirstTimeSlot == "" {
		msgs = append(msgs, "Please select a time slot for your first choice.")
	}
	if c.SecondDate != "" && c.SecondTimeSlot == "" {
		msgs = append(msgs, "Second choice has a date but no time slot.")
	}
	if c.SecondTimeSlot != "" && c.SecondDate == "" {
		msgs = append(msgs, "Second choice has a time slot but no date.")
	}
	if c.ThirdDate != "" && c.ThirdTimeSlot == "" {
		msgs = append(msgs, "Third choice has a date but no time slot.")
	}
	if c.ThirdTimeSlot != "" && c.ThirdDate == "" {
		msgs = append(msgs, "Third choice has a time slot but no date.")
	}
	return msgs
}

// StatusUpdate carries the fields a staff transition overwrites.
type StatusUpdate struct {
	Status            ReservationStatus
	ConfirmedDatetime string
	StaffNote         string
	HandledBy         string
}
