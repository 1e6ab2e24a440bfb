package model

// Typed form payloads, one per endpoint, validated once at the boundary.

type EmailInputRequest struct {
	Email string `form:"email" binding:"required,email"`
}

type ReservationFormRequest struct {
	ChartNumber       string `form:"chart_number"`
	ReferringHospital string `form:"referring_hospital"`
	LastName          string `form:"last_name"`
	FirstName         string `form:"first_name"`
	LastNameKana      string `form:"last_name_kana"`
	FirstNameKana     string `form:"first_name_kana"`
	BirthDate         string `form:"birth_date"`
	Sex               string `form:"sex"`
	Choices           ChoiceSet
}

// Validate collects user-facing messages; choice consistency is delegated
// to ChoiceSet.
func (r ReservationFormRequest) Validate() []string {
	var msgs []string
	if r.LastName == "" || r.FirstName == "" {
		msgs = append(msgs, "Please enter your family and given name.")
	}
	if r.BirthDate == "" {
		msgs = append(msgs, "Please enter your birth date.")
	}
	if r.Sex == "" {
		msgs = append(msgs, "Please select your sex.")
	}
	return append(msgs, r.Choices.Validate()...)
}

type RescheduleFormRequest struct {
	Choices ChoiceSet
}

type StaffLoginRequest struct {
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type StatusUpdateRequest struct {
	Status            string `form:"status" binding:"required"`
	ConfirmedDatetime string `form:"confirmed_datetime"`
	StaffNote         string `form:"staff_note"`
	HandledBy         string `form:"handled_by"`
	Version           int64  `form:"version"`
}
