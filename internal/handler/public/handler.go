package public

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shinagawa-clinic/reservation-api/internal/model"
	"github.com/shinagawa-clinic/reservation-api/internal/service/notification"
	"github.com/shinagawa-clinic/reservation-api/internal/service/reservation"
	apperrors "github.com/shinagawa-clinic/reservation-api/pkg/errors"
	"github.com/shinagawa-clinic/reservation-api/pkg/token"
)

// Handler serves the patient-facing flow: magic-link issuance, the token
// gated request form and the self-service reschedule form.
type Handler struct {
	reservations  *reservation.Service
	notifications *notification.Service
	codec         *token.Codec
}

func NewHandler(reservations *reservation.Service, notifications *notification.Service, codec *token.Codec) *Handler {
	return &Handler{
		reservations:  reservations,
		notifications: notifications,
		codec:         codec,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/reservations/email/", h.EmailInputForm)
	r.POST("/reservations/email/", h.SendMagicLink)
	r.GET("/reservations/form/:token/", h.ReservationForm)
	r.POST("/reservations/form/:token/", h.SubmitReservation)
	r.GET("/reservations/done/", h.Done)
	r.GET("/reservations/reschedule/:token/", h.RescheduleForm)
	r.POST("/reservations/reschedule/:token/", h.SubmitReschedule)
}

func (h *Handler) EmailInputForm(c *gin.Context) {
	c.HTML(http.StatusOK, "email_input.html", gin.H{"Email": ""})
}

func (h *Handler) SendMagicLink(c *gin.Context) {
	var req model.EmailInputRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "email_input.html", gin.H{
			"Email":  c.PostForm("email"),
			"Errors": []string{"Please enter a valid email address."},
		})
		return
	}

	if err := h.notifications.SendMagicLink(c.Request.Context(), req.Email); err != nil {
		msg := "We could not send the email. Please try again later."
		if errors.Is(err, notification.ErrThrottled) {
			msg = "A link was sent to this address recently. Please check your inbox or wait a moment."
		}
		c.HTML(http.StatusOK, "email_input.html", gin.H{
			"Email":  req.Email,
			"Errors": []string{msg},
		})
		return
	}

	c.HTML(http.StatusOK, "email_sent.html", gin.H{"Email": req.Email})
}

func (h *Handler) ReservationForm(c *gin.Context) {
	payload, ok := h.verifyFormToken(c)
	if !ok {
		return
	}

	c.HTML(http.StatusOK, "reservation_form.html", gin.H{
		"Email":  payload["email"],
		"Action": "/reservations/form/" + c.Param("token") + "/",
		"Form":   model.ReservationFormRequest{},
	})
}

func (h *Handler) SubmitReservation(c *gin.Context) {
	payload, ok := h.verifyFormToken(c)
	if !ok {
		return
	}
	email := payload["email"]

	var req model.ReservationFormRequest
	_ = c.ShouldBind(&req)

	if msgs := req.Validate(); len(msgs) > 0 {
		c.HTML(http.StatusOK, "reservation_form.html", gin.H{
			"Email":  email,
			"Action": "/reservations/form/" + c.Param("token") + "/",
			"Form":   req,
			"Errors": msgs,
		})
		return
	}

	res := &model.Reservation{
		Email:             email,
		ChartNumber:       req.ChartNumber,
		ReferringHospital: req.ReferringHospital,
		LastName:          req.LastName,
		FirstName:         req.FirstName,
		LastNameKana:      req.LastNameKana,
		FirstNameKana:     req.FirstNameKana,
		BirthDate:         req.BirthDate,
		Sex:               req.Sex,
		Choices:           req.Choices,
	}
	if err := h.reservations.Submit(c.Request.Context(), res); err != nil {
		c.HTML(http.StatusInternalServerError, "reservation_form.html", gin.H{
			"Email":  email,
			"Action": "/reservations/form/" + c.Param("token") + "/",
			"Form":   req,
			"Errors": []string{"Something went wrong saving your request. Please try again."},
		})
		return
	}

	c.Redirect(http.StatusFound, "/reservations/done/")
}

func (h *Handler) Done(c *gin.Context) {
	c.HTML(http.StatusOK, "reservation_done.html", nil)
}

func (h *Handler) RescheduleForm(c *gin.Context) {
	res, _, ok := h.verifyRescheduleToken(c)
	if !ok {
		return
	}

	form := model.ReservationFormRequest{
		ChartNumber:       res.ChartNumber,
		ReferringHospital: res.ReferringHospital,
		LastName:          res.LastName,
		FirstName:         res.FirstName,
		LastNameKana:      res.LastNameKana,
		FirstNameKana:     res.FirstNameKana,
		BirthDate:         res.BirthDate,
		Sex:               res.Sex,
		// Choices left empty on purpose; the patient re-enters them.
	}
	c.HTML(http.StatusOK, "reservation_form.html", gin.H{
		"Email":      res.Email,
		"Action":     "/reservations/reschedule/" + c.Param("token") + "/",
		"Form":       form,
		"Reschedule": true,
	})
}

func (h *Handler) SubmitReschedule(c *gin.Context) {
	res, reservationID, ok := h.verifyRescheduleToken(c)
	if !ok {
		return
	}

	var req model.RescheduleFormRequest
	_ = c.ShouldBind(&req)

	if msgs := req.Choices.Validate(); len(msgs) > 0 {
		c.HTML(http.StatusOK, "reservation_form.html", gin.H{
			"Email":      res.Email,
			"Action":     "/reservations/reschedule/" + c.Param("token") + "/",
			"Form":       model.ReservationFormRequest{Choices: req.Choices},
			"Reschedule": true,
			"Errors":     msgs,
		})
		return
	}

	if err := h.reservations.Resubmit(c.Request.Context(), reservationID, req.Choices); err != nil {
		if apperrors.HasCode(err, apperrors.ErrNotFound) {
			c.Redirect(http.StatusFound, "/reservations/email/")
			return
		}
		c.HTML(http.StatusInternalServerError, "reservation_form.html", gin.H{
			"Email":      res.Email,
			"Action":     "/reservations/reschedule/" + c.Param("token") + "/",
			"Form":       model.ReservationFormRequest{Choices: req.Choices},
			"Reschedule": true,
			"Errors":     []string{"Something went wrong saving your request. Please try again."},
		})
		return
	}

	c.Redirect(http.StatusFound, "/reservations/done/")
}

// verifyFormToken checks the 1 hour form-access token and renders the
// generic invalid page on any failure.
func (h *Handler) verifyFormToken(c *gin.Context) (map[string]string, bool) {
	payload, outcome := h.codec.Verify(c.Param("token"), token.PurposeMagicLink, token.FormLinkMaxAge)
	if outcome != token.OutcomeOK || payload["email"] == "" {
		c.HTML(http.StatusForbidden, "token_invalid.html", nil)
		return nil, false
	}
	return payload, true
}

// verifyRescheduleToken checks the 48 hour reschedule token, loads the
// reservation and enforces the ownership check. Every failure apart from a
// vanished reservation renders the same generic invalid page.
func (h *Handler) verifyRescheduleToken(c *gin.Context) (*model.Reservation, string, bool) {
	payload, outcome := h.codec.Verify(c.Param("token"), token.PurposeMagicLink, token.RescheduleLinkMaxAge)
	if outcome != token.OutcomeOK || payload["email"] == "" || payload["reservation_id"] == "" {
		c.HTML(http.StatusForbidden, "token_invalid.html", nil)
		return nil, "", false
	}

	reservationID := payload["reservation_id"]
	res, err := h.reservations.GetForReschedule(c.Request.Context(), reservationID, payload["email"])
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrNotFound) {
			c.Redirect(http.StatusFound, "/reservations/email/")
			return nil, "", false
		}
		// Ownership mismatch renders exactly like a forged token.
		c.HTML(http.StatusForbidden, "token_invalid.html", nil)
		return nil, "", false
	}
	return res, reservationID, true
}
