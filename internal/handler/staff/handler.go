package staff

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shinagawa-clinic/reservation-api/internal/middleware"
	"github.com/shinagawa-clinic/reservation-api/internal/model"
	"github.com/shinagawa-clinic/reservation-api/internal/service/auth"
	"github.com/shinagawa-clinic/reservation-api/internal/service/reservation"
	apperrors "github.com/shinagawa-clinic/reservation-api/pkg/errors"
)

const listPath = "/staff/reservations/"

// Handler serves the staff dashboard: session lifecycle, the pending queue
// and status transitions.
type Handler struct {
	authService  *auth.Service
	reservations *reservation.Service
	secureCookie bool
}

func NewHandler(authService *auth.Service, reservations *reservation.Service, secureCookie bool) *Handler {
	return &Handler{
		authService:  authService,
		reservations: reservations,
		secureCookie: secureCookie,
	}
}

// RegisterRoutes mounts the open session endpoints on r and everything else
// behind the session gate.
func (h *Handler) RegisterRoutes(r gin.IRouter, authMW *middleware.AuthMiddleware) {
	r.GET("/staff/login/", h.LoginForm)
	r.POST("/staff/login/", h.Login)
	r.GET("/staff/logout/", h.Logout)

	protected := r.Group("/staff", authMW.RequireSession())
	protected.GET("/reservations/", h.List)
	protected.GET("/reservations/:id/", h.Detail)
	protected.POST("/reservations/:id/", h.UpdateStatus)
}

func (h *Handler) LoginForm(c *gin.Context) {
	if tok, err := c.Cookie(middleware.SessionCookie); err == nil {
		if _, err := h.authService.VerifySession(tok); err == nil {
			c.Redirect(http.StatusFound, listPath)
			return
		}
	}
	c.HTML(http.StatusOK, "staff_login.html", gin.H{
		"Email": "",
		"Next":  c.Query("next"),
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req model.StaffLoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "staff_login.html", gin.H{
			"Email":  c.PostForm("email"),
			"Next":   c.Query("next"),
			"Errors": []string{"Please enter your email and password."},
		})
		return
	}

	tok, _, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// Wrong password and inactive account read the same; the password
		// is never echoed back.
		c.HTML(http.StatusUnauthorized, "staff_login.html", gin.H{
			"Email":  req.Email,
			"Next":   c.Query("next"),
			"Errors": []string{"Email or password is incorrect."},
		})
		return
	}

	maxAge := int(h.authService.SessionTTL() / time.Second)
	c.SetCookie(middleware.SessionCookie, tok, maxAge, "/", "", h.secureCookie, true)
	c.Redirect(http.StatusFound, middleware.SafeNext(c.Query("next"), listPath))
}

func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.secureCookie, true)
	c.Redirect(http.StatusFound, "/staff/login/")
}

func (h *Handler) List(c *gin.Context) {
	pending, recent, err := h.reservations.Dashboard(c.Request.Context())
	if err != nil {
		c.HTML(http.StatusInternalServerError, "staff_dashboard.html", gin.H{
			"Staff":   middleware.StaffSession(c),
			"Notices": []string{"Could not load reservations. Please reload."},
		})
		return
	}

	var notices []string
	if c.Query("missing") == "1" {
		notices = append(notices, "The requested reservation was not found.")
	}

	c.HTML(http.StatusOK, "staff_dashboard.html", gin.H{
		"Staff":   middleware.StaffSession(c),
		"Pending": pending,
		"Recent":  recent,
		"Notices": notices,
	})
}

func (h *Handler) Detail(c *gin.Context) {
	res, err := h.reservations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Redirect(http.StatusFound, listPath+"?missing=1")
		return
	}

	c.HTML(http.StatusOK, "staff_detail.html", gin.H{"Reservation": res})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")

	var req model.StatusUpdateRequest
	if err := c.ShouldBind(&req); err != nil {
		h.renderDetailError(c, id, "Please choose a status.")
		return
	}

	// The detail form always posts the record's version; a missing or zero
	// value would otherwise read as an unconditional write and skip the
	// concurrent-edit check.
	if req.Version < 1 {
		h.renderDetailError(c, id, "The form was out of date. Please review and save again.")
		return
	}

	sess := middleware.StaffSession(c)
	handledBy := req.HandledBy
	if handledBy == "" && sess != nil {
		handledBy = sess.Name
	}

	upd := model.StatusUpdate{
		Status:            model.ReservationStatus(req.Status),
		ConfirmedDatetime: req.ConfirmedDatetime,
		StaffNote:         req.StaffNote,
		HandledBy:         handledBy,
	}

	updated, warnings, err := h.reservations.Transition(c.Request.Context(), id, upd, req.Version)
	if err != nil {
		switch {
		case apperrors.HasCode(err, apperrors.ErrNotFound):
			c.Redirect(http.StatusFound, listPath+"?missing=1")
		case apperrors.HasCode(err, apperrors.ErrStaleRecord):
			h.renderDetailError(c, id, "Someone else updated this reservation. Please review and save again.")
		case apperrors.HasCode(err, apperrors.ErrBadRequest):
			h.renderDetailError(c, id, "Please choose a valid status.")
		default:
			h.renderDetailError(c, id, "Could not save the update. Please try again.")
		}
		return
	}

	c.HTML(http.StatusOK, "staff_detail.html", gin.H{
		"Reservation": updated,
		"Notices":     []string{"Reservation updated."},
		"Warnings":    warnings,
	})
}

// renderDetailError reloads the record and re-renders the detail page with
// one error message; if the record is gone it falls back to the listing.
func (h *Handler) renderDetailError(c *gin.Context, id, msg string) {
	res, err := h.reservations.Get(c.Request.Context(), id)
	if err != nil {
		c.Redirect(http.StatusFound, listPath+"?missing=1")
		return
	}
	c.HTML(http.StatusOK, "staff_detail.html", gin.H{
		"Reservation": res,
		"Errors":      []string{msg},
	})
}
