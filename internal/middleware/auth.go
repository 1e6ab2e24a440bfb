package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shinagawa-clinic/reservation-api/internal/model"
	"github.com/shinagawa-clinic/reservation-api/internal/service/auth"
)

// SessionCookie is the staff session cookie name.
const SessionCookie = "staff_session"

const ctxStaffSession = "staffSession"

const loginPath = "/staff/login/"

type AuthMiddleware struct {
	authService *auth.Service
}

func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// RequireSession gates every staff endpoint. Without a valid session the
// request is redirected to the login form, carrying the original
// destination so login can return there.
func (m *AuthMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok, err := c.Cookie(SessionCookie); err == nil {
			if sess, err := m.authService.VerifySession(tok); err == nil {
				c.Set(ctxStaffSession, sess)
				c.Next()
				return
			}
		}

		c.Redirect(http.StatusFound, loginPath+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
	}
}

// StaffSession returns the session set by RequireSession, or nil.
func StaffSession(c *gin.Context) *model.StaffSession {
	if v, ok := c.Get(ctxStaffSession); ok {
		if sess, ok := v.(*model.StaffSession); ok {
			return sess
		}
	}
	return nil
}

// SafeNext sanitizes a post-login destination. Only same-site paths are
// accepted; anything else falls back to the given default.
func SafeNext(raw, fallback string) string {
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") && !strings.ContainsAny(raw, "\\\r\n") {
		return raw
	}
	return fallback
}
