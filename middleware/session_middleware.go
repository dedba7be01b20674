// middleware/session_middleware.go
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/taskreward_backend/models"
	"github.com/HSouheill/taskreward_backend/session"
)

// Context keys set by the session middleware.
const (
	ContextUserID    = "userId"
	ContextEmail     = "email"
	ContextIsAdmin   = "isAdmin"
	ContextSessionID = "sessionId"
)

// SessionAuthenticator resolves session ids into sessions.
type SessionAuthenticator interface {
	// Authenticate also re-checks the user's ban flag.
	Authenticate(ctx context.Context, sid string) (*session.Session, error)
	// Session only loads the stored session.
	Session(ctx context.Context, sid string) (*session.Session, error)
}

// SessionGuard issues the middlewares that protect user and admin routes.
type SessionGuard struct {
	auth  SessionAuthenticator
	codec *session.CookieCodec
}

func NewSessionGuard(auth SessionAuthenticator, codec *session.CookieCodec) *SessionGuard {
	return &SessionGuard{auth: auth, codec: codec}
}

// SessionID extracts the verified session id from the request cookie.
func (g *SessionGuard) SessionID(c echo.Context) (string, bool) {
	cookie, err := c.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	sid, err := g.codec.Decode(cookie.Value)
	if err != nil {
		return "", false
	}
	return sid, true
}

// RequireLogin admits requests with a live session whose user still exists and is not banned.
func (g *SessionGuard) RequireLogin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid, ok := g.SessionID(c)
			if !ok {
				return unauthorized(c, "Please log in first")
			}

			sess, err := g.auth.Authenticate(c.Request().Context(), sid)
			switch {
			case errors.Is(err, models.ErrBanned):
				c.SetCookie(g.codec.Expired())
				c.Logger().Warnf("banned user rejected, session %s cleared", sid)
				return c.JSON(http.StatusForbidden, models.Response{
					Status:  http.StatusForbidden,
					Message: "Your account has been BANNED by Admin.",
				})
			case errors.Is(err, models.ErrUserNotFound):
				c.SetCookie(g.codec.Expired())
				return unauthorized(c, "Account no longer exists")
			case errors.Is(err, session.ErrNotFound):
				c.SetCookie(g.codec.Expired())
				return unauthorized(c, "Session expired, please log in again")
			case err != nil:
				c.Logger().Errorf("session lookup failed: %v", err)
				return c.JSON(http.StatusInternalServerError, models.Response{
					Status:  http.StatusInternalServerError,
					Message: "Failed to load session",
				})
			}

			setSession(c, sess)
			return next(c)
		}
	}
}

// RequireAdmin admits sessions whose admin flag was set at login. The role is not re-read.
func (g *SessionGuard) RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid, ok := g.SessionID(c)
			if !ok {
				return unauthorized(c, "Please log in first")
			}
			sess, err := g.auth.Session(c.Request().Context(), sid)
			if err != nil {
				return unauthorized(c, "Session expired, please log in again")
			}
			if !sess.IsAdmin {
				c.Logger().Warnf("non-admin %s denied access to %s", sess.UID, c.Path())
				return c.JSON(http.StatusForbidden, models.Response{
					Status:  http.StatusForbidden,
					Message: "Admin access required",
				})
			}

			setSession(c, sess)
			return next(c)
		}
	}
}

func setSession(c echo.Context, sess *session.Session) {
	c.Set(ContextSessionID, sess.ID)
	c.Set(ContextUserID, sess.UID)
	c.Set(ContextEmail, sess.Email)
	c.Set(ContextIsAdmin, sess.IsAdmin)
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, models.Response{
		Status:  http.StatusUnauthorized,
		Message: message,
		Data:    models.Next{Next: "/auth"},
	})
}

// GetUserID returns the uid placed in the context by the session middleware.
func GetUserID(c echo.Context) string {
	uid, _ := c.Get(ContextUserID).(string)
	return uid
}

func GetEmail(c echo.Context) string {
	email, _ := c.Get(ContextEmail).(string)
	return email
}

func IsAdmin(c echo.Context) bool {
	admin, _ := c.Get(ContextIsAdmin).(bool)
	return admin
}
