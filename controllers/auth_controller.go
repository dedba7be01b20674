package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/taskreward_backend/middleware"
	"github.com/HSouheill/taskreward_backend/models"
	"github.com/HSouheill/taskreward_backend/services"
	"github.com/HSouheill/taskreward_backend/session"
)

// AuthController handles Firebase sign-in and the session cookie
type AuthController struct {
	identity  *services.IdentityService
	guard     *middleware.SessionGuard
	codec     *session.CookieCodec
	webConfig map[string]string
	adminHome string
}

func NewAuthController(identity *services.IdentityService, guard *middleware.SessionGuard, codec *session.CookieCodec, webConfig map[string]string, adminHome string) *AuthController {
	return &AuthController{
		identity:  identity,
		guard:     guard,
		codec:     codec,
		webConfig: webConfig,
		adminHome: adminHome,
	}
}

// AuthPage returns the client sign-in configuration, or reports an existing session
func (ac *AuthController) AuthPage(c echo.Context) error {
	if sid, ok := ac.guard.SessionID(c); ok {
		if _, err := ac.identity.Session(c.Request().Context(), sid); err == nil {
			return respond(c, http.StatusOK, "Already signed in", map[string]interface{}{
				"authenticated": true,
				"next":          "/dashboard",
			})
		}
	}

	return respond(c, http.StatusOK, "Sign in to continue", map[string]interface{}{
		"authenticated": false,
		"firebase":      ac.webConfig,
		"refCode":       c.QueryParam("ref"),
	})
}

// SessionLogin exchanges a Firebase ID token for a session cookie
func (ac *AuthController) SessionLogin(c echo.Context) error {
	var req models.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return invalidRequest(c, err)
	}

	sess, user, err := ac.identity.SessionLogin(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err, "Login failed")
	}

	cookie, err := ac.codec.Cookie(sess)
	if err != nil {
		c.Logger().Errorf("failed to build session cookie: %v", err)
		return respond(c, http.StatusInternalServerError, "Login failed", nil)
	}
	c.SetCookie(cookie)

	next := "/dashboard"
	if user.IsAdmin() {
		next = ac.adminHome
	}
	return respond(c, http.StatusOK, "Login successful", map[string]interface{}{
		"user": user,
		"next": next,
	})
}

// Logout destroys the server-side session and clears the cookie
func (ac *AuthController) Logout(c echo.Context) error {
	if sid, ok := ac.guard.SessionID(c); ok {
		if err := ac.identity.Logout(c.Request().Context(), sid); err != nil {
			c.Logger().Warnf("failed to delete session: %v", err)
		}
	}
	c.SetCookie(ac.codec.Expired())
	return respond(c, http.StatusOK, "Logged out successfully", models.Next{Next: "/auth"})
}
