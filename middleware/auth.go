package middleware

import (
	"net/http"
	"time"

	"agency_site_go/config"
	"agency_site_go/db"
	"agency_site_go/models"
	"agency_site_go/services"

	"github.com/labstack/echo/v4"
)

const (
	// SessionCookieName is the name of the admin session cookie
	SessionCookieName = "agency_session"
	// ContextKeyUser is the context key for the authenticated admin
	ContextKeyUser = "user"
	// ContextKeySession is the context key for the session
	ContextKeySession = "session"

	// LoginPath is where unauthenticated admin requests are sent.
	LoginPath = "/admin/login"
)

// RequireAuth is middleware that requires an admin session
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				return redirectToLogin(c)
			}

			// Expired, unknown and deactivated sessions all end up at the login page
			session, err := services.ValidateSession(db.DB, cookie.Value)
			if err != nil {
				ClearSessionCookie(c)
				return redirectToLogin(c)
			}

			c.Set(ContextKeyUser, &session.User)
			c.Set(ContextKeySession, session)

			return next(c)
		}
	}
}

func redirectToLogin(c echo.Context) error {
	if c.Request().Header.Get("HX-Request") == "true" {
		c.Response().Header().Set("HX-Redirect", LoginPath)
		return c.NoContent(http.StatusUnauthorized)
	}
	return c.Redirect(http.StatusSeeOther, LoginPath)
}

// GetCurrentUser retrieves the signed-in admin from context
func GetCurrentUser(c echo.Context) *models.AdminUser {
	user, ok := c.Get(ContextKeyUser).(*models.AdminUser)
	if !ok {
		return nil
	}
	return user
}

// GetCurrentSession retrieves the session from context
func GetCurrentSession(c echo.Context) *models.Session {
	session, ok := c.Get(ContextKeySession).(*models.Session)
	if !ok {
		return nil
	}
	return session
}

// SetSessionCookie issues the admin session cookie.
func SetSessionCookie(c echo.Context, session *models.Session) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/admin",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   isProduction(c),
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie clears the session cookie
func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/admin",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isProduction(c),
		SameSite: http.SameSiteLaxMode,
	})
}

func isProduction(c echo.Context) bool {
	cfg, ok := c.Get("config").(*config.Config)
	return ok && cfg.IsProduction()
}
