package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"agency_site_go/db"
	"agency_site_go/middleware"
	"agency_site_go/models"
	"agency_site_go/services"
	"agency_site_go/services/i18n"
	"agency_site_go/templates/pages"

	"github.com/labstack/echo/v4"
)

// AdminLoginHandler renders the sign-in page
func AdminLoginHandler(c echo.Context) error {
	if cookie, err := c.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if _, err := services.ValidateSession(db.DB, cookie.Value); err == nil {
			return c.Redirect(http.StatusSeeOther, "/admin")
		}
	}
	return renderLogin(c, http.StatusOK, "", "")
}

// AdminLoginPostHandler checks credentials and starts a session.
func AdminLoginPostHandler(c echo.Context) error {
	lang := middleware.GetLocale(c)
	email := c.FormValue("email")
	password := c.FormValue("password")

	if email == "" || password == "" {
		return renderLogin(c, http.StatusUnprocessableEntity, email, i18n.Translate(lang, "admin.invalid_credentials"))
	}

	user, err := services.Authenticate(db.DB, email, password, time.Now())
	if err != nil {
		msg := i18n.Translate(lang, "admin.invalid_credentials")
		switch {
		case errors.Is(err, services.ErrAccountLocked):
			minutes := 1
			if user != nil && user.LockoutUntil != nil {
				if m := int(time.Until(*user.LockoutUntil).Minutes()) + 1; m > minutes {
					minutes = m
				}
			}
			msg = i18n.Translate(lang, "admin.locked", map[string]interface{}{"minutes": minutes})
			if user != nil {
				services.LogSecurityEvent(db.DB, "LOGIN_LOCKED", user.ID, c.RealIP())
			}
		case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrAccountInactive):
			services.LogAuditEvent(db.DB, services.AuditContext{IPAddress: c.RealIP(), UserAgent: c.Request().UserAgent()}, services.AuditEntry{
				Action:       models.AuditActionLoginFailed,
				ResourceType: "admin_user",
				ResourceID:   strings.ToLower(strings.TrimSpace(email)),
			})
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to sign in")
		}
		return renderLogin(c, http.StatusUnauthorized, email, msg)
	}

	session, err := services.CreateSession(db.DB, user.ID, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create session")
	}
	middleware.SetSessionCookie(c, session)
	services.LogAuditEvent(db.DB, services.AuditContext{
		UserID:    user.ID,
		UserName:  user.Name,
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}, services.AuditEntry{Action: models.AuditActionLogin, ResourceType: "admin_user", ResourceID: user.ID, ResourceName: user.Email})
	if user.Language != "" {
		middleware.SetLanguageCookie(c, user.Language)
	}

	if isHTMX(c) {
		c.Response().Header().Set("HX-Redirect", "/admin")
		return c.NoContent(http.StatusOK)
	}
	return c.Redirect(http.StatusSeeOther, "/admin")
}

// AdminLogoutHandler ends the session.
func AdminLogoutHandler(c echo.Context) error {
	if cookie, err := c.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := services.DeleteSession(db.DB, cookie.Value); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to sign out")
		}
	}
	middleware.ClearSessionCookie(c)
	if user := middleware.GetCurrentUser(c); user != nil {
		services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), services.AuditEntry{
			Action: models.AuditActionLogout, ResourceType: "admin_user", ResourceID: user.ID, ResourceName: user.Email,
		})
	}
	return c.Redirect(http.StatusSeeOther, middleware.LoginPath)
}

func renderLogin(c echo.Context, status int, email, message string) error {
	lang := middleware.GetLocale(c)
	view := &pages.AdminLogin{
		AdminLayout: pages.AdminLayout{
			Lang:       lang,
			Title:      i18n.Translate(lang, "admin.login_title"),
			CSRF:       middleware.GetCSRFToken(c),
			Nonce:      middleware.GetNonce(c.Request().Context()),
			CSSVersion: middleware.GetCSSVersion(c.Request().Context()),
		},
		Email: email,
		Error: message,
	}
	return renderFragment(c, status, pages.AdminLoginPage(view))
}
