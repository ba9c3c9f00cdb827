package handlers

import (
	"errors"
	"net/http"
	"time"

	"agency_site_go/config"
	"agency_site_go/db"
	"agency_site_go/logging"
	"agency_site_go/middleware"
	"agency_site_go/models"
	"agency_site_go/services"
	"agency_site_go/services/routing"
	"agency_site_go/templates/pages"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// honeypotField is hidden from people; bots tend to fill it.
const honeypotField = "company_website"

// formFields lists the posted fields echoed back when a form is re-rendered.
var formFields = map[models.LeadKind][]string{
	models.LeadKindContact:      {"name", "email", "phone", "company", "message"},
	models.LeadKindConsultation: {"name", "email", "phone", "company", "website", "topic", "preferred_date", "preferred_contact"},
	models.LeadKindInquiry:      {"name", "email", "phone", "company", "service", "budget", "timeline", "message"},
}

// formPages is the page each form lives on.
var formPages = map[models.LeadKind]routing.PageType{
	models.LeadKindContact:      routing.PageHome,
	models.LeadKindConsultation: routing.PageFreeConsultation,
	models.LeadKindInquiry:      routing.PageServiceInquiry,
}

// ContactFormHandler handles the home page contact form.
func ContactFormHandler(c echo.Context) error {
	return submitLead(c, models.LeadKindContact, func(meta services.RequestMeta) (models.Submission, error) {
		return services.ValidateContact(services.ContactInput{
			Name:    c.FormValue("name"),
			Email:   c.FormValue("email"),
			Phone:   c.FormValue("phone"),
			Company: c.FormValue("company"),
			Message: c.FormValue("message"),
			Locale:  c.FormValue("locale"),
			Page:    c.FormValue("page"),
		}, meta)
	})
}

// ConsultationFormHandler handles the free consultation booking form.
func ConsultationFormHandler(c echo.Context) error {
	return submitLead(c, models.LeadKindConsultation, func(meta services.RequestMeta) (models.Submission, error) {
		return services.ValidateConsultation(services.ConsultationInput{
			Name:             c.FormValue("name"),
			Email:            c.FormValue("email"),
			Phone:            c.FormValue("phone"),
			Company:          c.FormValue("company"),
			Website:          c.FormValue("website"),
			Topic:            c.FormValue("topic"),
			PreferredDate:    c.FormValue("preferred_date"),
			PreferredContact: c.FormValue("preferred_contact"),
			Locale:           c.FormValue("locale"),
			Page:             c.FormValue("page"),
		}, meta, time.Now())
	})
}

// InquiryFormHandler handles the service inquiry form and its optional brief.
func InquiryFormHandler(c echo.Context) error {
	return submitLead(c, models.LeadKindInquiry, func(meta services.RequestMeta) (models.Submission, error) {
		inq, err := services.ValidateInquiry(services.InquiryInput{
			Name:     c.FormValue("name"),
			Email:    c.FormValue("email"),
			Phone:    c.FormValue("phone"),
			Company:  c.FormValue("company"),
			Service:  c.FormValue("service"),
			Budget:   c.FormValue("budget"),
			Timeline: c.FormValue("timeline"),
			Message:  c.FormValue("message"),
			Locale:   c.FormValue("locale"),
			Page:     c.FormValue("page"),
		}, meta)

		// Check the brief up front so its error is reported with the others
		file, ferr := c.FormFile("attachment")
		if ferr == nil && file != nil && file.Size > 0 {
			if _, verr := services.ValidateAttachment(file); verr != nil {
				key := "form.error.file_type"
				if errors.Is(verr, services.ErrFileTooLarge) {
					key = "form.error.file_too_large"
				}
				var ve *services.ValidationError
				if errors.As(err, &ve) {
					ve.Fields["attachment"] = key
					return nil, ve
				}
				return nil, &services.ValidationError{Fields: services.FieldErrors{"attachment": key}}
			}
		}
		if err != nil {
			return nil, err
		}

		if ferr == nil && file != nil && file.Size > 0 {
			// The storage key needs the id, so assign it before saving
			inq.ID = newLeadID()
			if err := services.AttachInquiryFile(c.Request().Context(), services.Storage, inq, file); err != nil {
				return nil, err
			}
		}
		return inq, nil
	})
}

// submitLead runs the shared pipeline: honeypot, captcha, validation,
// storage and notification. HTMX requests get the form fragment back,
// plain posts are redirected (PRG) or shown the page again with errors.
func submitLead(c echo.Context, kind models.LeadKind, validate func(meta services.RequestMeta) (models.Submission, error)) error {
	cfg := c.Get("config").(*config.Config)

	locale := routing.Locale(c.FormValue("locale"))
	if !routing.IsLocale(string(locale)) {
		locale = currentLocale(c)
	}
	middleware.SetLocale(c, string(locale))
	page := formPages[kind]

	form := Site.NewForm(kind, locale, page, middleware.GetCSRFToken(c))
	for _, field := range formFields[kind] {
		form.Values[field] = c.FormValue(field)
	}

	if c.FormValue(honeypotField) != "" {
		logging.L().Info("honeypot triggered", zap.String("kind", string(kind)), zap.String("ip", c.RealIP()))
		return formSuccess(c, form)
	}

	if cfg.TurnstileSecretKey != "" {
		ok, err := services.VerifyTurnstileToken(c.Request().Context(), c.FormValue("cf-turnstile-response"), cfg.TurnstileSecretKey, c.RealIP())
		if err != nil || !ok {
			logging.L().Warn("turnstile verification failed", zap.String("kind", string(kind)), zap.Error(err))
			form.Errors = map[string]string{"captcha": "form.error.captcha"}
			return formFailure(c, http.StatusUnprocessableEntity, form)
		}
	}

	sub, err := validate(services.RequestMeta{IPAddress: c.RealIP(), UserAgent: c.Request().UserAgent()})
	if err != nil {
		var ve *services.ValidationError
		if errors.As(err, &ve) {
			form.Errors = ve.Fields
			return formFailure(c, http.StatusUnprocessableEntity, form)
		}
		logging.L().Error("failed to prepare lead", zap.String("kind", string(kind)), zap.Error(err))
		form.Failed = true
		return formFailure(c, http.StatusInternalServerError, form)
	}

	if err := services.SaveLead(db.DB, sub); err != nil {
		logging.L().Error("failed to save lead", zap.String("kind", string(kind)), zap.Error(err))
		if inq, ok := sub.(*models.ServiceInquiry); ok && inq.HasAttachment() {
			_ = services.Storage.Delete(c.Request().Context(), inq.FilePath)
		}
		form.Failed = true
		return formFailure(c, http.StatusInternalServerError, form)
	}

	router := Site.Router()
	services.NotifyLead(cfg, sub,
		router.AbsoluteURL(leadHref(kind, sub.Base().ID)),
		router.AbsoluteURL(router.BuildLocalizedPath(locale, routing.PageHome)),
	)
	return formSuccess(c, form)
}

func formSuccess(c echo.Context, form *pages.Form) error {
	if isHTMX(c) {
		form.Sent = true
		return renderFragment(c, http.StatusOK, pages.FormFragment(form))
	}
	return c.Redirect(http.StatusSeeOther, form.SentHref+"?sent=1#"+form.Kind+"-form")
}

func formFailure(c echo.Context, status int, form *pages.Form) error {
	if isHTMX(c) {
		return renderFragment(c, status, pages.FormFragment(form))
	}

	req := pageRequest(c, form.SentHref)
	req.Form = form
	view, _, err := Site.Page(req)
	if err != nil {
		return err
	}
	return renderDocument(c, status, view)
}
