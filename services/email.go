package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"strings"
	texttemplate "text/template"
	"time"

	"agency_site_go/config"
	"agency_site_go/logging"
	"agency_site_go/models"
	"agency_site_go/services/i18n"
	"agency_site_go/templates"

	"github.com/mrz1836/postmark"
	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// Email represents an email message
type Email struct {
	To       []string
	ReplyTo  string
	Subject  string
	Tag      string
	HTMLBody string
	TextBody string
}

// emailTemplates holds <name>[_<lang>].html|.txt files.
var emailTemplates fs.FS = templates.Emails()

// EmailSender delivers one message and returns the provider's message id.
type EmailSender interface {
	Send(ctx context.Context, from string, email *Email) (string, error)
}

// newEmailSender is swapped in tests.
var newEmailSender = NewEmailSender

// NewEmailSender builds the provider selected by EMAIL_PROVIDER.
func NewEmailSender(cfg *config.Config) (EmailSender, error) {
	switch strings.ToLower(cfg.EmailProvider) {
	case "", "resend":
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("RESEND_API_KEY not configured")
		}
		return &resendSender{client: resend.NewClient(cfg.ResendAPIKey)}, nil
	case "postmark":
		if cfg.PostmarkServerToken == "" {
			return nil, fmt.Errorf("POSTMARK_SERVER_TOKEN not configured")
		}
		return &postmarkSender{client: postmark.NewClient(cfg.PostmarkServerToken, "")}, nil
	default:
		return nil, fmt.Errorf("unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
	}
}

type resendSender struct {
	client *resend.Client
}

func (s *resendSender) Send(ctx context.Context, from string, email *Email) (string, error) {
	params := &resend.SendEmailRequest{
		From:    from,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTMLBody,
		Text:    email.TextBody,
		ReplyTo: email.ReplyTo,
	}
	if email.Tag != "" {
		params.Tags = []resend.Tag{{Name: "category", Value: email.Tag}}
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to send email via Resend: %w", err)
	}
	return sent.Id, nil
}

type postmarkSender struct {
	client *postmark.Client
}

func (s *postmarkSender) Send(ctx context.Context, from string, email *Email) (string, error) {
	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:       from,
		To:         strings.Join(email.To, ","),
		ReplyTo:    email.ReplyTo,
		Subject:    email.Subject,
		Tag:        email.Tag,
		HTMLBody:   email.HTMLBody,
		TextBody:   email.TextBody,
		TrackOpens: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to send email via Postmark: %w", err)
	}
	if resp.ErrorCode > 0 {
		return "", fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message)
	}
	return resp.MessageID, nil
}

// loadTemplate renders templateName_lang.html/.txt, falling back to
// templateName.html/.txt. HTML goes through html/template and text through
// text/template so plain-text bodies are not entity-escaped.
func loadTemplate(templateName string, lang string, data interface{}) (html string, text string, err error) {
	read := func(ext string) (string, []byte, error) {
		name := fmt.Sprintf("%s_%s%s", templateName, lang, ext)
		content, err := fs.ReadFile(emailTemplates, name)
		if err == nil {
			return name, content, nil
		}
		name = templateName + ext
		content, err = fs.ReadFile(emailTemplates, name)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read template %s: %w", name, err)
		}
		return name, content, nil
	}

	name, content, err := read(".html")
	if err != nil {
		return "", "", err
	}
	htmlTmpl, err := htmltemplate.New(name).Parse(string(content))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var htmlBuf bytes.Buffer
	if err := htmlTmpl.Execute(&htmlBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	name, content, err = read(".txt")
	if err != nil {
		return "", "", err
	}
	textTmpl, err := texttemplate.New(name).Parse(string(content))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var textBuf bytes.Buffer
	if err := textTmpl.Execute(&textBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return htmlBuf.String(), textBuf.String(), nil
}

// buildEmailWithFallback renders the localized template and retries with
// the default language when that fails.
func buildEmailWithFallback(templateName string, lang string, tmplData interface{}, to ...string) *Email {
	htmlBody, textBody, err := loadTemplate(templateName, lang, tmplData)
	if err != nil {
		logging.L().Error("failed to load email template",
			zap.String("template", templateName), zap.String("lang", lang), zap.Error(err))
		if lang != i18n.DefaultLang {
			htmlBody, textBody, err = loadTemplate(templateName, i18n.DefaultLang, tmplData)
			if err != nil {
				logging.L().Error("failed to load default email template",
					zap.String("template", templateName), zap.Error(err))
			}
		}
	}

	return &Email{
		To:       to,
		HTMLBody: htmlBody,
		TextBody: textBody,
	}
}

// SendEmail sends an email through the configured provider
func SendEmail(ctx context.Context, cfg *config.Config, email *Email) error {
	if len(email.To) == 0 {
		return errors.New("email has no recipients")
	}
	if email.HTMLBody == "" && email.TextBody == "" {
		return errors.New("email must have either HTMLBody or TextBody")
	}

	// In development mode, log the email instead of sending
	if cfg.EmailTestMode {
		logEmail(email)
		return nil
	}

	sender, err := newEmailSender(cfg)
	if err != nil {
		return err
	}

	from := fmt.Sprintf("%s <%s>", cfg.EmailFromName, cfg.EmailFrom)
	id, err := sender.Send(ctx, from, email)
	if err != nil {
		return err
	}

	logging.L().Info("email sent",
		zap.String("provider", cfg.EmailProvider),
		zap.String("id", id),
		zap.Strings("to", email.To),
		zap.String("tag", email.Tag),
	)
	return nil
}

// logEmail logs email details in test mode
func logEmail(email *Email) {
	logging.L().Info("email logged (test mode, not sent)",
		zap.Strings("to", email.To),
		zap.String("reply_to", email.ReplyTo),
		zap.String("subject", email.Subject),
		zap.String("tag", email.Tag),
		zap.String("text", email.TextBody),
		zap.String("html", truncate(email.HTMLBody, 500)),
	)
}

// truncate truncates a string to a maximum length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// SendEmailAsync sends an email asynchronously using a goroutine
// This is the recommended method for sending emails in handlers to avoid blocking HTTP responses
func SendEmailAsync(cfg *config.Config, email *Email) {
	// Create a copy of the email to avoid race conditions
	emailCopy := &Email{
		To:       append([]string{}, email.To...),
		ReplyTo:  email.ReplyTo,
		Subject:  email.Subject,
		Tag:      email.Tag,
		HTMLBody: email.HTMLBody,
		TextBody: email.TextBody,
	}

	go func(cfg *config.Config, email *Email) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := SendEmail(ctx, cfg, email); err != nil {
			logging.L().Error("failed to send async email", zap.Strings("to", email.To), zap.Error(err))
		}
	}(cfg, emailCopy)
}

// LeadEmailField is one labeled value in a lead email.
type LeadEmailField struct {
	Label string
	Value string
}

// LeadEmailData contains data for the lead notification and confirmation templates
type LeadEmailData struct {
	Kind      string
	KindLabel string
	Name      string
	Email     string
	Fields    []LeadEmailField
	AdminURL  string
	SiteName  string
	SiteURL   string
}

// leadEmailData flattens a submission into labeled fields in lang.
func leadEmailData(sub models.Submission, lang string) LeadEmailData {
	lead := sub.Base()
	data := LeadEmailData{
		Kind:      string(sub.Kind()),
		KindLabel: i18n.Translate(lang, "kind."+string(sub.Kind())),
		Name:      lead.Name,
		Email:     lead.Email,
	}
	add := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		data.Fields = append(data.Fields, LeadEmailField{Label: i18n.Translate(lang, key), Value: value})
	}

	add("form.name", lead.Name)
	add("form.email", lead.Email)
	add("form.phone", lead.Phone)

	switch s := sub.(type) {
	case *models.ContactMessage:
		add("form.company", s.Company)
	case *models.ConsultationRequest:
		add("form.company", s.Company)
		add("form.website", s.Website)
		add("form.topic", s.Topic)
		if s.PreferredDate != nil {
			add("form.preferred_date", s.PreferredDate.Format("02.01.2006"))
		}
		add("form.preferred_contact", i18n.Translate(lang, "form.contact_options."+s.PreferredContact))
	case *models.ServiceInquiry:
		add("form.service", i18n.Translate(lang, "services."+s.Service))
		add("form.company", s.Company)
		if s.Budget != "" {
			add("form.budget", i18n.Translate(lang, "form.budget_options."+s.Budget))
		}
		if s.Timeline != "" {
			add("form.timeline", i18n.Translate(lang, "form.timeline_options."+s.Timeline))
		}
		if s.HasAttachment() {
			add("admin.attachment", s.FileOriginalName)
		}
	}

	add("form.message", lead.Message)
	add("admin.locale", lead.Locale)
	return data
}

// BuildLeadNotificationEmail creates the team notification for a new submission.
// The team reads notifications in the default language; replies go to the requester.
func BuildLeadNotificationEmail(sub models.Submission, to []string, adminURL string) *Email {
	lang := i18n.DefaultLang
	data := leadEmailData(sub, lang)
	data.AdminURL = adminURL

	email := buildEmailWithFallback("lead_notification", lang, data, to...)
	email.ReplyTo = sub.Base().Email
	email.Tag = "lead-" + string(sub.Kind())

	args := map[string]interface{}{"name": sub.Base().Name}
	key := "email.subject.contact_notification"
	switch s := sub.(type) {
	case *models.ConsultationRequest:
		key = "email.subject.consultation_notification"
	case *models.ServiceInquiry:
		key = "email.subject.inquiry_notification"
		args["service"] = i18n.Translate(lang, "services."+s.Service)
	}
	email.Subject = i18n.Translate(lang, key, args)
	return email
}

// BuildLeadConfirmationEmail creates the requester confirmation in the
// language the form was submitted in.
func BuildLeadConfirmationEmail(sub models.Submission, siteName, siteURL string) *Email {
	lead := sub.Base()
	lang := lead.Locale
	if lang == "" {
		lang = i18n.DefaultLang
	}
	data := leadEmailData(sub, lang)
	data.SiteName = siteName
	data.SiteURL = siteURL

	email := buildEmailWithFallback("lead_confirmation", lang, data, lead.Email)
	email.Tag = "confirmation-" + string(sub.Kind())

	key := "email.subject.contact_confirmation"
	switch sub.(type) {
	case *models.ConsultationRequest:
		key = "email.subject.consultation_confirmation"
	case *models.ServiceInquiry:
		key = "email.subject.inquiry_confirmation"
	}
	email.Subject = i18n.Translate(lang, key)
	return email
}

// LeadFields returns the labeled fields of a submission in lang, as shown
// in emails and on the admin detail page.
func LeadFields(sub models.Submission, lang string) []LeadEmailField {
	return leadEmailData(sub, lang).Fields
}

// LeadDigestRow is one kind in the daily digest.
type LeadDigestRow struct {
	Label string
	New   int64
	Total int64
}

// LeadDigestData contains data for the daily digest template
type LeadDigestData struct {
	Date     string
	Rows     []LeadDigestRow
	AdminURL string
}

// BuildLeadDigestEmail summarizes unhandled submissions for the team.
func BuildLeadDigestEmail(counts []LeadCounts, to []string, adminURL string, now time.Time) *Email {
	lang := i18n.DefaultLang
	data := LeadDigestData{Date: now.Format("02.01.2006"), AdminURL: adminURL}
	var pending int64
	for _, c := range counts {
		data.Rows = append(data.Rows, LeadDigestRow{
			Label: i18n.Translate(lang, "kind."+string(c.Kind)),
			New:   c.New,
			Total: c.Total,
		})
		pending += c.New
	}

	email := buildEmailWithFallback("lead_digest", lang, data, to...)
	email.Tag = "lead-digest"
	email.Subject = i18n.Translate(lang, "email.subject.digest", map[string]interface{}{"count": pending})
	return email
}
