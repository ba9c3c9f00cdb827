package services

import (
	"errors"
	"fmt"
	"html"
	"net/mail"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"agency_site_go/config"
	"agency_site_go/logging"
	"agency_site_go/models"
	"agency_site_go/services/routing"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Field length caps
const (
	maxNameLength    = 120
	maxEmailLength   = 254
	maxPhoneLength   = 40
	maxCompanyLength = 160
	maxWebsiteLength = 200
	maxTopicLength   = 2000
	maxMessageLength = 5000
)

// Allowed choice values, also used to render the select options.
var (
	BudgetOptions   = []string{"under_1000", "1000_3000", "3000_10000", "over_10000"}
	TimelineOptions = []string{"asap", "1_3_months", "3_6_months", "flexible"}
	ContactOptions  = []string{"email", "phone", "video"}
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrLeadNotFound = errors.New("lead not found")
	ErrUnknownKind  = errors.New("unknown lead kind")

	phonePattern = regexp.MustCompile(`^[0-9+()./\- ]{6,}$`)
	strictPolicy = bluemonday.StrictPolicy()
)

// FieldErrors maps a form field name to the i18n key of its error.
type FieldErrors map[string]string

// ValidationError carries per-field errors. It matches ErrValidation.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ContactInput is the raw contact form.
type ContactInput struct {
	Name    string
	Email   string
	Phone   string
	Company string
	Message string
	Locale  string
	Page    string
}

// ConsultationInput is the raw free consultation form.
type ConsultationInput struct {
	Name             string
	Email            string
	Phone            string
	Company          string
	Website          string
	Topic            string
	PreferredDate    string
	PreferredContact string
	Locale           string
	Page             string
}

// InquiryInput is the raw service inquiry form.
type InquiryInput struct {
	Name     string
	Email    string
	Phone    string
	Company  string
	Service  string
	Budget   string
	Timeline string
	Message  string
	Locale   string
	Page     string
}

// RequestMeta is attached to every stored lead.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

type validator struct {
	errs FieldErrors
}

func (v *validator) fail(field, key string) {
	if _, ok := v.errs[field]; !ok {
		v.errs[field] = key
	}
}

func (v *validator) text(field, value string, required bool, max int) string {
	value = sanitizeText(value)
	if value == "" {
		if required {
			v.fail(field, "form.error.required")
		}
		return ""
	}
	if utf8.RuneCountInString(value) > max {
		v.fail(field, "form.error.too_long")
	}
	return value
}

func (v *validator) email(field, value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		v.fail(field, "form.error.required")
		return ""
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value || len(value) > maxEmailLength || !strings.Contains(value[strings.LastIndex(value, "@"):], ".") {
		v.fail(field, "form.error.invalid_email")
	}
	return value
}

func (v *validator) phone(field, value string, required bool) string {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			v.fail(field, "form.error.required")
		}
		return ""
	}
	if len(value) > maxPhoneLength || !phonePattern.MatchString(value) {
		v.fail(field, "form.error.invalid_choice")
	}
	return value
}

func (v *validator) choice(field, value string, options []string, required bool) string {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			v.fail(field, "form.error.required")
		}
		return ""
	}
	for _, o := range options {
		if o == value {
			return value
		}
	}
	v.fail(field, "form.error.invalid_choice")
	return ""
}

func (v *validator) website(field, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if !strings.Contains(value, "://") {
		value = "https://" + value
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || !strings.Contains(u.Host, ".") || len(value) > maxWebsiteLength {
		v.fail(field, "form.error.invalid_url")
		return ""
	}
	return u.String()
}

func (v *validator) date(field, value string, now time.Time) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	d, err := time.ParseInLocation("2006-01-02", value, now.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err != nil || d.Before(today) {
		v.fail(field, "form.error.invalid_date")
		return nil
	}
	return &d
}

func (v *validator) err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.errs}
}

// sanitizeText strips markup and trims. Entities are decoded so the stored
// value is plain text.
func sanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

func normalizeLocale(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if routing.IsLocale(s) {
		return s
	}
	return string(routing.DefaultLocale)
}

func normalizePage(s string) string {
	if p, ok := routing.ParsePageType(strings.TrimSpace(s)); ok {
		return string(p)
	}
	return ""
}

func newLead(v *validator, name, email, phone, message string, messageRequired bool, locale, page string, meta RequestMeta) models.Lead {
	return models.Lead{
		Name:      v.text("name", name, true, maxNameLength),
		Email:     v.email("email", email),
		Phone:     v.phone("phone", phone, false),
		Message:   v.text("message", message, messageRequired, maxMessageLength),
		Locale:    normalizeLocale(locale),
		Page:      normalizePage(page),
		Status:    models.LeadStatusNew,
		IPAddress: meta.IPAddress,
		UserAgent: truncate(meta.UserAgent, 512),
	}
}

// ValidateContact builds a ContactMessage or returns a *ValidationError.
func ValidateContact(in ContactInput, meta RequestMeta) (*models.ContactMessage, error) {
	v := &validator{errs: FieldErrors{}}
	msg := &models.ContactMessage{
		Lead:    newLead(v, in.Name, in.Email, in.Phone, in.Message, true, in.Locale, in.Page, meta),
		Company: v.text("company", in.Company, false, maxCompanyLength),
	}
	if err := v.err(); err != nil {
		return nil, err
	}
	return msg, nil
}

// ValidateConsultation builds a ConsultationRequest or returns a *ValidationError.
func ValidateConsultation(in ConsultationInput, meta RequestMeta, now time.Time) (*models.ConsultationRequest, error) {
	v := &validator{errs: FieldErrors{}}
	req := &models.ConsultationRequest{
		Lead:             newLead(v, in.Name, in.Email, in.Phone, "", false, in.Locale, in.Page, meta),
		Company:          v.text("company", in.Company, false, maxCompanyLength),
		Website:          v.website("website", in.Website),
		Topic:            v.text("topic", in.Topic, true, maxTopicLength),
		PreferredDate:    v.date("preferred_date", in.PreferredDate, now),
		PreferredContact: v.choice("preferred_contact", in.PreferredContact, ContactOptions, false),
	}
	if req.PreferredContact == "" {
		req.PreferredContact = "email"
	}
	if req.PreferredContact == "phone" && req.Phone == "" {
		v.fail("phone", "form.error.required")
	}
	if err := v.err(); err != nil {
		return nil, err
	}
	return req, nil
}

// ValidateInquiry builds a ServiceInquiry or returns a *ValidationError.
func ValidateInquiry(in InquiryInput, meta RequestMeta) (*models.ServiceInquiry, error) {
	v := &validator{errs: FieldErrors{}}

	services := make([]string, 0, 5)
	for _, p := range routing.ServicePages() {
		services = append(services, string(p))
	}

	inq := &models.ServiceInquiry{
		Lead:     newLead(v, in.Name, in.Email, in.Phone, in.Message, true, in.Locale, in.Page, meta),
		Service:  v.choice("service", in.Service, services, true),
		Company:  v.text("company", in.Company, false, maxCompanyLength),
		Budget:   v.choice("budget", in.Budget, BudgetOptions, false),
		Timeline: v.choice("timeline", in.Timeline, TimelineOptions, false),
	}
	if err := v.err(); err != nil {
		return nil, err
	}
	return inq, nil
}

// SaveLead persists a validated submission.
func SaveLead(db *gorm.DB, sub models.Submission) error {
	if err := db.Create(sub).Error; err != nil {
		return fmt.Errorf("failed to save %s: %w", sub.Kind(), err)
	}
	logging.L().Info("lead received",
		zap.String("kind", string(sub.Kind())),
		zap.String("id", sub.Base().ID),
		zap.String("locale", sub.Base().Locale),
	)
	return nil
}

// NotifyLead emails the team and the requester without blocking.
func NotifyLead(cfg *config.Config, sub models.Submission, adminURL, siteURL string) {
	if len(cfg.NotifyEmails) > 0 {
		SendEmailAsync(cfg, BuildLeadNotificationEmail(sub, cfg.NotifyEmails, adminURL))
	}
	SendEmailAsync(cfg, BuildLeadConfirmationEmail(sub, cfg.SiteName, siteURL))
}

// NewSubmission returns an empty model for kind.
func NewSubmission(kind models.LeadKind) (models.Submission, error) {
	switch kind {
	case models.LeadKindContact:
		return &models.ContactMessage{}, nil
	case models.LeadKindConsultation:
		return &models.ConsultationRequest{}, nil
	case models.LeadKindInquiry:
		return &models.ServiceInquiry{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// LeadCounts summarizes one kind on the dashboard.
type LeadCounts struct {
	Kind  models.LeadKind
	Total int64
	New   int64
}

// CountLeads returns total and new counts per kind.
func CountLeads(db *gorm.DB) ([]LeadCounts, error) {
	out := make([]LeadCounts, 0, len(models.LeadKinds))
	for _, kind := range models.LeadKinds {
		model, _ := NewSubmission(kind)
		c := LeadCounts{Kind: kind}
		if err := db.Model(model).Count(&c.Total).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", kind, err)
		}
		if err := db.Model(model).Where("status = ?", models.LeadStatusNew).Count(&c.New).Error; err != nil {
			return nil, fmt.Errorf("failed to count new %s: %w", kind, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// LeadFilter narrows ListLeads.
type LeadFilter struct {
	Status   string
	Search   string
	Page     int
	PageSize int
}

// LeadPage is one page of ListLeads results.
type LeadPage struct {
	Items    []models.Submission
	Total    int64
	Page     int
	PageSize int
	Pages    int
}

// HasPrev reports whether a previous page exists.
func (p *LeadPage) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p *LeadPage) HasNext() bool { return p.Page < p.Pages }

func (f LeadFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Status != "" && models.IsValidLeadStatus(f.Status) {
		q = q.Where("status = ?", f.Status)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	return q
}

// ListLeads returns a page of submissions of kind, newest first.
func ListLeads(db *gorm.DB, kind models.LeadKind, filter LeadFilter) (*LeadPage, error) {
	model, err := NewSubmission(kind)
	if err != nil {
		return nil, err
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	page := &LeadPage{Page: filter.Page, PageSize: filter.PageSize}
	if err := filter.apply(db.Model(model)).Count(&page.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", kind, err)
	}
	page.Pages = int((page.Total + int64(filter.PageSize) - 1) / int64(filter.PageSize))
	if page.Pages == 0 {
		page.Pages = 1
	}

	q := filter.apply(db.Model(model)).
		Order("created_at DESC").
		Limit(filter.PageSize).
		Offset((filter.Page - 1) * filter.PageSize)

	switch kind {
	case models.LeadKindContact:
		page.Items, err = findAll[models.ContactMessage](q)
	case models.LeadKindConsultation:
		page.Items, err = findAll[models.ConsultationRequest](q)
	case models.LeadKindInquiry:
		page.Items, err = findAll[models.ServiceInquiry](q)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}
	return page, nil
}

func findAll[T any, PT interface {
	*T
	models.Submission
}](q *gorm.DB) ([]models.Submission, error) {
	var rows []T
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Submission, len(rows))
	for i := range rows {
		out[i] = PT(&rows[i])
	}
	return out, nil
}

// AllLeads returns every submission of kind matching filter, for export.
func AllLeads(db *gorm.DB, kind models.LeadKind, filter LeadFilter) ([]models.Submission, error) {
	model, err := NewSubmission(kind)
	if err != nil {
		return nil, err
	}
	q := filter.apply(db.Model(model)).Order("created_at DESC")
	switch kind {
	case models.LeadKindContact:
		return findAll[models.ContactMessage](q)
	case models.LeadKindConsultation:
		return findAll[models.ConsultationRequest](q)
	default:
		return findAll[models.ServiceInquiry](q)
	}
}

// GetLead loads one submission by id.
func GetLead(db *gorm.DB, kind models.LeadKind, id string) (models.Submission, error) {
	sub, err := NewSubmission(kind)
	if err != nil {
		return nil, err
	}
	if err := db.Where("id = ?", id).First(sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to load %s: %w", kind, err)
	}
	return sub, nil
}

// UpdateLeadStatus moves a submission to status.
func UpdateLeadStatus(db *gorm.DB, kind models.LeadKind, id, status string) (models.Submission, error) {
	if !models.IsValidLeadStatus(status) {
		return nil, &ValidationError{Fields: FieldErrors{"status": "form.error.invalid_choice"}}
	}
	sub, err := GetLead(db, kind, id)
	if err != nil {
		return nil, err
	}
	if err := db.Model(sub).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	sub.Base().Status = status
	return sub, nil
}

// DeleteLead soft-deletes a submission.
func DeleteLead(db *gorm.DB, kind models.LeadKind, id string) (models.Submission, error) {
	sub, err := GetLead(db, kind, id)
	if err != nil {
		return nil, err
	}
	if err := db.Delete(sub).Error; err != nil {
		return nil, fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	return sub, nil
}

// PurgeArchivedLeads permanently removes archived or soft-deleted
// submissions last updated before cutoff and returns how many went.
func PurgeArchivedLeads(db *gorm.DB, cutoff time.Time) (int64, error) {
	var total int64
	for _, kind := range models.LeadKinds {
		model, _ := NewSubmission(kind)
		res := db.Unscoped().
			Where("(status = ? AND updated_at < ?) OR (deleted_at IS NOT NULL AND deleted_at < ?)", models.LeadStatusArchived, cutoff, cutoff).
			Delete(model)
		if res.Error != nil {
			return total, fmt.Errorf("failed to purge %s: %w", kind, res.Error)
		}
		total += res.RowsAffected
	}
	return total, nil
}
