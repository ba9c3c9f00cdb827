package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"agency_site_go/config"
	"agency_site_go/db"
	"agency_site_go/logging"
	"agency_site_go/middleware"
	"agency_site_go/models"
	"agency_site_go/services"
	"agency_site_go/services/i18n"
	"agency_site_go/templates/pages"
	"agency_site_go/templates/partials"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	adminPageSize   = 20
	summaryLength   = 80
	signedURLExpiry = 10 * time.Minute
)

func newLeadID() string {
	return uuid.New().String()
}

func leadsHref(kind models.LeadKind) string {
	return "/admin/leads/" + string(kind)
}

func leadHref(kind models.LeadKind, id string) string {
	return leadsHref(kind) + "/" + id
}

// adminLayout fills the shared admin chrome, including the per-kind counts.
func adminLayout(c echo.Context, title, active string) (pages.AdminLayout, error) {
	lang := middleware.GetLocale(c)
	ctx := c.Request().Context()
	layout := pages.AdminLayout{
		Lang:       lang,
		Title:      title,
		CSRF:       middleware.GetCSRFToken(c),
		Nonce:      middleware.GetNonce(ctx),
		CSSVersion: middleware.GetCSSVersion(ctx),
		Active:     active,
		Flash:      c.QueryParam("flash"),
	}
	if user := middleware.GetCurrentUser(c); user != nil {
		layout.UserName = user.Name
	}
	switch layout.Flash {
	case "status_updated", "deleted":
		layout.Flash = i18n.Translate(lang, "admin."+layout.Flash)
	default:
		layout.Flash = ""
	}

	counts, err := services.CountLeads(db.DB)
	if err != nil {
		return layout, err
	}
	for _, count := range counts {
		layout.Kinds = append(layout.Kinds, pages.KindCount{
			Kind:  string(count.Kind),
			Label: i18n.Translate(lang, "kind."+string(count.Kind)),
			Total: count.Total,
			New:   count.New,
			Href:  leadsHref(count.Kind),
		})
	}
	return layout, nil
}

func leadKindParam(c echo.Context) (models.LeadKind, error) {
	kind, ok := models.ParseLeadKind(c.Param("kind"))
	if !ok {
		return "", echo.NewHTTPError(http.StatusNotFound, "Unknown lead type")
	}
	return kind, nil
}

func loadLead(c echo.Context) (models.Submission, error) {
	kind, err := leadKindParam(c)
	if err != nil {
		return nil, err
	}
	sub, err := services.GetLead(db.DB, kind, c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrLeadNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Lead not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to load lead")
	}
	return sub, nil
}

func statusOptions(lang string) []pages.Option {
	out := make([]pages.Option, len(models.LeadStatuses))
	for i, s := range models.LeadStatuses {
		out[i] = pages.Option{Value: s, Label: i18n.Translate(lang, "status."+s)}
	}
	return out
}

// leadSummary is the one-line description shown in tables.
func leadSummary(sub models.Submission, lang string) string {
	text := sub.Base().Message
	switch s := sub.(type) {
	case *models.ConsultationRequest:
		text = s.Topic
	case *models.ServiceInquiry:
		text = i18n.Translate(lang, "services."+s.Service)
	}
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) > summaryLength {
		runes := []rune(text)
		text = string(runes[:summaryLength]) + "…"
	}
	return text
}

func leadRow(sub models.Submission, lang string) pages.LeadRow {
	lead := sub.Base()
	return pages.LeadRow{
		ID:      lead.ID,
		Kind:    string(sub.Kind()),
		Name:    lead.Name,
		Email:   lead.Email,
		Summary: leadSummary(sub, lang),
		Status:  lead.Status,
		Locale:  lead.Locale,
		Created: partials.FormatDateTime(lang, lead.CreatedAt),
		Href:    leadHref(sub.Kind(), lead.ID),
	}
}

// AdminDashboardHandler shows per-kind counts and the latest submissions.
func AdminDashboardHandler(c echo.Context) error {
	lang := middleware.GetLocale(c)
	layout, err := adminLayout(c, i18n.Translate(lang, "admin.dashboard"), "")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load dashboard")
	}

	view := &pages.AdminDashboard{AdminLayout: layout}
	for _, kind := range models.LeadKinds {
		page, err := services.ListLeads(db.DB, kind, services.LeadFilter{Status: models.LeadStatusNew, PageSize: 5})
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load dashboard")
		}
		for _, sub := range page.Items {
			view.Recent = append(view.Recent, leadRow(sub, lang))
		}
	}

	return renderFragment(c, http.StatusOK, pages.AdminDashboardPage(view))
}

func leadFilter(c echo.Context) services.LeadFilter {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	return services.LeadFilter{
		Status:   c.QueryParam("status"),
		Search:   strings.TrimSpace(c.QueryParam("q")),
		Page:     page,
		PageSize: adminPageSize,
	}
}

func filterQuery(filter services.LeadFilter, page int) string {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.Search != "" {
		q.Set("q", filter.Search)
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// LeadListHandler lists one kind of submission with status and text filters.
func LeadListHandler(c echo.Context) error {
	kind, err := leadKindParam(c)
	if err != nil {
		return err
	}
	lang := middleware.GetLocale(c)
	kindLabel := i18n.Translate(lang, "kind."+string(kind))

	filter := leadFilter(c)
	result, err := services.ListLeads(db.DB, kind, filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load leads")
	}
	layout, err := adminLayout(c, kindLabel, string(kind))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load leads")
	}

	base := leadsHref(kind)
	view := &pages.AdminList{
		AdminLayout: layout,
		Kind:        string(kind),
		KindLabel:   kindLabel,
		Status:      filter.Status,
		Search:      filter.Search,
		Statuses:    statusOptions(lang),
		Page:        result.Page,
		Pages:       result.Pages,
		PageLabel:   i18n.Translate(lang, "admin.page_of", map[string]interface{}{"page": result.Page, "pages": result.Pages}),
		Total:       result.Total,
		ExportHref:  base + "/export" + filterQuery(filter, 0),
	}
	if result.HasPrev() {
		view.PrevHref = base + filterQuery(filter, result.Page-1)
		if view.PrevHref == base {
			view.PrevHref = base + "?page=1"
		}
	}
	if result.HasNext() {
		view.NextHref = base + filterQuery(filter, result.Page+1)
	}
	for _, sub := range result.Items {
		view.Rows = append(view.Rows, leadRow(sub, lang))
	}

	return renderFragment(c, http.StatusOK, pages.AdminListPage(view))
}

func leadDetail(c echo.Context, sub models.Submission) (*pages.AdminDetail, error) {
	lang := middleware.GetLocale(c)
	lead := sub.Base()
	kind := sub.Kind()
	kindLabel := i18n.Translate(lang, "kind."+string(kind))

	layout, err := adminLayout(c, lead.Name, string(kind))
	if err != nil {
		return nil, err
	}

	href := leadHref(kind, lead.ID)
	view := &pages.AdminDetail{
		AdminLayout:  layout,
		Kind:         string(kind),
		KindLabel:    kindLabel,
		ID:           lead.ID,
		Name:         lead.Name,
		Status:       lead.Status,
		Statuses:     statusOptions(lang),
		Created:      partials.FormatDateTime(lang, lead.CreatedAt),
		IPAddress:    lead.IPAddress,
		Page:         lead.Page,
		StatusAction: href + "/status",
		DeleteAction: href + "/delete",
		PDFHref:      href + "/pdf",
		BackHref:     leadsHref(kind),
		Generated:    partials.FormatDateTime(lang, time.Now()),
	}
	for _, f := range services.LeadFields(sub, lang) {
		view.Fields = append(view.Fields, pages.Field{Label: f.Label, Value: f.Value})
	}
	history, err := services.GetResourceAuditHistory(db.DB, string(kind), lead.ID)
	if err != nil {
		return nil, err
	}
	for _, entry := range history {
		view.History = append(view.History, auditRow(entry, lang))
	}
	if inq, ok := sub.(*models.ServiceInquiry); ok && inq.HasAttachment() {
		view.AttachmentName = inq.FileOriginalName
		view.AttachmentSize = inq.FileSize
		view.AttachmentHref = href + "/attachment"
	}
	return view, nil
}

func auditRow(entry models.AuditLog, lang string) pages.AuditRow {
	params := map[string]interface{}{}
	for _, ch := range entry.Changes() {
		if ch.Field == "status" {
			params["old"] = i18n.Translate(lang, fmt.Sprintf("status.%v", ch.Old))
			params["new"] = i18n.Translate(lang, fmt.Sprintf("status.%v", ch.New))
		}
	}
	text := i18n.Translate(lang, "audit."+strings.ToLower(string(entry.Action)), params)
	if entry.Description != "" {
		text += " (" + entry.Description + ")"
	}
	user := entry.UserName
	if user == "" {
		user = "-"
	}
	return pages.AuditRow{
		When: partials.FormatDateTime(lang, entry.CreatedAt),
		User: user,
		Text: text,
	}
}

// LeadDetailHandler shows every field of one submission.
func LeadDetailHandler(c echo.Context) error {
	sub, err := loadLead(c)
	if err != nil {
		return err
	}
	view, err := leadDetail(c, sub)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load lead")
	}
	return renderFragment(c, http.StatusOK, pages.AdminDetailPage(view))
}

// LeadStatusHandler moves a submission through the workflow.
func LeadStatusHandler(c echo.Context) error {
	before, err := loadLead(c)
	if err != nil {
		return err
	}
	kind := before.Kind()
	id := before.Base().ID
	oldStatus := before.Base().Status
	status := c.FormValue("status")

	sub, err := services.UpdateLeadStatus(db.DB, kind, id, status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLeadNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Lead not found")
		case errors.Is(err, services.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid status")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update status")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), services.AuditEntry{
		Action:       models.AuditActionStatusChange,
		ResourceType: string(kind),
		ResourceID:   id,
		ResourceName: sub.Base().Name,
		OldValues:    map[string]string{"status": oldStatus},
		NewValues:    map[string]string{"status": status},
	})

	target := leadHref(kind, id) + "?flash=status_updated"
	if isHTMX(c) {
		c.Response().Header().Set("HX-Redirect", target)
		return c.NoContent(http.StatusOK)
	}
	return c.Redirect(http.StatusSeeOther, target)
}

// LeadDeleteHandler soft-deletes a submission and removes its attachment.
func LeadDeleteHandler(c echo.Context) error {
	kind, err := leadKindParam(c)
	if err != nil {
		return err
	}

	sub, err := services.DeleteLead(db.DB, kind, c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrLeadNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Lead not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete lead")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), services.AuditEntry{
		Action:       models.AuditActionDelete,
		ResourceType: string(kind),
		ResourceID:   sub.Base().ID,
		ResourceName: sub.Base().Name,
		OldValues:    map[string]string{"status": sub.Base().Status, "email": sub.Base().Email},
	})

	if inq, ok := sub.(*models.ServiceInquiry); ok && inq.HasAttachment() && services.Storage != nil {
		if err := services.Storage.Delete(c.Request().Context(), inq.FilePath); err != nil {
			logging.L().Warn("failed to delete attachment", zap.String("key", inq.FilePath), zap.Error(err))
		}
	}

	target := leadsHref(kind) + "?flash=deleted"
	if isHTMX(c) {
		c.Response().Header().Set("HX-Redirect", target)
		return c.NoContent(http.StatusOK)
	}
	return c.Redirect(http.StatusSeeOther, target)
}

// LeadExportHandler downloads the filtered list as an Excel workbook.
func LeadExportHandler(c echo.Context) error {
	kind, err := leadKindParam(c)
	if err != nil {
		return err
	}
	lang := middleware.GetLocale(c)

	filter := leadFilter(c)
	subs, err := services.AllLeads(db.DB, kind, filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load leads")
	}
	data, err := services.ExportLeadsXLSX(kind, subs, lang)
	if err != nil {
		logging.L().Error("xlsx export failed", zap.String("kind", string(kind)), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to export leads")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), services.AuditEntry{
		Action:       models.AuditActionExport,
		ResourceType: string(kind),
		ResourceID:   "xlsx",
		Description:  fmt.Sprintf("%d rows", len(subs)),
		NewValues:    map[string]string{"status": filter.Status, "search": filter.Search},
	})

	filename := fmt.Sprintf("%s-%s.xlsx", kind, time.Now().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// LeadPDFHandler renders one submission to PDF with headless Chrome.
func LeadPDFHandler(c echo.Context) error {
	cfg := c.Get("config").(*config.Config)
	sub, err := loadLead(c)
	if err != nil {
		return err
	}
	view, err := leadDetail(c, sub)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load lead")
	}

	var buf bytes.Buffer
	if err := pages.LeadPrint(view).Render(c.Request().Context(), &buf); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to render lead")
	}

	opts := services.DefaultPDFOptions()
	opts.ChromePath = cfg.ChromePath
	pdf, err := services.GeneratePDF(c.Request().Context(), buf.String(), opts)
	if err != nil {
		logging.L().Error("pdf export failed", zap.String("id", view.ID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate PDF")
	}

	filename := fmt.Sprintf("%s-%s.pdf", sub.Kind(), view.ID)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// LeadAttachmentHandler serves the brief uploaded with an inquiry.
func LeadAttachmentHandler(c echo.Context) error {
	sub, err := loadLead(c)
	if err != nil {
		return err
	}
	inq, ok := sub.(*models.ServiceInquiry)
	if !ok || !inq.HasAttachment() {
		return echo.NewHTTPError(http.StatusNotFound, "No attachment")
	}
	if services.Storage == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Storage is not configured")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), services.AuditEntry{
		Action:       models.AuditActionDownload,
		ResourceType: string(inq.Kind()),
		ResourceID:   inq.ID,
		ResourceName: inq.FileOriginalName,
	})

	ctx := c.Request().Context()
	if r2, ok := services.Storage.(*services.R2Storage); ok {
		signed, err := r2.GetSignedURL(ctx, inq.FilePath, signedURLExpiry)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to sign attachment URL")
		}
		return c.Redirect(http.StatusFound, signed)
	}

	rc, err := services.ReadInquiryFile(ctx, services.Storage, inq)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Attachment not found")
	}
	defer rc.Close()

	contentType := inq.FileContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", inq.FileOriginalName))
	return c.Stream(http.StatusOK, contentType, rc)
}
