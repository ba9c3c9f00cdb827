package pages

import (
	"html/template"

	"agency_site_go/templates"
	"agency_site_go/templates/partials"

	"github.com/a-h/templ"
)

var admin = template.Must(template.New("admin").Funcs(partials.FuncMap()).ParseFS(templates.Views(), "admin/*.html"))

// AdminLayout is shared by every admin view.
type AdminLayout struct {
	Lang       string
	Title      string
	UserName   string
	CSRF       string
	Nonce      string
	CSSVersion string
	Active     string
	Kinds      []KindCount
	Flash      string
}

// KindCount is one dashboard tile and sidebar entry.
type KindCount struct {
	Kind  string
	Label string
	Total int64
	New   int64
	Href  string
}

type AdminLogin struct {
	AdminLayout
	Email string
	Error string
}

// AdminDashboard holds the data for the dashboard
type AdminDashboard struct {
	AdminLayout
	Recent []LeadRow
}

type LeadRow struct {
	ID      string
	Kind    string
	Name    string
	Email   string
	Summary string
	Status  string
	Locale  string
	Created string
	Href    string
}

type AdminList struct {
	AdminLayout
	Kind       string
	KindLabel  string
	Rows       []LeadRow
	Status     string
	Search     string
	Statuses   []Option
	Page       int
	Pages      int
	PageLabel  string
	Total      int64
	PrevHref   string
	NextHref   string
	ExportHref string
}

type Field struct {
	Label string
	Value string
}

type AdminDetail struct {
	AdminLayout
	Kind           string
	KindLabel      string
	ID             string
	Name           string
	Status         string
	Statuses       []Option
	Fields         []Field
	Created        string
	IPAddress      string
	Page           string
	AttachmentName string
	AttachmentSize int64
	AttachmentHref string
	StatusAction   string
	DeleteAction   string
	PDFHref        string
	BackHref       string
	Generated      string
	History        []AuditRow
}

// AuditRow is one entry of a lead's activity history.
type AuditRow struct {
	When string
	User string
	Text string
}

func AdminLoginPage(v *AdminLogin) templ.Component         { return render(admin, "login", v) }
func AdminDashboardPage(v *AdminDashboard) templ.Component { return render(admin, "dashboard", v) }
func AdminListPage(v *AdminList) templ.Component           { return render(admin, "list", v) }
func AdminDetailPage(v *AdminDetail) templ.Component       { return render(admin, "detail", v) }

// LeadPrint is the standalone printable document used for PDF export.
func LeadPrint(v *AdminDetail) templ.Component { return render(admin, "print", v) }
