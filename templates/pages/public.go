// Package pages renders the public site and admin views as templ components
// backed by the embedded html/template files.
package pages

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"

	"agency_site_go/models"
	"agency_site_go/services/content"
	"agency_site_go/services/i18n"
	"agency_site_go/templates"
	"agency_site_go/templates/components"
	"agency_site_go/templates/partials"

	"github.com/a-h/templ"
)

// Shell placeholders replaced by the rendered head, markup and state.
const (
	HeadPlaceholder  = "<!--app-head-->"
	HTMLPlaceholder  = "<!--app-html-->"
	StatePlaceholder = "<!--app-state-->"
	LangPlaceholder  = "%APP_LANG%"
)

var (
	public = template.Must(template.New("public").Funcs(partials.FuncMap()).ParseFS(templates.Views(), "public/*.html"))
	shell  = mustRead(templates.Views(), "shell.html")
)

func mustRead(fsys fs.FS, name string) string {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		panic(fmt.Sprintf("pages: %v", err))
	}
	return string(b)
}

// State is handed to the client so it can hydrate without re-parsing the URL.
type State struct {
	Locale          string `json:"locale"`
	Page            string `json:"page"`
	HasLocalePrefix bool   `json:"hasLocalePrefix"`
	Canonical       string `json:"canonical"`
}

type Link struct {
	Label  string
	Href   string
	Active bool
}

// LangLink points at the same page in another locale.
type LangLink struct {
	Locale   string
	Label    string
	HrefLang string
	Href     string
	Active   bool
}

type ServiceCard struct {
	Page    string
	Title   string
	Summary string
	Href    string
}

type Option struct {
	Value string
	Label string
}

// Layout is shared by every public page.
type Layout struct {
	Locale           string
	Page             string
	SiteName         string
	SEO              *models.SEO
	Nav              []Link
	Services         []Link
	Languages        []LangLink
	HomeHref         string
	ConsultationHref string
	InquiryHref      string
	Nonce            string
	CSSVersion       string
	JSVersion        string
	Year             int
	State            State
}

// Form is the view of one lead form, blank or re-rendered with errors.
type Form struct {
	Kind             string
	Action           string
	Locale           string
	Page             string
	CSRF             string
	TurnstileSiteKey string
	Values           map[string]string
	Errors           map[string]string
	Sent             bool
	Failed           bool
	SentHref         string
	Services         []Option
	Budgets          []Option
	Timelines        []Option
	ContactOptions   []Option
	MinDate          string
}

// Value returns the submitted value of field.
func (f *Form) Value(field string) string {
	if f == nil || f.Values == nil {
		return ""
	}
	return f.Values[field]
}

// Error returns the translated error of field, or "".
func (f *Form) Error(field string) string {
	if f == nil || f.Errors == nil {
		return ""
	}
	key, ok := f.Errors[field]
	if !ok {
		return ""
	}
	return i18n.Translate(f.Locale, key)
}

// HasErrors reports whether any field failed validation.
func (f *Form) HasErrors() bool { return f != nil && len(f.Errors) > 0 }

// Selected reports whether value was submitted for field.
func (f *Form) Selected(field, value string) bool { return f.Value(field) == value }

// PublicPage is everything the public templates need.
type PublicPage struct {
	Layout
	Template string
	Content  content.Page
	Cards    []ServiceCard
	Form     *Form
}

// Templates usable as PublicPage.Template.
const (
	TemplateHome     = "home"
	TemplateService  = "service"
	TemplateForm     = "form_page"
	TemplateNotFound = "not_found"
	TemplateError    = "error"
)

var formTemplates = map[string]string{
	"contact":      "contact_form",
	"consultation": "consultation_form",
	"inquiry":      "inquiry_form",
}

func render(t *template.Template, name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return t.ExecuteTemplate(w, name, data)
	})
}

// Head renders the title, meta, canonical, hreflang and JSON-LD tags.
func Head(p *PublicPage) templ.Component {
	return render(public, "head", p)
}

// Body renders the header, the page template and the footer.
func Body(p *PublicPage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := public.ExecuteTemplate(w, "header", p); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<main id="main" class="site-main">`); err != nil {
			return err
		}
		if err := public.ExecuteTemplate(w, p.Template, p); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `</main>`); err != nil {
			return err
		}
		return public.ExecuteTemplate(w, "footer", p)
	})
}

// FormFragment renders only the form, for HTMX swaps.
func FormFragment(f *Form) templ.Component {
	name, ok := formTemplates[f.Kind]
	if !ok {
		return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			return fmt.Errorf("unknown form %q", f.Kind)
		})
	}
	return render(public, name, f)
}

// Shell returns the embedded document shell.
func Shell() string { return shell }

// Fill replaces the shell placeholders.
func Fill(shell, lang, head, html string, state State) string {
	return strings.NewReplacer(
		LangPlaceholder, template.HTMLEscapeString(lang),
		HeadPlaceholder, head,
		HTMLPlaceholder, html,
		StatePlaceholder, string(components.StateScript(state)),
	).Replace(shell)
}

// RenderParts renders the head and body markup of p separately.
func RenderParts(ctx context.Context, p *PublicPage) (head, body string, err error) {
	var h, b bytes.Buffer
	if err := Head(p).Render(ctx, &h); err != nil {
		return "", "", fmt.Errorf("failed to render head: %w", err)
	}
	if err := Body(p).Render(ctx, &b); err != nil {
		return "", "", fmt.Errorf("failed to render %s: %w", p.Template, err)
	}
	return h.String(), b.String(), nil
}

// Document renders p into shell. The server and the prerenderer both use it.
func Document(shell string, p *PublicPage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		head, body, err := RenderParts(ctx, p)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, Fill(shell, p.Locale, head, body, p.State))
		return err
	})
}
