package content

import (
	"encoding/json"
	"fmt"
	"html/template"

	"agency_site_go/services/routing"
)

// Node is one schema.org object of a JSON-LD graph.
type Node map[string]any

// Crumb is one entry of a breadcrumb trail.
type Crumb struct {
	Name string
	URL  string
}

// Organization describes the agency itself.
func Organization(name, siteURL, logoURL string) Node {
	n := Node{
		"@type": "Organization",
		"@id":   siteURL + "/#organization",
		"name":  name,
		"url":   siteURL + "/",
		"address": Node{
			"@type":           "PostalAddress",
			"addressLocality": "Podgorica",
			"addressCountry":  "ME",
		},
	}
	if logoURL != "" {
		n["logo"] = logoURL
	}
	return n
}

// WebSite describes the site in one language.
func WebSite(name, siteURL string, locale routing.Locale) Node {
	return Node{
		"@type":      "WebSite",
		"@id":        siteURL + "/#website-" + string(locale),
		"name":       name,
		"url":        siteURL + "/",
		"inLanguage": locale.HrefLang(),
		"publisher":  Node{"@id": siteURL + "/#organization"},
	}
}

// Service describes one service page.
func Service(page Page, pageURL, siteURL string) Node {
	return Node{
		"@type":       "Service",
		"name":        page.Title,
		"description": firstNonEmpty(page.SEO.Description, page.Summary),
		"url":         pageURL,
		"serviceType": page.Title,
		"areaServed":  "ME",
		"inLanguage":  page.Locale.HrefLang(),
		"provider":    Node{"@id": siteURL + "/#organization"},
	}
}

// BreadcrumbList builds a trail with 1-based positions.
func BreadcrumbList(crumbs []Crumb) Node {
	items := make([]Node, 0, len(crumbs))
	for i, c := range crumbs {
		items = append(items, Node{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     c.Name,
			"item":     c.URL,
		})
	}
	return Node{
		"@type":           "BreadcrumbList",
		"itemListElement": items,
	}
}

// Graph serializes nodes as one JSON-LD document safe for a script element.
func Graph(nodes ...Node) (template.JS, error) {
	doc := map[string]any{
		"@context": "https://schema.org",
		"@graph":   nodes,
	}
	// json.Marshal escapes <, > and & so the output cannot close the script.
	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal json-ld: %w", err)
	}
	return template.JS(b), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
