// Package templates embeds the HTML views and email templates.
package templates

import (
	"embed"
	"io/fs"
)

//go:embed emails views
var files embed.FS

// Emails returns the email templates, named <name>_<lang>.html|.txt.
func Emails() fs.FS {
	sub, err := fs.Sub(files, "emails")
	if err != nil {
		panic(err)
	}
	return sub
}

// Views returns the page, partial and admin templates.
func Views() fs.FS {
	sub, err := fs.Sub(files, "views")
	if err != nil {
		panic(err)
	}
	return sub
}
