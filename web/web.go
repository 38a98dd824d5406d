// Package web holds the page templates and static assets compiled into the
// binary.
package web

import (
	"embed"
	"html/template"
	"io/fs"

	"github.com/dustin/go-humanize"
)

//go:embed templates static
var files embed.FS

// Templates parses every page and fragment template.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"ago": humanize.Time,
	}).ParseFS(files, "templates/*.html")
}

// Static returns the static asset tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
