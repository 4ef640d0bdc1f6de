// Package web bundles the page templates and browser assets into the binary.
package web

import (
	"embed"
	"io/fs"
)

// TemplatesFS holds every page and fragment template.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds app.css and app.js under static/.
//
//go:embed static/*
var StaticFS embed.FS

// Static returns the assets rooted so that /static/app.js maps to app.js.
func Static() (fs.FS, error) {
	return fs.Sub(StaticFS, "static")
}
