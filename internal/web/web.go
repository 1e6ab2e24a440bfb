package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var files embed.FS

// Templates parses the embedded page templates. The pages are deliberately
// plain; presentation is not this service's concern.
func Templates() *template.Template {
	return template.Must(template.ParseFS(files, "templates/*.html"))
}
