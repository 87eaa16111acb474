package templates

import (
	"embed"
	"html/template"
)

//go:embed html/*.html
var files embed.FS

// Load parses the embedded admin templates. The result is handed to
// gin's SetHTMLTemplate.
func Load() (*template.Template, error) {
	return template.ParseFS(files, "html/*.html")
}

// Must is Load for wiring paths where a parse failure is a programming
// error.
func Must() *template.Template {
	tmpl, err := Load()
	if err != nil {
		panic(err)
	}
	return tmpl
}
