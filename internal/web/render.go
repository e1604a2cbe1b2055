// Package web holds the HTML pages and static assets of the browser.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/rpggio/datapad/internal/domain/character"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"join": func(items []string) string { return strings.Join(items, ", ") },
}).ParseFS(templatesFS, "templates/*.html"))

// Page is the data every template renders from.
type Page struct {
	Title string
	Query string

	CurrentID   int
	MaxID       int
	Character   *character.Character
	Fallback    bool
	RequestedID int

	Heading string
	Message string
}

// Home renders the record page.
func Home(w http.ResponseWriter, page Page) error {
	if page.Title == "" {
		page.Title = fmt.Sprintf("#%d", page.CurrentID)
		if page.Character != nil {
			page.Title = page.Character.Name
		}
	}
	return render(w, http.StatusOK, "home", page)
}

// Error renders the error page with status.
func Error(w http.ResponseWriter, status int, page Page) error {
	if page.Heading == "" {
		page.Heading = http.StatusText(status)
	}
	if page.Title == "" {
		page.Title = page.Heading
	}
	return render(w, status, "error", page)
}

// Static serves the embedded assets under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

func render(w http.ResponseWriter, status int, name string, page Page) error {
	// Render to a buffer first so a template failure can still produce a 500.
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, page); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := io.Copy(w, &buf)
	return err
}
