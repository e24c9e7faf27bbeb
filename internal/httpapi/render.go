package httpapi

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"github.com/olgkv/tasklist/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type pageData struct {
	Tasks    []*domain.Task
	Statuses []domain.Status
	Filter   string
}

func renderPage(w io.Writer, tasks []*domain.Task, filter string) error {
	// an unknown filter shows everything, so it is not echoed back as selected
	if _, err := domain.ParseStatus(filter); err != nil {
		filter = ""
	}
	return templates.ExecuteTemplate(w, "index", pageData{Tasks: tasks, Statuses: domain.Statuses, Filter: filter})
}

func renderRows(w io.Writer, tasks []*domain.Task) error {
	return templates.ExecuteTemplate(w, "rows", pageData{Tasks: tasks, Statuses: domain.Statuses})
}

// StaticHandler serves the page's script and stylesheet under /static/.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
