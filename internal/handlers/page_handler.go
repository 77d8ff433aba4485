package handlers

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/common"
)

//go:embed web/*.html web/static/*
var webFS embed.FS

// TitleProvider supplies the browser title of the dashboard page
type TitleProvider interface {
	PageTitle() string
}

type PageHandler struct {
	logger    arbor.ILogger
	templates *template.Template
	static    http.Handler
	titles    TitleProvider
}

func NewPageHandler(titles TitleProvider, logger arbor.ILogger) *PageHandler {
	templates := template.Must(template.ParseFS(webFS, "web/*.html"))

	staticFS, err := fs.Sub(webFS, "web/static")
	if err != nil {
		panic(err) // embedded layout is fixed at compile time
	}

	return &PageHandler{
		logger:    logger,
		templates: templates,
		static:    http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))),
		titles:    titles,
	}
}

// ServePage creates a handler function for serving a specific page template
func (h *PageHandler) ServePage(templateName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			WriteError(w, http.StatusNotFound, "Not Found")
			return
		}

		data := map[string]interface{}{
			"Title":   h.titles.PageTitle(),
			"Version": common.GetVersion(),
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := h.templates.ExecuteTemplate(w, templateName, data); err != nil {
			h.logger.Error().
				Err(err).
				Str("template", templateName).
				Msg("Failed to render page")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}
}

// StaticFileHandler serves the embedded CSS and JS
func (h *PageHandler) StaticFileHandler(w http.ResponseWriter, r *http.Request) {
	h.static.ServeHTTP(w, r)
}
