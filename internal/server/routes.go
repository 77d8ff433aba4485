// -----------------------------------------------------------------------
// Last Modified: Saturday, 17th October 2026 10:52:30 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// UI page (HTML template)
	mux.HandleFunc("/", s.app.PageHandler.ServePage("index.html"))

	// Static files (CSS, JS)
	mux.HandleFunc("/static/", s.app.PageHandler.StaticFileHandler)

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Dashboard
	mux.HandleFunc("/api/dashboard", s.app.DashboardHandler.DashboardStateHandler) // GET - snapshot
	mux.HandleFunc("/api/select", s.app.DashboardHandler.SelectHandler)            // POST {vertical}
	mux.HandleFunc("/api/refresh", s.app.DashboardHandler.RefreshHandler)          // POST
	mux.HandleFunc("/api/language", s.app.DashboardHandler.LanguageHandler)        // POST {mode} or empty to toggle

	// API routes - Report actions
	mux.HandleFunc("/api/report/", s.handleReportRoutes) // GET /text, /pdf

	// API routes - System
	mux.HandleFunc("/api/markets", s.app.APIHandler.MarketsHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			s.app.APIHandler.NotFoundHandler(w, r)
			return
		}
		http.NotFound(w, r)
	})

	return mux
}

// handleReportRoutes routes /api/report/{text,pdf}
func (s *Server) handleReportRoutes(w http.ResponseWriter, r *http.Request) {
	routes := []PathSuffixRouter{
		{Suffix: "text", Handler: s.app.DashboardHandler.ReportTextHandler},
		{Suffix: "pdf", Handler: s.app.DashboardHandler.ReportPDFHandler},
	}

	if RouteByPathSuffix(w, r, "/api/report/", routes) {
		return
	}

	s.app.APIHandler.NotFoundHandler(w, r)
}
