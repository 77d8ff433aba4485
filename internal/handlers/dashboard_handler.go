package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/ternarybob/marketpulse/internal/services/dashboard"
)

// DashboardHandler serves the selection flow as a JSON API
type DashboardHandler struct {
	dashboard *dashboard.Service
	pdf       interfaces.PDFService
	logger    arbor.ILogger
}

// NewDashboardHandler creates a new dashboard API handler
func NewDashboardHandler(dashboardService *dashboard.Service, pdfService interfaces.PDFService, logger arbor.ILogger) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboardService,
		pdf:       pdfService,
		logger:    logger,
	}
}

type selectRequest struct {
	Vertical string `json:"vertical"`
}

type languageRequest struct {
	Mode models.LanguageMode `json:"mode"`
}

// DashboardStateHandler returns the dashboard snapshot
func (h *DashboardHandler) DashboardStateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, h.dashboard.Snapshot(r.Context()))
}

// SelectHandler selects a vertical by name or by its index in the vertical list
func (h *DashboardHandler) SelectHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req selectRequest
	if _, err := DecodeJSONBody(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	vertical := strings.TrimSpace(req.Vertical)
	if vertical == "" {
		WriteError(w, http.StatusBadRequest, "vertical is required")
		return
	}

	var err error
	if index, convErr := strconv.Atoi(vertical); convErr == nil {
		_, err = h.dashboard.SelectIndex(r.Context(), index)
	} else {
		_, err = h.dashboard.Select(r.Context(), vertical)
	}
	if err != nil {
		h.writeDashboardError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, h.dashboard.Snapshot(r.Context()))
}

// RefreshHandler fetches the current selection again
func (h *DashboardHandler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if _, err := h.dashboard.Refresh(r.Context()); err != nil {
		h.writeDashboardError(w, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, h.dashboard.Snapshot(r.Context()))
}

// LanguageHandler sets the language mode, or toggles it when the body is empty
func (h *DashboardHandler) LanguageHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req languageRequest
	provided, err := DecodeJSONBody(r, &req)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if provided && req.Mode != "" {
		_, err = h.dashboard.SetLanguage(r.Context(), req.Mode)
	} else {
		_, err = h.dashboard.ToggleLanguage(r.Context())
	}
	if err != nil {
		h.writeDashboardError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, h.dashboard.Snapshot(r.Context()))
}

// ReportTextHandler returns the raw report text of the current selection (copy action)
func (h *DashboardHandler) ReportTextHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	view, err := h.dashboard.Current(r.Context())
	if err != nil {
		h.writeDashboardError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(view.Text))
}

// ReportPDFHandler renders the current report as a PDF attachment
func (h *DashboardHandler) ReportPDFHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	request, err := h.dashboard.ExportRequest(r.Context())
	if err != nil {
		h.writeDashboardError(w, err)
		return
	}

	result, err := h.pdf.Export(r.Context(), request)
	if err != nil {
		h.logger.Error().Err(err).Str("vertical", request.Vertical).Msg("PDF export failed")
		WriteError(w, http.StatusInternalServerError, "Failed to export report")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(result.Data)
}

// writeDashboardError maps selection flow errors to HTTP status codes
func (h *DashboardHandler) writeDashboardError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, dashboard.ErrUnknownVertical), errors.Is(err, dashboard.ErrInvalidMode):
		status = http.StatusBadRequest
	case errors.Is(err, dashboard.ErrNoSelection), errors.Is(err, dashboard.ErrLanguageFixed):
		status = http.StatusConflict
	case errors.Is(err, dashboard.ErrNoReport):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg("Dashboard request failed")
	}
	WriteError(w, status, err.Error())
}
