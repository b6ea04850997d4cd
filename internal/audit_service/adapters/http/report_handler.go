package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"

	"github.com/relayops/syncaudit/internal/audit_service/app"
	"github.com/relayops/syncaudit/internal/audit_service/domain"
)

// SyncAuditor is the slice of the sync checker the handler needs; an
// interface so tests can mock it.
type SyncAuditor interface {
	Issues(ctx context.Context) (int, error)
	Counts(ctx context.Context) (*app.Counts, error)
	MarkdownReport(ctx context.Context) (string, error)
}

// ReportHandler serves the reconciliation report on the internal surface.
// Every request builds a fresh auditor: each response is one consistent
// point-in-time snapshot, never a stale cache.
type ReportHandler struct {
	newAuditor func() SyncAuditor
	logger     *slog.Logger
}

func NewReportHandler(newAuditor func() SyncAuditor, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		newAuditor: newAuditor,
		logger:     logger.With("component", "report_handler"),
	}
}

func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/internal/sync-report", h.HandleSyncReport)
	r.Get("/internal/sync-counts", h.HandleSyncCounts)
}

// HandleSyncReport returns the markdown report as plain text.
func (h *ReportHandler) HandleSyncReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	report, err := h.newAuditor().MarkdownReport(ctx)
	if err != nil {
		h.writeError(ctx, w, logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(report))
}

// HandleSyncCounts returns the issue total and the full count tree as JSON.
func (h *ReportHandler) HandleSyncCounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	auditor := h.newAuditor()
	counts, err := auditor.Counts(ctx)
	if err != nil {
		h.writeError(ctx, w, logger, err)
		return
	}
	issues, err := auditor.Issues(ctx)
	if err != nil {
		h.writeError(ctx, w, logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	payload := struct {
		Issues int         `json:"issues"`
		Counts *app.Counts `json:"counts"`
	}{Issues: issues, Counts: counts}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.ErrorContext(ctx, "Failed to encode counts response", "error", err)
	}
}

func (h *ReportHandler) writeError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error) {
	var fetchErr *domain.FetchError
	if errors.As(err, &fetchErr) {
		logger.ErrorContext(ctx, "Remote inventory fetch failed", "error", err)
		http.Error(w, "Upstream inventory unavailable", http.StatusBadGateway)
		return
	}
	logger.ErrorContext(ctx, "Reconciliation failed", "error", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
