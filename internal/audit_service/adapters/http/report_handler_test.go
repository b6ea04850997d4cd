package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/relayops/syncaudit/internal/audit_service/app"
	"github.com/relayops/syncaudit/internal/audit_service/domain"
)

type mockAuditor struct {
	mock.Mock
}

func (m *mockAuditor) Issues(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockAuditor) Counts(ctx context.Context) (*app.Counts, error) {
	args := m.Called(ctx)
	counts, _ := args.Get(0).(*app.Counts)
	return counts, args.Error(1)
}

func (m *mockAuditor) MarkdownReport(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func setupReportHandlerTest(auditor *mockAuditor) *chi.Mux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewReportHandler(func() SyncAuditor { return auditor }, logger)
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func TestHandleSyncReport(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		auditor := new(mockAuditor)
		auditor.On("MarkdownReport", mock.Anything).
			Return("**Relay Numbers**:\n- All: 0", nil)
		router := setupReportHandlerTest(auditor)

		req := httptest.NewRequest(http.MethodGet, "/internal/sync-report", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "text/markdown; charset=utf-8", rr.Header().Get("Content-Type"))
		assert.Equal(t, "**Relay Numbers**:\n- All: 0", rr.Body.String())
		auditor.AssertExpectations(t)
	})

	t.Run("UpstreamFetchFailure", func(t *testing.T) {
		auditor := new(mockAuditor)
		auditor.On("MarkdownReport", mock.Anything).
			Return("", domain.NewFetchError("incoming phone numbers", errors.New("timeout")))
		router := setupReportHandlerTest(auditor)

		req := httptest.NewRequest(http.MethodGet, "/internal/sync-report", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadGateway, rr.Code)
		auditor.AssertExpectations(t)
	})

	t.Run("InternalFailure", func(t *testing.T) {
		auditor := new(mockAuditor)
		auditor.On("MarkdownReport", mock.Anything).
			Return("", errors.New("list relay numbers: connection refused"))
		router := setupReportHandlerTest(auditor)

		req := httptest.NewRequest(http.MethodGet, "/internal/sync-report", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		auditor.AssertExpectations(t)
	})
}

func TestHandleSyncCounts(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		counts := &app.Counts{
			Summary: app.SummaryCounts{OK: 11, NeedsCleaning: 2},
		}
		auditor := new(mockAuditor)
		auditor.On("Counts", mock.Anything).Return(counts, nil)
		auditor.On("Issues", mock.Anything).Return(2, nil)
		router := setupReportHandlerTest(auditor)

		req := httptest.NewRequest(http.MethodGet, "/internal/sync-counts", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

		var payload struct {
			Issues int `json:"issues"`
			Counts struct {
				Summary struct {
					OK            int `json:"ok"`
					NeedsCleaning int `json:"needs_cleaning"`
				} `json:"summary"`
			} `json:"counts"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
		assert.Equal(t, 2, payload.Issues)
		assert.Equal(t, 11, payload.Counts.Summary.OK)
		assert.Equal(t, 2, payload.Counts.Summary.NeedsCleaning)
		auditor.AssertExpectations(t)
	})

	t.Run("UpstreamFetchFailure", func(t *testing.T) {
		auditor := new(mockAuditor)
		auditor.On("Counts", mock.Anything).
			Return(nil, domain.NewFetchError("messaging services", errors.New("429")))
		router := setupReportHandlerTest(auditor)

		req := httptest.NewRequest(http.MethodGet, "/internal/sync-counts", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadGateway, rr.Code)
		auditor.AssertNotCalled(t, "Issues", mock.Anything)
		auditor.AssertExpectations(t)
	})
}
