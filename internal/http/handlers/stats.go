package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wolfman30/realitycheck-ai/internal/audit"
	"github.com/wolfman30/realitycheck-ai/pkg/logging"
)

const (
	defaultStatsWindow = 24 * time.Hour
	maxStatsWindow     = 30 * 24 * time.Hour
)

// SummaryReader aggregates recorded analyze calls.
type SummaryReader interface {
	Summary(ctx context.Context, since time.Time) ([]audit.OutcomeCount, error)
}

// StatsHandler serves GET /api/stats with per-outcome counts.
type StatsHandler struct {
	reader SummaryReader
	logger *logging.Logger
	now    func() time.Time
}

func NewStatsHandler(reader SummaryReader, logger *logging.Logger) *StatsHandler {
	if reader == nil {
		panic("handlers: summary reader cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &StatsHandler{reader: reader, logger: logger, now: time.Now}
}

type outcomeCountResponse struct {
	Outcome string `json:"outcome"`
	Count   int64  `json:"count"`
}

type statsResponse struct {
	Since    time.Time              `json:"since"`
	Total    int64                  `json:"total"`
	Outcomes []outcomeCountResponse `json:"outcomes"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	window := defaultStatsWindow
	if raw := r.URL.Query().Get("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 || d > maxStatsWindow {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "window must be a positive duration up to 720h"})
			return
		}
		window = d
	}

	since := h.now().UTC().Add(-window)
	counts, err := h.reader.Summary(r.Context(), since)
	if err != nil {
		h.logger.Error("failed to load analysis stats", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Unable to load stats."})
		return
	}

	resp := statsResponse{Since: since, Outcomes: make([]outcomeCountResponse, 0, len(counts))}
	for _, c := range counts {
		resp.Total += c.Count
		resp.Outcomes = append(resp.Outcomes, outcomeCountResponse{Outcome: c.Outcome, Count: c.Count})
	}
	writeJSON(w, http.StatusOK, resp)
}
