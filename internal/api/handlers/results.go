package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/miller/backend/internal/contracts"
	"github.com/wonny/miller/backend/internal/selection"
	"github.com/wonny/miller/backend/pkg/logger"
)

const dateLayout = "2006-01-02"

// ResultsHandler serves persisted selections and trade signals
// ⭐ SSOT: 결과 조회 API 핸들러는 이 구조체에서만
type ResultsHandler struct {
	reader contracts.ResultReader
	logger *logger.Logger
}

// NewResultsHandler creates a new results handler
func NewResultsHandler(reader contracts.ResultReader, log *logger.Logger) *ResultsHandler {
	return &ResultsHandler{
		reader: reader,
		logger: log,
	}
}

// SelectionsResponse lists the selection universe for a date
type SelectionsResponse struct {
	Date   string   `json:"date"`
	Count  int      `json:"count"`
	Stocks []string `json:"stocks"`
}

// SignalsResponse lists trade signals for a date
type SignalsResponse struct {
	Date    string                  `json:"date"`
	Count   int                     `json:"count"`
	Buys    int                     `json:"buys"`
	Signals []contracts.TradeSignal `json:"signals"`
}

// GetSelections returns the stocks selected on a date
// GET /api/selections?date=2020-12-31 (default: latest selection date)
func (h *ResultsHandler) GetSelections(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date, ok := h.resolveDate(w, r, func(c *contracts.StoreCounts) *time.Time { return c.LatestSelection })
	if !ok {
		return
	}

	events, err := h.reader.ListSelections(ctx, date)
	if err != nil {
		h.logger.WithError(err).WithField("date", date.Format(dateLayout)).Error("Failed to list selections")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve selections")
		return
	}

	stocks := make([]string, len(events))
	for i, e := range events {
		stocks[i] = e.Code
	}

	respondJSON(w, http.StatusOK, SelectionsResponse{
		Date:   date.Format(dateLayout),
		Count:  len(stocks),
		Stocks: stocks,
	})
}

// GetSignals returns the trade signals recorded on a date
// GET /api/signals?date=2020-12-31&op=1 (default: latest signal date)
func (h *ResultsHandler) GetSignals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date, ok := h.resolveDate(w, r, func(c *contracts.StoreCounts) *time.Time { return c.LatestSignal })
	if !ok {
		return
	}

	op := r.URL.Query().Get("op")
	if op != "" && op != contracts.ActionBuy && op != contracts.ActionSell {
		respondError(w, http.StatusBadRequest, "op must be 0 or 1")
		return
	}

	signals, err := h.reader.ListTradeSignals(ctx, date)
	if err != nil {
		h.logger.WithError(err).WithField("date", date.Format(dateLayout)).Error("Failed to list trade signals")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve trade signals")
		return
	}

	filtered := make([]contracts.TradeSignal, 0, len(signals))
	buys := 0
	for _, s := range signals {
		if op != "" && s.Action != op {
			continue
		}
		if s.IsBuy() {
			buys++
		}
		filtered = append(filtered, s)
	}

	respondJSON(w, http.StatusOK, SignalsResponse{
		Date:    date.Format(dateLayout),
		Count:   len(filtered),
		Buys:    buys,
		Signals: filtered,
	})
}

// GetSignal returns one trade signal
// GET /api/signals/{code}/{date}
func (h *ResultsHandler) GetSignal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)

	code := vars["code"]
	if code == "" {
		respondError(w, http.StatusBadRequest, "stock code is required")
		return
	}

	date, err := time.Parse(dateLayout, vars["date"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	signal, err := h.reader.GetTradeSignal(ctx, code, date)
	if errors.Is(err, selection.ErrNotFound) {
		respondError(w, http.StatusNotFound, "trade signal not found")
		return
	}
	if err != nil {
		h.logger.WithStock(code, date).WithError(err).Error("Failed to get trade signal")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve trade signal")
		return
	}

	respondJSON(w, http.StatusOK, signal)
}

// GetStatus returns result table counts
// GET /api/status
func (h *ResultsHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := h.reader.Counts(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to count results")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve status")
		return
	}

	respondJSON(w, http.StatusOK, counts)
}

// resolveDate reads ?date= or falls back to the latest stored date.
// Returns false after writing an error response.
func (h *ResultsHandler) resolveDate(w http.ResponseWriter, r *http.Request, latest func(*contracts.StoreCounts) *time.Time) (time.Time, bool) {
	if s := r.URL.Query().Get("date"); s != "" {
		date, err := time.Parse(dateLayout, s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return time.Time{}, false
		}
		return date, true
	}

	counts, err := h.reader.Counts(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to resolve latest date")
		respondError(w, http.StatusInternalServerError, "Failed to resolve latest date")
		return time.Time{}, false
	}

	d := latest(counts)
	if d == nil {
		respondError(w, http.StatusNotFound, "no results stored yet")
		return time.Time{}, false
	}
	return *d, true
}
