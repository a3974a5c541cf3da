package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rickgao/quotewatch/internal/format"
	"github.com/rickgao/quotewatch/internal/metrics"
	"github.com/rickgao/quotewatch/internal/model"
	"github.com/rickgao/quotewatch/internal/poller"
	"github.com/rickgao/quotewatch/internal/watchlist"
)

type quoteStore interface {
	Get(symbol string) (model.Quote, bool)
}

type symbolList interface {
	Symbols() []string
	Add(symbol string) (string, error)
	Remove(symbol string) (string, error)
}

type refreshStatus interface {
	LastSummary() (poller.Summary, bool)
	Interval() time.Duration
	SetInterval(d time.Duration) error
}

// server serves the read-only quote view and watchlist edits.
type server struct {
	quotes     quoteStore
	symbols    symbolList
	refresh    refreshStatus
	metrics    *metrics.Refresh
	ping       func(ctx context.Context) error // nil when no database is configured
	extraStats func() map[string]any
	staleAfter time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// quoteView is the JSON shape of one cached quote.
type quoteView struct {
	Symbol        string    `json:"symbol"`
	Current       string    `json:"current"`
	Change        string    `json:"change"`
	PercentChange string    `json:"percent_change"`
	High          string    `json:"high"`
	Low           string    `json:"low"`
	Open          string    `json:"open"`
	PreviousClose string    `json:"previous_close"`
	Time          string    `json:"time"`
	FetchedAt     time.Time `json:"fetched_at"`
	Direction     string    `json:"direction"`
	Stale         bool      `json:"stale"`
	Display       string    `json:"display"`
}

func (s *server) view(q model.Quote) quoteView {
	dir := "flat"
	switch {
	case format.IsUp(q):
		dir = "up"
	case format.IsDown(q):
		dir = "down"
	}
	return quoteView{
		Symbol:        q.Symbol,
		Current:       format.Price(q.Current),
		Change:        format.Change(q.Change),
		PercentChange: format.Percent(q.PercentChange),
		High:          format.Price(q.High),
		Low:           format.Price(q.Low),
		Open:          format.Price(q.Open),
		PreviousClose: format.Price(q.PreviousClose),
		Time:          format.Timestamp(format.QuoteTime(q)),
		FetchedAt:     q.FetchedAt,
		Direction:     dir,
		Stale:         s.staleAfter > 0 && format.IsStale(q, s.staleAfter, s.now()),
		Display:       format.Line(q),
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /quotes", s.handleQuotes)
	mux.HandleFunc("GET /quotes/{symbol}", s.handleQuote)
	mux.HandleFunc("GET /watchlist", s.handleWatchlist)
	mux.HandleFunc("POST /watchlist", s.handleAddSymbol)
	mux.HandleFunc("DELETE /watchlist/{symbol}", s.handleRemoveSymbol)
	mux.HandleFunc("PUT /interval", s.handleSetInterval)
	mux.HandleFunc("GET /stats", s.handleStats)
	return mux
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := struct {
		Status     string         `json:"status"`
		Components map[string]any `json:"components"`
	}{
		Status:     "healthy",
		Components: make(map[string]any),
	}

	if s.ping != nil {
		if err := s.ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["database"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["database"] = "connected"
		}
	}

	last, ok := s.refresh.LastSummary()
	switch {
	case !ok:
		health.Components["refresh"] = "starting"
		if health.Status == "healthy" {
			health.Status = "degraded"
		}
	default:
		health.Components["refresh"] = map[string]any{
			"last_cycle": last.Started,
			"status":     last.String(),
		}
		if last.Symbols > 0 && last.Succeeded == 0 && health.Status == "healthy" {
			health.Status = "degraded"
		}
	}

	code := http.StatusOK
	if health.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, health)
}

func (s *server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	symbols := s.symbols.Symbols()
	resp := struct {
		Quotes  []quoteView `json:"quotes"`
		Missing []string    `json:"missing,omitempty"`
	}{Quotes: make([]quoteView, 0, len(symbols))}

	for _, sym := range symbols {
		if q, ok := s.quotes.Get(sym); ok {
			resp.Quotes = append(resp.Quotes, s.view(q))
		} else {
			resp.Missing = append(resp.Missing, sym)
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
	sym, err := watchlist.Validate(r.PathValue("symbol"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	q, ok := s.quotes.Get(sym)
	if !ok {
		s.writeError(w, http.StatusNotFound, errors.New("no quote for "+sym))
		return
	}
	s.writeJSON(w, http.StatusOK, s.view(q))
}

func (s *server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"symbols": s.symbols.Symbols()})
}

func (s *server) handleAddSymbol(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol string `json:"symbol"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("body must be {\"symbol\": \"...\"}"))
		return
	}

	sym, err := s.symbols.Add(req.Symbol)
	switch {
	case errors.Is(err, watchlist.ErrInvalidSymbol):
		s.writeError(w, http.StatusBadRequest, err)
		return
	case errors.Is(err, watchlist.ErrExists):
		s.writeError(w, http.StatusConflict, err)
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.logger.Info("symbol added via api", "symbol", sym)
	// The first fetch runs asynchronously; GET /quotes/{symbol} reports it.
	s.writeJSON(w, http.StatusAccepted, map[string]string{"symbol": sym})
}

func (s *server) handleRemoveSymbol(w http.ResponseWriter, r *http.Request) {
	sym, err := s.symbols.Remove(r.PathValue("symbol"))
	switch {
	case errors.Is(err, watchlist.ErrInvalidSymbol):
		s.writeError(w, http.StatusBadRequest, err)
		return
	case errors.Is(err, watchlist.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err)
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.logger.Info("symbol removed via api", "symbol", sym)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleSetInterval(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Interval string `json:"interval"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("body must be {\"interval\": \"30s\"}"))
		return
	}
	d, err := time.ParseDuration(req.Interval)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.refresh.SetInterval(d); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"interval": d.String()})
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"interval": s.refresh.Interval().String(),
		"symbols":  len(s.symbols.Symbols()),
		"refresh":  s.metrics.Snapshot(),
	}
	if last, ok := s.refresh.LastSummary(); ok {
		resp["last_summary"] = last
		resp["status"] = last.String()
	}
	if s.extraStats != nil {
		for k, v := range s.extraStats() {
			resp[k] = v
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", "error", err)
	}
}

func (s *server) writeError(w http.ResponseWriter, code int, err error) {
	s.writeJSON(w, code, map[string]string{"error": err.Error()})
}
