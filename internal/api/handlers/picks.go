package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"time"

	"github.com/gorilla/mux"

	"github.com/newer-zhu/investment/internal/dataset"
	"github.com/newer-zhu/investment/internal/market"
	"github.com/newer-zhu/investment/internal/store"
	"github.com/newer-zhu/investment/pkg/logger"
	"github.com/newer-zhu/investment/pkg/redis"
)

var dateKeyPattern = regexp.MustCompile(`^\d{8}$`)

// PicksHandler serves the published pick files
type PicksHandler struct {
	store  *store.CSVStore
	cache  *redis.Cache
	logger *logger.Logger
}

// NewPicksHandler creates a new picks handler
func NewPicksHandler(st *store.CSVStore, cache *redis.Cache, log *logger.Logger) *PicksHandler {
	return &PicksHandler{
		store:  st,
		cache:  cache,
		logger: log,
	}
}

// GetDates returns every published pick date, newest first
// GET /api/dates
func (h *PicksHandler) GetDates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var dates []string
	err := h.cache.GetOrSet(ctx, redis.DatesKey(), &dates, redis.TTLShort, func() (interface{}, error) {
		return h.store.Dates()
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to list pick dates")
		respondError(w, http.StatusInternalServerError, "Failed to list pick dates")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"dates": dates,
		"count": len(dates),
	})
}

// GetStocks returns one date's picks as rows keyed by the CSV header
// GET /api/stocks/{date}
func (h *PicksHandler) GetStocks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date := mux.Vars(r)["date"]
	if !dateKeyPattern.MatchString(date) {
		respondError(w, http.StatusBadRequest, "Invalid date, expected YYYYMMDD")
		return
	}

	if !h.store.Exists(date) {
		h.respondUnknownDate(w, date)
		return
	}

	// Today's file may still be rewritten by the confirmation pass.
	ttl := redis.TTLDaily
	if date == market.DateKey(time.Now()) {
		ttl = redis.TTLMedium
	}

	var rows []dataset.InputRow
	err := h.cache.GetOrSet(ctx, redis.DatasetKey(date), &rows, ttl, func() (interface{}, error) {
		return h.store.ReadRows(date)
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to load picks")
		respondError(w, http.StatusInternalServerError, "Failed to load picks")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":   date,
		"count":  len(rows),
		"stocks": rows,
	})
}

// GetStocksCSV returns one date's pick file as a CSV attachment
// GET /api/stocks/{date}/csv
func (h *PicksHandler) GetStocksCSV(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]
	if !dateKeyPattern.MatchString(date) {
		respondError(w, http.StatusBadRequest, "Invalid date, expected YYYYMMDD")
		return
	}

	data, err := h.store.ReadRaw(date)
	if os.IsNotExist(err) {
		h.respondUnknownDate(w, date)
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to read pick file")
		respondError(w, http.StatusInternalServerError, "Failed to read pick file")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=picked_stocks_%s.csv", date))
	w.Write(data)
}

func (h *PicksHandler) respondUnknownDate(w http.ResponseWriter, date string) {
	available, err := h.store.Dates()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list pick dates")
		available = []string{}
	}
	if len(available) > 10 {
		available = available[:10]
	}

	respondJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":           fmt.Sprintf("no picks for %s", date),
		"available_dates": available,
	})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
