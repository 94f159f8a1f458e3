package handlers

import (
	"net/http"
	"time"

	"github.com/newer-zhu/investment/internal/store"
	"github.com/newer-zhu/investment/pkg/database"
	"github.com/newer-zhu/investment/pkg/logger"
	"github.com/newer-zhu/investment/pkg/redis"
)

// HealthHandler reports service health and dependency state
type HealthHandler struct {
	store  *store.CSVStore
	db     *database.DB
	redis  *redis.Client
	start  time.Time
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler. db and redis may be
// nil when the optional backends are not configured.
func NewHealthHandler(st *store.CSVStore, db *database.DB, rc *redis.Client, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		store:  st,
		db:     db,
		redis:  rc,
		start:  time.Now(),
		logger: log,
	}
}

// Check returns uptime, dataset count and backend state
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	datasets := 0
	if dates, err := h.store.Dates(); err != nil {
		h.logger.WithError(err).Error("Failed to list pick dates")
	} else {
		datasets = len(dates)
	}

	dbState := "disabled"
	if h.db != nil {
		dbState = "up"
		if err := h.db.Ping(ctx); err != nil {
			dbState = "down"
		}
	}

	redisState := "disabled"
	if h.redis != nil && h.redis.Enabled() {
		redisState = "up"
		if err := h.redis.Redis().Ping(ctx).Err(); err != nil {
			redisState = "down"
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"uptime":   time.Since(h.start).Round(time.Second).String(),
		"datasets": datasets,
		"database": dbState,
		"redis":    redisState,
	})
}
