package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/newer-zhu/investment/internal/search"
	"github.com/newer-zhu/investment/pkg/logger"
)

// Searcher finds indexed picks. The bleve index implements it.
type Searcher interface {
	Search(q string, limit int) ([]search.Hit, error)
}

// SearchHandler serves full-text queries over the pick index
type SearchHandler struct {
	index  Searcher
	logger *logger.Logger
}

// NewSearchHandler creates a new search handler. A nil index disables
// the endpoint.
func NewSearchHandler(index Searcher, log *logger.Logger) *SearchHandler {
	return &SearchHandler{
		index:  index,
		logger: log,
	}
}

// Search queries the pick index by code, name or industry
// GET /api/search?q=&limit=
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h.index == nil {
		respondError(w, http.StatusServiceUnavailable, "Search index not configured")
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		respondError(w, http.StatusBadRequest, "Missing query parameter q")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		if n > 100 {
			n = 100
		}
		limit = n
	}

	hits, err := h.index.Search(q, limit)
	if err != nil {
		h.logger.WithError(err).Error("Search query failed")
		respondError(w, http.StatusInternalServerError, "Search failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"query": q,
		"count": len(hits),
		"hits":  hits,
	})
}
