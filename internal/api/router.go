package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/newer-zhu/investment/internal/api/handlers"
	"github.com/newer-zhu/investment/pkg/logger"
)

// NewRouter creates and configures the HTTP router. alerts and page
// may be nil when the websocket stream or the web page is not mounted.
func NewRouter(
	picks *handlers.PicksHandler,
	search *handlers.SearchHandler,
	health *handlers.HealthHandler,
	alerts http.Handler,
	page http.Handler,
	outputDir string,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", health.Check).Methods("GET")

	// Pick data endpoints
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/dates", picks.GetDates).Methods("GET")
	api.HandleFunc("/stocks/{date}", picks.GetStocks).Methods("GET")
	api.HandleFunc("/stocks/{date}/csv", picks.GetStocksCSV).Methods("GET")
	api.HandleFunc("/search", search.Search).Methods("GET")

	// Live alert stream
	if alerts != nil {
		r.Handle("/ws/alerts", alerts)
	}

	// Raw pick files for the static consumers
	r.PathPrefix("/output/").Handler(http.StripPrefix("/output/", http.FileServer(http.Dir(outputDir))))

	// Server-rendered pick browser
	if page != nil {
		r.Handle("/", page).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
