package dataset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newer-zhu/investment/pkg/config"
	"github.com/newer-zhu/investment/pkg/httputil"
	"github.com/newer-zhu/investment/pkg/logger"
)

// ErrorKind classifies dataset load failures.
type ErrorKind int

const (
	// ErrTransport covers unreachable sources and non-success HTTP
	// statuses.
	ErrTransport ErrorKind = iota
	// ErrParse covers malformed CSV and unexpected JSON shapes.
	ErrParse
	// ErrNotFound means no dataset exists for the requested date.
	ErrNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case ErrTransport:
		return "transport"
	case ErrParse:
		return "parse"
	case ErrNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// LoadError is the single error type crossing the loader boundary.
// Never fatal: the caller surfaces it and stays interactive.
type LoadError struct {
	Kind ErrorKind
	Date string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load dataset %s: %s: %v", e.Date, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func newLoadError(kind ErrorKind, date string, err error) *LoadError {
	return &LoadError{Kind: kind, Date: date, Err: err}
}

// KindOf extracts the load-error kind from an error chain.
func KindOf(err error) (ErrorKind, bool) {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind, true
	}
	return 0, false
}

// Loader obtains one date's records. An empty result is a valid
// dataset, not an error. Implementations never cache: every call
// re-fetches and re-parses.
type Loader interface {
	Load(ctx context.Context, dateKey string) ([]StockRecord, error)
}

// New builds the loader selected by config. The strategy is fixed for
// the process lifetime. Loads are single fresh attempts, so the
// dedicated HTTP client has retries disabled.
func New(cfg *config.Config, log *logger.Logger) Loader {
	client := httputil.NewWithTimeout(cfg, log, 15*time.Second).DisableRetry()

	if cfg.Data.Mode == config.ModeRemote {
		return NewRemoteLoader(cfg.Data.BaseURL, client, log)
	}
	return NewStaticLoader(cfg.Data.BaseURL, client, log)
}

// ValidDateKey reports whether s is an 8-digit YYYYMMDD key.
func ValidDateKey(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatDateLabel renders an 8-digit date key as YYYY-MM-DD for
// display. Unparseable keys pass through unchanged.
func FormatDateLabel(dateKey string) string {
	if !ValidDateKey(dateKey) {
		return dateKey
	}
	return dateKey[:4] + "-" + dateKey[4:6] + "-" + dateKey[6:]
}
