package market

import (
	"fmt"
	"time"
)

// Exchange closures falling on weekdays, through 2026. Weekend
// makeup workdays are not trading days either, so weekends never
// need entries.
var holidays = map[string]struct{}{
	// 2024
	"20240101": {},
	"20240209": {}, "20240212": {}, "20240213": {}, "20240214": {}, "20240215": {}, "20240216": {},
	"20240404": {}, "20240405": {},
	"20240501": {}, "20240502": {}, "20240503": {},
	"20240610": {},
	"20240916": {}, "20240917": {},
	"20241001": {}, "20241002": {}, "20241003": {}, "20241004": {}, "20241007": {},
	// 2025
	"20250101": {},
	"20250128": {}, "20250129": {}, "20250130": {}, "20250131": {}, "20250203": {}, "20250204": {},
	"20250404": {},
	"20250501": {}, "20250502": {}, "20250505": {},
	"20250602": {},
	"20251001": {}, "20251002": {}, "20251003": {}, "20251006": {}, "20251007": {}, "20251008": {},
	// 2026
	"20260101": {}, "20260102": {},
	"20260216": {}, "20260217": {}, "20260218": {}, "20260219": {}, "20260220": {},
	"20260406": {},
	"20260501": {}, "20260504": {}, "20260505": {},
	"20260619": {},
	"20260925": {},
	"20261001": {}, "20261002": {}, "20261005": {}, "20261006": {}, "20261007": {},
}

// DateKey formats a time as the YYYYMMDD key used across the system.
func DateKey(t time.Time) string {
	return t.Format("20060102")
}

// ParseDateKey parses a YYYYMMDD key back into a date.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation("20060102", key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}
	return t, nil
}

// IsTradingDay reports whether the exchange is open on the given date.
func IsTradingDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, closed := holidays[DateKey(t)]
	return !closed
}

// LastTradingDay returns the most recent trading day at or before t.
func LastTradingDay(t time.Time) time.Time {
	for !IsTradingDay(t) {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

// PrevTradingDay returns the most recent trading day strictly before t.
func PrevTradingDay(t time.Time) time.Time {
	return LastTradingDay(t.AddDate(0, 0, -1))
}

// HistoryWindow returns the begin and end date keys for a lookback of
// the given number of calendar days ending at t.
func HistoryWindow(t time.Time, days int) (string, string) {
	return DateKey(t.AddDate(0, 0, -days)), DateKey(t)
}
