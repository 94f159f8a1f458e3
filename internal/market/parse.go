package market

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseNumber parses localized market numbers. Thousands separators
// are dropped, a trailing percent sign divides by 100, and the 万 and
// 亿 unit suffixes multiply by 1e4 and 1e8. Anything unparsable,
// including the dash placeholder, yields 0.
func ParseNumber(v interface{}) float64 {
	var s string
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		s = n
	default:
		s = fmt.Sprint(v)
	}

	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" || s == "-" {
		return 0
	}

	if strings.HasSuffix(s, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0
		}
		return f / 100
	}

	mult := 1.0
	for _, unit := range []struct {
		sym  string
		mult float64
	}{{"万", 1e4}, {"亿", 1e8}} {
		for strings.Contains(s, unit.sym) {
			s = strings.Replace(s, unit.sym, "", 1)
			mult *= unit.mult
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f * mult
}

// MatchesIndustry reports whether the industry name contains any of
// the keywords.
func MatchesIndustry(industry string, keywords []string) bool {
	if industry == "" {
		return false
	}
	for _, kw := range keywords {
		if kw != "" && strings.Contains(industry, kw) {
			return true
		}
	}
	return false
}
