package dataset

import (
	"strconv"
	"strings"
)

// StockRecord is one row of a daily recommendation set. A full set is
// rebuilt from scratch on every date change; records are never mutated
// or merged across dates.
type StockRecord struct {
	// ID is the 1-based position among retained rows. Stable row key
	// only, no other meaning.
	ID               int     `json:"id"`
	Code             string  `json:"code"`
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	Change           float64 `json:"change"`
	MarketCap        float64 `json:"market_cap"`
	YTDChange        float64 `json:"ytd_change"`
	Industry         string  `json:"industry"`
	FundamentalScore float64 `json:"fundamental_score"`
	TechnicalScore   float64 `json:"technical_score"`
	TotalScore       float64 `json:"total_score"`
}

// InputRow is a raw pre-normalization mapping of column names to
// values, from an API payload or parsed CSV.
type InputRow map[string]interface{}

// Column aliases. Exported CSVs carry the localized headers; older
// exports and some API payloads use the ASCII names. Localized key
// wins when both are present.
var (
	codeKeys        = []string{"代码", "code"}
	nameKeys        = []string{"名称", "name"}
	priceKeys       = []string{"价格", "price"}
	changeKeys      = []string{"今日涨跌", "change"}
	marketCapKeys   = []string{"总市值", "market_cap"}
	ytdChangeKeys   = []string{"年初至今涨跌幅", "ytd_change"}
	industryKeys    = []string{"行业", "industry"}
	fundamentalKeys = []string{"基本面评分", "fundamental_score"}
	technicalKeys   = []string{"技术面评分", "technical_score"}
	totalKeys       = []string{"总分", "total_score"}
)

// CSVHeader is the column order for exported datasets.
var CSVHeader = []string{
	"代码", "名称", "价格", "今日涨跌", "总市值",
	"年初至今涨跌幅", "行业", "基本面评分", "技术面评分", "总分",
}

// Normalize converts raw input rows into stock records: resolve the
// column aliases, coerce numerics leniently, drop rows without a code
// and assign 1-based ids over the retained rows in input order.
func Normalize(rows []InputRow) []StockRecord {
	records := make([]StockRecord, 0, len(rows))

	for _, row := range rows {
		code := pickString(row, codeKeys)
		if code == "" {
			continue
		}

		records = append(records, StockRecord{
			ID:               len(records) + 1,
			Code:             code,
			Name:             pickString(row, nameKeys),
			Price:            pickFloat(row, priceKeys),
			Change:           pickFloat(row, changeKeys),
			MarketCap:        pickFloat(row, marketCapKeys),
			YTDChange:        pickFloat(row, ytdChangeKeys),
			Industry:         pickString(row, industryKeys),
			FundamentalScore: pickFloat(row, fundamentalKeys),
			TechnicalScore:   pickFloat(row, technicalKeys),
			TotalScore:       pickFloat(row, totalKeys),
		})
	}

	return records
}

// pick resolves a logical field through its candidate keys, first
// present wins.
func pick(row InputRow, keys []string) (interface{}, bool) {
	for _, key := range keys {
		if v, ok := row[key]; ok {
			return v, true
		}
	}
	return nil, false
}

func pickString(row InputRow, keys []string) string {
	v, ok := pick(row, keys)
	if !ok || v == nil {
		return ""
	}

	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	default:
		return ""
	}
}

// pickFloat coerces a raw field value to float64. Malformed or missing
// input yields 0, never an error. Lenient by contract: a zeroed field
// must not reject the row.
func pickFloat(row InputRow, keys []string) float64 {
	v, ok := pick(row, keys)
	if !ok {
		return 0
	}
	return coerceFloat(v)
}

func coerceFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		s := strings.TrimSpace(n)
		s = strings.TrimSuffix(s, "%")
		s = strings.ReplaceAll(s, ",", "")
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
