// Package grid sorts and paginates stock records for tabular display.
package grid

import (
	"sort"
	"strings"

	"github.com/newer-zhu/investment/internal/dataset"
)

// PageSize is the fixed number of rows per page.
const PageSize = 20

// Default sort shows the strongest picks first.
const (
	DefaultSortBy = "total_score"
	DefaultDesc   = true
)

// Options selects the sort column, direction and page number. A zero
// Options value means the default sort and the first page.
type Options struct {
	SortBy string
	Desc   bool
	Page   int
}

// Page is one page of sorted rows plus the paging metadata the
// display needs.
type Page struct {
	Rows       []dataset.StockRecord `json:"rows"`
	Total      int                   `json:"total"`
	Page       int                   `json:"page"`
	TotalPages int                   `json:"total_pages"`
	SortBy     string                `json:"sort_by"`
	Desc       bool                  `json:"desc"`
}

// Paginate sorts a copy of the records and returns the requested page.
// The input slice is never reordered. Unknown sort columns and
// out-of-range page numbers fall back to the defaults.
func Paginate(stocks []dataset.StockRecord, opts Options) Page {
	sortBy := opts.SortBy
	desc := opts.Desc
	if _, ok := lessFuncs[sortBy]; !ok {
		sortBy = DefaultSortBy
		desc = DefaultDesc
	}

	sorted := make([]dataset.StockRecord, len(stocks))
	copy(sorted, stocks)

	less := lessFuncs[sortBy]
	sort.SliceStable(sorted, func(i, j int) bool {
		if desc {
			return less(sorted[j], sorted[i])
		}
		return less(sorted[i], sorted[j])
	})

	total := len(sorted)
	totalPages := (total + PageSize - 1) / PageSize

	page := opts.Page
	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}

	start := (page - 1) * PageSize
	end := start + PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page{
		Rows:       sorted[start:end],
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
		SortBy:     sortBy,
		Desc:       desc,
	}
}

// Columns returns the sortable column keys in display order.
func Columns() []string {
	return []string{
		"id", "code", "name", "price", "change", "market_cap",
		"ytd_change", "industry", "fundamental_score",
		"technical_score", "total_score",
	}
}

var lessFuncs = map[string]func(a, b dataset.StockRecord) bool{
	"id":                func(a, b dataset.StockRecord) bool { return a.ID < b.ID },
	"code":              func(a, b dataset.StockRecord) bool { return strings.Compare(a.Code, b.Code) < 0 },
	"name":              func(a, b dataset.StockRecord) bool { return strings.Compare(a.Name, b.Name) < 0 },
	"price":             func(a, b dataset.StockRecord) bool { return a.Price < b.Price },
	"change":            func(a, b dataset.StockRecord) bool { return a.Change < b.Change },
	"market_cap":        func(a, b dataset.StockRecord) bool { return a.MarketCap < b.MarketCap },
	"ytd_change":        func(a, b dataset.StockRecord) bool { return a.YTDChange < b.YTDChange },
	"industry":          func(a, b dataset.StockRecord) bool { return strings.Compare(a.Industry, b.Industry) < 0 },
	"fundamental_score": func(a, b dataset.StockRecord) bool { return a.FundamentalScore < b.FundamentalScore },
	"technical_score":   func(a, b dataset.StockRecord) bool { return a.TechnicalScore < b.TechnicalScore },
	"total_score":       func(a, b dataset.StockRecord) bool { return a.TotalScore < b.TotalScore },
}
