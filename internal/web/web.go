// Package web renders the server-side pick browser page.
package web

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/newer-zhu/investment/internal/dataset"
	"github.com/newer-zhu/investment/internal/grid"
	"github.com/newer-zhu/investment/pkg/logger"
)

//go:embed page.html
var pageHTML string

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"changeClass": changeClass,
}).Parse(pageHTML))

// DateLister lists the published pick dates, newest first. The CSV
// store implements it.
type DateLister interface {
	Dates() ([]string, error)
}

// Page serves the pick browser. Every request re-reads the date list
// and re-loads the selected dataset through the loader, so a failed
// load is retried simply by requesting the date again.
type Page struct {
	loader dataset.Loader
	dates  DateLister
	logger *logger.Logger
}

// NewPage creates the pick browser handler.
func NewPage(loader dataset.Loader, dates DateLister, log *logger.Logger) *Page {
	return &Page{
		loader: loader,
		dates:  dates,
		logger: log,
	}
}

var columnLabels = map[string]string{
	"id":                "序号",
	"code":              "代码",
	"name":              "名称",
	"price":             "价格",
	"change":            "今日涨跌",
	"market_cap":        "总市值",
	"ytd_change":        "年初至今涨跌幅",
	"industry":          "行业",
	"fundamental_score": "基本面评分",
	"technical_score":   "技术面评分",
	"total_score":       "总分",
}

var textColumns = map[string]bool{
	"code":     true,
	"name":     true,
	"industry": true,
}

type dateOption struct {
	Key      string
	Label    string
	Selected bool
}

type industryOption struct {
	Value    string
	Selected bool
}

type columnHeader struct {
	Label  string
	Class  string
	Marker string
	URL    string
}

type tableRow struct {
	ID          int
	Code        string
	Name        string
	Price       string
	Change      float64
	ChangeStr   string
	MarketCap   string
	YTDChange   float64
	YTDStr      string
	Industry    string
	Fundamental string
	Technical   string
	Total       string
}

type pageData struct {
	DateLabel  string
	Dates      []dateOption
	Industries []industryOption
	MinScore   string
	SortBy     string
	Order      string

	ErrorMessage string
	Notice       string

	Columns []columnHeader
	Rows    []tableRow

	Loaded     bool
	Total      int
	Page       int
	TotalPages int
	PrevURL    string
	NextURL    string
}

func (p *Page) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	industry := q.Get("industry")
	minScore := parseMinScore(q.Get("min_score"))
	sortBy, desc := normalizeSort(q.Get("sort"), q.Get("order"))

	data := &pageData{
		MinScore: strconv.FormatFloat(minScore, 'f', -1, 64),
		SortBy:   sortBy,
		Order:    orderString(desc),
	}

	dates, err := p.dates.Dates()
	if err != nil {
		p.logger.WithError(err).Error("Failed to list pick dates")
		data.ErrorMessage = "无法读取日期列表，请稍后重试"
		dates = nil
	}

	date := q.Get("date")
	if !dataset.ValidDateKey(date) {
		date = ""
	}
	if date == "" && len(dates) > 0 {
		date = dates[0]
	}
	for _, d := range dates {
		data.Dates = append(data.Dates, dateOption{
			Key:      d,
			Label:    dataset.FormatDateLabel(d),
			Selected: d == date,
		})
	}
	data.DateLabel = dataset.FormatDateLabel(date)

	switch {
	case data.ErrorMessage != "":
		// The date list is gone, there is nothing safe to load.
	case date == "":
		data.Notice = "暂无已发布的选股数据"
	default:
		opts := grid.Options{SortBy: sortBy, Desc: desc, Page: parsePage(q.Get("page"))}
		p.renderDataset(ctx, data, date, industry, minScore, opts)
	}

	data.Columns = columnHeaders(date, industry, minScore, sortBy, desc)

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		p.logger.WithError(err).Error("Failed to render page")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// renderDataset loads one date and fills the table state. A load
// failure sets the error banner and leaves the table empty; an empty
// dataset sets the informational notice instead.
func (p *Page) renderDataset(ctx context.Context, data *pageData, date, industry string, minScore float64, opts grid.Options) {
	records, err := p.loader.Load(ctx, date)
	if err != nil {
		p.logger.WithError(err).Warn("Dataset load failed")
		data.ErrorMessage = loadErrorMessage(err, date)
		return
	}
	if len(records) == 0 {
		data.Notice = "该日期没有选中的股票"
		return
	}

	vm := dataset.NewViewModel()
	vm.SetStocks(records)
	vm.SetIndustry(industry)
	vm.SetMinScore(minScore)

	for _, ind := range vm.Industries() {
		data.Industries = append(data.Industries, industryOption{
			Value:    ind,
			Selected: ind == industry,
		})
	}

	pg := grid.Paginate(vm.FilteredStocks(), opts)

	data.Loaded = true
	data.Total = pg.Total
	data.Page = pg.Page
	data.TotalPages = pg.TotalPages
	if data.TotalPages == 0 {
		data.TotalPages = 1
	}
	for _, rec := range pg.Rows {
		data.Rows = append(data.Rows, formatRow(rec))
	}
	if pg.Page > 1 {
		data.PrevURL = pageURL(date, industry, minScore, pg.SortBy, pg.Desc, pg.Page-1)
	}
	if pg.Page < pg.TotalPages {
		data.NextURL = pageURL(date, industry, minScore, pg.SortBy, pg.Desc, pg.Page+1)
	}
}

// columnHeaders builds the sort links. Clicking the active column
// flips its direction; a fresh column starts ascending for text and
// descending for numbers.
func columnHeaders(date, industry string, minScore float64, sortBy string, desc bool) []columnHeader {
	headers := make([]columnHeader, 0, len(columnLabels))
	for _, key := range grid.Columns() {
		marker := ""
		nextDesc := !textColumns[key]
		if key == sortBy {
			nextDesc = !desc
			if desc {
				marker = " ▼"
			} else {
				marker = " ▲"
			}
		}

		class := ""
		if textColumns[key] {
			class = "t-text"
		}

		headers = append(headers, columnHeader{
			Label:  columnLabels[key],
			Class:  class,
			Marker: marker,
			URL:    pageURL(date, industry, minScore, key, nextDesc, 1),
		})
	}
	return headers
}

func pageURL(date, industry string, minScore float64, sortBy string, desc bool, page int) string {
	v := url.Values{}
	if date != "" {
		v.Set("date", date)
	}
	if industry != "" {
		v.Set("industry", industry)
	}
	if minScore > 0 {
		v.Set("min_score", strconv.FormatFloat(minScore, 'f', -1, 64))
	}
	v.Set("sort", sortBy)
	v.Set("order", orderString(desc))
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	return "/?" + v.Encode()
}

func loadErrorMessage(err error, date string) string {
	label := dataset.FormatDateLabel(date)
	if kind, ok := dataset.KindOf(err); ok {
		switch kind {
		case dataset.ErrNotFound:
			return fmt.Sprintf("未找到日期 %s 的数据", label)
		case dataset.ErrParse:
			return fmt.Sprintf("日期 %s 的数据无法解析", label)
		}
	}
	return "数据加载失败，请稍后重试"
}

func formatRow(rec dataset.StockRecord) tableRow {
	return tableRow{
		ID:          rec.ID,
		Code:        rec.Code,
		Name:        rec.Name,
		Price:       strconv.FormatFloat(rec.Price, 'f', 2, 64),
		Change:      rec.Change,
		ChangeStr:   strconv.FormatFloat(rec.Change, 'f', 2, 64) + "%",
		MarketCap:   strconv.FormatFloat(rec.MarketCap, 'f', 2, 64),
		YTDChange:   rec.YTDChange,
		YTDStr:      strconv.FormatFloat(rec.YTDChange, 'f', 2, 64) + "%",
		Industry:    rec.Industry,
		Fundamental: strconv.FormatFloat(rec.FundamentalScore, 'f', 2, 64),
		Technical:   strconv.FormatFloat(rec.TechnicalScore, 'f', 2, 64),
		Total:       strconv.FormatFloat(rec.TotalScore, 'f', 2, 64),
	}
}

// normalizeSort validates the requested sort column so every sort link
// and hidden form input reflects the effective state.
func normalizeSort(sortBy, order string) (string, bool) {
	for _, key := range grid.Columns() {
		if key == sortBy {
			return sortBy, order != "asc"
		}
	}
	return grid.DefaultSortBy, grid.DefaultDesc
}

func orderString(desc bool) string {
	if desc {
		return "desc"
	}
	return "asc"
}

func parseMinScore(raw string) float64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func parsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Red marks gains and green losses, the A-share convention.
func changeClass(v float64) string {
	if v > 0 {
		return "up"
	}
	if v < 0 {
		return "dn"
	}
	return ""
}
