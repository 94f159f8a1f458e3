package ths

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/newer-zhu/investment/internal/market"
)

// totalPagesOf reads the "current/total" page counter. Boards with a
// single page omit it.
func totalPagesOf(doc *goquery.Document) int {
	info := strings.TrimSpace(doc.Find("span.page_info").First().Text())
	if info == "" {
		return 1
	}
	parts := strings.Split(info, "/")
	if len(parts) != 2 {
		return 1
	}
	total, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || total < 1 {
		return 1
	}
	return total
}

func cellTexts(row *goquery.Selection) []string {
	var cells []string
	row.Find("td").Each(func(_ int, cell *goquery.Selection) {
		cells = append(cells, strings.TrimSpace(cell.Text()))
	})
	return cells
}

// parseRankTable reads a generic ranking board. Columns: rank, code,
// name, price, change percent, then board-specific extras.
func parseRankTable(html string) ([]RankedStock, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse ranking page: %w", err)
	}

	var rows []RankedStock
	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := cellTexts(row)
		if len(cells) < 5 || cells[1] == "" {
			return
		}
		rows = append(rows, RankedStock{
			Code:      cells[1],
			Name:      cells[2],
			Price:     market.ParseNumber(cells[3]),
			ChangePct: market.ParseNumber(cells[4]),
		})
	})

	return rows, totalPagesOf(doc), nil
}

// parseFallingTable reads the volume-and-price-falling board.
// Columns: rank, code, name, price, change percent, streak days,
// industry, cumulative turnover rate, cumulative turnover.
func parseFallingTable(html string) ([]FallingStock, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse ranking page: %w", err)
	}

	var rows []FallingStock
	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := cellTexts(row)
		if len(cells) < 8 || cells[1] == "" {
			return
		}
		days, _ := strconv.Atoi(cells[5])
		rows = append(rows, FallingStock{
			Code:        cells[1],
			Name:        cells[2],
			Days:        days,
			CumTurnover: market.ParseNumber(cells[7]),
		})
	})

	return rows, totalPagesOf(doc), nil
}

// parseFundFlowTable reads a multi-day money flow board. Columns:
// rank, code, name, price, stage change percent, sustained turnover
// rate, net inflow, turnover.
func parseFundFlowTable(html string) ([]market.FundFlow, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse ranking page: %w", err)
	}

	var rows []market.FundFlow
	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := cellTexts(row)
		if len(cells) < 8 || cells[1] == "" {
			return
		}
		rows = append(rows, market.FundFlow{
			Code:              cells[1],
			Name:              cells[2],
			Price:             market.ParseNumber(cells[3]),
			StageChangePct:    market.ParseNumber(cells[4]),
			SustainedTurnover: market.ParseNumber(cells[5]),
			NetInflow:         market.ParseNumber(cells[6]),
			Turnover:          market.ParseNumber(cells[7]),
		})
	})

	return rows, totalPagesOf(doc), nil
}

// financeData is the JSON block embedded in the finance page. Series
// values align with titles by index, periods ascending.
type financeData struct {
	Title  []json.RawMessage `json:"title"`
	Report [][]interface{}   `json:"report"`
}

// parseFinanceAbstract extracts the latest reported metrics from the
// hidden JSON payload of a finance page.
func parseFinanceAbstract(html string) (*market.Fundamentals, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse finance page: %w", err)
	}

	payload := strings.TrimSpace(doc.Find("p#main").First().Text())
	if payload == "" {
		return nil, fmt.Errorf("finance payload not found")
	}

	var data financeData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, fmt.Errorf("failed to decode finance payload: %w", err)
	}

	latest := make(map[string]interface{}, len(data.Title))
	for i, rawTitle := range data.Title {
		if i >= len(data.Report) {
			break
		}
		name := titleName(rawTitle)
		series := data.Report[i]
		if name == "" || len(series) == 0 {
			continue
		}
		latest[name] = series[len(series)-1]
	}

	return &market.Fundamentals{
		NetProfit:       market.ParseNumber(latest["净利润"]),
		ROE:             market.ParseNumber(latest["净资产收益率"]),
		GrossMargin:     market.ParseNumber(latest["销售毛利率"]),
		NetProfitGrowth: market.ParseNumber(latest["净利润同比增长率"]),
		RevenueGrowth:   market.ParseNumber(latest["营业总收入同比增长率"]),
		DebtRatio:       market.ParseNumber(latest["资产负债率"]),
		CurrentRatio:    market.ParseNumber(latest["流动比率"]),
	}, nil
}

// titleName unwraps a series title, which is either a plain string or
// a [name, unit] pair.
func titleName(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var pair []string
	if err := json.Unmarshal(raw, &pair); err == nil && len(pair) > 0 {
		return strings.TrimSpace(pair[0])
	}
	return ""
}
