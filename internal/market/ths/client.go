// Package ths scrapes the 同花顺 data center ranking pages and the
// per-stock finance abstract.
package ths

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/newer-zhu/investment/internal/market"
	"github.com/newer-zhu/investment/pkg/config"
	"github.com/newer-zhu/investment/pkg/httputil"
	"github.com/newer-zhu/investment/pkg/logger"
)

// maxRankPages bounds the pagination loop on ranking boards.
const maxRankPages = 50

// Board ids for the moving-average breakout ranking, keyed by window.
var maBoards = map[int]string{
	5: "4", 10: "5", 20: "6", 30: "7",
	60: "8", 90: "9", 250: "10", 500: "11",
}

// NewHighScope selects which new-high board to fetch.
type NewHighScope string

const (
	NewHighAllTime  NewHighScope = "1"
	NewHighYearly   NewHighScope = "2"
	NewHighHalfYear NewHighScope = "3"
	NewHighMonthly  NewHighScope = "4"
)

// RankedStock is one row of a ranking board.
type RankedStock struct {
	Code      string
	Name      string
	Price     float64
	ChangePct float64
}

// FallingStock is one row of the volume-and-price-falling board.
type FallingStock struct {
	Code        string
	Name        string
	Days        int
	CumTurnover float64
}

// Client handles communication with the 同花顺 data center.
type Client struct {
	httpClient     *httputil.Client
	logger         *logger.Logger
	baseURL        string
	financeBaseURL string
	userAgent      string
}

// New creates a 同花顺 client.
func New(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		httpClient:     httputil.New(cfg, log),
		logger:         log,
		baseURL:        strings.TrimRight(cfg.THS.BaseURL, "/"),
		financeBaseURL: strings.TrimRight(cfg.THS.FinanceBaseURL, "/"),
		userAgent:      cfg.THS.UserAgent,
	}
}

// BreakoutStocks fetches the stocks that just broke above the given
// moving average line, e.g. window 30 for the MA30 board.
func (c *Client) BreakoutStocks(ctx context.Context, window int) ([]RankedStock, error) {
	board, ok := maBoards[window]
	if !ok {
		return nil, fmt.Errorf("no breakout board for MA%d", window)
	}
	pathTemplate := fmt.Sprintf("/rank/xstp/board/%s/field/stockcode/order/asc/page/%%d/ajax/1/free/1/", board)
	return c.rankedList(ctx, pathTemplate)
}

// NewHighStocks fetches the new-high board for the given scope.
func (c *Client) NewHighStocks(ctx context.Context, scope NewHighScope) ([]RankedStock, error) {
	pathTemplate := fmt.Sprintf("/rank/cxg/board/%s/field/stockcode/order/asc/page/%%d/ajax/1/free/1/", string(scope))
	return c.rankedList(ctx, pathTemplate)
}

func (c *Client) rankedList(ctx context.Context, pathTemplate string) ([]RankedStock, error) {
	var all []RankedStock

	for page := 1; page <= maxRankPages; page++ {
		html, err := c.fetchHTML(ctx, c.baseURL+fmt.Sprintf(pathTemplate, page))
		if err != nil {
			return nil, err
		}

		rows, totalPages, err := parseRankTable(html)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)

		if page >= totalPages || len(rows) == 0 {
			break
		}
	}

	c.logger.WithField("count", len(all)).Debug("Ranking board fetched")
	return all, nil
}

// VolumePriceFalling fetches the sustained volume-and-price-falling
// board, with the streak length per stock.
func (c *Client) VolumePriceFalling(ctx context.Context) ([]FallingStock, error) {
	var all []FallingStock

	for page := 1; page <= maxRankPages; page++ {
		html, err := c.fetchHTML(ctx, c.baseURL+fmt.Sprintf("/rank/ljqd/field/count/order/desc/page/%d/ajax/1/free/1/", page))
		if err != nil {
			return nil, err
		}

		rows, totalPages, err := parseFallingTable(html)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)

		if page >= totalPages || len(rows) == 0 {
			break
		}
	}

	c.logger.WithField("count", len(all)).Debug("Volume-price-falling board fetched")
	return all, nil
}

// FundFlows fetches the multi-day money flow ranking. Supported
// horizons are 3, 5, 10 and 20 days.
func (c *Client) FundFlows(ctx context.Context, days int) ([]market.FundFlow, error) {
	switch days {
	case 3, 5, 10, 20:
	default:
		return nil, fmt.Errorf("no fund flow board for %d days", days)
	}

	var all []market.FundFlow

	for page := 1; page <= maxRankPages; page++ {
		html, err := c.fetchHTML(ctx, c.baseURL+fmt.Sprintf("/funds/ggzjl/board/%d/field/zdf/order/desc/page/%d/ajax/1/free/1/", days, page))
		if err != nil {
			return nil, err
		}

		rows, totalPages, err := parseFundFlowTable(html)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)

		if page >= totalPages || len(rows) == 0 {
			break
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"days":  days,
		"count": len(all),
	}).Debug("Fund flow board fetched")
	return all, nil
}

// Fundamentals fetches the latest reported finance abstract for one
// stock.
func (c *Client) Fundamentals(ctx context.Context, code string) (*market.Fundamentals, error) {
	html, err := c.fetchHTML(ctx, fmt.Sprintf("%s/new/%s/finance.html", c.financeBaseURL, code))
	if err != nil {
		return nil, err
	}

	f, err := parseFinanceAbstract(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse finance abstract for %s: %w", code, err)
	}
	f.Code = code
	return f, nil
}

func (c *Client) fetchHTML(ctx context.Context, fullURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return string(body), nil
}
