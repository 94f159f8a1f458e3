// Package eastmoney fetches A-share spot quotes, stock profiles and
// daily history from the Eastmoney push2 endpoints.
package eastmoney

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/newer-zhu/investment/internal/market"
	"github.com/newer-zhu/investment/pkg/config"
	"github.com/newer-zhu/investment/pkg/httputil"
	"github.com/newer-zhu/investment/pkg/logger"
)

const utToken = "fa5fd1943c7b386f172d6893dbfba10b"

// spotPageSize keeps clist responses small enough to stream quickly.
const spotPageSize = 500

// All A-share boards: SZ main, SZ ChiNext, SH main, SH STAR.
const spotMarkets = "m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23"

// Client handles communication with the Eastmoney quote services.
type Client struct {
	httpClient  *httputil.Client
	logger      *logger.Logger
	baseURL     string
	histBaseURL string
}

// New creates an Eastmoney client rate limited per the configuration.
func New(cfg *config.Config, log *logger.Logger) *Client {
	httpClient := httputil.New(cfg, log).WithRateLimit(cfg.Eastmoney.RatePerSec)
	return &Client{
		httpClient:  httpClient,
		logger:      log,
		baseURL:     strings.TrimRight(cfg.Eastmoney.BaseURL, "/"),
		histBaseURL: strings.TrimRight(cfg.Eastmoney.HistBaseURL, "/"),
	}
}

// SecID converts a bare stock code into the market-prefixed id the
// push2 endpoints expect.
func SecID(code string) string {
	if strings.HasPrefix(code, "6") || strings.HasPrefix(code, "9") {
		return "1." + code
	}
	return "0." + code
}

type clistResponse struct {
	Data *struct {
		Total int                      `json:"total"`
		Diff  []map[string]interface{} `json:"diff"`
	} `json:"data"`
}

type stockGetResponse struct {
	Data map[string]interface{} `json:"data"`
}

// SpotQuotes fetches the full A-share spot table, paging through the
// clist endpoint until every listed stock is collected.
func (c *Client) SpotQuotes(ctx context.Context) ([]market.Quote, error) {
	quotes := make([]market.Quote, 0, 5000)

	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("pn", fmt.Sprintf("%d", page))
		params.Set("pz", fmt.Sprintf("%d", spotPageSize))
		params.Set("po", "1")
		params.Set("np", "1")
		params.Set("fltt", "2")
		params.Set("invt", "2")
		params.Set("fid", "f3")
		params.Set("fs", spotMarkets)
		params.Set("fields", "f2,f3,f5,f6,f8,f9,f10,f12,f14,f20,f21,f25")
		params.Set("ut", utToken)

		reqURL := fmt.Sprintf("%s/api/qt/clist/get?%s", c.baseURL, params.Encode())

		var resp clistResponse
		if err := c.httpClient.GetJSON(ctx, reqURL, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch spot page %d: %w", page, err)
		}
		if resp.Data == nil || len(resp.Data.Diff) == 0 {
			break
		}

		for _, row := range resp.Data.Diff {
			q := quoteFromRow(row)
			if q.Code == "" {
				continue
			}
			quotes = append(quotes, q)
		}

		if len(quotes) >= resp.Data.Total {
			break
		}
	}

	c.logger.WithField("count", len(quotes)).Debug("Spot quotes fetched")
	return quotes, nil
}

// Spot fetches one stock's current snapshot.
func (c *Client) Spot(ctx context.Context, code string) (*market.Quote, error) {
	params := url.Values{}
	params.Set("fltt", "2")
	params.Set("invt", "2")
	params.Set("fields", "f43,f57,f58,f60,f168,f169,f170")
	params.Set("secid", SecID(code))
	params.Set("ut", utToken)

	reqURL := fmt.Sprintf("%s/api/qt/stock/get?%s", c.baseURL, params.Encode())

	var resp stockGetResponse
	if err := c.httpClient.GetJSON(ctx, reqURL, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch spot for %s: %w", code, err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("no spot data for %s", code)
	}

	return &market.Quote{
		Code:         fieldString(resp.Data, "f57"),
		Name:         fieldString(resp.Data, "f58"),
		Price:        market.ParseNumber(resp.Data["f43"]),
		ChangePct:    market.ParseNumber(resp.Data["f170"]),
		TurnoverRate: market.ParseNumber(resp.Data["f168"]),
	}, nil
}

// Profile fetches one stock's static description, including the
// industry assignment the screener filters on.
func (c *Client) Profile(ctx context.Context, code string) (*market.Profile, error) {
	params := url.Values{}
	params.Set("fltt", "2")
	params.Set("invt", "2")
	params.Set("fields", "f57,f58,f84,f85,f116,f117,f127,f189")
	params.Set("secid", SecID(code))
	params.Set("ut", utToken)

	reqURL := fmt.Sprintf("%s/api/qt/stock/get?%s", c.baseURL, params.Encode())

	var resp stockGetResponse
	if err := c.httpClient.GetJSON(ctx, reqURL, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch profile for %s: %w", code, err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("no profile data for %s", code)
	}

	return &market.Profile{
		Code:        fieldString(resp.Data, "f57"),
		Name:        fieldString(resp.Data, "f58"),
		Industry:    fieldString(resp.Data, "f127"),
		TotalShares: market.ParseNumber(resp.Data["f84"]),
		FloatShares: market.ParseNumber(resp.Data["f85"]),
		MarketCap:   market.ParseNumber(resp.Data["f116"]),
		FloatCap:    market.ParseNumber(resp.Data["f117"]),
		ListingDate: fieldString(resp.Data, "f189"),
	}, nil
}

func quoteFromRow(row map[string]interface{}) market.Quote {
	return market.Quote{
		Code:         fieldString(row, "f12"),
		Name:         fieldString(row, "f14"),
		Price:        market.ParseNumber(row["f2"]),
		ChangePct:    market.ParseNumber(row["f3"]),
		Volume:       market.ParseNumber(row["f5"]),
		Turnover:     market.ParseNumber(row["f6"]),
		TurnoverRate: market.ParseNumber(row["f8"]),
		PERatio:      market.ParseNumber(row["f9"]),
		VolumeRatio:  market.ParseNumber(row["f10"]),
		MarketCap:    market.ParseNumber(row["f20"]),
		FloatCap:     market.ParseNumber(row["f21"]),
		YTDChange:    market.ParseNumber(row["f25"]),
	}
}

func fieldString(row map[string]interface{}, key string) string {
	switch v := row[key].(type) {
	case string:
		if v == "-" {
			return ""
		}
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}
