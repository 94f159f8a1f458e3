package eastmoney

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/newer-zhu/investment/internal/market"
)

type klineResponse struct {
	Data *struct {
		Code   string   `json:"code"`
		Name   string   `json:"name"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// Daily fetches forward-adjusted daily bars for one stock between two
// YYYYMMDD keys, inclusive.
func (c *Client) Daily(ctx context.Context, code, beg, end string) ([]market.Bar, error) {
	params := url.Values{}
	params.Set("secid", SecID(code))
	params.Set("fields1", "f1,f2,f3,f4,f5,f6")
	params.Set("fields2", "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61")
	params.Set("klt", "101")
	params.Set("fqt", "1")
	params.Set("beg", beg)
	params.Set("end", end)
	params.Set("ut", utToken)

	reqURL := fmt.Sprintf("%s/api/qt/stock/kline/get?%s", c.histBaseURL, params.Encode())

	var resp klineResponse
	if err := c.httpClient.GetJSON(ctx, reqURL, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", code, err)
	}
	if resp.Data == nil {
		return []market.Bar{}, nil
	}

	bars := make([]market.Bar, 0, len(resp.Data.Klines))
	for _, line := range resp.Data.Klines {
		bar, err := parseKline(line)
		if err != nil {
			return nil, fmt.Errorf("failed to parse kline for %s: %w", code, err)
		}
		bars = append(bars, bar)
	}

	c.logger.WithFields(map[string]interface{}{
		"code": code,
		"beg":  beg,
		"end":  end,
		"bars": len(bars),
	}).Debug("History fetched")

	return bars, nil
}

// parseKline decodes one comma-joined candle line. Field order:
// date, open, close, high, low, volume, amount, amplitude,
// change percent, change amount, turnover rate.
func parseKline(line string) (market.Bar, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 11 {
		return market.Bar{}, fmt.Errorf("unexpected kline field count %d in %q", len(parts), line)
	}

	nums := make([]float64, 10)
	for i, raw := range parts[1:] {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return market.Bar{}, fmt.Errorf("bad kline value %q: %w", raw, err)
		}
		nums[i] = f
	}

	return market.Bar{
		Date:         parts[0],
		Open:         nums[0],
		Close:        nums[1],
		High:         nums[2],
		Low:          nums[3],
		Volume:       nums[4],
		Amount:       nums[5],
		Amplitude:    nums[6],
		ChangePct:    nums[7],
		ChangeAmt:    nums[8],
		TurnoverRate: nums[9],
	}, nil
}
