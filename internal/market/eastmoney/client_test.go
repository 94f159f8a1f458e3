package eastmoney

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newer-zhu/investment/pkg/config"
	"github.com/newer-zhu/investment/pkg/logger"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		Env:      "development",
		LogLevel: "error",
		Eastmoney: config.EastmoneyConfig{
			BaseURL:     server.URL,
			HistBaseURL: server.URL,
			RatePerSec:  100,
		},
	}
	return New(cfg, logger.New(cfg)), server
}

func TestSecID(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"600000", "1.600000"},
		{"688981", "1.688981"},
		{"000001", "0.000001"},
		{"300750", "0.300750"},
	}
	for _, tt := range tests {
		if got := SecID(tt.code); got != tt.want {
			t.Errorf("SecID(%s) = %s, want %s", tt.code, got, tt.want)
		}
	}
}

func TestSpotQuotes(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/qt/clist/get" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("pn") != "1" {
			// Later pages are empty so paging stops.
			w.Write([]byte(`{"data":null}`))
			return
		}
		w.Write([]byte(`{"data":{"total":2,"diff":[
			{"f2":7.85,"f3":1.2,"f5":123456,"f6":95000000.0,"f8":1.53,"f9":4.5,"f10":0.98,"f12":"600000","f14":"浦发银行","f20":23000000000.0,"f21":23000000000.0,"f25":8.4},
			{"f2":"-","f3":"-","f5":0,"f6":0,"f8":"-","f9":"-","f10":"-","f12":"600001","f14":"停牌股","f20":"-","f21":"-","f25":"-"}
		]}}`))
	}))

	quotes, err := client.SpotQuotes(context.Background())
	if err != nil {
		t.Fatalf("SpotQuotes() error = %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("SpotQuotes() = %d quotes, want 2", len(quotes))
	}

	q := quotes[0]
	if q.Code != "600000" || q.Name != "浦发银行" {
		t.Errorf("quote identity = %s %s", q.Code, q.Name)
	}
	if q.Price != 7.85 || q.TurnoverRate != 1.53 || q.MarketCap != 23000000000.0 {
		t.Errorf("quote numbers = %+v", q)
	}

	// Dash placeholders parse to zero instead of failing.
	if quotes[1].Price != 0 || quotes[1].TurnoverRate != 0 {
		t.Errorf("suspended quote = %+v, want zeroed numerics", quotes[1])
	}
}

func TestSpotQuotes_EmptyMarket(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":null}`))
	}))

	quotes, err := client.SpotQuotes(context.Background())
	if err != nil {
		t.Fatalf("SpotQuotes() error = %v", err)
	}
	if len(quotes) != 0 {
		t.Errorf("SpotQuotes() = %d quotes, want 0", len(quotes))
	}
}

func TestSpot(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("secid"); got != "1.600000" {
			t.Errorf("secid = %s, want 1.600000", got)
		}
		w.Write([]byte(`{"data":{"f43":7.92,"f57":"600000","f58":"浦发银行","f168":1.61,"f170":0.89}}`))
	}))

	quote, err := client.Spot(context.Background(), "600000")
	if err != nil {
		t.Fatalf("Spot() error = %v", err)
	}
	if quote.Code != "600000" || quote.Price != 7.92 || quote.ChangePct != 0.89 {
		t.Errorf("Spot() = %+v", quote)
	}
}

func TestProfile(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"f57":"600000","f58":"浦发银行","f84":29352000000.0,"f85":29352000000.0,"f116":230000000000.0,"f117":230000000000.0,"f127":"银行","f189":19991110}}`))
	}))

	profile, err := client.Profile(context.Background(), "600000")
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if profile.Industry != "银行" {
		t.Errorf("Industry = %s, want 银行", profile.Industry)
	}
	if profile.FloatCap != 230000000000.0 {
		t.Errorf("FloatCap = %v", profile.FloatCap)
	}
	if profile.ListingDate != "19991110" {
		t.Errorf("ListingDate = %s", profile.ListingDate)
	}
}

func TestDaily(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/qt/stock/kline/get" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("klt") != "101" || q.Get("fqt") != "1" {
			t.Errorf("klt=%s fqt=%s, want daily forward-adjusted", q.Get("klt"), q.Get("fqt"))
		}
		w.Write([]byte(`{"data":{"code":"600000","name":"浦发银行","klines":[
			"2024-01-02,7.65,7.70,7.75,7.60,123456,95000000.00,1.96,0.65,0.05,0.42",
			"2024-01-03,7.70,7.68,7.72,7.65,98765,76000000.00,0.91,-0.26,-0.02,0.34"
		]}}`))
	}))

	bars, err := client.Daily(context.Background(), "600000", "20240101", "20240131")
	if err != nil {
		t.Fatalf("Daily() error = %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("Daily() = %d bars, want 2", len(bars))
	}
	if bars[0].Date != "2024-01-02" || bars[0].Close != 7.70 || bars[0].Volume != 123456 {
		t.Errorf("bars[0] = %+v", bars[0])
	}
	if bars[1].ChangePct != -0.26 {
		t.Errorf("bars[1].ChangePct = %v, want -0.26", bars[1].ChangePct)
	}
}

func TestDaily_NoData(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":null}`))
	}))

	bars, err := client.Daily(context.Background(), "600000", "20240101", "20240131")
	if err != nil {
		t.Fatalf("Daily() error = %v", err)
	}
	if len(bars) != 0 {
		t.Errorf("Daily() = %d bars, want 0", len(bars))
	}
}

func TestParseKline_Malformed(t *testing.T) {
	if _, err := parseKline("2024-01-02,7.65,7.70"); err == nil {
		t.Errorf("parseKline accepted a short line")
	}
	if _, err := parseKline("2024-01-02,a,b,c,d,e,f,g,h,i,j"); err == nil {
		t.Errorf("parseKline accepted non-numeric values")
	}
}
