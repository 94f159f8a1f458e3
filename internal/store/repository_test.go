package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newer-zhu/investment/internal/dataset"
	"github.com/newer-zhu/investment/internal/market"
	"github.com/newer-zhu/investment/pkg/config"
	"github.com/newer-zhu/investment/pkg/database"
)

// The repository tests run against the schema in DATABASE_URL and use
// 1999 trade dates, far before any real pick data, so cleanup cannot
// touch live rows.

func testDB(t *testing.T) *database.DB {
	t.Helper()
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	cfg, err := config.Load()
	require.NoError(t, err)
	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestBarsRepositoryRoundTrip(t *testing.T) {
	db := testDB(t)
	repo := NewBarsRepository(db.Pool)
	ctx := context.Background()

	const code = "999001"
	t.Cleanup(func() {
		db.Pool.Exec(context.Background(), `DELETE FROM invest.daily_bars WHERE stock_code = $1`, code)
	})

	bars := []market.Bar{
		{Date: "1999-01-04", Open: 10.0, High: 10.5, Low: 9.8, Close: 10.2, Volume: 120000, Amount: 1.2e8, ChangePct: 1.1},
		{Date: "1999-01-05", Open: 10.2, High: 10.8, Low: 10.1, Close: 10.6, Volume: 150000, Amount: 1.5e8, ChangePct: 3.9},
		{Date: "1999-01-06", Open: 10.6, High: 10.7, Low: 10.3, Close: 10.4, Volume: 90000, Amount: 0.9e8, ChangePct: -1.9},
	}
	require.NoError(t, repo.SaveBatch(ctx, code, bars))

	bars[2].Close = 10.9
	require.NoError(t, repo.SaveBatch(ctx, code, bars))

	from := time.Date(1999, 1, 4, 0, 0, 0, 0, time.Local)
	to := time.Date(1999, 1, 6, 0, 0, 0, 0, time.Local)
	got, err := repo.Range(ctx, code, from, to)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "1999-01-04", got[0].Date)
	assert.Equal(t, "1999-01-06", got[2].Date)
	assert.InDelta(t, 10.9, got[2].Close, 1e-9)
	assert.InDelta(t, 1.2e8, got[0].Amount, 1e-3)

	latest, err := repo.LatestDate(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "1999-01-06", latest.Format("2006-01-02"))

	removed, err := repo.DeleteBefore(ctx, time.Date(1999, 2, 1, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, int64(3))
}

func TestBarsRepositoryLatestDateEmpty(t *testing.T) {
	db := testDB(t)
	repo := NewBarsRepository(db.Pool)

	latest, err := repo.LatestDate(context.Background(), "999998")
	require.NoError(t, err)
	assert.True(t, latest.IsZero())
}

func TestBarsRepositorySaveBatchInvalidDate(t *testing.T) {
	db := testDB(t)
	repo := NewBarsRepository(db.Pool)

	err := repo.SaveBatch(context.Background(), "999001", []market.Bar{{Date: "not-a-date"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid bar date")
}

func TestPicksRepositoryRoundTrip(t *testing.T) {
	db := testDB(t)
	repo := NewPicksRepository(db.Pool)
	ctx := context.Background()

	date := time.Date(1999, 1, 4, 0, 0, 0, 0, time.Local)
	t.Cleanup(func() {
		db.Pool.Exec(context.Background(), `DELETE FROM invest.stock_picks WHERE trade_date = $1`, date)
	})

	records := []dataset.StockRecord{
		{ID: 1, Code: "999001", Name: "甲股份", Price: 12.5, Change: 1.2, MarketCap: 120e8, YTDChange: 5.2, Industry: "银行", FundamentalScore: 60, TechnicalScore: 20, TotalScore: 46.8},
		{ID: 2, Code: "999002", Name: "乙股份", Price: 8.8, Change: -0.4, MarketCap: 80e8, YTDChange: -2.1, Industry: "白酒", FundamentalScore: 55, TechnicalScore: 12, TotalScore: 39.95},
	}
	require.NoError(t, repo.SaveBatch(ctx, date, records))

	got, err := repo.ByDate(ctx, date)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, "999001", got[0].Code)
	assert.Equal(t, "甲股份", got[0].Name)
	assert.Equal(t, "白酒", got[1].Industry)
	assert.InDelta(t, 46.8, got[0].TotalScore, 1e-9)

	require.NoError(t, repo.SaveBatch(ctx, date, records[:1]))
	got, err = repo.ByDate(ctx, date)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "999001", got[0].Code)

	dates, err := repo.Dates(ctx)
	require.NoError(t, err)
	found := false
	for _, d := range dates {
		if d.Format("2006-01-02") == "1999-01-04" {
			found = true
		}
	}
	assert.True(t, found)

	removed, err := repo.DeleteBefore(ctx, date.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, int64(1))

	got, err = repo.ByDate(ctx, date)
	require.NoError(t, err)
	assert.Empty(t, got)
}
