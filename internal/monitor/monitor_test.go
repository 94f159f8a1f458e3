package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newer-zhu/investment/internal/market"
	"github.com/newer-zhu/investment/pkg/config"
	"github.com/newer-zhu/investment/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error"})
}

type fakeSpot struct {
	quotes []market.Quote
	err    error
}

func (f *fakeSpot) SpotQuotes(ctx context.Context) ([]market.Quote, error) {
	return f.quotes, f.err
}

type fakeCooldown struct {
	acquired map[string]bool
	err      error
}

func (f *fakeCooldown) Acquire(ctx context.Context, key string, window time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.acquired == nil {
		f.acquired = make(map[string]bool)
	}
	if f.acquired[key] {
		return false, nil
	}
	f.acquired[key] = true
	return true, nil
}

type captureNotifier struct {
	alerts []Alert
}

func (n *captureNotifier) Notify(a Alert) {
	n.alerts = append(n.alerts, a)
}

func quote(code string, price, volume float64) market.Quote {
	return market.Quote{Code: code, Name: "测试股份", Price: price, Volume: volume}
}

func newTestMonitor(cfg config.MonitorConfig, spot *fakeSpot) (*Monitor, *captureNotifier) {
	m := New(cfg, spot, &fakeCooldown{}, testLogger())
	n := &captureNotifier{}
	m.SetNotifier(n)
	return m, n
}

func TestMonitorStopLossAbsolute(t *testing.T) {
	spot := &fakeSpot{quotes: []market.Quote{quote("600001", 9.1, 1e6)}}
	m, n := newTestMonitor(config.MonitorConfig{StopLossPct: -8, AlertCooldown: time.Minute}, spot)
	m.UpdatePositions([]Position{{Code: "600001", Name: "甲股份", CostPrice: 10, Shares: 100, StopLoss: 9.2}})

	fired, err := m.CheckOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, fired, 1)

	assert.Equal(t, KindStopLoss, fired[0].Kind)
	assert.Equal(t, "600001", fired[0].Code)
	assert.Contains(t, fired[0].Message, "止损价")
	assert.InDelta(t, -9.0, fired[0].PnLPct, 1e-9)
	require.Len(t, n.alerts, 1)
	assert.Equal(t, KindStopLoss, n.alerts[0].Kind)
}

func TestMonitorStopLossPercent(t *testing.T) {
	spot := &fakeSpot{quotes: []market.Quote{quote("600001", 9.1, 1e6)}}
	m, _ := newTestMonitor(config.MonitorConfig{StopLossPct: -8, AlertCooldown: time.Minute}, spot)
	m.UpdatePositions([]Position{{Code: "600001", CostPrice: 10, Shares: 100}})

	fired, err := m.CheckOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, KindStopLoss, fired[0].Kind)
	assert.Contains(t, fired[0].Message, "止损线")
}

func TestMonitorTakeProfitAbsolute(t *testing.T) {
	spot := &fakeSpot{quotes: []market.Quote{quote("600001", 12.5, 1e6)}}
	m, _ := newTestMonitor(config.MonitorConfig{TakeProfitPct: 15, AlertCooldown: time.Minute}, spot)
	m.UpdatePositions([]Position{{Code: "600001", CostPrice: 10, Shares: 100, TakeProfit: 12}})

	fired, err := m.CheckOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, KindTakeProfit, fired[0].Kind)
	assert.Contains(t, fired[0].Message, "止盈价")
}

func TestMonitorTakeProfitPercent(t *testing.T) {
	spot := &fakeSpot{quotes: []market.Quote{quote("600001", 11.6, 1e6)}}
	m, _ := newTestMonitor(config.MonitorConfig{TakeProfitPct: 15, AlertCooldown: time.Minute}, spot)
	m.UpdatePositions([]Position{{Code: "600001", CostPrice: 10, Shares: 100}})

	fired, err := m.CheckOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, KindTakeProfit, fired[0].Kind)
	assert.Contains(t, fired[0].Message, "止盈线")
}

func TestMonitorTrailingStop(t *testing.T) {
	spot := &fakeSpot{quotes: []market.Quote{quote("600001", 12, 1e6)}}
	m, _ := newTestMonitor(config.MonitorConfig{TrailingPct: 5, AlertCooldown: time.Minute}, spot)
	m.UpdatePositions([]Position{{Code: "600001", CostPrice: 10, Shares: 100}})

	fired, err := m.CheckOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fired)

	spot.quotes = []market.Quote{quote("600001", 11.3, 1e6)}
	fired, err = m.CheckOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, KindTrailingStop, fired[0].Kind)
	assert.Contains(t, fired[0].Message, "回撤")
}

func TestMonitorTrailingNeedsProfitFirst(t *testing.T) {
	spot := &fakeSpot{quotes: []market.Quote{quote("600001", 9.5, 1e6)}}
	m, _ := newTestMonitor(config.MonitorConfig{TrailingPct: 5, AlertCooldown: time.Minute}, spot)
	m.UpdatePositions([]Position{{Code: "600001", CostPrice: 10, Shares: 100}})

	fired, err := m.CheckOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fired)

	spot.quotes = []market.Quote{quote("600001", 9.0, 1e6)}
	fired, err = m.CheckOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fired)
}

func TestMonitorSuspended(t *testing.T) {
	spot := &fakeSpot{quotes: []market.Quote{quote("600001", 10.5, 0)}}
	m, _ := newTestMonitor(config.MonitorConfig{StopLossPct: -8, AlertCooldown: time.Minute}, spot)
	m.UpdatePositions([]Position{{Code: "600001", CostPrice: 10, Shares: 100}})

	fired, err := m.CheckOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, KindSuspended, fired[0].Kind)
}

func TestMonitorCooldownSuppressesRepeat(t *testing.T) {
	spot := &fakeSpot{quotes: []market.Quote{quote("600001", 9.1, 1e6)}}
	m, n := newTestMonitor(config.MonitorConfig{StopLossPct: -8, AlertCooldown: time.Minute}, spot)
	m.UpdatePositions([]Position{{Code: "600001", CostPrice: 10, Shares: 100}})

	fired, err := m.CheckOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, fired, 1)

	fired, err = m.CheckOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fired)
	assert.Len(t, n.alerts, 1)
}

func TestMonitorCooldownErrorStillAlerts(t *testing.T) {
	spot := &fakeSpot{quotes: []market.Quote{quote("600001", 9.1, 1e6)}}
	m := New(config.MonitorConfig{StopLossPct: -8, AlertCooldown: time.Minute}, spot, &fakeCooldown{err: assert.AnError}, testLogger())
	m.UpdatePositions([]Position{{Code: "600001", CostPrice: 10, Shares: 100}})

	fired, err := m.CheckOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, fired, 1)
}

func TestMonitorMissingQuote(t *testing.T) {
	spot := &fakeSpot{quotes: []market.Quote{quote("600002", 9.1, 1e6)}}
	m, _ := newTestMonitor(config.MonitorConfig{StopLossPct: -8, AlertCooldown: time.Minute}, spot)
	m.UpdatePositions([]Position{{Code: "600001", CostPrice: 10, Shares: 100}})

	fired, err := m.CheckOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fired)
}

func TestMonitorQuoteSourceError(t *testing.T) {
	spot := &fakeSpot{err: assert.AnError}
	m, _ := newTestMonitor(config.MonitorConfig{StopLossPct: -8}, spot)
	m.UpdatePositions([]Position{{Code: "600001", CostPrice: 10, Shares: 100}})

	_, err := m.CheckOnce(context.Background())
	require.Error(t, err)
}

func TestMonitorNoPositionsSkipsFetch(t *testing.T) {
	spot := &fakeSpot{err: assert.AnError}
	m, _ := newTestMonitor(config.MonitorConfig{StopLossPct: -8}, spot)

	fired, err := m.CheckOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fired)
}

func TestMonitorHealthyPositionStaysQuiet(t *testing.T) {
	spot := &fakeSpot{quotes: []market.Quote{quote("600001", 10.4, 1e6)}}
	m, n := newTestMonitor(config.MonitorConfig{StopLossPct: -8, TakeProfitPct: 15, TrailingPct: 5, AlertCooldown: time.Minute}, spot)
	m.UpdatePositions([]Position{{Code: "600001", CostPrice: 10, Shares: 100}})

	fired, err := m.CheckOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fired)
	assert.Empty(t, n.alerts)
}
