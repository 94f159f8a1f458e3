package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/newer-zhu/investment/internal/market"
	"github.com/newer-zhu/investment/pkg/config"
	"github.com/newer-zhu/investment/pkg/logger"
)

// Alert kinds.
const (
	KindStopLoss     = "stop_loss"
	KindTakeProfit   = "take_profit"
	KindTrailingStop = "trailing_stop"
	KindSuspended    = "suspended"
)

// Alert is one exit signal for a held position.
type Alert struct {
	Kind    string    `json:"kind"`
	Code    string    `json:"code"`
	Name    string    `json:"name"`
	Price   float64   `json:"price"`
	PnLPct  float64   `json:"pnl_pct"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// SpotSource supplies the live quote list.
type SpotSource interface {
	SpotQuotes(ctx context.Context) ([]market.Quote, error)
}

// Notifier receives fired alerts. The WebSocket hub implements it.
type Notifier interface {
	Notify(alert Alert)
}

// Cooldowner suppresses repeated alerts for a window. The Redis
// cooldown implements it so the window spans processes.
type Cooldowner interface {
	Acquire(ctx context.Context, key string, window time.Duration) (bool, error)
}

// Monitor polls live quotes and checks each held position against its
// exit rules. A Redis cooldown keeps one alert per rule per window so
// a breached level does not page on every tick.
type Monitor struct {
	cfg      config.MonitorConfig
	source   SpotSource
	cooldown Cooldowner
	notifier Notifier
	logger   *logger.Logger

	posMu     sync.RWMutex
	positions []Position
	highWater map[string]float64

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a position monitor.
func New(cfg config.MonitorConfig, source SpotSource, cooldown Cooldowner, log *logger.Logger) *Monitor {
	return &Monitor{
		cfg:       cfg,
		source:    source,
		cooldown:  cooldown,
		logger:    log,
		highWater: make(map[string]float64),
		stopCh:    make(chan struct{}),
	}
}

// SetNotifier sets the alert sink.
func (m *Monitor) SetNotifier(n Notifier) {
	m.notifier = n
}

// UpdatePositions replaces the watched position book.
func (m *Monitor) UpdatePositions(positions []Position) {
	m.posMu.Lock()
	defer m.posMu.Unlock()
	m.positions = positions
	m.logger.WithField("count", len(positions)).Info("Updated monitored positions")
}

// Start begins the polling loop.
func (m *Monitor) Start(ctx context.Context) error {
	m.logger.WithFields(map[string]interface{}{
		"interval":  m.cfg.Interval,
		"positions": len(m.Positions()),
	}).Info("Starting position monitor")

	m.wg.Add(1)
	go m.run(ctx)
	return nil
}

// Stop halts the polling loop and waits for it to finish.
func (m *Monitor) Stop() {
	m.logger.Info("Stopping position monitor")
	close(m.stopCh)
	m.wg.Wait()
}

// Positions returns a copy of the watched position book.
func (m *Monitor) Positions() []Position {
	m.posMu.RLock()
	defer m.posMu.RUnlock()
	out := make([]Position, len(m.positions))
	copy(out, m.positions)
	return out
}

func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			if _, err := m.CheckOnce(ctx); err != nil {
				m.logger.WithError(err).Warn("Position check failed")
			}
		}
	}
}

// CheckOnce runs a single pass over the position book and returns the
// alerts that fired.
func (m *Monitor) CheckOnce(ctx context.Context) ([]Alert, error) {
	positions := m.Positions()
	if len(positions) == 0 {
		return nil, nil
	}

	quotes, err := m.source.SpotQuotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load spot quotes: %w", err)
	}
	byCode := make(map[string]market.Quote, len(quotes))
	for _, q := range quotes {
		byCode[q.Code] = q
	}

	var fired []Alert
	for _, pos := range positions {
		quote, ok := byCode[pos.Code]
		if !ok {
			m.logger.WithField("code", pos.Code).Debug("No quote for held position")
			continue
		}

		alert, triggered := m.evaluate(pos, quote)
		if !triggered {
			continue
		}

		acquired, err := m.cooldown.Acquire(ctx, alert.Kind+":"+alert.Code, m.cfg.AlertCooldown)
		if err != nil {
			// An unreachable cooldown store must not swallow exit
			// signals.
			m.logger.WithError(err).Warn("Alert cooldown unavailable, alerting anyway")
			acquired = true
		}
		if !acquired {
			continue
		}

		m.logger.WithFields(map[string]interface{}{
			"kind":    alert.Kind,
			"code":    alert.Code,
			"name":    alert.Name,
			"price":   alert.Price,
			"pnl_pct": alert.PnLPct,
		}).Warn(alert.Message)

		if m.notifier != nil {
			m.notifier.Notify(alert)
		}
		fired = append(fired, alert)
	}

	m.logger.WithFields(map[string]interface{}{
		"positions": len(positions),
		"quoted":    len(byCode),
		"alerts":    len(fired),
	}).Debug("Position check completed")

	return fired, nil
}

// evaluate applies the exit rules in urgency order. Absolute levels on
// the position win over the percent rules from the config.
func (m *Monitor) evaluate(pos Position, q market.Quote) (Alert, bool) {
	alert := Alert{
		Code:  pos.Code,
		Name:  pos.Name,
		Price: q.Price,
		Time:  time.Now(),
	}

	if q.Price <= 0 || q.Volume <= 0 {
		alert.Kind = KindSuspended
		alert.Message = fmt.Sprintf("%s 疑似停牌，当日无成交", pos.Code)
		return alert, true
	}

	pnl := (q.Price - pos.CostPrice) / pos.CostPrice * 100
	alert.PnLPct = pnl
	high := m.updateHigh(pos.Code, q.Price, pos.CostPrice)
	drawdown := (high - q.Price) / high * 100

	switch {
	case pos.StopLoss > 0 && q.Price <= pos.StopLoss:
		alert.Kind = KindStopLoss
		alert.Message = fmt.Sprintf("%s 跌破止损价 %.2f，现价 %.2f", pos.Code, pos.StopLoss, q.Price)
	case pos.StopLoss == 0 && m.cfg.StopLossPct < 0 && pnl <= m.cfg.StopLossPct:
		alert.Kind = KindStopLoss
		alert.Message = fmt.Sprintf("%s 浮亏 %.2f%%，触及止损线 %.2f%%", pos.Code, pnl, m.cfg.StopLossPct)
	case pos.TakeProfit > 0 && q.Price >= pos.TakeProfit:
		alert.Kind = KindTakeProfit
		alert.Message = fmt.Sprintf("%s 升破止盈价 %.2f，现价 %.2f", pos.Code, pos.TakeProfit, q.Price)
	case pos.TakeProfit == 0 && m.cfg.TakeProfitPct > 0 && pnl >= m.cfg.TakeProfitPct:
		alert.Kind = KindTakeProfit
		alert.Message = fmt.Sprintf("%s 浮盈 %.2f%%，达到止盈线 %.2f%%", pos.Code, pnl, m.cfg.TakeProfitPct)
	case m.cfg.TrailingPct > 0 && high > pos.CostPrice && drawdown >= m.cfg.TrailingPct:
		alert.Kind = KindTrailingStop
		alert.Message = fmt.Sprintf("%s 自高点 %.2f 回撤 %.2f%%", pos.Code, high, drawdown)
	default:
		return Alert{}, false
	}

	return alert, true
}

// updateHigh tracks the highest observed price per position, seeded at
// cost so the trailing rule only arms once the position has been in
// profit.
func (m *Monitor) updateHigh(code string, price, cost float64) float64 {
	m.posMu.Lock()
	defer m.posMu.Unlock()

	high, ok := m.highWater[code]
	if !ok || high < cost {
		high = cost
	}
	if price > high {
		high = price
	}
	m.highWater[code] = high
	return high
}
