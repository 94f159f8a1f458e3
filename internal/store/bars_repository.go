package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/newer-zhu/investment/internal/market"
)

// BarsRepository mirrors fetched daily candles into Postgres so
// repeated scoring runs and backfills do not hammer the quote
// provider.
type BarsRepository struct {
	pool *pgxpool.Pool
}

// NewBarsRepository creates a new daily bar repository.
func NewBarsRepository(pool *pgxpool.Pool) *BarsRepository {
	return &BarsRepository{pool: pool}
}

// SaveBatch upserts one stock's candles in a single transaction.
func (r *BarsRepository) SaveBatch(ctx context.Context, code string, bars []market.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO invest.daily_bars (
			stock_code, trade_date,
			open_price, high_price, low_price, close_price,
			volume, amount, amplitude, change_pct, change_amt, turnover_rate
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (stock_code, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume,
			amount = EXCLUDED.amount,
			amplitude = EXCLUDED.amplitude,
			change_pct = EXCLUDED.change_pct,
			change_amt = EXCLUDED.change_amt,
			turnover_rate = EXCLUDED.turnover_rate,
			updated_at = NOW()
	`

	for _, b := range bars {
		date, err := time.ParseInLocation("2006-01-02", b.Date, time.Local)
		if err != nil {
			return fmt.Errorf("invalid bar date %q for %s: %w", b.Date, code, err)
		}
		if _, err := tx.Exec(ctx, query,
			code, date,
			b.Open, b.High, b.Low, b.Close,
			b.Volume, b.Amount, b.Amplitude, b.ChangePct, b.ChangeAmt, b.TurnoverRate,
		); err != nil {
			return fmt.Errorf("failed to save bar for %s on %s: %w", code, b.Date, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Range retrieves one stock's candles within the date range, oldest
// first.
func (r *BarsRepository) Range(ctx context.Context, code string, from, to time.Time) ([]market.Bar, error) {
	query := `
		SELECT trade_date,
			open_price, high_price, low_price, close_price,
			volume, amount, amplitude, change_pct, change_amt, turnover_rate
		FROM invest.daily_bars
		WHERE stock_code = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, code, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query bars for %s: %w", code, err)
	}
	defer rows.Close()

	var bars []market.Bar
	for rows.Next() {
		var b market.Bar
		var date time.Time
		if err := rows.Scan(
			&date,
			&b.Open, &b.High, &b.Low, &b.Close,
			&b.Volume, &b.Amount, &b.Amplitude, &b.ChangePct, &b.ChangeAmt, &b.TurnoverRate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		b.Date = date.Format("2006-01-02")
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// LatestDate returns the newest stored trade date for a stock, or the
// zero time when none is stored.
func (r *BarsRepository) LatestDate(ctx context.Context, code string) (time.Time, error) {
	query := `SELECT MAX(trade_date) FROM invest.daily_bars WHERE stock_code = $1`

	var date *time.Time
	if err := r.pool.QueryRow(ctx, query, code).Scan(&date); err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest bar date for %s: %w", code, err)
	}
	if date == nil {
		return time.Time{}, nil
	}
	return *date, nil
}

// DeleteBefore removes candles older than the cutoff and returns how
// many rows went away.
func (r *BarsRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM invest.daily_bars WHERE trade_date < $1`

	ct, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old bars: %w", err)
	}
	return ct.RowsAffected(), nil
}
