package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/newer-zhu/investment/internal/dataset"
)

// PicksRepository mirrors published pick lists into Postgres. The CSV
// files stay the source of truth; the table feeds ad hoc queries
// across dates.
type PicksRepository struct {
	pool *pgxpool.Pool
}

// NewPicksRepository creates a new pick list repository.
func NewPicksRepository(pool *pgxpool.Pool) *PicksRepository {
	return &PicksRepository{pool: pool}
}

// SaveBatch replaces one date's pick list in a single transaction,
// matching the file semantics where a rewrite drops rows.
func (r *PicksRepository) SaveBatch(ctx context.Context, date time.Time, records []dataset.StockRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM invest.stock_picks WHERE trade_date = $1`, date); err != nil {
		return fmt.Errorf("failed to clear picks for %s: %w", date.Format("2006-01-02"), err)
	}

	query := `
		INSERT INTO invest.stock_picks (
			trade_date, rank, stock_code, name,
			price, change_pct, market_cap, ytd_change, industry,
			fundamental_score, technical_score, total_score
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	for _, rec := range records {
		if _, err := tx.Exec(ctx, query,
			date, rec.ID, rec.Code, rec.Name,
			rec.Price, rec.Change, rec.MarketCap, rec.YTDChange, rec.Industry,
			rec.FundamentalScore, rec.TechnicalScore, rec.TotalScore,
		); err != nil {
			return fmt.Errorf("failed to save pick %s: %w", rec.Code, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ByDate retrieves one date's pick list in rank order.
func (r *PicksRepository) ByDate(ctx context.Context, date time.Time) ([]dataset.StockRecord, error) {
	query := `
		SELECT rank, stock_code, name,
			price, change_pct, market_cap, ytd_change, industry,
			fundamental_score, technical_score, total_score
		FROM invest.stock_picks
		WHERE trade_date = $1
		ORDER BY rank ASC
	`

	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query picks: %w", err)
	}
	defer rows.Close()

	var records []dataset.StockRecord
	for rows.Next() {
		var rec dataset.StockRecord
		if err := rows.Scan(
			&rec.ID, &rec.Code, &rec.Name,
			&rec.Price, &rec.Change, &rec.MarketCap, &rec.YTDChange, &rec.Industry,
			&rec.FundamentalScore, &rec.TechnicalScore, &rec.TotalScore,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Dates returns the trade dates with stored picks, newest first.
func (r *PicksRepository) Dates(ctx context.Context) ([]time.Time, error) {
	query := `
		SELECT DISTINCT trade_date
		FROM invest.stock_picks
		ORDER BY trade_date DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pick dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan pick date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// DeleteBefore removes pick lists older than the cutoff and returns
// how many rows went away.
func (r *PicksRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM invest.stock_picks WHERE trade_date < $1`

	ct, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old picks: %w", err)
	}
	return ct.RowsAffected(), nil
}
