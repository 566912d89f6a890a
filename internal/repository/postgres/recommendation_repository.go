package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/merchsignal/backend/internal/domain"
)

// RecommendationRepository persists pipeline runs and their ranked rows.
// Runs are append-only; each run gets a new id and the rows reference it.
type RecommendationRepository struct {
	db *DB
}

func NewRecommendationRepository(db *DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

// Run metadata for one persisted pipeline execution.
type Run struct {
	ID         int64     `db:"id"`
	DataSource string    `db:"data_source"`
	SKUCount   int       `db:"sku_count"`
	AsOf       time.Time `db:"as_of"`
	CreatedAt  time.Time `db:"created_at"`
}

// SaveRun writes the run header and all rows in one transaction and returns
// the new run id. Row order is preserved via the rank column.
func (r *RecommendationRepository) SaveRun(ctx context.Context, dataSource string, asOf time.Time, recs []*domain.Recommendation) (int64, error) {
	var runID int64
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO pipeline_runs (data_source, sku_count, as_of, created_at)
			VALUES ($1, $2, $3, NOW())
			RETURNING id`,
			dataSource, len(recs), asOf,
		).Scan(&runID)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO recommendations (
				run_id, rank, sku_id, category, product_name,
				selling_price, cogs, current_stock, lead_time_days,
				discount_applied, effective_selling_price, total_fees,
				ad_cost_per_unit, profit_per_unit, units_sold_per_day,
				loss_per_day, is_loss_maker,
				sales_velocity_per_day, days_of_stock_left, risk_level,
				reorder_qty_suggested, profit_at_risk,
				seasonal_index_current, seasonal_index_next, peak_month,
				trough_month, seasonal_trend, seasonality_strength,
				seasonal_forecast, seasonal_risk_flag,
				impact_score, recommended_action,
				seasonal_insight, seasonal_confidence
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
				$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
				$21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
				$31, $32, $33, $34
			)`)
		if err != nil {
			return fmt.Errorf("prepare rows insert: %w", err)
		}
		defer stmt.Close()

		for rank, rec := range recs {
			_, err := stmt.ExecContext(ctx,
				runID, rank+1, rec.SKUID, rec.Category, rec.ProductName,
				rec.SellingPrice, rec.COGS, rec.CurrentStock, rec.LeadTimeDays,
				rec.DiscountApplied, rec.EffectiveSellingPrice, rec.TotalFees,
				rec.AdCostPerUnit, rec.ProfitPerUnit, rec.UnitsSoldPerDay,
				rec.LossPerDay, rec.IsLossMaker,
				rec.SalesVelocityPerDay, rec.DaysOfStockLeftSerialized(), string(rec.RiskLevel),
				rec.ReorderQtySuggested, rec.ProfitAtRisk,
				rec.SeasonalIndexCurrent, rec.SeasonalIndexNext, rec.PeakMonth,
				rec.TroughMonth, string(rec.SeasonalTrend), rec.SeasonalityStrength,
				rec.SeasonalForecast, rec.SeasonalRiskFlag,
				rec.ImpactScore, string(rec.RecommendedAction),
				rec.SeasonalInsight, rec.SeasonalConfidence,
			)
			if err != nil {
				return fmt.Errorf("insert row for sku %s: %w", rec.SKUID, err)
			}
		}
		return nil
	})
	return runID, err
}

// LatestRun returns the most recent run header, or sql.ErrNoRows.
func (r *RecommendationRepository) LatestRun(ctx context.Context) (Run, error) {
	var run Run
	err := r.db.GetContext(ctx, &run, `
		SELECT id, data_source, sku_count, as_of, created_at
		FROM pipeline_runs
		ORDER BY created_at DESC
		LIMIT 1`)
	return run, err
}

// recommendationRow mirrors the recommendations table for sqlx scanning.
type recommendationRow struct {
	Rank int `db:"rank"`
	domain.Recommendation
}

// RowsForRun loads a run's rows in rank order.
func (r *RecommendationRepository) RowsForRun(ctx context.Context, runID int64) ([]*domain.Recommendation, error) {
	var rows []recommendationRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT rank, sku_id, category, product_name,
			selling_price, cogs, current_stock, lead_time_days,
			discount_applied, effective_selling_price, total_fees,
			ad_cost_per_unit, profit_per_unit, units_sold_per_day,
			loss_per_day, is_loss_maker,
			sales_velocity_per_day, days_of_stock_left, risk_level,
			reorder_qty_suggested, profit_at_risk,
			seasonal_index_current, seasonal_index_next, peak_month,
			trough_month, seasonal_trend, seasonality_strength,
			seasonal_forecast, seasonal_risk_flag,
			impact_score, recommended_action,
			seasonal_insight, seasonal_confidence
		FROM recommendations
		WHERE run_id = $1
		ORDER BY rank ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("select rows for run %d: %w", runID, err)
	}

	out := make([]*domain.Recommendation, len(rows))
	for i := range rows {
		rec := rows[i].Recommendation
		out[i] = &rec
	}
	return out, nil
}
