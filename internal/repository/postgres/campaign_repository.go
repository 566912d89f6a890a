package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/merchsignal/backend/internal/ads"
)

// CampaignRepository persists the ad campaign table.
type CampaignRepository struct {
	db *DB
}

func NewCampaignRepository(db *DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// ReplaceAll swaps the stored campaign set for the given one.
func (r *CampaignRepository) ReplaceAll(ctx context.Context, campaigns []ads.Campaign) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM ad_campaigns`); err != nil {
			return fmt.Errorf("clear campaigns: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO ad_campaigns (
				campaign_id, sku_id, platform, campaign_name, status,
				daily_budget, total_spend_30d, impressions_30d, clicks_30d,
				conversions_30d, cpc, ctr, conversion_rate, roas,
				revenue_30d, start_date, end_date
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9,
				$10, $11, $12, $13, $14, $15, $16, $17
			)`)
		if err != nil {
			return fmt.Errorf("prepare campaigns insert: %w", err)
		}
		defer stmt.Close()

		for _, c := range campaigns {
			_, err := stmt.ExecContext(ctx,
				c.CampaignID, c.SKUID, c.Platform, c.CampaignName, c.Status,
				c.DailyBudget, c.TotalSpend30d, c.Impressions30d, c.Clicks30d,
				c.Conversions30d, c.CPC, c.CTR, c.ConversionRate, c.ROAS,
				c.Revenue30d, c.StartDate, c.EndDate,
			)
			if err != nil {
				return fmt.Errorf("insert campaign %s: %w", c.CampaignID, err)
			}
		}
		return nil
	})
}

// All loads every stored campaign.
func (r *CampaignRepository) All(ctx context.Context) ([]ads.Campaign, error) {
	var campaigns []ads.Campaign
	err := r.db.SelectContext(ctx, &campaigns, `
		SELECT campaign_id, sku_id, platform, campaign_name, status,
			daily_budget, total_spend_30d, impressions_30d, clicks_30d,
			conversions_30d, cpc, ctr, conversion_rate, roas,
			revenue_30d, start_date, end_date
		FROM ad_campaigns
		ORDER BY campaign_id`)
	if err != nil {
		return nil, fmt.Errorf("select campaigns: %w", err)
	}
	return campaigns, nil
}
