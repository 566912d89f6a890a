// Package export writes the final recommendation table to CSV with a
// stable column order.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/merchsignal/backend/internal/domain"
)

var columns = []string{
	"sku_id",
	"category",
	"product_name",
	"selling_price",
	"cogs",
	"current_stock",
	"lead_time_days",
	"discount_applied",
	"effective_selling_price",
	"total_fees",
	"ad_cost_per_unit",
	"profit_per_unit",
	"units_sold_per_day",
	"loss_per_day",
	"is_loss_maker",
	"sales_velocity_per_day",
	"days_of_stock_left",
	"risk_level",
	"reorder_qty_suggested",
	"profit_at_risk",
	"seasonal_index_current",
	"seasonal_index_next",
	"peak_month",
	"trough_month",
	"seasonal_trend",
	"seasonality_strength",
	"seasonal_forecast",
	"seasonal_risk_flag",
	"impact_score",
	"recommended_action",
	"llm_seasonal_insight",
	"llm_seasonal_confidence",
}

// WriteCSV streams the table to w in rank order.
func WriteCSV(w io.Writer, recs []*domain.Recommendation) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(columns); err != nil {
		return err
	}

	for _, r := range recs {
		record := []string{
			r.SKUID,
			r.Category,
			r.ProductName,
			f(r.SellingPrice),
			f(r.COGS),
			strconv.Itoa(r.CurrentStock),
			strconv.Itoa(r.LeadTimeDays),
			f(r.DiscountApplied),
			f(r.EffectiveSellingPrice),
			f(r.TotalFees),
			f(r.AdCostPerUnit),
			f(r.ProfitPerUnit),
			f(r.UnitsSoldPerDay),
			f(r.LossPerDay),
			strconv.FormatBool(r.IsLossMaker),
			f(r.SalesVelocityPerDay),
			f(r.DaysOfStockLeftSerialized()),
			string(r.RiskLevel),
			f(r.ReorderQtySuggested),
			f(r.ProfitAtRisk),
			f(r.SeasonalIndexCurrent),
			f(r.SeasonalIndexNext),
			r.PeakMonth,
			r.TroughMonth,
			string(r.SeasonalTrend),
			f(r.SeasonalityStrength),
			f(r.SeasonalForecast),
			strconv.FormatBool(r.SeasonalRiskFlag),
			f(r.ImpactScore),
			string(r.RecommendedAction),
			r.SeasonalInsight,
			f(r.SeasonalConfidence),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes the table to a dated file under dir and returns its
// path.
func WriteFile(dir string, recs []*domain.Recommendation, asOf time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("recommendations_%s.csv", asOf.Format("20060102_150405")))
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := WriteCSV(file, recs); err != nil {
		return "", err
	}
	return path, nil
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
