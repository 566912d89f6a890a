// internal/domain/models.go
package domain

import (
	"encoding/json"
	"math"
	"time"
)

// MasterRecord is one row of the SKU master table: identity plus the static
// economics fields. These are inputs and never mutated by the pipeline.
type MasterRecord struct {
	SKUID       string `json:"sku_id" db:"sku_id"`
	Category    string `json:"category" db:"category"`
	ProductName string `json:"product_name" db:"product_name"`

	SellingPrice        float64  `json:"selling_price" db:"selling_price"`
	MRP                 *float64 `json:"mrp,omitempty" db:"mrp"` // optional list price
	COGS                float64  `json:"cogs" db:"cogs"`
	ShippingCostPerUnit float64  `json:"shipping_cost_per_unit" db:"shipping_cost_per_unit"`
	PlatformFeePercent  float64  `json:"platform_fee_percent" db:"platform_fee_percent"`
	PlatformFixedFee    float64  `json:"platform_fixed_fee" db:"platform_fixed_fee"`
	AdSpendLast30Days   float64  `json:"ad_spend_total_last_30_days" db:"ad_spend_total_last_30_days"`
	UnitsSoldLast30Days float64  `json:"units_sold_last_30_days" db:"units_sold_last_30_days"`
	CurrentStock        int      `json:"current_stock" db:"current_stock"`
	LeadTimeDays        int      `json:"lead_time_days" db:"lead_time_days"`
}

// SalesRecord is one daily sales observation. Many rows per SKU; rows for
// the same (sku_id, date) are summed at ingestion.
type SalesRecord struct {
	SKUID     string    `json:"sku_id" db:"sku_id"`
	Date      time.Time `json:"date" db:"date"`
	UnitsSold int       `json:"units_sold" db:"units_sold"`
}

// Recommendation is a SKU row flowing through the pipeline. Each stage
// writes its own column group once; later stages never touch earlier ones.
type Recommendation struct {
	// Identity and inputs carried through from the master table.
	SKUID        string  `json:"sku_id" db:"sku_id"`
	Category     string  `json:"category" db:"category"`
	ProductName  string  `json:"product_name" db:"product_name"`
	SellingPrice float64 `json:"selling_price" db:"selling_price"`
	COGS         float64 `json:"cogs" db:"cogs"`
	CurrentStock int     `json:"current_stock" db:"current_stock"`
	LeadTimeDays int     `json:"lead_time_days" db:"lead_time_days"`

	// Profitability (stage 1).
	DiscountApplied       float64 `json:"discount_applied" db:"discount_applied"`
	EffectiveSellingPrice float64 `json:"effective_selling_price" db:"effective_selling_price"`
	TotalFees             float64 `json:"total_fees" db:"total_fees"`
	AdCostPerUnit         float64 `json:"ad_cost_per_unit" db:"ad_cost_per_unit"`
	ProfitPerUnit         float64 `json:"profit_per_unit" db:"profit_per_unit"`
	UnitsSoldPerDay       float64 `json:"units_sold_per_day" db:"units_sold_per_day"`
	LossPerDay            float64 `json:"loss_per_day" db:"loss_per_day"`
	IsLossMaker           bool    `json:"is_loss_maker" db:"is_loss_maker"`

	// Inventory risk (stage 2). DaysOfStockLeft is +Inf when the forecast
	// velocity sits at the floor (effectively no consumption).
	SalesVelocityPerDay float64   `json:"sales_velocity_per_day" db:"sales_velocity_per_day"`
	DaysOfStockLeft     float64   `json:"days_of_stock_left" db:"days_of_stock_left"`
	RiskLevel           RiskLevel `json:"risk_level" db:"risk_level"`
	ReorderQtySuggested float64   `json:"reorder_qty_suggested" db:"reorder_qty_suggested"`
	ProfitAtRisk        float64   `json:"profit_at_risk" db:"profit_at_risk"`

	// Seasonality (stage 3).
	SeasonalIndexCurrent float64       `json:"seasonal_index_current" db:"seasonal_index_current"`
	SeasonalIndexNext    float64       `json:"seasonal_index_next" db:"seasonal_index_next"`
	PeakMonth            string        `json:"peak_month" db:"peak_month"`
	TroughMonth          string        `json:"trough_month" db:"trough_month"`
	SeasonalTrend        SeasonalTrend `json:"seasonal_trend" db:"seasonal_trend"`
	SeasonalityStrength  float64       `json:"seasonality_strength" db:"seasonality_strength"`
	SeasonalForecast     float64       `json:"seasonal_forecast" db:"seasonal_forecast"`
	SeasonalRiskFlag     bool          `json:"seasonal_risk_flag" db:"seasonal_risk_flag"`

	// Ranking (stage 4).
	ImpactScore       float64 `json:"impact_score" db:"impact_score"`
	RecommendedAction Action  `json:"recommended_action" db:"recommended_action"`

	// Optional text annotations; never feed back into numeric columns.
	SeasonalInsight    string  `json:"llm_seasonal_insight,omitempty" db:"seasonal_insight"`
	SeasonalConfidence float64 `json:"llm_seasonal_confidence,omitempty" db:"seasonal_confidence"`
}

// UnlimitedRunwayWireValue stands in for an infinite days-of-stock runway in
// JSON and CSV output, where IEEE infinities cannot be encoded.
const UnlimitedRunwayWireValue = 999999

// HasUnlimitedRunway reports whether days of stock left is the infinite
// sentinel.
func (r *Recommendation) HasUnlimitedRunway() bool {
	return math.IsInf(r.DaysOfStockLeft, 1)
}

// DaysOfStockLeftSerialized converts the infinite runway sentinel into the
// wire value used on the API and in CSV exports.
func (r *Recommendation) DaysOfStockLeftSerialized() float64 {
	if r.HasUnlimitedRunway() {
		return UnlimitedRunwayWireValue
	}
	return r.DaysOfStockLeft
}

// MarshalJSON substitutes the wire value for an infinite runway; IEEE
// infinities are not representable in JSON.
func (r Recommendation) MarshalJSON() ([]byte, error) {
	type alias Recommendation
	return json.Marshal(struct {
		alias
		DaysOfStockLeft float64 `json:"days_of_stock_left"`
	}{
		alias:           alias(r),
		DaysOfStockLeft: r.DaysOfStockLeftSerialized(),
	})
}
