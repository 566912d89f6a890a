// Package profit implements the first pipeline stage: per-unit economics
// derived from the static master fields alone. Pure per-row arithmetic, no
// cross-row dependency.
package profit

import (
	"math"

	"github.com/merchsignal/backend/internal/domain"
)

// Calculator computes profitability columns for a SKU row.
type Calculator struct {
	feeGSTRate float64
}

// NewCalculator creates a profitability calculator with the given GST rate
// on payment gateway fees.
func NewCalculator(feeGSTRate float64) *Calculator {
	return &Calculator{feeGSTRate: feeGSTRate}
}

// Apply fills the stage-1 column group on rec from the master record.
func (c *Calculator) Apply(m *domain.MasterRecord, rec *domain.Recommendation) {
	// 1. Discount and effective selling price. MRP is optional; no MRP
	// means no discount.
	discount := 0.0
	if m.MRP != nil {
		discount = math.Max(*m.MRP-m.SellingPrice, 0)
	}
	rec.DiscountApplied = discount
	rec.EffectiveSellingPrice = m.SellingPrice - discount

	// 2. Payment gateway fee plus GST on the fee.
	paymentFee := (m.PlatformFeePercent/100.0)*rec.EffectiveSellingPrice + m.PlatformFixedFee
	rec.TotalFees = paymentFee + c.feeGSTRate*paymentFee

	// 3. Ad cost allocated per unit sold; zero when nothing sold.
	if m.UnitsSoldLast30Days > 0 {
		rec.AdCostPerUnit = m.AdSpendLast30Days / m.UnitsSoldLast30Days
	} else {
		rec.AdCostPerUnit = 0
	}

	// 4. Per-unit profit.
	rec.ProfitPerUnit = rec.EffectiveSellingPrice -
		m.COGS -
		rec.TotalFees -
		rec.AdCostPerUnit -
		m.ShippingCostPerUnit

	// 5. Daily run rate and loss rate for negative-margin SKUs.
	rec.UnitsSoldPerDay = m.UnitsSoldLast30Days / 30.0
	rec.IsLossMaker = rec.ProfitPerUnit < 0
	if rec.IsLossMaker {
		rec.LossPerDay = math.Abs(rec.ProfitPerUnit) * rec.UnitsSoldPerDay
	} else {
		rec.LossPerDay = 0
	}
}
