package domain

// RiskLevel classifies stock-out urgency for a SKU.
type RiskLevel string

const (
	RiskCritical  RiskLevel = "CRITICAL"
	RiskWarning   RiskLevel = "WARNING"
	RiskSafe      RiskLevel = "SAFE"
	RiskNoHistory RiskLevel = "NO_HISTORY"
)

// Severity orders risk levels for comparisons; higher is more urgent.
// NO_HISTORY sits below SAFE since it carries no runway signal at all.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskCritical:
		return 3
	case RiskWarning:
		return 2
	case RiskSafe:
		return 1
	default:
		return 0
	}
}

// SeasonalTrend describes the direction of demand entering the next month.
type SeasonalTrend string

const (
	TrendRising  SeasonalTrend = "RISING"
	TrendFalling SeasonalTrend = "FALLING"
	TrendStable  SeasonalTrend = "STABLE"
)

// Action is the recommended merchant action for a SKU.
type Action string

const (
	ActionPauseAdsOrIncreasePrice Action = "PAUSE_ADS_OR_INCREASE_PRICE"
	ActionReorderImmediately      Action = "REORDER_IMMEDIATELY"
	ActionPlanReorder             Action = "PLAN_REORDER"
	ActionDiscountToMoveStock     Action = "DISCOUNT_TO_MOVE_STOCK"
	ActionMonitor                 Action = "MONITOR"
)

var monthNames = [13]string{
	"",
	"January", "February", "March", "April",
	"May", "June", "July", "August",
	"September", "October", "November", "December",
}

// MonthName returns the English name for a calendar month (1-12),
// or "" when m is out of range.
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return monthNames[m]
}
