// Package ingest loads the two input tables from CSV files. Header names
// are matched after normalization so exports from different tools (spaces,
// underscores, mixed case) all resolve to the same columns.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/merchsignal/backend/internal/domain"
)

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02-01-2006",
}

func parseDate(v string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", v)
}

// columnMap resolves normalized header aliases to record indices.
type columnMap struct {
	header []string
}

func (c columnMap) index(names ...string) int {
	targets := make(map[string]struct{}, len(names))
	for _, name := range names {
		targets[normalizeColumnName(name)] = struct{}{}
	}
	for i, h := range c.header {
		if _, ok := targets[normalizeColumnName(h)]; ok {
			return i
		}
	}
	return -1
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseFloatField(record []string, idx int, col string, row int) (float64, error) {
	v := field(record, idx)
	if v == "" {
		return 0, fmt.Errorf("row %d: missing %s", row, col)
	}
	v = strings.ReplaceAll(v, ",", "")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("row %d: invalid %s %q", row, col, field(record, idx))
	}
	return f, nil
}

func parseIntField(record []string, idx int, col string, row int) (int, error) {
	f, err := parseFloatField(record, idx, col, row)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// LoadMasterCSV reads the SKU master table. Every economic column is
// required except mrp, which stays nil when absent or blank.
func LoadMasterCSV(path string) ([]domain.MasterRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open master file: %w", err)
	}
	defer file.Close()

	records, err := ReadMaster(file)
	if err != nil {
		return nil, fmt.Errorf("master file %s: %w", path, err)
	}
	return records, nil
}

// ReadMaster parses SKU master rows from r.
func ReadMaster(r io.Reader) ([]domain.MasterRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := columnMap{header: header}

	idxSKU := cols.index("sku_id", "sku")
	idxCategory := cols.index("category")
	idxName := cols.index("product_name", "name")
	idxPrice := cols.index("selling_price", "price")
	idxMRP := cols.index("mrp", "list_price")
	idxCOGS := cols.index("cogs", "cost")
	idxShipping := cols.index("shipping_cost_per_unit", "shipping_cost")
	idxFeePct := cols.index("platform_fee_percent", "platform_fee_pct")
	idxFeeFixed := cols.index("platform_fixed_fee")
	idxAdSpend := cols.index("ad_spend_total_last_30_days", "ad_spend_last_30_days", "ad_spend")
	idxUnits30 := cols.index("units_sold_last_30_days", "units_sold_30d")
	idxStock := cols.index("current_stock", "stock")
	idxLeadTime := cols.index("lead_time_days", "lead_time")

	required := map[string]int{
		"sku_id":                      idxSKU,
		"selling_price":               idxPrice,
		"cogs":                        idxCOGS,
		"shipping_cost_per_unit":      idxShipping,
		"platform_fee_percent":        idxFeePct,
		"platform_fixed_fee":          idxFeeFixed,
		"ad_spend_total_last_30_days": idxAdSpend,
		"units_sold_last_30_days":     idxUnits30,
		"current_stock":               idxStock,
		"lead_time_days":              idxLeadTime,
	}
	for col, idx := range required {
		if idx < 0 {
			return nil, fmt.Errorf("missing required column %s", col)
		}
	}

	var out []domain.MasterRecord
	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		m := domain.MasterRecord{
			SKUID:       field(record, idxSKU),
			Category:    field(record, idxCategory),
			ProductName: field(record, idxName),
		}
		if m.SKUID == "" {
			return nil, fmt.Errorf("row %d: missing sku_id", row)
		}

		if m.SellingPrice, err = parseFloatField(record, idxPrice, "selling_price", row); err != nil {
			return nil, err
		}
		if v := field(record, idxMRP); v != "" {
			mrp, err := parseFloatField(record, idxMRP, "mrp", row)
			if err != nil {
				return nil, err
			}
			m.MRP = &mrp
		}
		if m.COGS, err = parseFloatField(record, idxCOGS, "cogs", row); err != nil {
			return nil, err
		}
		if m.ShippingCostPerUnit, err = parseFloatField(record, idxShipping, "shipping_cost_per_unit", row); err != nil {
			return nil, err
		}
		if m.PlatformFeePercent, err = parseFloatField(record, idxFeePct, "platform_fee_percent", row); err != nil {
			return nil, err
		}
		if m.PlatformFixedFee, err = parseFloatField(record, idxFeeFixed, "platform_fixed_fee", row); err != nil {
			return nil, err
		}
		if m.AdSpendLast30Days, err = parseFloatField(record, idxAdSpend, "ad_spend_total_last_30_days", row); err != nil {
			return nil, err
		}
		if m.UnitsSoldLast30Days, err = parseFloatField(record, idxUnits30, "units_sold_last_30_days", row); err != nil {
			return nil, err
		}
		if m.CurrentStock, err = parseIntField(record, idxStock, "current_stock", row); err != nil {
			return nil, err
		}
		if m.LeadTimeDays, err = parseIntField(record, idxLeadTime, "lead_time_days", row); err != nil {
			return nil, err
		}

		out = append(out, m)
	}
	return out, nil
}

// LoadSalesCSV reads the daily sales history table.
func LoadSalesCSV(path string) ([]domain.SalesRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sales file: %w", err)
	}
	defer file.Close()

	records, err := ReadSales(file)
	if err != nil {
		return nil, fmt.Errorf("sales file %s: %w", path, err)
	}
	return records, nil
}

// ReadSales parses sales history rows from r.
func ReadSales(r io.Reader) ([]domain.SalesRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := columnMap{header: header}

	idxSKU := cols.index("sku_id", "sku")
	idxDate := cols.index("date", "order_date")
	idxUnits := cols.index("units_sold", "units", "quantity")
	if idxSKU < 0 || idxDate < 0 || idxUnits < 0 {
		return nil, fmt.Errorf("missing required columns (need sku_id, date, units_sold)")
	}

	var out []domain.SalesRecord
	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		sku := field(record, idxSKU)
		if sku == "" {
			return nil, fmt.Errorf("row %d: missing sku_id", row)
		}
		date, err := parseDate(field(record, idxDate))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		units, err := parseIntField(record, idxUnits, "units_sold", row)
		if err != nil {
			return nil, err
		}

		out = append(out, domain.SalesRecord{SKUID: sku, Date: date, UnitsSold: units})
	}
	return out, nil
}
