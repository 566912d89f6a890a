package export

import (
	"bytes"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchsignal/backend/internal/domain"
)

func TestWriteCSV(t *testing.T) {
	recs := []*domain.Recommendation{
		{
			SKUID:               "SKU-1",
			Category:            "apparel",
			ProductName:         "T-Shirt",
			SellingPrice:        499,
			CurrentStock:        120,
			DaysOfStockLeft:     12.5,
			RiskLevel:           domain.RiskSafe,
			RecommendedAction:   domain.ActionMonitor,
			SalesVelocityPerDay: 4,
		},
		{
			SKUID:           "SKU-2",
			DaysOfStockLeft: math.Inf(1),
			RiskLevel:       domain.RiskNoHistory,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, recs))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	header := rows[0]
	assert.Equal(t, columns, header)
	assert.Equal(t, "sku_id", header[0])

	byName := func(row []string, col string) string {
		for i, h := range header {
			if h == col {
				return row[i]
			}
		}
		t.Fatalf("column %s not found", col)
		return ""
	}

	assert.Equal(t, "SKU-1", byName(rows[1], "sku_id"))
	assert.Equal(t, "12.5", byName(rows[1], "days_of_stock_left"))
	assert.Equal(t, "MONITOR", byName(rows[1], "recommended_action"))

	// Infinite runway exports as the finite sentinel.
	assert.Equal(t, "999999", byName(rows[2], "days_of_stock_left"))
	assert.Equal(t, "NO_HISTORY", byName(rows[2], "risk_level"))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	asOf := time.Date(2025, time.June, 15, 10, 30, 0, 0, time.UTC)

	path, err := WriteFile(dir, []*domain.Recommendation{{SKUID: "A"}}, asOf)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "recommendations_20250615_103000.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sku_id")
	assert.Contains(t, string(data), "A")
}
