package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akozyreva/stockbot-backend/pkg/enums"
)

func TestInventoryHeadersMatchColumnIndexes(t *testing.T) {
	headers := InventoryHeaders()
	require.Len(t, headers, InventoryRowLength)

	assert.Equal(t, "SKU", headers[InvColSKU])
	assert.Equal(t, "Name", headers[InvColName])
	assert.Equal(t, "CostPerUnit", headers[InvColCost])
	assert.Equal(t, "DefaultSalePrice", headers[InvColDefaultPrice])
	assert.Equal(t, "TotalQty", headers[InvColTotalQty])
	assert.Equal(t, "TotalCost", headers[InvColTotalCost])

	for i, size := range enums.AllSizes {
		assert.Equal(t, size.String(), headers[InvColSizeFirst+i])
	}
}

func TestSalesHeadersMatchColumnIndexes(t *testing.T) {
	headers := SalesHeaders()
	require.Len(t, headers, SalesRowLength)

	assert.Equal(t, "Timestamp", headers[SaleColTimestamp])
	assert.Equal(t, "Month", headers[SaleColMonth])
	assert.Equal(t, "SKU", headers[SaleColSKU])
	assert.Equal(t, "Name", headers[SaleColName])
	assert.Equal(t, "Size", headers[SaleColSize])
	assert.Equal(t, "SalePrice", headers[SaleColPrice])
	assert.Equal(t, "CostPerUnit", headers[SaleColCost])
	assert.Equal(t, "NetProfit", headers[SaleColNet])
}

func TestSummaryHeaders(t *testing.T) {
	assert.Equal(t, []string{"Month", "Total Sales", "Total Profit"}, SummaryHeaders())
}

func TestSizeColumnCoversEverySize(t *testing.T) {
	seen := map[int]bool{}
	for _, size := range enums.AllSizes {
		col := SizeColumn(size)
		assert.GreaterOrEqual(t, col, InvColSizeFirst)
		assert.Less(t, col, InvColTotalQty)
		assert.False(t, seen[col], "column %d assigned twice", col)
		seen[col] = true
	}
}

func TestCellToleratesShortRows(t *testing.T) {
	row := []string{"a123", "Blue Hoodie"}

	assert.Equal(t, "a123", Cell(row, InvColSKU))
	assert.Equal(t, "Blue Hoodie", Cell(row, InvColName))
	assert.Equal(t, "", Cell(row, InvColTotalCost))
	assert.Equal(t, "", Cell(row, -1))
}
