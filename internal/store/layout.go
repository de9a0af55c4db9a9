package store

import "github.com/akozyreva/stockbot-backend/pkg/enums"

// Inventory worksheet columns. TotalQty and TotalCost are reserved for sheet
// formulas and written empty.
const (
	InvColSKU = iota
	InvColName
	InvColCost
	InvColDefaultPrice
	InvColSizeFirst
	invColAfterSizes   = InvColSizeFirst + 6
	InvColTotalQty     = invColAfterSizes
	InvColTotalCost    = invColAfterSizes + 1
	InventoryRowLength = invColAfterSizes + 2
)

// Sales worksheet columns.
const (
	SaleColTimestamp = iota
	SaleColMonth
	SaleColSKU
	SaleColName
	SaleColSize
	SaleColPrice
	SaleColCost
	SaleColNet
	SalesRowLength
)

// SizeColumn returns the inventory column holding the on-hand count for the
// size, or -1 for an unknown size.
func SizeColumn(size enums.Size) int {
	for i, s := range enums.AllSizes {
		if s == size {
			return InvColSizeFirst + i
		}
	}
	return -1
}

// InventoryHeaders returns the header row of the Inventory worksheet.
func InventoryHeaders() []string {
	headers := []string{"SKU", "Name", "CostPerUnit", "DefaultSalePrice"}
	headers = append(headers, enums.SizeLabels()...)
	return append(headers, "TotalQty", "TotalCost")
}

// SalesHeaders returns the header row of the Sales worksheet.
func SalesHeaders() []string {
	return []string{"Timestamp", "Month", "SKU", "Name", "Size", "SalePrice", "CostPerUnit", "NetProfit"}
}

// SummaryHeaders returns the header row of the Summary worksheet.
func SummaryHeaders() []string {
	return []string{"Month", "Total Sales", "Total Profit"}
}

// Cell reads a column from a possibly short row, returning "" past the end.
func Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
