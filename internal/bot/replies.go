package bot

import (
	"fmt"
	"strings"

	"github.com/akozyreva/stockbot-backend/internal/catalog"
	"github.com/akozyreva/stockbot-backend/internal/ledger"
	pkgerrors "github.com/akozyreva/stockbot-backend/pkg/errors"
)

const (
	replyAccessDenied   = "Access denied."
	replyUnknownCommand = "Unknown command. Send /start for the list of commands."

	replyHelp = "Commands:\n" +
		"• Sell: /sale SKU SIZE [PRICE]\n" +
		"• Restock: /add_stock SKU SIZE QTY [COST] [DEFAULT_PRICE]\n" +
		"• Refund: /refund SKU SIZE\n" +
		"• Price: /price SKU NEW_PRICE\n" +
		"• Totals: /summary\n\n" +
		"Sheets:\n— Inventory — stock and prices\n— Sales — sale log\n— Summary — monthly totals"

	usageAddStock = "Invalid format. Example: /add_stock A123 M 5 1500 1990"
	usageSale     = "Invalid format. Example: /sale A123 M 1990"
	usageRefund   = "Invalid format. Example: /refund A123 M"
	usagePrice    = "Invalid format. Example: /price A123 2190"
)

func formatReplenish(res catalog.ReplenishResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Added %d × <b>%s</b> size %s. New quantity: %d.", res.Added, res.SKU, res.Size, res.NewQty)
	if res.Created {
		b.WriteString(" New inventory row created.")
	}
	return b.String()
}

func formatSale(res ledger.SellResult) string {
	name := res.Name
	if name == "" {
		name = res.SKU
	}
	return fmt.Sprintf("Sold <b>%s</b> (%s), size %s for %s. Cost %s, net %s. Remaining: %d.",
		res.SKU, name, res.Size, res.SalePrice, res.Cost, res.Net, res.Remaining)
}

func formatRefund(res ledger.RefundResult) string {
	return fmt.Sprintf("Refunded <b>%s</b> size %s: %d unit back in stock (now %d). Reversed sale %s, net %s.",
		res.SKU, res.Size, res.Restored, res.NewQty, res.SaleReversed, res.NetReversed)
}

func formatReprice(res catalog.RepriceResult) string {
	if res.Name != "" {
		return fmt.Sprintf("Default price for <b>%s</b> (%s) set to %s.", res.SKU, res.Name, res.NewPrice)
	}
	return fmt.Sprintf("Default price for <b>%s</b> set to %s.", res.SKU, res.NewPrice)
}

func formatSummary(totals []ledger.MonthTotal) string {
	if len(totals) == 0 {
		return "No sales recorded yet."
	}

	var b strings.Builder
	b.WriteString("Monthly totals:\n")
	for _, mt := range totals {
		fmt.Fprintf(&b, "<b>%s</b>: sales %s, profit %s\n", mt.Month, mt.TotalSales, mt.TotalProfit)
	}
	return strings.TrimRight(b.String(), "\n")
}

// replyForError turns a failed command into the chat reply. Domain errors
// carry messages written for the operator; anything else gets the generic
// text for its code so internals never leak into the chat.
func replyForError(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return "Something went wrong. Try again later."
	}

	switch typed.Code() {
	case pkgerrors.CodeSKUNotFound,
		pkgerrors.CodeInvalidSize,
		pkgerrors.CodeInvalidQuantity,
		pkgerrors.CodeOutOfStock,
		pkgerrors.CodePriceUnavailable,
		pkgerrors.CodeSaleNotFound,
		pkgerrors.CodeValidation:
		return "Error: " + typed.Message()
	case pkgerrors.CodeConcurrentModification:
		return "Error: the record changed mid-command, try again."
	case pkgerrors.CodeStoreUnavailable:
		return "The spreadsheet is unreachable right now. Try again in a minute."
	default:
		return "Something went wrong. Try again later."
	}
}
