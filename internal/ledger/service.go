package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/akozyreva/stockbot-backend/internal/catalog"
	"github.com/akozyreva/stockbot-backend/internal/store"
	"github.com/akozyreva/stockbot-backend/pkg/enums"
	"github.com/akozyreva/stockbot-backend/pkg/errors"
	"github.com/akozyreva/stockbot-backend/pkg/logger"
)

const (
	defaultSheet = "Sales"
	monthFormat  = "2006-01"
)

// Service owns the append-only Sales worksheet: one row per sale or refund,
// never mutated after the append. Refunds add compensating rows instead of
// erasing history.
type Service struct {
	store   store.Tabular
	catalog *catalog.Service
	logg    *logger.Logger
	sheet   string
	now     func() time.Time
}

type ServiceParams struct {
	Store   store.Tabular
	Catalog *catalog.Service
	Logger  *logger.Logger
	Sheet   string
	Now     func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("ledger: store is required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("ledger: catalog service is required")
	}
	if params.Sheet == "" {
		params.Sheet = defaultSheet
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Service{
		store:   params.Store,
		catalog: params.Catalog,
		logg:    params.Logger,
		sheet:   params.Sheet,
		now:     params.Now,
	}, nil
}

type SellInput struct {
	SKU   string
	Size  string
	Price *decimal.Decimal // explicit sale price; nil falls back to the default
}

type SellResult struct {
	SKU       string
	Name      string
	Size      enums.Size
	SalePrice decimal.Decimal
	Cost      decimal.Decimal
	Net       decimal.Decimal
	Remaining int
}

// Sell disposes of exactly one unit: debits the size's stock, computes the
// net and appends the sale row. The whole sequence runs under the SKU lock
// shared with the catalog.
func (s *Service) Sell(ctx context.Context, input SellInput) (SellResult, error) {
	unlock := s.catalog.Lock(input.SKU)
	defer unlock()

	rec, err := s.catalog.Find(ctx, input.SKU)
	if err != nil {
		return SellResult{}, err
	}

	size, err := enums.ParseSize(input.Size)
	if err != nil {
		return SellResult{}, catalog.InvalidSize(input.Size)
	}

	if rec.Quantity(size) <= 0 {
		return SellResult{}, errors.New(errors.CodeOutOfStock, fmt.Sprintf("no %s stock left for %s", size, rec.SKU)).
			WithDetails(map[string]any{"sku": rec.SKU, "size": size.String()})
	}

	price, err := resolvePrice(input.Price, rec.DefaultPrice)
	if err != nil {
		return SellResult{}, err
	}

	remaining, err := s.catalog.AdjustQuantity(ctx, rec, size, -1)
	if err != nil {
		return SellResult{}, err
	}

	cost := rec.CostOrZero()
	net := price.Sub(cost)
	ts := s.now().UTC().Truncate(time.Second)

	row := saleRow(ts, rec.SKU, rec.Name, size, price, cost, net)
	if err := s.store.AppendRow(ctx, s.sheet, row); err != nil {
		return SellResult{}, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithSKU(ctx, rec.SKU), "sale recorded")
	}

	return SellResult{
		SKU:       rec.SKU,
		Name:      rec.Name,
		Size:      size,
		SalePrice: price,
		Cost:      cost,
		Net:       net,
		Remaining: remaining,
	}, nil
}

type RefundResult struct {
	SKU          string
	Size         enums.Size
	Restored     int
	SaleReversed decimal.Decimal
	NetReversed  decimal.Decimal
	NewQty       int
}

// Refund reverses the most recent sale of the SKU/size that has not already
// been refunded, credits one unit back and appends the negating row. The
// historical sale price and cost are used, not the current catalog values.
func (s *Service) Refund(ctx context.Context, sku, rawSize string) (RefundResult, error) {
	size, err := enums.ParseSize(rawSize)
	if err != nil {
		return RefundResult{}, catalog.InvalidSize(rawSize)
	}

	unlock := s.catalog.Lock(sku)
	defer unlock()

	entries, err := s.readEntries(ctx)
	if err != nil {
		return RefundResult{}, err
	}

	matched, found := matchRefundable(entries, sku, size)
	if !found {
		return RefundResult{}, errors.New(errors.CodeSaleNotFound, fmt.Sprintf("no open sale of %s %s to refund", strings.TrimSpace(sku), size)).
			WithDetails(map[string]any{"sku": strings.TrimSpace(sku), "size": size.String()})
	}

	rec, err := s.catalog.Find(ctx, sku)
	if err != nil {
		return RefundResult{}, err
	}

	newQty, err := s.catalog.AdjustQuantity(ctx, rec, size, 1)
	if err != nil {
		return RefundResult{}, err
	}

	netReversed := matched.SalePrice.Sub(matched.Cost)
	ts := s.now().UTC().Truncate(time.Second)

	row := saleRow(ts, rec.SKU, matched.Name, size, matched.SalePrice.Neg(), matched.Cost, netReversed.Neg())
	if err := s.store.AppendRow(ctx, s.sheet, row); err != nil {
		return RefundResult{}, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithSKU(ctx, rec.SKU), "refund recorded")
	}

	return RefundResult{
		SKU:          rec.SKU,
		Size:         size,
		Restored:     1,
		SaleReversed: matched.SalePrice,
		NetReversed:  netReversed,
		NewQty:       newQty,
	}, nil
}

// MonthTotal is one row of the derived month rollup.
type MonthTotal struct {
	Month       string
	TotalSales  decimal.Decimal
	TotalProfit decimal.Decimal
}

// MonthSummary aggregates signed sale prices and net profits per calendar
// month over the full ledger, refunds netting out the sales they reverse.
// Recomputed from scratch on every call.
func (s *Service) MonthSummary(ctx context.Context) ([]MonthTotal, error) {
	entries, err := s.readEntries(ctx)
	if err != nil {
		return nil, err
	}

	totals := map[string]*MonthTotal{}
	for _, e := range entries {
		if e.Month == "" {
			continue
		}
		t, ok := totals[e.Month]
		if !ok {
			t = &MonthTotal{Month: e.Month}
			totals[e.Month] = t
		}
		t.TotalSales = t.TotalSales.Add(e.SalePrice)
		t.TotalProfit = t.TotalProfit.Add(e.Net)
	}

	out := make([]MonthTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

// entry is one parsed Sales row.
type entry struct {
	Month     string
	SKU       string
	Name      string
	Size      string
	SalePrice decimal.Decimal
	Cost      decimal.Decimal
	Net       decimal.Decimal
}

func (s *Service) readEntries(ctx context.Context) ([]entry, error) {
	rows, err := s.store.ReadAllRows(ctx, s.sheet)
	if err != nil {
		return nil, err
	}

	entries := make([]entry, 0, len(rows))
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 {
			continue
		}
		entries = append(entries, entry{
			Month:     strings.TrimSpace(store.Cell(row, store.SaleColMonth)),
			SKU:       strings.TrimSpace(store.Cell(row, store.SaleColSKU)),
			Name:      store.Cell(row, store.SaleColName),
			Size:      strings.ToUpper(strings.TrimSpace(store.Cell(row, store.SaleColSize))),
			SalePrice: parseSigned(store.Cell(row, store.SaleColPrice)),
			Cost:      parseSigned(store.Cell(row, store.SaleColCost)),
			Net:       parseSigned(store.Cell(row, store.SaleColNet)),
		})
	}
	return entries, nil
}

// matchRefundable scans newest-first for the latest sale entry of the
// SKU/size that a later refund row has not already consumed. A refund row
// cancels the nearest earlier sale, so pairing by count keeps a double
// refund from matching a refund row or an already-reversed sale.
func matchRefundable(entries []entry, sku string, size enums.Size) (entry, bool) {
	key := catalog.NormalizeSKU(sku)
	pendingRefunds := 0
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if catalog.NormalizeSKU(e.SKU) != key || e.Size != size.String() {
			continue
		}
		if e.SalePrice.IsNegative() {
			pendingRefunds++
			continue
		}
		if pendingRefunds > 0 {
			pendingRefunds--
			continue
		}
		return e, true
	}
	return entry{}, false
}

func resolvePrice(explicit, fallback *decimal.Decimal) (decimal.Decimal, error) {
	if explicit != nil && explicit.IsPositive() {
		return *explicit, nil
	}
	if fallback != nil && fallback.IsPositive() {
		return *fallback, nil
	}
	return decimal.Decimal{}, errors.New(errors.CodePriceUnavailable, "no sale price given and the default price is unset")
}

func saleRow(ts time.Time, sku, name string, size enums.Size, price, cost, net decimal.Decimal) []string {
	row := make([]string, store.SalesRowLength)
	row[store.SaleColTimestamp] = ts.Format(time.RFC3339)
	row[store.SaleColMonth] = ts.Format(monthFormat)
	row[store.SaleColSKU] = sku
	row[store.SaleColName] = name
	row[store.SaleColSize] = size.String()
	row[store.SaleColPrice] = price.String()
	row[store.SaleColCost] = cost.String()
	row[store.SaleColNet] = net.String()
	return row
}

func parseSigned(cell string) decimal.Decimal {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero
	}
	return d
}
