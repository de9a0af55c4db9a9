package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/akozyreva/stockbot-backend/internal/store"
	"github.com/akozyreva/stockbot-backend/pkg/enums"
	"github.com/akozyreva/stockbot-backend/pkg/errors"
	"github.com/akozyreva/stockbot-backend/pkg/locks"
	"github.com/akozyreva/stockbot-backend/pkg/logger"
)

const defaultSheet = "Inventory"

// Service owns the Inventory worksheet: one row per SKU with per-size
// quantities and pricing fields.
type Service struct {
	store store.Tabular
	locks *locks.Keyed
	logg  *logger.Logger
	sheet string
}

type ServiceParams struct {
	Store  store.Tabular
	Locks  *locks.Keyed
	Logger *logger.Logger
	Sheet  string
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("catalog: store is required")
	}
	if params.Locks == nil {
		params.Locks = locks.NewKeyed()
	}
	if params.Sheet == "" {
		params.Sheet = defaultSheet
	}
	return &Service{
		store: params.Store,
		locks: params.Locks,
		logg:  params.Logger,
		sheet: params.Sheet,
	}, nil
}

// Record is one Inventory row.
type Record struct {
	Row          int // zero-based worksheet row, header included
	SKU          string
	Name         string
	Cost         *decimal.Decimal
	DefaultPrice *decimal.Decimal
	Quantities   map[enums.Size]int
}

// Quantity returns the on-hand count for the size.
func (r Record) Quantity(size enums.Size) int {
	return r.Quantities[size]
}

// CostOrZero returns the unit cost, treating an unset cost as 0.
func (r Record) CostOrZero() decimal.Decimal {
	if r.Cost == nil {
		return decimal.Zero
	}
	return *r.Cost
}

// NormalizeSKU is the matching key for the case-insensitive SKU lookup and
// the per-SKU lock registry.
func NormalizeSKU(sku string) string {
	return strings.ToLower(strings.TrimSpace(sku))
}

// Lock acquires the exclusive section every mutation of the SKU runs under.
// The ledger shares this registry so sells and replenishments never
// interleave between read and write.
func (s *Service) Lock(sku string) func() {
	return s.locks.Lock(NormalizeSKU(sku))
}

// Find returns the Inventory row matching the SKU case-insensitively, first
// match in storage order winning.
func (s *Service) Find(ctx context.Context, sku string) (Record, error) {
	rec, found, _, err := s.lookup(ctx, sku)
	if err != nil {
		return Record{}, err
	}
	if !found {
		return Record{}, errors.New(errors.CodeSKUNotFound, fmt.Sprintf("sku %s is not in the catalog", strings.TrimSpace(sku))).
			WithDetails(map[string]any{"sku": strings.TrimSpace(sku)})
	}
	return rec, nil
}

type CreateInput struct {
	SKU          string
	Name         string
	Cost         *decimal.Decimal
	DefaultPrice *decimal.Decimal
}

// Create appends a fresh Inventory row with all size quantities at zero. It
// does not guard against an existing SKU; callers Find first.
func (s *Service) Create(ctx context.Context, input CreateInput) (Record, error) {
	rows, err := s.store.ReadAllRows(ctx, s.sheet)
	if err != nil {
		return Record{}, err
	}

	row := make([]string, store.InventoryRowLength)
	row[store.InvColSKU] = strings.TrimSpace(input.SKU)
	row[store.InvColName] = input.Name
	if input.Cost != nil {
		row[store.InvColCost] = input.Cost.String()
	}
	if input.DefaultPrice != nil {
		row[store.InvColDefaultPrice] = input.DefaultPrice.String()
	}
	for _, size := range enums.AllSizes {
		row[store.SizeColumn(size)] = "0"
	}

	if err := s.store.AppendRow(ctx, s.sheet, row); err != nil {
		return Record{}, err
	}

	// The new row index is the sheet length read before the append. A create
	// for a different SKU landing in between would shift it; writers are
	// expected to be serialized one mutation at a time.
	rec := recordFromRow(len(rows), row)
	if s.logg != nil {
		s.logg.Info(s.logg.WithSKU(ctx, rec.SKU), "catalog row created")
	}
	return rec, nil
}

type ReplenishInput struct {
	SKU          string
	Name         string
	Size         string
	Qty          int
	Cost         *decimal.Decimal
	DefaultPrice *decimal.Decimal
	AllowCreate  bool
}

type ReplenishResult struct {
	SKU     string
	Size    enums.Size
	Added   int
	NewQty  int
	Created bool
}

// Replenish adds stock for one SKU/size. Quantity, prices and name land in a
// single row write so a failure never leaves the row half-updated.
func (s *Service) Replenish(ctx context.Context, input ReplenishInput) (ReplenishResult, error) {
	if input.Qty <= 0 {
		return ReplenishResult{}, errors.New(errors.CodeInvalidQuantity, "replenish quantity must be > 0").
			WithDetails(map[string]any{"qty": input.Qty})
	}
	size, err := enums.ParseSize(input.Size)
	if err != nil {
		return ReplenishResult{}, InvalidSize(input.Size)
	}

	unlock := s.Lock(input.SKU)
	defer unlock()

	rec, found, _, err := s.lookup(ctx, input.SKU)
	if err != nil {
		return ReplenishResult{}, err
	}

	created := false
	if !found {
		if !input.AllowCreate {
			return ReplenishResult{}, errors.New(errors.CodeSKUNotFound, fmt.Sprintf("sku %s is not in the catalog", strings.TrimSpace(input.SKU))).
				WithDetails(map[string]any{"sku": strings.TrimSpace(input.SKU)})
		}
		rec, err = s.Create(ctx, CreateInput{
			SKU:          input.SKU,
			Name:         input.Name,
			Cost:         input.Cost,
			DefaultPrice: input.DefaultPrice,
		})
		if err != nil {
			return ReplenishResult{}, err
		}
		created = true
	}

	newQty := rec.Quantity(size) + input.Qty
	cells := map[int]string{store.SizeColumn(size): strconv.Itoa(newQty)}
	if !created {
		if input.Cost != nil {
			cells[store.InvColCost] = input.Cost.String()
		}
		if input.DefaultPrice != nil {
			cells[store.InvColDefaultPrice] = input.DefaultPrice.String()
		}
		// First non-empty name wins; a populated cell is never overwritten here.
		if input.Name != "" && strings.TrimSpace(rec.Name) == "" {
			cells[store.InvColName] = input.Name
		}
	}
	if err := s.store.UpdateRowCells(ctx, s.sheet, rec.Row, cells); err != nil {
		return ReplenishResult{}, err
	}

	return ReplenishResult{
		SKU:     rec.SKU,
		Size:    size,
		Added:   input.Qty,
		NewQty:  newQty,
		Created: created,
	}, nil
}

type RepriceResult struct {
	SKU      string
	Name     string
	NewPrice decimal.Decimal
}

// Reprice overwrites the default sale price unconditionally. No bound check
// beyond numeric parsing happens at this layer.
func (s *Service) Reprice(ctx context.Context, sku string, newPrice decimal.Decimal) (RepriceResult, error) {
	unlock := s.Lock(sku)
	defer unlock()

	rec, err := s.Find(ctx, sku)
	if err != nil {
		return RepriceResult{}, err
	}

	cells := map[int]string{store.InvColDefaultPrice: newPrice.String()}
	if err := s.store.UpdateRowCells(ctx, s.sheet, rec.Row, cells); err != nil {
		return RepriceResult{}, err
	}

	return RepriceResult{SKU: rec.SKU, Name: rec.Name, NewPrice: newPrice}, nil
}

// AdjustQuantity shifts one size's on-hand count by delta in a single cell
// write and returns the new count. Callers hold the SKU lock and have
// validated bounds already.
func (s *Service) AdjustQuantity(ctx context.Context, rec Record, size enums.Size, delta int) (int, error) {
	newQty := rec.Quantity(size) + delta
	cells := map[int]string{store.SizeColumn(size): strconv.Itoa(newQty)}
	if err := s.store.UpdateRowCells(ctx, s.sheet, rec.Row, cells); err != nil {
		return 0, err
	}
	return newQty, nil
}

func (s *Service) lookup(ctx context.Context, sku string) (Record, bool, int, error) {
	rows, err := s.store.ReadAllRows(ctx, s.sheet)
	if err != nil {
		return Record{}, false, 0, err
	}

	key := NormalizeSKU(sku)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 {
			continue
		}
		if NormalizeSKU(store.Cell(row, store.InvColSKU)) == key {
			return recordFromRow(i, row), true, len(rows), nil
		}
	}
	return Record{}, false, len(rows), nil
}

func recordFromRow(rowIdx int, row []string) Record {
	quantities := make(map[enums.Size]int, len(enums.AllSizes))
	for _, size := range enums.AllSizes {
		quantities[size] = parseCount(store.Cell(row, store.SizeColumn(size)))
	}
	return Record{
		Row:          rowIdx,
		SKU:          strings.TrimSpace(store.Cell(row, store.InvColSKU)),
		Name:         store.Cell(row, store.InvColName),
		Cost:         parseMoney(store.Cell(row, store.InvColCost)),
		DefaultPrice: parseMoney(store.Cell(row, store.InvColDefaultPrice)),
		Quantities:   quantities,
	}
}

func parseCount(cell string) int {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return 0
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0
	}
	return n
}

func parseMoney(cell string) *decimal.Decimal {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return nil
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil
	}
	return &d
}

// InvalidSize builds the typed failure for a size code outside the enumerated
// set. The ledger reuses it so both layers report the same message.
func InvalidSize(raw string) *errors.Error {
	return errors.New(errors.CodeInvalidSize, fmt.Sprintf("size %s is not one of %s", strings.TrimSpace(raw), strings.Join(enums.SizeLabels(), ", "))).
		WithDetails(map[string]any{"size": strings.TrimSpace(raw)})
}
