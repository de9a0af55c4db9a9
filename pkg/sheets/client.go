package sheets

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/akozyreva/stockbot-backend/internal/store"
	"github.com/akozyreva/stockbot-backend/pkg/config"
	pkgerrors "github.com/akozyreva/stockbot-backend/pkg/errors"
	"github.com/akozyreva/stockbot-backend/pkg/logger"
)

const (
	valueInputUserEntered = "USER_ENTERED"
	insertRows            = "INSERT_ROWS"
	pingTimeout           = 10 * time.Second

	inventorySheetRows = 2000
	inventorySheetCols = 20
	salesSheetRows     = 20000
	salesSheetCols     = 10
	summarySheetRows   = 200
	summarySheetCols   = 10
)

// summaryFormula pivots the Sales sheet into month totals. It lives in
// Summary!A2 so the spreadsheet keeps a live rollup without the service
// recomputing it on every write.
const summaryFormula = `=QUERY(Sales!A:H, "select B, sum(F), sum(H) where B is not null group by B label sum(F) 'Total Sales', sum(H) 'Total Profit'", 1)`

var (
	errSpreadsheetIDRequired = errors.New("google spreadsheet id is required")
	errCredentialsRequired   = errors.New("google service account json is required")
	errClientNotInitialized  = errors.New("sheets client not initialized")
)

// Client talks to one Google spreadsheet through the Sheets v4 API.
// It satisfies store.Tabular.
type Client struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	cfg           config.GoogleConfig
	logg          *logger.Logger
}

var _ store.Tabular = (*Client)(nil)

// NewClient authenticates with the configured service account and verifies
// the spreadsheet is reachable.
func NewClient(ctx context.Context, cfg config.GoogleConfig, logg *logger.Logger) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errSpreadsheetIDRequired
	}

	credentials, err := NormalizeCredentials(cfg.ServiceAccountJSON)
	if err != nil {
		return nil, err
	}

	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsJSON(credentials),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	client := &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		cfg:           cfg,
		logg:          logg,
	}

	if err := client.Ping(ctx); err != nil {
		return nil, err
	}

	if logg != nil {
		logg.Info(ctx, "sheets client initialized")
	}

	return client, nil
}

// NormalizeCredentials accepts the service account key as raw JSON or as a
// base64-encoded blob, and repairs literal "\n" sequences in the private key
// that survive copy-pasting through environment variables.
func NormalizeCredentials(raw string) ([]byte, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errCredentialsRequired
	}

	if !strings.HasPrefix(trimmed, "{") {
		decoded, err := base64.StdEncoding.DecodeString(trimmed)
		if err != nil {
			return nil, fmt.Errorf("decoding base64 service account json: %w", err)
		}
		trimmed = strings.TrimSpace(string(decoded))
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(trimmed), &data); err != nil {
		return nil, fmt.Errorf("parsing service account json: %w", err)
	}

	if pk, ok := data["private_key"].(string); ok {
		if strings.Contains(pk, `\n`) && !strings.Contains(pk, "\n") {
			data["private_key"] = strings.ReplaceAll(pk, `\n`, "\n")
		}
	}

	normalized, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding service account json: %w", err)
	}
	return normalized, nil
}

// Ping verifies the spreadsheet is accessible with the current credentials.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.svc == nil {
		return errClientNotInitialized
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	_, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do()
	if err != nil {
		return storeErr(err, "checking spreadsheet access")
	}
	return nil
}

// ReadAllRows returns every populated row of the sheet, header included.
func (c *Client) ReadAllRows(ctx context.Context, sheet string) ([][]string, error) {
	if c == nil || c.svc == nil {
		return nil, errClientNotInitialized
	}

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, sheetRange(sheet)).Context(ctx).Do()
	if err != nil {
		return nil, storeErr(err, fmt.Sprintf("reading sheet %q", sheet))
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, cell := range raw {
			row = append(row, fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// AppendRow adds one row after the last populated row of the sheet.
func (c *Client) AppendRow(ctx context.Context, sheet string, row []string) error {
	if c == nil || c.svc == nil {
		return errClientNotInitialized
	}

	values := make([]any, 0, len(row))
	for _, cell := range row {
		values = append(values, cell)
	}

	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, sheetRange(sheet), &sheetsapi.ValueRange{Values: [][]any{values}}).
		ValueInputOption(valueInputUserEntered).
		InsertDataOption(insertRows).
		Context(ctx).
		Do()
	if err != nil {
		return storeErr(err, fmt.Sprintf("appending to sheet %q", sheet))
	}
	return nil
}

// UpdateRowCells writes the given cells of one row in a single batch, so a
// partially applied update is never visible to a concurrent reader. Row and
// column indexes are zero-based and include the header row.
func (c *Client) UpdateRowCells(ctx context.Context, sheet string, row int, cells map[int]string) error {
	if c == nil || c.svc == nil {
		return errClientNotInitialized
	}
	if len(cells) == 0 {
		return nil
	}

	data := make([]*sheetsapi.ValueRange, 0, len(cells))
	for col, value := range cells {
		data = append(data, &sheetsapi.ValueRange{
			Range:  CellRef(sheet, row, col),
			Values: [][]any{{value}},
		})
	}

	_, err := c.svc.Spreadsheets.Values.
		BatchUpdate(c.spreadsheetID, &sheetsapi.BatchUpdateValuesRequest{
			ValueInputOption: valueInputUserEntered,
			Data:             data,
		}).
		Context(ctx).
		Do()
	if err != nil {
		return storeErr(err, fmt.Sprintf("updating row %d of sheet %q", row, sheet))
	}
	return nil
}

// EnsureStructure creates the Inventory, Sales and Summary worksheets with
// their headers when missing. Existing worksheets are left untouched.
func (c *Client) EnsureStructure(ctx context.Context) error {
	if c == nil || c.svc == nil {
		return errClientNotInitialized
	}

	spreadsheet, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return storeErr(err, "listing worksheets")
	}

	existing := map[string]bool{}
	for _, sh := range spreadsheet.Sheets {
		if sh.Properties != nil {
			existing[sh.Properties.Title] = true
		}
	}

	type worksheet struct {
		title   string
		rows    int64
		cols    int64
		headers []string
	}

	wanted := []worksheet{
		{c.cfg.InventorySheet, inventorySheetRows, inventorySheetCols, store.InventoryHeaders()},
		{c.cfg.SalesSheet, salesSheetRows, salesSheetCols, store.SalesHeaders()},
		{c.cfg.SummarySheet, summarySheetRows, summarySheetCols, store.SummaryHeaders()},
	}

	for _, ws := range wanted {
		if existing[ws.title] {
			continue
		}

		addReq := &sheetsapi.BatchUpdateSpreadsheetRequest{
			Requests: []*sheetsapi.Request{{
				AddSheet: &sheetsapi.AddSheetRequest{
					Properties: &sheetsapi.SheetProperties{
						Title: ws.title,
						GridProperties: &sheetsapi.GridProperties{
							RowCount:    ws.rows,
							ColumnCount: ws.cols,
						},
					},
				},
			}},
		}
		if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, addReq).Context(ctx).Do(); err != nil {
			return storeErr(err, fmt.Sprintf("creating worksheet %q", ws.title))
		}

		if err := c.writeHeaderRow(ctx, ws.title, ws.headers); err != nil {
			return err
		}

		if ws.title == c.cfg.SummarySheet {
			if err := c.writeSummaryFormula(ctx); err != nil {
				return err
			}
		}

		if c.logg != nil {
			c.logg.Info(ctx, fmt.Sprintf("worksheet %q created", ws.title))
		}
	}

	return nil
}

func (c *Client) writeHeaderRow(ctx context.Context, sheet string, headers []string) error {
	values := make([]any, 0, len(headers))
	for _, h := range headers {
		values = append(values, h)
	}

	rangeRef := fmt.Sprintf("%s!A1:%s1", quoteSheet(sheet), ColumnLetter(len(headers)-1))
	_, err := c.svc.Spreadsheets.Values.
		Update(c.spreadsheetID, rangeRef, &sheetsapi.ValueRange{Values: [][]any{values}}).
		ValueInputOption(valueInputUserEntered).
		Context(ctx).
		Do()
	if err != nil {
		return storeErr(err, fmt.Sprintf("writing headers of sheet %q", sheet))
	}
	return nil
}

func (c *Client) writeSummaryFormula(ctx context.Context) error {
	rangeRef := fmt.Sprintf("%s!A2", quoteSheet(c.cfg.SummarySheet))
	_, err := c.svc.Spreadsheets.Values.
		Update(c.spreadsheetID, rangeRef, &sheetsapi.ValueRange{Values: [][]any{{summaryFormula}}}).
		ValueInputOption(valueInputUserEntered).
		Context(ctx).
		Do()
	if err != nil {
		return storeErr(err, "writing summary formula")
	}
	return nil
}

// ColumnLetter converts a zero-based column index to its A1 letter form.
func ColumnLetter(col int) string {
	if col < 0 {
		col = 0
	}
	letters := ""
	for {
		letters = string(rune('A'+col%26)) + letters
		col = col/26 - 1
		if col < 0 {
			break
		}
	}
	return letters
}

// CellRef builds the A1 reference for one cell. Row and column are
// zero-based, header row included.
func CellRef(sheet string, row, col int) string {
	return fmt.Sprintf("%s!%s%d", quoteSheet(sheet), ColumnLetter(col), row+1)
}

func sheetRange(sheet string) string {
	return quoteSheet(sheet)
}

func quoteSheet(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}

// storeErr maps Sheets API failures onto the store unavailable code so
// callers report a consistent error to the operator.
func storeErr(err error, action string) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err,
			fmt.Sprintf("%s: sheets api returned status %d", action, gerr.Code))
	}
	return pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, action)
}
