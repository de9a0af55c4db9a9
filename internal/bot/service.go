package bot

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/akozyreva/stockbot-backend/internal/catalog"
	"github.com/akozyreva/stockbot-backend/internal/ledger"
	pkgerrors "github.com/akozyreva/stockbot-backend/pkg/errors"
	"github.com/akozyreva/stockbot-backend/pkg/logger"
	"github.com/akozyreva/stockbot-backend/pkg/telegram"
)

// CatalogService mutates the inventory sheet.
type CatalogService interface {
	Replenish(ctx context.Context, input catalog.ReplenishInput) (catalog.ReplenishResult, error)
	Reprice(ctx context.Context, sku string, newPrice decimal.Decimal) (catalog.RepriceResult, error)
}

// LedgerService records sales and refunds and rolls up monthly totals.
type LedgerService interface {
	Sell(ctx context.Context, input ledger.SellInput) (ledger.SellResult, error)
	Refund(ctx context.Context, sku, size string) (ledger.RefundResult, error)
	MonthSummary(ctx context.Context) ([]ledger.MonthTotal, error)
}

// Provisioner creates the spreadsheet worksheets when missing.
type Provisioner interface {
	EnsureStructure(ctx context.Context) error
}

// Authorizer decides whether a user may issue commands.
type Authorizer interface {
	Allowed(userID int64) bool
}

// Recorder receives per-command outcome metrics.
type Recorder interface {
	ObserveCommand(command, outcome string, duration time.Duration)
}

type Service struct {
	catalog CatalogService
	ledger  LedgerService
	prov    Provisioner
	auth    Authorizer
	metrics Recorder
	logg    *logger.Logger
}

type ServiceParams struct {
	Catalog     CatalogService
	Ledger      LedgerService
	Provisioner Provisioner
	Auth        Authorizer
	Metrics     Recorder
	Logger      *logger.Logger
}

var (
	errCatalogRequired = errors.New("catalog service is required")
	errLedgerRequired  = errors.New("ledger service is required")
	errAuthRequired    = errors.New("authorizer is required")
)

func NewService(params ServiceParams) (*Service, error) {
	if params.Catalog == nil {
		return nil, errCatalogRequired
	}
	if params.Ledger == nil {
		return nil, errLedgerRequired
	}
	if params.Auth == nil {
		return nil, errAuthRequired
	}

	return &Service{
		catalog: params.Catalog,
		ledger:  params.Ledger,
		prov:    params.Provisioner,
		auth:    params.Auth,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// HandleMessage routes one incoming message to its command handler and
// returns the reply text. An empty reply means the message is ignored:
// non-command text, or a command from a user outside the allowlist.
func (s *Service) HandleMessage(ctx context.Context, msg *telegram.Message) string {
	if msg == nil || msg.Chat == nil {
		return ""
	}

	cmd, ok := ParseCommand(msg.Text)
	if !ok {
		return ""
	}

	if s.logg != nil {
		ctx = s.logg.WithChatID(ctx, msg.Chat.ID)
		ctx = s.logg.WithCommand(ctx, cmd.Name)
	}

	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}

	if !s.auth.Allowed(userID) {
		// Only /start acknowledges a rejected user, matching the bot's
		// public entry point. Everything else stays silent.
		if cmd.Name == "start" {
			return replyAccessDenied
		}
		if s.logg != nil {
			s.logg.Warn(ctx, "command from user outside the allowlist dropped")
		}
		return ""
	}

	started := time.Now()
	reply, err := s.dispatch(ctx, cmd)
	s.observe(cmd.Name, err, time.Since(started))

	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "command failed: "+err.Error())
		}
		return replyForError(err)
	}
	return reply
}

func (s *Service) dispatch(ctx context.Context, cmd Command) (string, error) {
	switch cmd.Name {
	case "start":
		return s.handleStart(ctx)
	case "add_stock":
		return s.handleAddStock(ctx, cmd.Args)
	case "sale":
		return s.handleSale(ctx, cmd.Args)
	case "refund":
		return s.handleRefund(ctx, cmd.Args)
	case "price":
		return s.handlePrice(ctx, cmd.Args)
	case "summary":
		return s.handleSummary(ctx)
	default:
		return replyUnknownCommand, nil
	}
}

func (s *Service) handleStart(ctx context.Context) (string, error) {
	if s.prov != nil {
		if err := s.prov.EnsureStructure(ctx); err != nil {
			return "", err
		}
	}
	return replyHelp, nil
}

// /add_stock SKU SIZE QTY [COST] [DEFAULT_PRICE]
func (s *Service) handleAddStock(ctx context.Context, args []string) (string, error) {
	if len(args) < 3 || len(args) > 5 {
		return usageAddStock, nil
	}

	qty, err := strconv.Atoi(args[2])
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be a whole number")
	}

	input := catalog.ReplenishInput{
		SKU:         args[0],
		Size:        args[1],
		Qty:         qty,
		AllowCreate: true,
	}
	if len(args) >= 4 {
		if input.Cost, err = parsePriceArg(args[3], "COST"); err != nil {
			return "", err
		}
	}
	if len(args) >= 5 {
		if input.DefaultPrice, err = parsePriceArg(args[4], "DEFAULT_PRICE"); err != nil {
			return "", err
		}
	}

	res, err := s.catalog.Replenish(ctx, input)
	if err != nil {
		return "", err
	}
	return formatReplenish(res), nil
}

// /sale SKU SIZE [PRICE]
func (s *Service) handleSale(ctx context.Context, args []string) (string, error) {
	if len(args) < 2 || len(args) > 3 {
		return usageSale, nil
	}

	input := ledger.SellInput{SKU: args[0], Size: args[1]}
	if len(args) == 3 {
		price, err := parsePriceArg(args[2], "PRICE")
		if err != nil {
			return "", err
		}
		input.Price = price
	}

	res, err := s.ledger.Sell(ctx, input)
	if err != nil {
		return "", err
	}
	return formatSale(res), nil
}

// /refund SKU SIZE
func (s *Service) handleRefund(ctx context.Context, args []string) (string, error) {
	if len(args) != 2 {
		return usageRefund, nil
	}

	res, err := s.ledger.Refund(ctx, args[0], args[1])
	if err != nil {
		return "", err
	}
	return formatRefund(res), nil
}

// /price SKU NEW_PRICE
func (s *Service) handlePrice(ctx context.Context, args []string) (string, error) {
	if len(args) != 2 {
		return usagePrice, nil
	}

	price, err := parsePriceArg(args[1], "NEW_PRICE")
	if err != nil {
		return "", err
	}

	res, err := s.catalog.Reprice(ctx, args[0], *price)
	if err != nil {
		return "", err
	}
	return formatReprice(res), nil
}

func (s *Service) handleSummary(ctx context.Context) (string, error) {
	totals, err := s.ledger.MonthSummary(ctx)
	if err != nil {
		return "", err
	}
	return formatSummary(totals), nil
}

func (s *Service) observe(command string, err error, duration time.Duration) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.metrics.ObserveCommand(command, outcome, duration)
}

func parsePriceArg(raw, label string) (*decimal.Decimal, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, label+" must be a number")
	}
	return &value, nil
}
