package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/akozyreva/stockbot-backend/pkg/config"
	"github.com/akozyreva/stockbot-backend/pkg/logger"
	"github.com/akozyreva/stockbot-backend/pkg/sheets"
)

// sheets-init provisions the spreadsheet: it creates the Inventory, Sales
// and Summary worksheets with their headers and the month rollup formula.
// Safe to run repeatedly, existing worksheets are left untouched.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "sheets-init"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "sheets-init",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"spreadsheet": cfg.Google.SpreadsheetID,
	})

	client, err := sheets.NewClient(ctx, cfg.Google, logg)
	if err != nil {
		logg.Error(ctx, "failed to create sheets client", err)
		os.Exit(1)
	}

	if err := client.EnsureStructure(ctx); err != nil {
		logg.Error(ctx, "failed to provision worksheets", err)
		os.Exit(1)
	}

	logg.Info(ctx, "spreadsheet structure ready")
}
