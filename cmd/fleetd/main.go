package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fleetworks/fleet-tracker/internal/common"
	"github.com/fleetworks/fleet-tracker/internal/export"
	"github.com/fleetworks/fleet-tracker/internal/extract"
	"github.com/fleetworks/fleet-tracker/internal/llm"
	"github.com/fleetworks/fleet-tracker/internal/match"
	"github.com/fleetworks/fleet-tracker/internal/parse"
	"github.com/fleetworks/fleet-tracker/internal/pipeline"
	"github.com/fleetworks/fleet-tracker/internal/repository"
	"github.com/fleetworks/fleet-tracker/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Init(ctx); err != nil {
		logger.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}
	if err := db.HealthCheck(ctx, cfg.Database.DialTimeout); err != nil {
		logger.Error("database health check failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database ready")

	vehicles := repository.NewVehicleRepository(db, logger)
	records := repository.NewMaintenanceRecordRepository(db, logger)

	extractor := extract.NewExtractor(extract.Config{
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		PSM:           cfg.OCR.PSM,
		OEM:           cfg.OCR.OEM,
	}, logger)

	parser := buildParser(cfg, logger)
	processor := pipeline.NewProcessor(extractor, parser, match.New(logger), logger)
	transfer := export.NewService(vehicles, records, logger)

	srv := server.NewServer(cfg.Server, vehicles, records, transfer, processor, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}

// buildParser selects the field parser: with an API key the LLM runs first
// and the rule parser catches its errors, without one the rules run alone.
func buildParser(cfg *common.Config, logger *slog.Logger) parse.FieldParser {
	rules := parse.NewRuleParser(logger)
	if cfg.LLM.APIKey == "" {
		logger.Info("no LLM api key configured, using rule-based parsing only")
		return rules
	}
	client := llm.NewClient(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	return parse.NewFallbackParser(client, rules, logger)
}
