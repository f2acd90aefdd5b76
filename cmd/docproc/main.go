package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/fleetworks/fleet-tracker/internal/common"
	"github.com/fleetworks/fleet-tracker/internal/entity"
	"github.com/fleetworks/fleet-tracker/internal/extract"
	"github.com/fleetworks/fleet-tracker/internal/llm"
	"github.com/fleetworks/fleet-tracker/internal/match"
	"github.com/fleetworks/fleet-tracker/internal/parse"
	"github.com/fleetworks/fleet-tracker/internal/pipeline"
	"github.com/fleetworks/fleet-tracker/internal/repository"
)

// docproc runs the document pipeline once against a single file and prints
// the result as JSON. The vehicle roster comes from the configured database,
// or from a JSON file for offline runs.
func main() {
	var (
		file       = flag.String("file", "", "document to process (required)")
		rosterPath = flag.String("roster", "", "JSON roster file instead of the database")
		vehicleID  = flag.String("vehicle", "", "preselected vehicle id (skips matching)")
		noLLM      = flag.Bool("no-llm", false, "force rule-based parsing even when an API key is set")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	ctx := context.Background()

	content, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: reading %s: %v\n", *file, err)
		os.Exit(1)
	}

	roster, err := loadRoster(ctx, cfg, *rosterPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading roster: %v\n", err)
		os.Exit(1)
	}

	var preselected *uuid.UUID
	if *vehicleID != "" {
		id, err := uuid.Parse(*vehicleID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid --vehicle id: %v\n", err)
			os.Exit(1)
		}
		preselected = &id
	}

	extractor := extract.NewExtractor(extract.Config{
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		PSM:           cfg.OCR.PSM,
		OEM:           cfg.OCR.OEM,
	}, logger)

	var parser parse.FieldParser = parse.NewRuleParser(logger)
	if cfg.LLM.APIKey != "" && !*noLLM {
		client := llm.NewClient(llm.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
		parser = parse.NewFallbackParser(client, parser, logger)
	}

	processor := pipeline.NewProcessor(extractor, parser, match.New(logger), logger)
	result, err := processor.Process(ctx, pipeline.Request{
		Filename:             filepath.Base(*file),
		Content:              content,
		Roster:               roster,
		PreselectedVehicleID: preselected,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if !result.Success {
		os.Exit(2)
	}
}

func loadRoster(ctx context.Context, cfg *common.Config, path string, logger *slog.Logger) ([]entity.VehicleRef, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var roster []entity.VehicleRef
		if err := json.Unmarshal(data, &roster); err != nil {
			return nil, err
		}
		return roster, nil
	}

	db, err := repository.Open(ctx, repository.Config{
		DSN:         cfg.Database.DSN,
		DialTimeout: cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return repository.NewVehicleRepository(db, logger).Roster(ctx)
}
