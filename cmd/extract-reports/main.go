package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/oncoweave/pipeline/pkg/common/config"
	"github.com/oncoweave/pipeline/pkg/common/database"
	"github.com/oncoweave/pipeline/pkg/common/logger"
	"github.com/oncoweave/pipeline/pkg/enrich"
	"github.com/oncoweave/pipeline/pkg/extract"
	"github.com/oncoweave/pipeline/pkg/table"
)

func main() {
	logger.Init("extract-reports")
	cfg := config.Load()

	reportsDir := flag.String("reports", cfg.ReportsDir, "directory of PDF pathology reports")
	ledgerPath := flag.String("ledger", cfg.LedgerPath, "extraction ledger CSV")
	enrichPath := flag.String("enrich", "", "consolidated table to enrich with the ledger after extraction")
	flag.Parse()

	if cfg.LLMAPIKey == "" {
		logger.Log.Fatal("LLM_API_KEY is required for report extraction")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cache *extract.Cache
	if cfg.CacheEnabled() {
		cache = extract.NewCache(database.GetRedis(cfg), cfg.RedisCacheTTL)
		defer database.CloseRedis()
	}

	ledger := extract.NewLedger(*ledgerPath)
	crawler := extract.NewCrawler(
		extract.NewGeminiClient(cfg),
		ledger,
		cache,
		cfg.ExtractBatchSize,
		cfg.ExtractPause,
		cfg.ExtractMaxChars,
	)

	stats, err := crawler.Run(ctx, *reportsDir)
	if err != nil {
		logger.Log.WithError(err).Fatal("Extraction run failed")
	}
	logger.Log.WithFields(map[string]interface{}{
		"found":     stats.Found,
		"extracted": stats.Extracted,
		"cached":    stats.Cached,
		"skipped":   stats.Skipped,
		"failed":    stats.Failed,
	}).Info("Extraction run complete")

	if *enrichPath == "" {
		return
	}

	base, err := table.ReadFile(*enrichPath, table.DelimiterFor(*enrichPath))
	if err != nil {
		logger.Log.WithError(err).WithField("path", *enrichPath).Fatal("Failed to read table to enrich")
	}
	pathology, err := table.ReadFile(*ledgerPath, table.DelimiterFor(*ledgerPath))
	if err != nil {
		logger.Log.WithError(err).WithField("path", *ledgerPath).Fatal("Failed to read extraction ledger")
	}

	prepared, err := enrich.PreparePathology(pathology)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to prepare pathology table")
	}
	enriched, backfill, err := enrich.Enrich(base, prepared)
	if err != nil {
		logger.Log.WithError(err).Fatal("Enrichment failed")
	}
	if err := table.WriteFile(enriched, *enrichPath); err != nil {
		logger.Log.WithError(err).WithField("path", *enrichPath).Fatal("Failed to write enriched table")
	}

	logger.Log.WithFields(map[string]interface{}{
		"matched":  backfill.Matched,
		"filled":   backfill.Filled,
		"output":   *enrichPath,
		"patients": enriched.NumRows(),
	}).Info("Consolidated table enriched from pathology reports")
}
