package main

import (
	"context"
	"flag"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/oncoweave/pipeline/pkg/cohort"
	"github.com/oncoweave/pipeline/pkg/common/config"
	"github.com/oncoweave/pipeline/pkg/common/database"
	"github.com/oncoweave/pipeline/pkg/common/events"
	"github.com/oncoweave/pipeline/pkg/common/logger"
	"github.com/oncoweave/pipeline/pkg/table"
	"github.com/oncoweave/pipeline/pkg/warehouse"
)

func main() {
	logger.Init("consolidate")
	cfg := config.Load()

	var cohortFlag string
	flag.StringVar(&cohortFlag, "cohort", "", "cohort to consolidate (comma-separated, default: all in the manifest)")
	manifestPath := flag.String("manifest", cfg.ManifestPath, "path to the cohort manifest")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manifest, err := cohort.LoadManifest(*manifestPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load cohort manifest")
	}

	cohorts := manifest.Names()
	if cohortFlag != "" {
		cohorts = strings.Split(cohortFlag, ",")
	}

	producer := events.NewProducer(cfg)
	defer producer.Close()

	// The warehouse is best-effort: a nil repo writes nothing and the CSV
	// outputs are produced either way.
	repo := warehouse.Connect(cfg)
	defer database.ClosePostgres()

	consolidator := cohort.NewConsolidator(manifest, producer)
	for _, name := range cohorts {
		name = strings.TrimSpace(name)

		consolidated, summary, err := consolidator.Run(ctx, name)
		if err != nil {
			logger.Log.WithError(err).WithField("cohort", name).Fatal("Consolidation failed")
		}

		def, err := manifest.Get(name)
		if err != nil {
			logger.Log.WithError(err).Fatal("Unknown cohort after run")
		}
		outPath := def.Output
		if outPath == "" {
			outPath = filepath.Join(cfg.OutputDir, name+"_consolidated.csv")
		}
		if err := table.WriteFile(consolidated, outPath); err != nil {
			logger.Log.WithError(err).WithField("path", outPath).Fatal("Failed to write consolidated table")
		}
		summary.OutputPath = outPath

		logger.Log.WithFields(map[string]interface{}{
			"cohort":   name,
			"rows":     summary.Rows,
			"columns":  summary.Columns,
			"patients": summary.Patients,
			"output":   outPath,
		}).Info("Cohort consolidated")

		if err := repo.RegisterRun(summary); err != nil {
			logger.Log.WithError(err).Warn("Failed to register run in warehouse")
		}
		if _, err := repo.StoreCohort(name, summary.RunID, consolidated); err != nil {
			logger.Log.WithError(err).Warn("Failed to store cohort in warehouse")
		}
		_ = producer.PublishRunCompleted(ctx, summary)
	}
}
