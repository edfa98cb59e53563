package main

import (
	"context"
	"flag"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/oncoweave/pipeline/pkg/cohort"
	"github.com/oncoweave/pipeline/pkg/common/config"
	"github.com/oncoweave/pipeline/pkg/common/database"
	"github.com/oncoweave/pipeline/pkg/common/events"
	"github.com/oncoweave/pipeline/pkg/common/logger"
	"github.com/oncoweave/pipeline/pkg/common/models"
	"github.com/oncoweave/pipeline/pkg/harmonize"
	"github.com/oncoweave/pipeline/pkg/table"
	"github.com/oncoweave/pipeline/pkg/warehouse"
)

func main() {
	logger.Init("harmonize")
	cfg := config.Load()

	manifestPath := flag.String("manifest", cfg.ManifestPath, "path to the cohort manifest")
	mappingPath := flag.String("mapping", cfg.MappingPath, "path to the unified column mapping")
	outPath := flag.String("out", filepath.Join(cfg.OutputDir, "breast_cancer_consolidated.csv"), "harmonized dataset path")
	suggestPath := flag.String("suggest", "", "write a mapping skeleton from column-name similarity and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manifest, err := cohort.LoadManifest(*manifestPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load cohort manifest")
	}

	names := manifest.Names()
	sort.Strings(names)

	inputs := make([]harmonize.CohortInput, 0, len(names))
	columnsByCohort := make(map[string][]string)
	for _, name := range names {
		def, err := manifest.Get(name)
		if err != nil {
			logger.Log.WithError(err).Fatal("Unknown cohort")
		}
		path := def.Output
		if path == "" {
			path = filepath.Join(cfg.OutputDir, name+"_consolidated.csv")
		}

		t, err := table.ReadFile(path, table.DelimiterFor(path))
		if err != nil {
			logger.Log.WithError(err).WithFields(map[string]interface{}{
				"cohort": name,
				"path":   path,
			}).Fatal("Failed to read consolidated cohort, run consolidate first")
		}
		inputs = append(inputs, harmonize.CohortInput{Name: name, Table: t})
		columnsByCohort[strings.ToLower(name)] = t.Columns()
	}

	if *suggestPath != "" {
		suggestions := harmonize.SuggestMappings(
			columnsByCohort["metabric"],
			columnsByCohort["scanb"],
			columnsByCohort["tcga"],
			0.7,
		)
		if err := harmonize.WriteSuggestions(suggestions, *suggestPath); err != nil {
			logger.Log.WithError(err).Fatal("Failed to write mapping suggestions")
		}
		logger.Log.WithFields(map[string]interface{}{
			"suggestions": len(suggestions),
			"path":        *suggestPath,
		}).Info("Mapping skeleton written, review it before use")
		return
	}

	mapping, err := harmonize.LoadMapping(*mappingPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load column mapping")
	}

	started := time.Now().UTC()
	harmonizer := harmonize.NewHarmonizer(mapping)
	dataset, err := harmonizer.Consolidate(inputs)
	if err != nil {
		logger.Log.WithError(err).Fatal("Harmonization failed")
	}

	if err := table.WriteFile(dataset, *outPath); err != nil {
		logger.Log.WithError(err).WithField("path", *outPath).Fatal("Failed to write harmonized dataset")
	}

	// Distinct values of the unified identifier column; row count only when
	// a custom mapping drops the identifier entirely.
	patients := cohort.UniquePatients(dataset)
	if patients == 0 {
		patients = dataset.NumRows()
	}

	summary := models.RunSummary{
		RunID:       uuid.New().String(),
		Stage:       "harmonize",
		OutputPath:  *outPath,
		Rows:        dataset.NumRows(),
		Columns:     dataset.NumColumns(),
		Patients:    patients,
		StartedAt:   started,
		CompletedAt: time.Now().UTC(),
	}

	repo := warehouse.Connect(cfg)
	defer database.ClosePostgres()
	if err := repo.RegisterRun(summary); err != nil {
		logger.Log.WithError(err).Warn("Failed to register run in warehouse")
	}
	if _, err := repo.StoreCohort("harmonized", summary.RunID, dataset); err != nil {
		logger.Log.WithError(err).Warn("Failed to store harmonized dataset in warehouse")
	}

	producer := events.NewProducer(cfg)
	defer producer.Close()
	_ = producer.PublishRunCompleted(ctx, summary)

	logger.Log.WithFields(map[string]interface{}{
		"rows":     summary.Rows,
		"columns":  summary.Columns,
		"patients": summary.Patients,
		"output":   *outPath,
	}).Info("Harmonized dataset written")
}
