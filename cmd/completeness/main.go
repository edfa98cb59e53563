package main

import (
	"flag"
	"path/filepath"

	"github.com/oncoweave/pipeline/pkg/common/config"
	"github.com/oncoweave/pipeline/pkg/common/logger"
	"github.com/oncoweave/pipeline/pkg/completeness"
	"github.com/oncoweave/pipeline/pkg/harmonize"
	"github.com/oncoweave/pipeline/pkg/table"
)

func main() {
	logger.Init("completeness")
	cfg := config.Load()

	inPath := flag.String("input", filepath.Join(cfg.OutputDir, "breast_cancer_consolidated.csv"), "harmonized dataset to analyze")
	outPath := flag.String("out", filepath.Join(cfg.OutputDir, "completeness_report.txt"), "report path")
	flag.Parse()

	t, err := table.ReadFile(*inPath, table.DelimiterFor(*inPath))
	if err != nil {
		logger.Log.WithError(err).WithField("path", *inPath).Fatal("Failed to read dataset")
	}

	report := completeness.Analyze(t, harmonize.SourceColumnName)

	if err := completeness.WriteText(report, *outPath); err != nil {
		logger.Log.WithError(err).WithField("path", *outPath).Fatal("Failed to write report")
	}

	missing := completeness.PatientMissingCounts(t, completeness.GeneExpressionColumns)
	distribution := completeness.MissingDistribution(missing)

	logger.Log.WithFields(map[string]interface{}{
		"rows":               report.Rows,
		"columns":            len(report.Columns),
		"complete":           len(report.Complete()),
		"above_80":           len(report.Band(80, 100)),
		"band_50_80":         len(report.Band(50, 80)),
		"below_50":           len(report.Band(0, 50)),
		"output":             *outPath,
		"gene_panel_missing": distribution,
	}).Info("Completeness report written")
}
