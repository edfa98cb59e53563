package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oncoweave/pipeline/pkg/analysis"
	"github.com/oncoweave/pipeline/pkg/common/config"
	"github.com/oncoweave/pipeline/pkg/common/logger"
	"github.com/oncoweave/pipeline/pkg/completeness"
	"github.com/oncoweave/pipeline/pkg/table"
)

type analysisReport struct {
	Rows             int                        `json:"rows"`
	Features         []string                   `json:"features"`
	Classifier       analysis.ClassifierMetrics `json:"classifier"`
	TrainSize        int                        `json:"train_size"`
	TestSize         int                        `json:"test_size"`
	ClusteredRows    int                        `json:"clustered_rows,omitempty"`
	ClusterSizes     map[int]int                `json:"cluster_sizes,omitempty"`
	PCAVariance      []float64                  `json:"pca_explained_variance,omitempty"`
	MedianSurvival   float64                    `json:"median_survival_days,omitempty"`
	SurvivalPatients int                        `json:"survival_patients,omitempty"`
	GroupSurvival    map[string]float64         `json:"group_median_survival,omitempty"`
}

func main() {
	logger.Init("analyze")
	cfg := config.Load()

	inPath := flag.String("input", filepath.Join(cfg.OutputDir, "breast_cancer_consolidated.csv"), "harmonized dataset")
	outPath := flag.String("out", filepath.Join(cfg.OutputDir, "analysis_report.json"), "analysis report path")
	labelCol := flag.String("label", "er_status", "binary label column for the classifier")
	idCol := flag.String("id", "patient_id", "patient identifier column")
	featureFlag := flag.String("features", "", "comma-separated feature columns (default: age, tumor size and the gene panel)")
	timeCol := flag.String("survival-time", "overall_survival", "follow-up time column in days")
	statusCol := flag.String("survival-status", "vital_status", "vital status column")
	groupCol := flag.String("survival-group", "dataset_source", "categorical column for per-group survival comparison")
	flag.Parse()

	t, err := table.ReadFile(*inPath, table.DelimiterFor(*inPath))
	if err != nil {
		logger.Log.WithError(err).WithField("path", *inPath).Fatal("Failed to read dataset")
	}

	features := resolveFeatures(t, *featureFlag)
	if len(features) == 0 {
		logger.Log.Fatal("No requested feature column exists in the dataset")
	}

	report := analysisReport{Rows: t.NumRows(), Features: features}

	ds, err := analysis.FromTable(t, features, *labelCol, *idCol)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to build numeric dataset")
	}
	train, test := ds.Split(cfg.TrainSplit, cfg.RandomSeed)
	report.TrainSize = len(train.Samples)
	report.TestSize = len(test.Samples)

	weights := analysis.TrainLogistic(train.Samples, train.Labels, analysis.LogisticOptions{})
	report.Classifier = weights.Evaluate(test.Samples, test.Labels)
	logger.Log.WithFields(map[string]interface{}{
		"label":    *labelCol,
		"accuracy": report.Classifier.Accuracy,
		"f1":       report.Classifier.F1,
		"train":    report.TrainSize,
		"test":     report.TestSize,
	}).Info("Classifier evaluated")

	clusterExpression(t, cfg, &report)

	estimateSurvival(t, *timeCol, *statusCol, *groupCol, &report)

	if err := writeReport(report, *outPath); err != nil {
		logger.Log.WithError(err).WithField("path", *outPath).Fatal("Failed to write analysis report")
	}
	logger.Log.WithField("output", *outPath).Info("Analysis complete")
}

// clusterExpression groups patients by their gene-expression profile: only
// rows with the full panel measured take part, compressed to two principal
// components before k-means.
func clusterExpression(t *table.Table, cfg *config.Config, report *analysisReport) {
	var panel []string
	for _, col := range completeness.GeneExpressionColumns {
		if t.HasColumn(col) {
			panel = append(panel, col)
		}
	}
	if len(panel) < 2 {
		logger.Log.Warn("Gene-expression panel absent, skipping clustering")
		return
	}

	samples, _, err := analysis.CompleteRows(t, panel)
	if err != nil {
		logger.Log.WithError(err).Warn("Skipping clustering")
		return
	}
	if len(samples) < cfg.KMeansK {
		logger.Log.WithField("rows", len(samples)).Warn("Too few complete expression rows to cluster")
		return
	}
	report.ClusteredRows = len(samples)

	pca, err := analysis.PCA(samples, 2)
	if err != nil {
		logger.Log.WithError(err).Warn("PCA failed, skipping clustering")
		return
	}
	report.PCAVariance = pca.ExplainedVariance

	clusters, err := analysis.KMeans(pca.Projected, cfg.KMeansK, cfg.RandomSeed, 100)
	if err != nil {
		logger.Log.WithError(err).Warn("Clustering failed")
		return
	}
	report.ClusterSizes = make(map[int]int)
	for _, c := range clusters.Assignments {
		report.ClusterSizes[c]++
	}
	logger.Log.WithFields(map[string]interface{}{
		"k":        cfg.KMeansK,
		"rows":     report.ClusteredRows,
		"clusters": report.ClusterSizes,
		"variance": report.PCAVariance,
	}).Info("Patients clustered on expression profile")
}

func estimateSurvival(t *table.Table, timeCol, statusCol, groupCol string, report *analysisReport) {
	times, events, err := analysis.SurvivalFromTable(t, timeCol, statusCol)
	if err != nil {
		logger.Log.WithError(err).Warn("Skipping survival analysis")
		return
	}
	curve, err := analysis.KaplanMeier(times, events)
	if err != nil {
		logger.Log.WithError(err).Warn("Survival estimation failed")
		return
	}
	report.SurvivalPatients = len(times)
	report.MedianSurvival = analysis.MedianSurvival(curve)
	logger.Log.WithFields(map[string]interface{}{
		"patients":             report.SurvivalPatients,
		"median_survival_days": report.MedianSurvival,
		"curve_points":         len(curve),
	}).Info("Survival curve estimated")

	if groupCol == "" || !t.HasColumn(groupCol) {
		return
	}
	report.GroupSurvival = make(map[string]float64)
	for _, group := range distinctValues(t, groupCol) {
		sub, err := filterRows(t, groupCol, group)
		if err != nil {
			continue
		}
		groupTimes, groupEvents, err := analysis.SurvivalFromTable(sub, timeCol, statusCol)
		if err != nil {
			continue
		}
		groupCurve, err := analysis.KaplanMeier(groupTimes, groupEvents)
		if err != nil {
			continue
		}
		report.GroupSurvival[group] = analysis.MedianSurvival(groupCurve)
	}
	if len(report.GroupSurvival) > 0 {
		logger.Log.WithFields(map[string]interface{}{
			"group":                groupCol,
			"median_survival_days": report.GroupSurvival,
		}).Info("Per-group survival compared")
	}
}

func distinctValues(t *table.Table, col string) []string {
	cells, err := t.Column(col)
	if err != nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, cell := range cells {
		if table.Missing(cell) {
			continue
		}
		if _, ok := seen[cell]; !ok {
			seen[cell] = struct{}{}
			out = append(out, cell)
		}
	}
	return out
}

func filterRows(t *table.Table, col, value string) (*table.Table, error) {
	out, err := table.New(t.Columns())
	if err != nil {
		return nil, err
	}
	for i := 0; i < t.NumRows(); i++ {
		cell, _ := t.Cell(i, col)
		if cell == value {
			out.AppendRow(t.Row(i))
		}
	}
	return out, nil
}

func resolveFeatures(t *table.Table, featureFlag string) []string {
	requested := []string{"age_at_diagnosis", "tumor_size"}
	requested = append(requested, completeness.GeneExpressionColumns...)
	if featureFlag != "" {
		requested = strings.Split(featureFlag, ",")
	}

	var present []string
	for _, col := range requested {
		col = strings.TrimSpace(col)
		if t.HasColumn(col) {
			present = append(present, col)
		}
	}
	return present
}

func writeReport(report analysisReport, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}
