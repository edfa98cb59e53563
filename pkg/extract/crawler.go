package extract

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oncoweave/pipeline/pkg/cohort"
	"github.com/oncoweave/pipeline/pkg/common/logger"
	"github.com/oncoweave/pipeline/pkg/common/models"
)

// Extractor turns report text into a ledger row. GeminiClient is the real
// implementation; tests inject their own.
type Extractor interface {
	Extract(ctx context.Context, reportText, fileName string) (models.PathologyExtraction, error)
}

// Crawler walks a directory of PDF pathology reports and extracts structured
// fields from each one, appending to the ledger incrementally so a run can be
// interrupted and resumed without re-extracting.
type Crawler struct {
	extractor Extractor
	ledger    *Ledger
	cache     *Cache

	batchSize int
	pause     time.Duration
	maxChars  int

	// readText is swapped out in tests to avoid real PDF parsing.
	readText func(path string) (string, error)
}

// Stats summarizes one crawl.
type Stats struct {
	Found     int
	Skipped   int
	Extracted int
	Cached    int
	Failed    int
}

func NewCrawler(extractor Extractor, ledger *Ledger, cache *Cache, batchSize int, pause time.Duration, maxChars int) *Crawler {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Crawler{
		extractor: extractor,
		ledger:    ledger,
		cache:     cache,
		batchSize: batchSize,
		pause:     pause,
		maxChars:  maxChars,
		readText:  ReadPDFText,
	}
}

// Run processes every unprocessed PDF under reportsDir. Extractions are
// flushed to the ledger every batchSize reports and once more at the end, so
// the ledger stays current even if the run dies mid-way. Individual report
// failures are logged and counted, never fatal.
func (c *Crawler) Run(ctx context.Context, reportsDir string) (Stats, error) {
	var stats Stats

	processed, err := c.ledger.Processed()
	if err != nil {
		return stats, err
	}

	files, err := listPDFs(reportsDir)
	if err != nil {
		return stats, err
	}
	stats.Found = len(files)

	logger.Log.WithFields(map[string]interface{}{
		"reports":   len(files),
		"processed": len(processed),
		"ledger":    c.ledger.Path(),
	}).Info("Starting report extraction")

	var batch []models.PathologyExtraction
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			if flushErr := c.ledger.Append(batch); flushErr != nil {
				return stats, flushErr
			}
			return stats, err
		}

		fileName := filepath.Base(path)
		if _, done := processed[fileName]; done {
			stats.Skipped++
			continue
		}

		extraction, fromCache, err := c.extractOne(ctx, path, fileName)
		if err != nil {
			stats.Failed++
			logger.Log.WithError(err).WithField("file", fileName).Warn("Report extraction failed")
			continue
		}
		if fromCache {
			stats.Cached++
		} else {
			stats.Extracted++
			if c.pause > 0 {
				time.Sleep(c.pause)
			}
		}

		batch = append(batch, extraction)
		if len(batch) >= c.batchSize {
			if err := c.ledger.Append(batch); err != nil {
				return stats, err
			}
			logger.Log.WithField("rows", len(batch)).Info("Ledger batch written")
			batch = batch[:0]
		}
	}

	if err := c.ledger.Append(batch); err != nil {
		return stats, err
	}

	logger.Log.WithFields(map[string]interface{}{
		"extracted": stats.Extracted,
		"cached":    stats.Cached,
		"skipped":   stats.Skipped,
		"failed":    stats.Failed,
	}).Info("Report extraction finished")
	return stats, nil
}

func (c *Crawler) extractOne(ctx context.Context, path, fileName string) (models.PathologyExtraction, bool, error) {
	if cached, ok := c.cache.Get(ctx, fileName); ok {
		return cached, true, nil
	}

	text, err := c.readText(path)
	if err != nil {
		return models.PathologyExtraction{}, false, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return models.PathologyExtraction{}, false, fmt.Errorf("%s has no extractable text", fileName)
	}
	if c.maxChars > 0 && len(text) > c.maxChars {
		// Back off to a rune boundary so the prompt stays valid UTF-8.
		cut := c.maxChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}

	extraction, err := c.extractor.Extract(ctx, text, fileName)
	if err != nil {
		return models.PathologyExtraction{}, false, err
	}
	extraction.SourceFile = fileName
	if extraction.PatientID == "" {
		extraction.PatientID = cohort.TCGAPatientID(fileName)
	}

	c.cache.Put(ctx, fileName, extraction)
	return extraction, false, nil
}

func listPDFs(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan reports dir %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}
