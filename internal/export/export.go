package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/metgallery/internal/models"
	"github.com/parquet-go/parquet-go"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Collection fetches records by id
type Collection interface {
	Search(ctx context.Context, query string) (*models.SearchResult, error)
	GetObject(ctx context.Context, id int) *models.ArtworkRecord
}

// InsightRequester produces commentary for a record
type InsightRequester interface {
	RequestInsight(ctx context.Context, record *models.ArtworkRecord) (string, error)
}

// Document is the YAML export layout
type Document struct {
	Query      string                 `yaml:"query"`
	ExportedAt string                 `yaml:"exportedat"`
	Count      int                    `yaml:"count"`
	Records    []models.InsightRecord `yaml:"records"`
}

// Options controls what Collect gathers
type Options struct {
	// Limit caps the number of ids fetched; 0 means all
	Limit       int
	Concurrency int
	// Insights is optional; when set each record gets commentary
	Insights InsightRequester
}

// Collect runs query and fetches the matching records in result order.
// Records that fail to load are skipped. An insight failure is logged and
// leaves that record's insight empty.
func Collect(ctx context.Context, collection Collection, query string, opts Options) ([]models.InsightRecord, error) {
	result, err := collection.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	ids := result.ObjectIDs
	if opts.Limit > 0 && len(ids) > opts.Limit {
		ids = ids[:opts.Limit]
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}

	slots := make([]*models.InsightRecord, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, id := range ids {
		g.Go(func() error {
			record := collection.GetObject(gctx, id)
			if record == nil {
				slog.Debug("Skipping record that failed to load", "objectID", id)
				return nil
			}
			out := &models.InsightRecord{Artwork: *record}
			if opts.Insights != nil {
				text, err := opts.Insights.RequestInsight(gctx, record)
				if err != nil {
					slog.Warn("Insight failed", "objectID", id, "err", err)
				} else {
					out.Insight = text
					out.GeneratedAt = time.Now().UTC()
				}
			}
			slots[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]models.InsightRecord, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			records = append(records, *r)
		}
	}
	slog.Info("Collected records", "query", query, "requested", len(ids), "loaded", len(records))
	return records, nil
}

// Write saves records to path. The format follows the extension: .parquet
// holds artwork fields only, .yaml/.yml also carries the insights.
func Write(path, query string, records []models.InsightRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		return writeParquet(path, records)
	case ".yaml", ".yml":
		return writeYAML(path, query, records)
	default:
		return fmt.Errorf("unsupported file format: %s (supported: .parquet, .yaml)", ext)
	}
}

func writeParquet(path string, records []models.InsightRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	rows := make([]models.ArtworkRecord, len(records))
	for i, r := range records {
		rows[i] = r.Artwork
	}

	writer := parquet.NewGenericWriter[models.ArtworkRecord](file)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}

	slog.Debug("Wrote parquet file", "path", path, "rows", len(rows))
	return nil
}

func writeYAML(path, query string, records []models.InsightRecord) error {
	doc := Document{
		Query:      query,
		ExportedAt: time.Now().Format("2006-01-02_15-04-05"),
		Count:      len(records),
		Records:    records,
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}

	slog.Debug("Wrote YAML file", "path", path, "records", len(records))
	return nil
}

// Load reads an export produced by Write
func Load(path string) ([]models.InsightRecord, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		return loadParquet(path)
	case ".yaml", ".yml":
		return loadYAML(path)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .yaml)", ext)
	}
}

func loadParquet(path string) ([]models.InsightRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[models.ArtworkRecord](pf)
	defer reader.Close()

	var records []models.InsightRecord
	rows := make([]models.ArtworkRecord, 128)
	for {
		n, err := reader.Read(rows)
		for _, row := range rows[:n] {
			records = append(records, models.InsightRecord{Artwork: row})
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	return records, nil
}

func loadYAML(path string) ([]models.InsightRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML file: %w", err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return doc.Records, nil
}
