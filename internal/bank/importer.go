package bank

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/drillz/internal/item"
	"github.com/abhisek/drillz/internal/logger"
)

// ItemWriter persists imported items.
type ItemWriter interface {
	PutItem(ctx context.Context, it *item.Item) error
}

// TopicChecker reports whether a topic id is known.
type TopicChecker interface {
	Has(id string) bool
}

// RowError describes one record that could not be imported.
type RowError struct {
	File string
	Row  int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Row, e.Err)
}

// Report summarizes an import.
type Report struct {
	Imported int
	Skipped  []RowError
}

// Importer loads item files concurrently and writes the valid items.
type Importer struct {
	items  ItemWriter
	topics TopicChecker
	log    *logger.Logger
	now    func() time.Time

	// Parallel bounds how many files are parsed at once.
	Parallel int
}

// NewImporter creates an importer. topics may be nil to accept any topic id.
func NewImporter(items ItemWriter, topics TopicChecker, log *logger.Logger) *Importer {
	if log == nil {
		log = logger.Nop()
	}
	return &Importer{items: items, topics: topics, log: log, now: time.Now, Parallel: 4}
}

type parsed struct {
	file    string
	records []Record
	rows    []int
}

// Import parses every file in paths and stores the items they hold. A file
// that cannot be read or parsed fails the whole import before anything is
// written; individual invalid records are skipped and reported.
func (im *Importer) Import(ctx context.Context, paths ...string) (Report, error) {
	files := make([]parsed, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, im.Parallel))
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records, rows, err := readFile(p)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			files[i] = parsed{file: p, records: records, rows: rows}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	var rep Report
	for _, f := range files {
		for i, rec := range f.records {
			row := f.rows[i]
			it, err := rec.Item()
			if err == nil {
				err = im.checkTopics(it)
			}
			if err != nil {
				rep.Skipped = append(rep.Skipped, RowError{File: f.file, Row: row, Err: err})
				continue
			}
			it.CreatedAt = im.now()
			if err := im.items.PutItem(ctx, it); err != nil {
				return rep, fmt.Errorf("%s:%d: store item: %w", f.file, row, err)
			}
			rep.Imported++
		}
	}

	im.log.Info("items imported", "files", len(paths), "imported", rep.Imported, "skipped", len(rep.Skipped))
	return rep, nil
}

func (im *Importer) checkTopics(it *item.Item) error {
	if im.topics == nil {
		return nil
	}
	var unknown []string
	for _, t := range it.Topics {
		if !im.topics.Has(t) {
			unknown = append(unknown, t)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown topics: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// readFile dispatches on the file extension. YAML records are numbered by
// their position in the list.
func readFile(path string) ([]Record, []int, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSX(path)
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		records, err := ParseYAML(data)
		if err != nil {
			return nil, nil, err
		}
		rows := make([]int, len(records))
		for i := range rows {
			rows[i] = i + 1
		}
		return records, rows, nil
	default:
		return nil, nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}
