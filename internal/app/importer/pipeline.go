package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/dictimport/internal/domain"
	"github.com/heartmarshall/dictimport/internal/seeder/collins"
	"github.com/heartmarshall/dictimport/internal/seeder/mdict"
	"github.com/heartmarshall/dictimport/pkg/ctxutil"
)

// Config holds pipeline settings.
type Config struct {
	Source    string // name of the input, for logs only
	Workers   int
	BatchSize int
	Replace   bool
	DryRun    bool
}

// parsed is the outcome of one source entry.
type parsed struct {
	entry mdict.Entry
	link  bool
	row   domain.CollinsWord
	rec   domain.CollinsRecord
	diag  collins.Diagnostics
}

// Pipeline streams entries from an MDict text export, parses them with a
// pool of workers and writes them to a WordStore in source order.
type Pipeline struct {
	log   *slog.Logger
	store WordStore
	cfg   Config
	now   func() time.Time
}

// NewPipeline creates a new Pipeline.
func NewPipeline(log *slog.Logger, store WordStore, cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	return &Pipeline{log: log, store: store, cfg: cfg, now: time.Now}
}

// Run imports every entry of src. Entries that fail to parse are stored
// as error records and counted in Stats.Failed; they never abort the run.
// Read, store and context errors abort and are returned with the stats
// gathered so far.
func (p *Pipeline) Run(ctx context.Context, src io.Reader) (stats Stats, err error) {
	start := p.now()
	ctx = ctxutil.WithRunID(ctx, uuid.New())
	if p.cfg.Source != "" {
		ctx = ctxutil.WithSource(ctx, p.cfg.Source)
	}

	defer func() { stats.Duration = p.now().Sub(start) }()

	p.log.InfoContext(ctx, "import started",
		slog.Int("workers", p.cfg.Workers),
		slog.Int("batch_size", p.cfg.BatchSize),
		slog.Bool("dry_run", p.cfg.DryRun),
	)

	if p.cfg.Replace && !p.cfg.DryRun {
		deleted, err := p.store.DeleteAll(ctx)
		if err != nil {
			return stats, fmt.Errorf("replace: %w", err)
		}
		stats.Deleted = deleted
		p.log.InfoContext(ctx, "existing rows deleted", slog.Int("deleted", deleted))
	}

	reader := mdict.NewReader(src)
	batch := make([]mdict.Entry, 0, p.cfg.BatchSize)
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		batch = batch[:0]
		eof := false
		for len(batch) < p.cfg.BatchSize {
			e, err := reader.Next()
			if errors.Is(err, io.EOF) {
				eof = true
				break
			}
			if err != nil {
				return stats, fmt.Errorf("read source: %w", err)
			}
			batch = append(batch, e)
		}

		if len(batch) > 0 {
			if err := p.processBatch(ctx, batch, &stats); err != nil {
				return stats, err
			}
		}
		if eof {
			break
		}
	}

	if !p.cfg.DryRun {
		stored, err := p.store.Count(ctx, nil)
		if err != nil {
			return stats, fmt.Errorf("count stored rows: %w", err)
		}
		stats.Stored = stored
	}

	stats.Duration = p.now().Sub(start)
	p.log.InfoContext(ctx, "import completed",
		slog.Int("entries", stats.Total),
		slog.Int("parsed", stats.Imported),
		slog.Int("links", stats.Links),
		slog.Int("failed", stats.Failed),
		slog.Int("degraded", stats.Degraded),
		slog.Int("inserted", stats.Inserted),
		slog.Int("stored", stats.Stored),
		slog.Duration("duration", stats.Duration),
	)
	return stats, nil
}

func (p *Pipeline) processBatch(ctx context.Context, entries []mdict.Entry, stats *Stats) error {
	results, err := p.parseAll(ctx, entries)
	if err != nil {
		return err
	}

	// Workers create rows in any order, so IDs are assigned here to keep
	// them sorted like the source.
	rows := make([]domain.CollinsWord, 0, len(results))
	for _, r := range results {
		r.row.ID = domain.NewRowID()
		stats.record(r)
		if r.rec.Failed() {
			p.log.WarnContext(ctx, "entry not parsed",
				slog.String("key", r.entry.Key),
				slog.Int("line", r.entry.Line),
				slog.String("error", r.rec.Error),
			)
		}
		rows = append(rows, r.row)
	}

	if p.cfg.DryRun {
		return nil
	}

	inserted, err := p.store.BulkInsert(ctx, rows)
	if err != nil {
		return fmt.Errorf("insert batch ending at line %d: %w", entries[len(entries)-1].Line, err)
	}
	stats.Inserted += inserted

	p.log.DebugContext(ctx, "batch stored",
		slog.Int("rows", len(rows)),
		slog.Int("inserted", inserted),
		slog.Int("entries_so_far", stats.Total),
	)
	return nil
}

// parseAll parses entries concurrently. Worker w handles the entries at
// indices w, w+Workers, ... with its own Parser, and results keep the
// input order.
func (p *Pipeline) parseAll(ctx context.Context, entries []mdict.Entry) ([]parsed, error) {
	results := make([]parsed, len(entries))
	now := p.now()
	workers := min(p.cfg.Workers, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	for w := range workers {
		g.Go(func() error {
			parser := collins.NewParser()
			for i := w; i < len(entries); i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				r, err := parseEntry(parser, entries[i], now)
				if err != nil {
					return err
				}
				results[i] = r
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func parseEntry(parser *collins.Parser, e mdict.Entry, now time.Time) (parsed, error) {
	if target, ok := collins.ParseLink(e.Content); ok {
		return parsed{entry: e, link: true, row: domain.NewCollinsLink(e.Key, target, now)}, nil
	}

	rec, diag := parser.Parse(e.Content)
	row, err := domain.NewCollinsWord(e.Key, rec, now)
	if err != nil {
		return parsed{}, fmt.Errorf("encode entry %q (line %d): %w", e.Key, e.Line, err)
	}
	return parsed{entry: e, rec: rec, diag: diag, row: row}, nil
}
