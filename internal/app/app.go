package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/heartmarshall/dictimport/internal/adapter/postgres"
	"github.com/heartmarshall/dictimport/internal/adapter/postgres/collinsword"
	"github.com/heartmarshall/dictimport/internal/adapter/sqlite"
	"github.com/heartmarshall/dictimport/internal/app/importer"
	"github.com/heartmarshall/dictimport/internal/config"
)

// ErrEntriesFailed is returned by Run when the import finished but some
// entries could not be parsed.
var ErrEntriesFailed = errors.New("some entries failed to parse")

// Options are the command-line inputs of a run. Zero values leave the
// loaded configuration untouched.
type Options struct {
	ConfigPath string
	Source     string
	Store      string
	Workers    int
	DryRun     bool
	Replace    bool
	Migrate    bool
	Lookup     string
}

// Compile-time interface assertions.
var (
	_ wordStore = (*collinsword.Repo)(nil)
	_ wordStore = (*sqlite.Store)(nil)
)

type wordStore interface {
	importer.WordStore
	importer.WordReader
}

// Run loads configuration, opens the configured store and either imports
// opts.Source or, when opts.Lookup is set, prints the resolved entry as
// JSON to out. The import report is written to out.
func Run(ctx context.Context, opts Options, out io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath, opts.apply)
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting collins-import",
		slog.String("version", BuildVersion()),
		slog.String("store", cfg.Import.Store),
	)

	if cfg.Import.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Import.Timeout)
		defer cancel()
	}

	if opts.Lookup == "" && opts.Source == "" {
		return errors.New("--source is required")
	}

	// A dry run parses only; no connection is opened.
	if opts.Lookup == "" && cfg.Import.DryRun {
		return runImport(ctx, logger, cfg, nil, opts.Source, out)
	}

	store, closeStore, err := openStore(ctx, logger, cfg, opts.Migrate)
	if err != nil {
		return err
	}
	defer closeStore()

	if opts.Lookup != "" {
		return runLookup(ctx, store, opts.Lookup, out)
	}
	return runImport(ctx, logger, cfg, store, opts.Source, out)
}

func (o Options) apply(c *config.Config) {
	if o.Store != "" {
		c.Import.Store = o.Store
	}
	if o.Workers > 0 {
		c.Import.Workers = o.Workers
	}
	if o.DryRun {
		c.Import.DryRun = true
	}
	if o.Replace {
		c.Import.Replace = true
	}
}

func openStore(ctx context.Context, logger *slog.Logger, cfg *config.Config, migrate bool) (wordStore, func(), error) {
	switch cfg.Import.Store {
	case config.StoreSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLite)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil

	case config.StorePostgres:
		if migrate {
			applied, err := postgres.Migrate(ctx, cfg.Database.DSN)
			if err != nil {
				return nil, nil, fmt.Errorf("migrate: %w", err)
			}
			logger.Info("migrations applied", slog.Any("versions", applied))
		}

		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return collinsword.New(pool, postgres.NewTxManager(pool)), pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q", cfg.Import.Store)
}

func runImport(ctx context.Context, logger *slog.Logger, cfg *config.Config, store importer.WordStore, source string, out io.Writer) error {
	f, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	p := importer.NewPipeline(logger, store, importer.Config{
		Source:    filepath.Base(source),
		Workers:   cfg.Import.Workers,
		BatchSize: cfg.Import.BatchSize,
		Replace:   cfg.Import.Replace,
		DryRun:    cfg.Import.DryRun,
	})

	stats, err := p.Run(ctx, f)
	if reportErr := stats.WriteReport(out); reportErr != nil && err == nil {
		err = fmt.Errorf("write report: %w", reportErr)
	}
	if err != nil {
		return fmt.Errorf("import %s: %w", source, err)
	}

	if stats.HasFailures() {
		return fmt.Errorf("%d of %d entries: %w", stats.Failed, stats.Total, ErrEntriesFailed)
	}
	return nil
}

func runLookup(ctx context.Context, words importer.WordReader, word string, out io.Writer) error {
	rec, err := importer.NewLookup(words).Resolve(ctx, word)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
