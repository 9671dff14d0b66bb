// Command collins-import loads a Collins bilingual dictionary, exported
// from its MDict container as text, into PostgreSQL or a SQLite file, and
// looks stored entries up again.
//
// Flags:
//
//	--config    path to YAML config file (default: CONFIG_PATH or ./config.yaml)
//	--source    MDict text export to import
//	--store     postgres or sqlite (overrides import.store)
//	--workers   number of parser goroutines (overrides import.workers)
//	--dry-run   parse and report without writing
//	--replace   delete existing rows before importing
//	--migrate   apply database migrations first (postgres)
//	--lookup    print the stored entry for WORD as JSON instead of importing
//
// Exit codes: 0 = success, 1 = error or at least one entry failed to parse.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/heartmarshall/dictimport/internal/app"
)

func main() {
	var opts app.Options
	flag.StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	flag.StringVar(&opts.Source, "source", "", "MDict text export to import")
	flag.StringVar(&opts.Store, "store", "", "store kind: postgres or sqlite")
	flag.IntVar(&opts.Workers, "workers", 0, "number of parser goroutines")
	flag.BoolVar(&opts.DryRun, "dry-run", false, "parse and report without writing")
	flag.BoolVar(&opts.Replace, "replace", false, "delete existing rows before importing")
	flag.BoolVar(&opts.Migrate, "migrate", false, "apply database migrations first")
	flag.StringVar(&opts.Lookup, "lookup", "", "print the stored entry for `WORD` as JSON")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, opts, os.Stdout); err != nil {
		slog.Error("collins-import failed", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}
