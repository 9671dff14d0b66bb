package config

import (
	"fmt"
	"strings"
)

const maxWorkers = 256

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Import.validate(); err != nil {
		return fmt.Errorf("import: %w", err)
	}

	switch c.Import.Store {
	case StorePostgres:
		if !c.Import.DryRun && strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("database.dsn is required for store %q", StorePostgres)
		}
		if c.Database.MinConns > c.Database.MaxConns {
			return fmt.Errorf("database.min_conns (%d) must not exceed max_conns (%d)", c.Database.MinConns, c.Database.MaxConns)
		}
	case StoreSQLite:
		if strings.TrimSpace(c.SQLite.Path) == "" {
			return fmt.Errorf("sqlite.path is required for store %q", StoreSQLite)
		}
	}

	return nil
}

func (i *ImportConfig) validate() error {
	i.Store = strings.ToLower(strings.TrimSpace(i.Store))
	if i.Store != StorePostgres && i.Store != StoreSQLite {
		return fmt.Errorf("store must be %q or %q (got %q)", StorePostgres, StoreSQLite, i.Store)
	}
	if i.Workers < 1 || i.Workers > maxWorkers {
		return fmt.Errorf("workers must be in [1, %d] (got %d)", maxWorkers, i.Workers)
	}
	if i.BatchSize < 1 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", i.BatchSize)
	}
	if i.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0 (got %v)", i.Timeout)
	}
	return nil
}
