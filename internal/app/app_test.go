package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/dictimport/internal/domain"
)

func samplePath(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "importer", "testdata", "sample.txt")
}

func writeConfig(t *testing.T, dbPath string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "sqlite:\n  path: \"" + dbPath + "\"\nlog:\n  level: \"error\"\nimport:\n  store: \"sqlite\"\n  workers: 2\n  batch_size: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_ImportThenLookup_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "dict.db")
	cfgPath := writeConfig(t, dbPath)
	ctx := context.Background()

	var report bytes.Buffer
	err := Run(ctx, Options{ConfigPath: cfgPath, Source: samplePath(t)}, &report)
	require.ErrorIs(t, err, ErrEntriesFailed, "the sample holds one empty entry")
	assert.Contains(t, report.String(), "inserted")
	assert.Contains(t, report.String(), "broken")

	var out bytes.Buffer
	require.NoError(t, Run(ctx, Options{ConfigPath: cfgPath, Lookup: "abandoned"}, &out))

	var rec domain.CollinsRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &rec))
	assert.Equal(t, "abandon", rec.Word)
	require.Len(t, rec.Definitions, 1)
	assert.Equal(t, "离弃", rec.Definitions[0].CN)

	// A second import with replace must not duplicate rows.
	err = Run(ctx, Options{ConfigPath: cfgPath, Source: samplePath(t), Replace: true}, &bytes.Buffer{})
	require.ErrorIs(t, err, ErrEntriesFailed)

	out.Reset()
	require.NoError(t, Run(ctx, Options{ConfigPath: cfgPath, Lookup: "run"}, &out))
	require.NoError(t, json.Unmarshal(out.Bytes(), &rec))
	assert.Equal(t, 2, rec.Frequency)
}

func TestRun_LookupUnknown(t *testing.T) {
	cfgPath := writeConfig(t, filepath.Join(t.TempDir(), "dict.db"))

	err := Run(context.Background(), Options{ConfigPath: cfgPath, Lookup: "nothing"}, &bytes.Buffer{})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRun_DryRunNeedsNoDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: \"error\"\nimport:\n  store: \"postgres\"\n"), 0o644))
	t.Setenv("DATABASE_DSN", "")

	var report bytes.Buffer
	err := Run(context.Background(), Options{ConfigPath: path, Source: samplePath(t), DryRun: true}, &report)
	require.ErrorIs(t, err, ErrEntriesFailed)
	assert.Contains(t, report.String(), "entries")
}

func TestRun_Errors(t *testing.T) {
	cfgPath := writeConfig(t, filepath.Join(t.TempDir(), "dict.db"))

	tests := []struct {
		name string
		opts Options
	}{
		{"missing source flag", Options{ConfigPath: cfgPath}},
		{"source not found", Options{ConfigPath: cfgPath, Source: filepath.Join(t.TempDir(), "missing.txt")}},
		{"bad store override", Options{ConfigPath: cfgPath, Source: samplePath(t), Store: "mongo"}},
		{"config not found", Options{ConfigPath: filepath.Join(t.TempDir(), "none.yaml"), Source: samplePath(t)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Run(context.Background(), tt.opts, &bytes.Buffer{})
			require.Error(t, err)
			assert.False(t, errors.Is(err, ErrEntriesFailed))
		})
	}
}
