package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/dictimport/internal/domain"
)

// UniqueWord returns prefix with a short random suffix so tests sharing
// the container never collide on the word column.
func UniqueWord(prefix string) string {
	return prefix + "-" + uuid.New().String()[:8]
}

// SeedWord inserts a parsed entry row for word and returns it.
func SeedWord(t *testing.T, pool *pgxpool.Pool, word string, rec domain.CollinsRecord) domain.CollinsWord {
	t.Helper()

	row, err := domain.NewCollinsWord(word, rec, time.Now().UTC().Truncate(time.Microsecond))
	if err != nil {
		t.Fatalf("SeedWord: build row: %v", err)
	}
	insertRow(t, pool, row)
	return row
}

// SeedLink inserts a redirect row from word to target and returns it.
func SeedLink(t *testing.T, pool *pgxpool.Pool, word, target string) domain.CollinsWord {
	t.Helper()

	row := domain.NewCollinsLink(word, target, time.Now().UTC().Truncate(time.Microsecond))
	insertRow(t, pool, row)
	return row
}

func insertRow(t *testing.T, pool *pgxpool.Pool, row domain.CollinsWord) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO collins_words (id, word, word_normalized, content, is_link, link_target, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		row.ID, row.Word, row.WordNormalized, []byte(row.Content), row.IsLink, row.LinkTarget, row.CreatedAt,
	)
	if err != nil {
		t.Fatalf("insert collins_words %q: %v", row.Word, err)
	}
}
