// Package sqlite stores imported Collins entries in a single-file SQLite
// database (the dict.db layout used by offline tooling).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // pure-Go database/sql driver "sqlite"

	"github.com/heartmarshall/dictimport/internal/config"
	"github.com/heartmarshall/dictimport/internal/domain"
)

const table = "collins_words"

const schema = `
CREATE TABLE IF NOT EXISTS collins_words (
    id              TEXT    PRIMARY KEY,
    word            TEXT    NOT NULL,
    word_normalized TEXT    NOT NULL,
    content         TEXT    NOT NULL DEFAULT '{}',
    is_link         INTEGER NOT NULL DEFAULT 0,
    link_target     TEXT,
    created_at      TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_collins_words_word ON collins_words (word);
CREATE INDEX IF NOT EXISTS idx_collins_words_word_normalized ON collins_words (word_normalized);
`

var columns = []string{"id", "word", "word_normalized", "content", "is_link", "link_target", "created_at"}

// Store is a collins_words table in a SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database file at cfg.Path and
// ensures the collins_words table and its indexes exist.
func Open(ctx context.Context, cfg config.SQLiteConfig) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("sqlite open %s: %w", cfg.Path, err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func dsn(cfg config.SQLiteConfig) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	return "file:" + cfg.Path + "?" + q.Encode()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BulkInsert writes rows in one transaction. Rows whose id already exists
// are skipped. Returns the number of rows actually inserted.
func (s *Store) BulkInsert(ctx context.Context, rows []domain.CollinsWord) (n int, err error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO collins_words (id, word, word_normalized, content, is_link, link_target, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, w := range rows {
		var target sql.NullString
		if w.LinkTarget != nil {
			target = sql.NullString{String: *w.LinkTarget, Valid: true}
		}
		res, err := stmt.ExecContext(ctx,
			w.ID.String(), w.Word, w.WordNormalized, string(w.Content), w.IsLink, target,
			w.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return 0, fmt.Errorf("insert collins_word %q: %w", w.Word, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		n += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return n, nil
}

// GetByWord returns every row stored under the exact entry key, in
// insertion order.
func (s *Store) GetByWord(ctx context.Context, word string) ([]domain.CollinsWord, error) {
	return s.list(ctx, sq.Eq{"word": word})
}

// GetByNormalized returns rows whose normalized key equals NormalizeText(word).
func (s *Store) GetByNormalized(ctx context.Context, word string) ([]domain.CollinsWord, error) {
	return s.list(ctx, sq.Eq{"word_normalized": domain.NormalizeText(word)})
}

func (s *Store) list(ctx context.Context, where sq.Sqlizer) ([]domain.CollinsWord, error) {
	query, args, err := sq.Select(columns...).From(table).Where(where).OrderBy("rowid").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query collins_words: %w", err)
	}
	defer rows.Close()

	out := make([]domain.CollinsWord, 0)
	for rows.Next() {
		w, err := scanWord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collins_words: %w", err)
	}
	return out, nil
}

func scanWord(rows *sql.Rows) (domain.CollinsWord, error) {
	var (
		w         domain.CollinsWord
		content   string
		target    sql.NullString
		createdAt string
	)
	if err := rows.Scan(&w.ID, &w.Word, &w.WordNormalized, &content, &w.IsLink, &target, &createdAt); err != nil {
		return w, fmt.Errorf("scan collins_word: %w", err)
	}
	w.Content = []byte(content)
	if target.Valid {
		w.LinkTarget = &target.String
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return w, fmt.Errorf("collins_word %q: created_at: %w", w.Word, err)
	}
	w.CreatedAt = ts
	return w, nil
}

// Count returns the number of stored rows. A non-nil isLink restricts the
// count to link rows (true) or parsed entries (false).
func (s *Store) Count(ctx context.Context, isLink *bool) (int, error) {
	b := sq.Select("count(*)").From(table)
	if isLink != nil {
		b = b.Where(sq.Eq{"is_link": *isLink})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count collins_words: %w", err)
	}
	return n, nil
}

// DeleteAll removes every stored row and returns how many were deleted.
func (s *Store) DeleteAll(ctx context.Context) (int, error) {
	query, args, err := sq.Delete(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete collins_words: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}
