// Package collinsword stores imported Collins entries in PostgreSQL.
package collinsword

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/dictimport/internal/adapter/postgres"
	"github.com/heartmarshall/dictimport/internal/domain"
)

const table = "collins_words"

var columns = []string{"id", "word", "word_normalized", "content", "is_link", "link_target", "created_at"}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides collins_words persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	tx   *postgres.TxManager
}

// New creates a new collins_words repository.
func New(pool *pgxpool.Pool, tx *postgres.TxManager) *Repo {
	return &Repo{pool: pool, tx: tx}
}

// BulkInsert writes rows with one pgx.Batch in a single transaction.
// Rows whose id already exists are skipped. Returns the number of rows
// actually inserted.
func (r *Repo) BulkInsert(ctx context.Context, rows []domain.CollinsWord) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, w := range rows {
		batch.Queue(
			`INSERT INTO collins_words (id, word, word_normalized, content, is_link, link_target, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (id) DO NOTHING`,
			w.ID, w.Word, w.WordNormalized, []byte(w.Content), w.IsLink, w.LinkTarget, w.CreatedAt,
		)
	}

	var inserted int
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		results := postgres.QuerierFromCtx(ctx, r.pool).SendBatch(ctx, batch)
		defer results.Close()

		for i := range batch.Len() {
			tag, err := results.Exec()
			if err != nil {
				return postgres.MapError(fmt.Errorf("batch exec: %w", err), "collins_word", rows[i].Word)
			}
			inserted += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// GetByWord returns every row stored under the exact entry key, in
// insertion order. Returns an empty slice when nothing matches.
func (r *Repo) GetByWord(ctx context.Context, word string) ([]domain.CollinsWord, error) {
	return r.list(ctx, sq.Eq{"word": word}, word)
}

// GetByNormalized returns rows whose normalized key equals NormalizeText(word).
func (r *Repo) GetByNormalized(ctx context.Context, word string) ([]domain.CollinsWord, error) {
	return r.list(ctx, sq.Eq{"word_normalized": domain.NormalizeText(word)}, word)
}

func (r *Repo) list(ctx context.Context, where sq.Sqlizer, key string) ([]domain.CollinsWord, error) {
	query, args, err := psql.Select(columns...).
		From(table).
		Where(where).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, "collins_word", key)
	}
	defer rows.Close()

	out := make([]domain.CollinsWord, 0)
	for rows.Next() {
		var (
			w       domain.CollinsWord
			content []byte
		)
		if err := rows.Scan(&w.ID, &w.Word, &w.WordNormalized, &content, &w.IsLink, &w.LinkTarget, &w.CreatedAt); err != nil {
			return nil, postgres.MapError(err, "collins_word", key)
		}
		w.Content = content
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "collins_word", key)
	}
	return out, nil
}

// Count returns the number of stored rows. A non-nil isLink restricts the
// count to link rows (true) or parsed entries (false).
func (r *Repo) Count(ctx context.Context, isLink *bool) (int, error) {
	b := psql.Select("count(*)").From(table)
	if isLink != nil {
		b = b.Where(sq.Eq{"is_link": *isLink})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var n int64
	if err := postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, postgres.MapError(err, table, "")
	}
	return int(n), nil
}

// DeleteAll removes every stored row and returns how many were deleted.
func (r *Repo) DeleteAll(ctx context.Context) (int, error) {
	query, args, err := psql.Delete(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return 0, postgres.MapError(err, table, "")
	}
	return int(tag.RowsAffected()), nil
}
