// Package importer loads an MDict text export of the Collins dictionary
// into a word store and resolves stored entries back into records.
package importer

import (
	"context"

	"github.com/heartmarshall/dictimport/internal/domain"
)

// WordStore is the write contract consumed by Pipeline.
// Implemented by collinsword.Repo and sqlite.Store.
type WordStore interface {
	// BulkInsert writes rows and returns how many were actually inserted.
	BulkInsert(ctx context.Context, rows []domain.CollinsWord) (int, error)
	// DeleteAll empties the store and returns how many rows were removed.
	DeleteAll(ctx context.Context) (int, error)
	// Count returns the number of rows, optionally filtered by is_link.
	Count(ctx context.Context, isLink *bool) (int, error)
}

// WordReader is the read contract consumed by Lookup.
type WordReader interface {
	GetByWord(ctx context.Context, word string) ([]domain.CollinsWord, error)
	GetByNormalized(ctx context.Context, word string) ([]domain.CollinsWord, error)
}
