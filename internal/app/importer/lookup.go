package importer

import (
	"context"
	"fmt"

	"github.com/heartmarshall/dictimport/internal/domain"
)

// MaxLinkHops bounds how many redirect rows Resolve follows.
const MaxLinkHops = 5

// Lookup resolves stored words to records, following redirect entries.
type Lookup struct {
	words WordReader
}

// NewLookup creates a new Lookup.
func NewLookup(words WordReader) *Lookup {
	return &Lookup{words: words}
}

// Resolve returns the record stored for word. The exact key is tried
// first, then the normalized form. When a key has both redirect and
// parsed rows the first parsed row wins.
func (l *Lookup) Resolve(ctx context.Context, word string) (domain.CollinsRecord, error) {
	seen := map[string]bool{domain.NormalizeText(word): true}
	current := word

	for hops := 0; ; hops++ {
		rows, err := l.find(ctx, current)
		if err != nil {
			return domain.CollinsRecord{}, err
		}
		if len(rows) == 0 {
			if current == word {
				return domain.CollinsRecord{}, fmt.Errorf("word %q: %w", word, domain.ErrNotFound)
			}
			return domain.CollinsRecord{}, fmt.Errorf("word %q: link target %q: %w", word, current, domain.ErrNotFound)
		}

		if row, ok := firstEntry(rows); ok {
			rec, err := row.Record()
			if err != nil {
				return domain.CollinsRecord{}, fmt.Errorf("word %q: decode content: %w", row.Word, err)
			}
			return rec, nil
		}

		target := *rows[0].LinkTarget
		if target == "" {
			return domain.CollinsRecord{}, fmt.Errorf("word %q: empty link target: %w", word, domain.ErrNotFound)
		}
		if hops == MaxLinkHops {
			return domain.CollinsRecord{}, fmt.Errorf("word %q: more than %d links: %w", word, MaxLinkHops, domain.ErrLinkLoop)
		}
		norm := domain.NormalizeText(target)
		if seen[norm] {
			return domain.CollinsRecord{}, fmt.Errorf("word %q: %q links back to %q: %w", word, current, target, domain.ErrLinkLoop)
		}
		seen[norm] = true
		current = target
	}
}

func (l *Lookup) find(ctx context.Context, word string) ([]domain.CollinsWord, error) {
	rows, err := l.words.GetByWord(ctx, word)
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", word, err)
	}
	if len(rows) > 0 {
		return rows, nil
	}
	rows, err = l.words.GetByNormalized(ctx, word)
	if err != nil {
		return nil, fmt.Errorf("get normalized %q: %w", word, err)
	}
	return rows, nil
}

func firstEntry(rows []domain.CollinsWord) (domain.CollinsWord, bool) {
	for _, r := range rows {
		if !r.IsLink || r.LinkTarget == nil {
			return r, true
		}
	}
	return domain.CollinsWord{}, false
}
