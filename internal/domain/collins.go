package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LinkPrefix marks an entry whose whole content points at another headword.
const LinkPrefix = "@@@LINK="

// CollinsRecord is the structured form of one bilingual dictionary entry.
// JSON keys match the layout stored in collins_words.content.
type CollinsRecord struct {
	Word        string              `json:"word"`
	PhoneticUK  string              `json:"phonetic_uk"`
	PhoneticUS  string              `json:"phonetic_us"`
	Frequency   int                 `json:"frequency"`
	Forms       []string            `json:"forms"`
	Definitions []CollinsDefinition `json:"definitions"`

	// Error and RawHTML are set only when the entry could not be parsed.
	Error   string `json:"error,omitempty"`
	RawHTML string `json:"raw_html,omitempty"`
}

// CollinsDefinition is one numbered sense of a headword.
type CollinsDefinition struct {
	Num      string           `json:"num"`
	POS      string           `json:"pos"`
	CN       string           `json:"cn"`
	EN       string           `json:"en"`
	Examples []CollinsExample `json:"examples"`
	Synonyms []string         `json:"synonyms"`
}

// CollinsExample is an English/Chinese sentence pair.
type CollinsExample struct {
	EN string `json:"en"`
	CN string `json:"cn"`
}

// Failed reports whether the record carries a parse error.
func (r *CollinsRecord) Failed() bool {
	return r.Error != ""
}

// Degraded reports whether the parse finished without finding a headword.
// A degraded record is still stored.
func (r *CollinsRecord) Degraded() bool {
	return !r.Failed() && r.Word == ""
}

// ExampleCount returns the number of examples across all definitions.
func (r *CollinsRecord) ExampleCount() int {
	n := 0
	for i := range r.Definitions {
		n += len(r.Definitions[i].Examples)
	}
	return n
}

// CollinsWord is a row of the collins_words table: either a parsed entry or
// a redirect to another headword.
type CollinsWord struct {
	ID             uuid.UUID
	Word           string
	WordNormalized string
	Content        json.RawMessage
	IsLink         bool
	LinkTarget     *string
	CreatedAt      time.Time
}

// emptyContent is stored for link rows.
var emptyContent = json.RawMessage("{}")

// NewCollinsWord builds a row for a parsed entry.
func NewCollinsWord(key string, rec CollinsRecord, now time.Time) (CollinsWord, error) {
	content, err := json.Marshal(rec)
	if err != nil {
		return CollinsWord{}, err
	}
	return CollinsWord{
		ID:             NewRowID(),
		Word:           key,
		WordNormalized: NormalizeText(key),
		Content:        content,
		CreatedAt:      now,
	}, nil
}

// NewCollinsLink builds a row for a redirect entry.
func NewCollinsLink(key, target string, now time.Time) CollinsWord {
	return CollinsWord{
		ID:             NewRowID(),
		Word:           key,
		WordNormalized: NormalizeText(key),
		Content:        emptyContent,
		IsLink:         true,
		LinkTarget:     &target,
		CreatedAt:      now,
	}
}

// Record decodes the stored content. Link rows decode to a zero record.
func (w *CollinsWord) Record() (CollinsRecord, error) {
	var rec CollinsRecord
	if len(w.Content) == 0 {
		return rec, nil
	}
	if err := json.Unmarshal(w.Content, &rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// NewRowID returns a time-ordered UUIDv7. IDs created one after another in
// the same process sort in creation order.
func NewRowID() uuid.UUID {
	if id, err := uuid.NewV7(); err == nil {
		return id
	}
	return uuid.New()
}
