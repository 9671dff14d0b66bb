// Package mdict reads the plain-text export of an MDict dictionary.
// Each record is a key line, one or more content lines and a line holding
// only "</>". Pure streaming: no database dependencies.
package mdict

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/heartmarshall/dictimport/internal/domain"
)

const (
	terminator = "</>"
	bom        = "\ufeff"

	// maxLineSize is the buffer size for bufio.Scanner (16 MB).
	maxLineSize = 16 << 20
)

// Entry is one raw record of the export.
type Entry struct {
	Key     string
	Content string
	Line    int // line number of the key
}

// Reader streams entries from an export.
type Reader struct {
	sc      *bufio.Scanner
	line    int
	entries int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Reader{sc: sc}
}

// Next returns the next entry or io.EOF once the input is exhausted.
// A key with no content is reported as domain.ErrMalformedSource.
func (r *Reader) Next() (Entry, error) {
	var (
		key     string
		keyLine int
		content []string
	)

	for r.sc.Scan() {
		r.line++
		text := strings.TrimRight(r.sc.Text(), "\r")
		if r.line == 1 {
			text = strings.TrimPrefix(text, bom)
		}
		trimmed := strings.TrimSpace(text)

		if key == "" {
			switch trimmed {
			case "":
				continue
			case terminator:
				return Entry{}, fmt.Errorf("line %d: terminator without key: %w", r.line, domain.ErrMalformedSource)
			}
			key, keyLine = trimmed, r.line
			continue
		}

		if trimmed == terminator {
			return r.emit(key, keyLine, content)
		}
		content = append(content, text)
	}

	if err := r.sc.Err(); err != nil {
		return Entry{}, fmt.Errorf("scanner error: %w", err)
	}
	if key != "" {
		// Last record without a terminator.
		return r.emit(key, keyLine, content)
	}
	return Entry{}, io.EOF
}

func (r *Reader) emit(key string, line int, content []string) (Entry, error) {
	if len(content) == 0 {
		return Entry{}, fmt.Errorf("line %d: entry %q has no content: %w", line, key, domain.ErrMalformedSource)
	}
	r.entries++
	return Entry{Key: key, Content: strings.Join(content, "\n"), Line: line}, nil
}

// Lines returns the number of lines consumed so far.
func (r *Reader) Lines() int { return r.line }

// Entries returns the number of entries returned so far.
func (r *Reader) Entries() int { return r.entries }
