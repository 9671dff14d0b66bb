package mdict

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/heartmarshall/dictimport/internal/domain"
)

func testdataPath(t *testing.T, name string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine test file path")
	}
	return filepath.Join(filepath.Dir(file), "testdata", name)
}

func readAll(t *testing.T, r *Reader) ([]Entry, error) {
	t.Helper()
	var out []Entry
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
}

func TestReader_SampleFile(t *testing.T) {
	f, err := os.Open(testdataPath(t, "sample.txt"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	r := NewReader(f)
	entries, err := readAll(t, r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	wantKeys := []string{"abandon", "abandoned", "broken", "run"}
	if len(entries) != len(wantKeys) {
		t.Fatalf("got %d entries, want %d", len(entries), len(wantKeys))
	}
	for i, k := range wantKeys {
		if entries[i].Key != k {
			t.Errorf("entry %d key = %q, want %q", i, entries[i].Key, k)
		}
	}

	if entries[0].Line != 1 {
		t.Errorf("first entry line = %d, want 1", entries[0].Line)
	}
	if strings.Contains(entries[0].Content, "\r") {
		t.Error("content should not keep carriage returns")
	}
	if n := strings.Count(entries[0].Content, "\n"); n != 1 {
		t.Errorf("first entry should keep its two content lines, got %d newlines", n)
	}
	if entries[1].Content != "@@@LINK=abandon" {
		t.Errorf("link content = %q", entries[1].Content)
	}
	if r.Entries() != 4 {
		t.Errorf("Entries() = %d, want 4", r.Entries())
	}
	if r.Lines() == 0 {
		t.Error("Lines() should count consumed lines")
	}
}

func TestReader_Cases(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKeys []string
		wantErr  error
	}{
		{
			name:     "empty input",
			input:    "",
			wantKeys: nil,
		},
		{
			name:     "blank lines between records",
			input:    "a\n<b>a</b>\n</>\n\n\nb\n<b>b</b>\n</>\n",
			wantKeys: []string{"a", "b"},
		},
		{
			name:     "missing final terminator",
			input:    "a\n<b>a</b>\n</>\nb\n<b>b</b>",
			wantKeys: []string{"a", "b"},
		},
		{
			name:     "terminator with trailing spaces",
			input:    "a\n<b>a</b>\n</>  \n",
			wantKeys: []string{"a"},
		},
		{
			name:    "key without content",
			input:   "a\n</>\n",
			wantErr: domain.ErrMalformedSource,
		},
		{
			name:     "trailing key without content",
			input:    "a\n<b>a</b>\n</>\nb\n",
			wantKeys: []string{"a"},
			wantErr:  domain.ErrMalformedSource,
		},
		{
			name:    "terminator first",
			input:   "</>\n",
			wantErr: domain.ErrMalformedSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := readAll(t, NewReader(strings.NewReader(tt.input)))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(entries) != len(tt.wantKeys) {
				t.Fatalf("got %d entries, want %d", len(entries), len(tt.wantKeys))
			}
			for i, k := range tt.wantKeys {
				if entries[i].Key != k {
					t.Errorf("entry %d key = %q, want %q", i, entries[i].Key, k)
				}
			}
		})
	}
}

func TestReader_LongLine(t *testing.T) {
	long := strings.Repeat("x", 200*1024)
	entries, err := readAll(t, NewReader(strings.NewReader("a\n"+long+"\n</>\n")))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(entries) != 1 || len(entries[0].Content) != len(long) {
		t.Fatalf("long line not preserved")
	}
}
