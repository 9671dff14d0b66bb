package importer

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/heartmarshall/dictimport/internal/domain"
	"github.com/heartmarshall/dictimport/internal/seeder/collins"
)

// maxFailures bounds Stats.Failures; Stats.Failed keeps the full count.
const maxFailures = 20

// Failure identifies an entry whose markup could not be parsed.
type Failure struct {
	Key   string
	Line  int
	Error string
}

// FieldCounts counts parsed records with each field populated.
type FieldCounts struct {
	Headword    int
	PhoneticUK  int
	PhoneticUS  int
	Frequency   int
	Forms       int
	Definitions int
	Examples    int
}

func (f *FieldCounts) add(rec *domain.CollinsRecord) {
	if rec.Word != "" {
		f.Headword++
	}
	if rec.PhoneticUK != "" {
		f.PhoneticUK++
	}
	if rec.PhoneticUS != "" {
		f.PhoneticUS++
	}
	if rec.Frequency > 0 {
		f.Frequency++
	}
	if len(rec.Forms) > 0 {
		f.Forms++
	}
	if len(rec.Definitions) > 0 {
		f.Definitions++
	}
	if rec.ExampleCount() > 0 {
		f.Examples++
	}
}

// Stats is the outcome of one Pipeline.Run.
type Stats struct {
	Total    int // entries read from the source
	Imported int // parsed without error
	Links    int // redirect entries
	Failed   int // stored with an error record
	Degraded int // parsed but no headword found
	Inserted int // rows written by the store
	Deleted  int // rows removed by replace
	Stored   int // rows in the store after the run

	Fields   FieldCounts
	Parse    collins.Diagnostics
	Failures []Failure
	Duration time.Duration
}

// HasFailures reports whether any entry failed to parse.
func (s *Stats) HasFailures() bool {
	return s.Failed > 0
}

func (s *Stats) record(e parsed) {
	s.Total++
	if e.link {
		s.Links++
		return
	}

	s.Parse.Add(e.diag)
	if e.rec.Failed() {
		s.Failed++
		if len(s.Failures) < maxFailures {
			s.Failures = append(s.Failures, Failure{Key: e.entry.Key, Line: e.entry.Line, Error: e.rec.Error})
		}
		return
	}

	s.Imported++
	if e.rec.Degraded() {
		s.Degraded++
	}
	s.Fields.add(&e.rec)
}

// WriteReport prints a field population report of the run.
func (s *Stats) WriteReport(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "entries\t%d\n", s.Total)
	fmt.Fprintf(tw, "parsed\t%d\n", s.Imported)
	fmt.Fprintf(tw, "links\t%d\n", s.Links)
	fmt.Fprintf(tw, "failed\t%d\n", s.Failed)
	fmt.Fprintf(tw, "no headword\t%d\n", s.Degraded)
	fmt.Fprintf(tw, "inserted\t%d\n", s.Inserted)
	fmt.Fprintf(tw, "rows in store\t%d\n", s.Stored)
	if s.Deleted > 0 {
		fmt.Fprintf(tw, "deleted\t%d\n", s.Deleted)
	}
	fmt.Fprintf(tw, "duration\t%s\n", s.Duration.Round(time.Millisecond))

	fmt.Fprintln(tw, "\nfield\tpopulated\tshare")
	for _, row := range []struct {
		name string
		n    int
	}{
		{"word", s.Fields.Headword},
		{"phonetic_uk", s.Fields.PhoneticUK},
		{"phonetic_us", s.Fields.PhoneticUS},
		{"frequency", s.Fields.Frequency},
		{"forms", s.Fields.Forms},
		{"definitions", s.Fields.Definitions},
		{"examples", s.Fields.Examples},
	} {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", row.name, row.n, percent(row.n, s.Imported))
	}

	if s.Parse.MismatchedCloses+s.Parse.StrayCloses+s.Parse.UnclosedAtEOF > 0 {
		fmt.Fprintf(tw, "\nmalformed markup\tmismatched=%d stray=%d unclosed=%d\n",
			s.Parse.MismatchedCloses, s.Parse.StrayCloses, s.Parse.UnclosedAtEOF)
	}

	for _, f := range s.Failures {
		fmt.Fprintf(tw, "failed\t%s (line %d)\t%s\n", f.Key, f.Line, f.Error)
	}
	if extra := s.Failed - len(s.Failures); extra > 0 {
		fmt.Fprintf(tw, "failed\t... and %d more\t\n", extra)
	}

	return tw.Flush()
}

func percent(n, of int) string {
	if of == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(n)*100/float64(of))
}
