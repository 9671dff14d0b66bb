// Package collins turns one entry of the bilingual Collins dictionary export
// into a domain.CollinsRecord.
//
// The export is loose HTML where class attributes, not tag names, carry the
// meaning. Parsing is a single pass over the tokenizer's open/close/text
// events. Every open element is pushed on a scope stack; each parser state
// remembers the depth it was activated at and is cleared only when the
// element at exactly that depth closes.
package collins

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/heartmarshall/dictimport/internal/domain"
)

const (
	// SnippetLen bounds the markup copied into a failed record.
	SnippetLen = 500

	pronSeparator = " / "
)

// formPattern accepts inflected forms made of letters, hyphens, apostrophes
// and spaces. Anything else inside a form block is a marker or a label.
var formPattern = regexp.MustCompile(`^[a-zA-Z\-' ]+$`)

var errNoElements = errors.New("no markup elements")

// state identifies one depth-bound parser state.
type state int

const (
	stHeadword state = iota
	stPronUK
	stPronUS
	stSenseNum
	stPOS
	stChineseGloss
	stFormBlock
	stFormText
	stSense
	stEnglishGloss
	stExampleItem
	stChineseBlock
	numStates
)

// Diagnostics counts what the parser saw and what it had to tolerate.
type Diagnostics struct {
	Elements         int
	TextRuns         int
	MaxDepth         int
	MismatchedCloses int // close tag name differed from the popped frame
	StrayCloses      int // close tag with nothing open
	UnclosedAtEOF    int // frames still open when input ended
	NestedSenses     int // sense block opened inside another one
}

// Add accumulates d into the receiver.
func (d *Diagnostics) Add(o Diagnostics) {
	d.Elements += o.Elements
	d.TextRuns += o.TextRuns
	d.MaxDepth = max(d.MaxDepth, o.MaxDepth)
	d.MismatchedCloses += o.MismatchedCloses
	d.StrayCloses += o.StrayCloses
	d.UnclosedAtEOF += o.UnclosedAtEOF
	d.NestedSenses += o.NestedSenses
}

// senseBuilder collects one definition while its block is open.
type senseBuilder struct {
	def domain.CollinsDefinition
	en  []string
}

// exampleBuilder collects one list item: the first paragraph is English,
// the following ones Chinese.
type exampleBuilder struct {
	paragraphs int
	en         []string
	cn         strings.Builder
}

// Parser holds the state of a single entry parse. A Parser may be reused:
// Parse resets it before every entry. It is not safe for concurrent use.
type Parser struct {
	stack  scopeStack
	owners [numStates]int // 0 = inactive, otherwise the owning depth

	headword strings.Builder
	pronUK   strings.Builder
	pronUS   strings.Builder

	rec     domain.CollinsRecord
	ukProns []string
	usProns []string
	stars   int

	sense   *senseBuilder
	example *exampleBuilder

	diag Diagnostics
}

// NewParser returns a ready Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses a single entry. The caller must have filtered out redirect
// entries (see ParseLink). Parse never fails: unusable input yields a record
// with Error set and the first SnippetLen runes of the markup in RawHTML.
func Parse(markup string) domain.CollinsRecord {
	rec, _ := NewParser().Parse(markup)
	return rec
}

// Parse resets the parser and parses markup.
func (p *Parser) Parse(markup string) (rec domain.CollinsRecord, diag Diagnostics) {
	p.reset()

	if strings.TrimSpace(markup) == "" {
		return failedRecord(markup, domain.ErrEmptyEntry), p.diag
	}

	defer func() {
		if r := recover(); r != nil {
			rec = failedRecord(markup, fmt.Errorf("parser panic: %v", r))
			diag = p.diag
		}
	}()

	if err := p.run(strings.NewReader(markup)); err != nil {
		return failedRecord(markup, err), p.diag
	}
	if p.diag.Elements == 0 {
		return failedRecord(markup, errNoElements), p.diag
	}

	return p.finish(), p.diag
}

func (p *Parser) reset() {
	p.stack.reset()
	p.owners = [numStates]int{}
	p.headword.Reset()
	p.pronUK.Reset()
	p.pronUS.Reset()
	p.rec = domain.CollinsRecord{}
	p.ukProns = nil
	p.usProns = nil
	p.stars = 0
	p.sense = nil
	p.example = nil
	p.diag = Diagnostics{}
}

// run feeds tokenizer events to the handlers in document order.
func (p *Parser) run(r io.Reader) error {
	z := html.NewTokenizer(r)
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return fmt.Errorf("tokenize: %w", err)
			}
			p.unwind()
			return nil

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			class := ""
			classSeen := false
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if !classSeen && string(key) == "class" {
					class = string(val)
					classSeen = true
				}
			}
			p.open(tag, class)
			if tt == html.SelfClosingTagToken || voidElements[tag] {
				p.close(tag)
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if voidElements[tag] {
				continue
			}
			p.close(tag)

		case html.TextToken:
			p.text(string(z.Text()))
		}
	}
}

func (p *Parser) active(s state) bool {
	return p.owners[s] != 0
}

// activate binds s to depth unless it is already active: an inner element
// of the same kind must not take ownership from the outer one.
func (p *Parser) activate(s state, depth int) bool {
	if p.owners[s] != 0 {
		return false
	}
	p.owners[s] = depth
	return true
}

func (p *Parser) open(tag, class string) {
	depth := p.stack.push(tag, class)
	p.diag.Elements++
	p.diag.MaxDepth = max(p.diag.MaxDepth, depth)

	a := classify(tag, class)
	if a == 0 {
		return
	}

	if a.has(actHeadword) && p.activate(stHeadword, depth) {
		p.headword.Reset()
	}
	if a.has(actPronUK) && p.activate(stPronUK, depth) {
		p.pronUK.Reset()
	}
	if a.has(actPronUS) && p.activate(stPronUS, depth) {
		p.pronUS.Reset()
	}
	if a.has(actSenseNum) {
		p.activate(stSenseNum, depth)
	}
	if a.has(actPOS) {
		p.activate(stPOS, depth)
	}
	if a.has(actStar) {
		p.stars++
	}
	if a.has(actChineseGloss) {
		p.activate(stChineseGloss, depth)
	}
	if a.has(actFormBlock) {
		p.activate(stFormBlock, depth)
	}
	if a.has(actOrth) && p.active(stFormBlock) {
		p.activate(stFormText, depth)
	}
	if a.has(actSense) {
		p.openSense(depth)
	}
	if a.has(actEnglishGloss) {
		p.activate(stEnglishGloss, depth)
	}
	if a.has(actListItem) && p.sense != nil && p.activate(stExampleItem, depth) {
		p.example = &exampleBuilder{}
	}
	if a.has(actChineseBlock) {
		p.activate(stChineseBlock, depth)
	}
	if a.has(actParagraph) && p.example != nil {
		p.example.paragraphs++
	}
}

// openSense starts a new definition. A sense block nested in another one
// closes the outer definition first.
func (p *Parser) openSense(depth int) {
	if p.sense != nil {
		p.diag.NestedSenses++
		p.closeExample()
		p.closeSense()
	}
	p.sense = &senseBuilder{}
	p.owners[stSense] = depth
}

func (p *Parser) close(tag string) {
	depth, matched := p.stack.pop(tag)
	if depth == 0 {
		p.diag.StrayCloses++
		return
	}
	if !matched {
		p.diag.MismatchedCloses++
	}
	p.release(depth)
}

// release clears every state owned by depth, innermost states first so an
// example item is stored before its sense is closed.
func (p *Parser) release(depth int) {
	for s := numStates - 1; s >= 0; s-- {
		if p.owners[s] != depth {
			continue
		}
		p.owners[s] = 0

		switch s {
		case stHeadword:
			if w := strings.Join(strings.Fields(p.headword.String()), " "); w != "" {
				p.rec.Word = w
			}
			p.headword.Reset()
		case stPronUK:
			p.ukProns = appendPron(p.ukProns, &p.pronUK)
		case stPronUS:
			p.usProns = appendPron(p.usProns, &p.pronUS)
		case stExampleItem:
			p.closeExample()
		case stSense:
			p.closeExample()
			p.closeSense()
		}
	}
}

// unwind closes frames still open at end of input.
func (p *Parser) unwind() {
	for p.stack.depth() > 0 {
		top, _ := p.stack.top()
		p.diag.UnclosedAtEOF++
		p.close(top.tag)
	}
}

func appendPron(list []string, buf *strings.Builder) []string {
	pron := strings.TrimSpace(buf.String())
	buf.Reset()
	if pron == "" {
		return list
	}
	return append(list, pron)
}

func (p *Parser) closeExample() {
	ex := p.example
	if ex == nil {
		return
	}
	p.example = nil
	p.owners[stExampleItem] = 0

	en := strings.Join(ex.en, " ")
	cn := strings.TrimSpace(ex.cn.String())
	if (en == "" && cn == "") || p.sense == nil {
		return
	}
	p.sense.def.Examples = append(p.sense.def.Examples, domain.CollinsExample{EN: en, CN: cn})
}

func (p *Parser) closeSense() {
	sb := p.sense
	if sb == nil {
		return
	}
	p.sense = nil
	p.owners[stSense] = 0

	sb.def.EN = strings.Join(sb.en, " ")
	if sb.def.EN == "" && sb.def.CN == "" {
		return
	}
	if sb.def.Examples == nil {
		sb.def.Examples = []domain.CollinsExample{}
	}
	if sb.def.Synonyms == nil {
		sb.def.Synonyms = []string{}
	}
	p.rec.Definitions = append(p.rec.Definitions, sb.def)
}

// text routes a text run to the first active accumulator.
func (p *Parser) text(raw string) {
	t := strings.TrimSpace(raw)
	if t == "" {
		// Spacing inside a pronunciation is significant.
		if !p.active(stHeadword) {
			switch {
			case p.active(stPronUK):
				p.pronUK.WriteString(raw)
			case p.active(stPronUS):
				p.pronUS.WriteString(raw)
			}
		}
		return
	}
	p.diag.TextRuns++

	switch {
	case p.active(stHeadword):
		p.headword.WriteString(raw)
	case p.active(stPronUK):
		p.pronUK.WriteString(raw)
	case p.active(stPronUS):
		p.pronUS.WriteString(raw)
	case p.active(stFormText):
		if formPattern.MatchString(t) {
			p.rec.Forms = append(p.rec.Forms, t)
		}
	case p.active(stSenseNum) && p.sense != nil:
		p.sense.def.Num = t
	case p.active(stPOS) && p.sense != nil:
		p.sense.def.POS = t
	case p.active(stChineseGloss) && p.sense != nil:
		p.sense.def.CN += t
	case p.example != nil:
		switch {
		case p.example.paragraphs == 1:
			p.example.en = append(p.example.en, t)
		case p.example.paragraphs >= 2:
			p.example.cn.WriteString(t)
		}
	case p.active(stEnglishGloss) && p.sense != nil &&
		!p.active(stSenseNum) && !p.active(stPOS) && !p.active(stChineseBlock):
		p.sense.en = append(p.sense.en, t)
	}
}

// finish builds the record once input is exhausted.
func (p *Parser) finish() domain.CollinsRecord {
	rec := p.rec
	rec.PhoneticUK = strings.Join(p.ukProns, pronSeparator)
	rec.PhoneticUS = strings.Join(p.usProns, pronSeparator)
	rec.Frequency = p.stars
	rec.Forms = dedupe(rec.Forms)
	if rec.Definitions == nil {
		rec.Definitions = []domain.CollinsDefinition{}
	}
	return rec
}

// dedupe drops repeated forms, keeping the first occurrence.
func dedupe(forms []string) []string {
	out := make([]string, 0, len(forms))
	seen := make(map[string]struct{}, len(forms))
	for _, f := range forms {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

func failedRecord(markup string, err error) domain.CollinsRecord {
	return domain.CollinsRecord{
		Forms:       []string{},
		Definitions: []domain.CollinsDefinition{},
		Error:       err.Error(),
		RawHTML:     Snippet(markup, SnippetLen),
	}
}

// Snippet returns at most n runes of s.
func Snippet(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
