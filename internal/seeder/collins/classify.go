package collins

import "strings"

// activation is a bit set of the parser states an opening element turns on.
type activation uint16

const (
	actHeadword activation = 1 << iota
	actPronUK
	actPronUS
	actSenseNum
	actPOS
	actStar
	actChineseGloss
	actFormBlock
	actOrth
	actSense
	actEnglishGloss
	actListItem
	actParagraph
	actChineseBlock
)

func (a activation) has(b activation) bool {
	return a&b != 0
}

// Class markers used by the dictionary export. Class attributes are
// space-joined lists, so all but the exact ones are substring matches.
const (
	classHeadword  = "word_key"
	classPron      = "pron"
	classPronUK    = "type_uk"
	classPronUS    = "type_us"
	classSenseNum  = "num"
	classPOS       = "st"
	classLevel     = "level"
	classRoundRed  = "roundRed"
	classDefCN     = "def_cn"
	classCNBefore  = "cn_before"
	classCNAfter   = "cn_after"
	classFormBlock = "form_inflected"
	classOrth      = "orth"
	classSense     = "collins_en_cn example"
	classCaption   = "caption"
	classHideCN    = "hide_cn"
)

// classify maps an opening element to the states it activates. It depends
// only on the tag name and class attribute; whether an activation takes
// effect (word forms need an enclosing form block, list items need an open
// sense) is decided by the parser.
func classify(tag, class string) activation {
	var a activation

	switch tag {
	case "span":
		switch {
		case strings.Contains(class, classHeadword):
			a |= actHeadword
		case strings.Contains(class, classPron) && strings.Contains(class, classPronUK):
			a |= actPronUK
		case strings.Contains(class, classPron) && strings.Contains(class, classPronUS):
			a |= actPronUS
		case class == classSenseNum:
			a |= actSenseNum
		case class == classPOS:
			a |= actPOS
		case strings.Contains(class, classLevel) && strings.Contains(class, classRoundRed):
			a |= actStar
		case strings.Contains(class, classDefCN) && strings.Contains(class, classCNBefore) &&
			!strings.Contains(class, classCNAfter):
			a |= actChineseGloss
		}
		if strings.Contains(class, classDefCN) {
			a |= actChineseBlock
		}
		if strings.Contains(class, classOrth) {
			a |= actOrth
		}
	case "a":
		if strings.Contains(class, classOrth) {
			a |= actOrth
		}
	case "div":
		switch {
		case strings.Contains(class, classFormBlock):
			a |= actFormBlock
		case strings.Contains(class, classSense):
			a |= actSense
		case strings.Contains(class, classCaption) && strings.Contains(class, classHideCN):
			a |= actEnglishGloss
		}
	case "li":
		a |= actListItem
	case "p":
		a |= actParagraph
	}

	return a
}

// voidElements never have a closing tag, so they must not stay on the stack.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}
