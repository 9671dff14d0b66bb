package collins

import (
	"strings"

	"github.com/heartmarshall/dictimport/internal/domain"
)

// ParseLink reports whether content is a redirect entry and returns the
// trimmed remainder after the prefix as the target. The target may be empty.
func ParseLink(content string) (target string, ok bool) {
	content = strings.TrimLeft(content, "\ufeff \t\r\n")
	rest, found := strings.CutPrefix(content, domain.LinkPrefix)
	if !found {
		return "", false
	}
	return strings.TrimSpace(rest), true
}
