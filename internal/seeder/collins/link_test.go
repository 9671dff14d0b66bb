package collins

import "testing"

func TestParseLink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		content    string
		wantTarget string
		wantOK     bool
	}{
		{name: "plain link", content: "@@@LINK=abandon", wantTarget: "abandon", wantOK: true},
		{name: "trailing newline", content: "@@@LINK=abandon\r\n", wantTarget: "abandon", wantOK: true},
		{name: "target with spaces", content: "@@@LINK= give up ", wantTarget: "give up", wantOK: true},
		{name: "leading bom", content: "\ufeff@@@LINK=run", wantTarget: "run", wantOK: true},
		{name: "whole remainder", content: "@@@LINK=run\nran", wantTarget: "run\nran", wantOK: true},
		{name: "empty target", content: "@@@LINK=", wantTarget: "", wantOK: true},
		{name: "blank target", content: "@@@LINK=  \r\n", wantTarget: "", wantOK: true},
		{name: "markup", content: `<span class="word_key">run</span>`, wantOK: false},
		{name: "prefix not at start", content: "see @@@LINK=run", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			target, ok := ParseLink(tt.content)
			if ok != tt.wantOK || target != tt.wantTarget {
				t.Errorf("ParseLink(%q) = (%q, %v), want (%q, %v)", tt.content, target, ok, tt.wantTarget, tt.wantOK)
			}
		})
	}
}
