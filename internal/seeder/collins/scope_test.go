package collins

import "testing"

func TestScopeStack_PushPop(t *testing.T) {
	t.Parallel()

	var s scopeStack
	if d := s.push("div", "collins_en_cn example"); d != 1 {
		t.Fatalf("first push depth = %d, want 1", d)
	}
	if d := s.push("span", "num"); d != 2 {
		t.Fatalf("second push depth = %d, want 2", d)
	}
	if s.depth() != 2 {
		t.Fatalf("depth = %d, want 2", s.depth())
	}

	depth, matched := s.pop("span")
	if depth != 2 || !matched {
		t.Errorf("pop span = (%d, %v), want (2, true)", depth, matched)
	}
	depth, matched = s.pop("div")
	if depth != 1 || !matched {
		t.Errorf("pop div = (%d, %v), want (1, true)", depth, matched)
	}
	if s.depth() != 0 {
		t.Errorf("depth after pops = %d, want 0", s.depth())
	}
}

func TestScopeStack_PopMismatchedRemovesTop(t *testing.T) {
	t.Parallel()

	var s scopeStack
	s.push("div", "")
	s.push("span", "")

	depth, matched := s.pop("div")
	if depth != 2 {
		t.Errorf("depth = %d, want 2", depth)
	}
	if matched {
		t.Error("expected mismatch when closing div over an open span")
	}
	top, ok := s.top()
	if !ok || top.tag != "div" {
		t.Errorf("top = %+v, want div frame", top)
	}
}

func TestScopeStack_PopEmpty(t *testing.T) {
	t.Parallel()

	var s scopeStack
	depth, matched := s.pop("span")
	if depth != 0 || matched {
		t.Errorf("pop on empty = (%d, %v), want (0, false)", depth, matched)
	}
	if s.depth() != 0 {
		t.Errorf("depth = %d, want 0", s.depth())
	}
	if _, ok := s.top(); ok {
		t.Error("top on empty stack should report false")
	}
}

func TestScopeStack_FrameKeepsPushDepth(t *testing.T) {
	t.Parallel()

	var s scopeStack
	s.push("div", "form_inflected")
	s.push("span", "orth")
	top, _ := s.top()
	if top.depth != 2 || top.class != "orth" {
		t.Errorf("top = %+v, want depth 2 class orth", top)
	}
}
