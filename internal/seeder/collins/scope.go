package collins

// frame is one open element: tag name, raw class attribute and the stack
// depth it was pushed at.
type frame struct {
	tag   string
	class string
	depth int
}

// scopeStack tracks open elements. Depth is the only reliable way to tell
// apart nested elements that share a tag name or a class substring.
type scopeStack struct {
	frames []frame
}

// push records a frame and returns the new depth.
func (s *scopeStack) push(tag, class string) int {
	d := len(s.frames) + 1
	s.frames = append(s.frames, frame{tag: tag, class: class, depth: d})
	return d
}

// pop removes the top frame whatever its tag and returns the depth it held.
// matched reports whether the top frame had the given tag name. Popping an
// empty stack is a no-op that returns depth 0.
func (s *scopeStack) pop(tag string) (depth int, matched bool) {
	n := len(s.frames)
	if n == 0 {
		return 0, false
	}
	top := s.frames[n-1]
	s.frames = s.frames[:n-1]
	return top.depth, top.tag == tag
}

// depth returns the number of open frames.
func (s *scopeStack) depth() int {
	return len(s.frames)
}

// top returns the innermost open frame.
func (s *scopeStack) top() (frame, bool) {
	if len(s.frames) == 0 {
		return frame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

func (s *scopeStack) reset() {
	s.frames = s.frames[:0]
}
