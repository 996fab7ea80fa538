package cycle

import "github.com/BurntSushi/xgb/xproto"

type entry struct {
	window xproto.Window
	name   string
}

// State is the hotkey cycling registry. Windows listed by name in the
// preferred order come first, in that order; every other window follows in
// discovery order. The cursor is the window most recently cycled to or
// selected by the user.
type State struct {
	order   []string
	entries []entry

	current    xproto.Window
	hasCurrent bool
}

// New returns an empty registry using order as the preferred cycle order.
func New(order []string) *State {
	s := &State{}
	s.SetOrder(order)
	return s
}

// SetOrder replaces the preferred order. Tracked windows are kept.
func (s *State) SetOrder(order []string) {
	s.order = append([]string(nil), order...)
}

// Order returns a copy of the preferred order.
func (s *State) Order() []string {
	return append([]string(nil), s.order...)
}

// Len returns the number of tracked windows.
func (s *State) Len() int {
	return len(s.entries)
}

// AddWindow tracks window under name. Adding a window that is already tracked
// updates its name instead.
func (s *State) AddWindow(name string, window xproto.Window) {
	for i := range s.entries {
		if s.entries[i].window == window {
			s.entries[i].name = name
			return
		}
	}
	s.entries = append(s.entries, entry{window: window, name: name})
}

// RemoveWindow stops tracking window. When window is the cursor, the cursor
// moves to its predecessor so the next forward step lands on the window that
// followed it.
func (s *State) RemoveWindow(window xproto.Window) {
	idx := -1
	for i := range s.entries {
		if s.entries[i].window == window {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	if s.hasCurrent && s.current == window {
		order := s.traversal()
		pos := indexOf(order, window)
		if len(order) > 1 && pos >= 0 {
			prev := order[(pos-1+len(order))%len(order)]
			s.current = prev.window
		} else {
			s.hasCurrent = false
			s.current = 0
		}
	}

	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
}

// UpdateCharacter renames the entry for window in place. The cursor is kept.
func (s *State) UpdateCharacter(window xproto.Window, name string) {
	for i := range s.entries {
		if s.entries[i].window == window {
			s.entries[i].name = name
			return
		}
	}
}

// SetCurrent anchors the cursor at the first window tracked under name.
// It reports whether such a window exists.
func (s *State) SetCurrent(name string) bool {
	for _, e := range s.entries {
		if e.name == name {
			s.current = e.window
			s.hasCurrent = true
			return true
		}
	}
	return false
}

// SetCurrentWindow anchors the cursor at window if it is tracked.
func (s *State) SetCurrentWindow(window xproto.Window) bool {
	for _, e := range s.entries {
		if e.window == window {
			s.current = window
			s.hasCurrent = true
			return true
		}
	}
	return false
}

// Current returns the cursor window.
func (s *State) Current() (xproto.Window, bool) {
	return s.current, s.hasCurrent
}

// CycleForward advances the cursor and returns the new window and its name.
// ok is false only when nothing is tracked.
func (s *State) CycleForward() (xproto.Window, string, bool) {
	return s.step(1)
}

// CycleBackward moves the cursor back and returns the new window and its name.
// ok is false only when nothing is tracked.
func (s *State) CycleBackward() (xproto.Window, string, bool) {
	return s.step(-1)
}

func (s *State) step(dir int) (xproto.Window, string, bool) {
	order := s.traversal()
	n := len(order)
	if n == 0 {
		return 0, "", false
	}

	pos := -1
	if s.hasCurrent {
		pos = indexOf(order, s.current)
	}

	var next int
	switch {
	case pos < 0 && dir > 0:
		next = 0
	case pos < 0:
		next = n - 1
	default:
		next = ((pos+dir)%n + n) % n
	}

	e := order[next]
	s.current = e.window
	s.hasCurrent = true
	return e.window, e.name, true
}

// Windows returns the tracked windows in traversal order.
func (s *State) Windows() []xproto.Window {
	order := s.traversal()
	out := make([]xproto.Window, len(order))
	for i, e := range order {
		out[i] = e.window
	}
	return out
}

func (s *State) traversal() []entry {
	out := make([]entry, 0, len(s.entries))
	used := make(map[xproto.Window]bool, len(s.entries))
	listed := make(map[string]bool, len(s.order))

	for _, name := range s.order {
		if listed[name] {
			continue
		}
		listed[name] = true
		for _, e := range s.entries {
			if e.name == name && !used[e.window] {
				out = append(out, e)
				used[e.window] = true
			}
		}
	}
	for _, e := range s.entries {
		if !used[e.window] {
			out = append(out, e)
		}
	}
	return out
}

func indexOf(order []entry, window xproto.Window) int {
	for i, e := range order {
		if e.window == window {
			return i
		}
	}
	return -1
}
