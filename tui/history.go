// Package tui provides a full-screen Bubble Tea control panel for
// watching and steering the agent.
package tui

// History keeps the operator's submitted lines so Up/Down can recall
// them, shell style. The cursor tracks where recall currently points.
type History struct {
	entries []string
	max     int
	cursor  int // -1 while typing fresh input, otherwise an index into entries
}

// NewHistory returns an empty history holding at most max lines.
func NewHistory(max int) *History {
	return &History{
		entries: make([]string, 0, max),
		max:     max,
		cursor:  -1,
	}
}

// Push records a submitted line. Repeating the previous line adds
// nothing, and the oldest line falls off once the buffer is full.
func (h *History) Push(cmd string) {
	if n := len(h.entries); n > 0 && h.entries[n-1] == cmd {
		return
	}
	h.entries = append(h.entries, cmd)
	if len(h.entries) > h.max {
		h.entries = h.entries[1:]
	}
}

// Prev steps toward older lines. At the oldest line it stays put;
// with nothing recorded it reports false.
func (h *History) Prev() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	switch {
	case h.cursor == -1:
		h.cursor = len(h.entries) - 1
	case h.cursor > 0:
		h.cursor--
	}
	return h.entries[h.cursor], true
}

// Next steps back toward newer lines. Past the newest line it reports
// false and the caller gets its fresh input back.
func (h *History) Next() (string, bool) {
	if h.cursor == -1 {
		return "", false
	}
	h.cursor++
	if h.cursor >= len(h.entries) {
		h.cursor = -1
		return "", false
	}
	return h.entries[h.cursor], true
}

// ResetCursor leaves recall mode, so the next Prev starts from the
// newest line again.
func (h *History) ResetCursor() {
	h.cursor = -1
}
