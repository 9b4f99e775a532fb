// Package memory keeps a short window of what the bot just did and how
// it went, so prompts can mention recent history without unbounded growth.
package memory

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/nathoo/craftmind/types"
)

// DefaultWindow bounds how many records are retained.
const DefaultWindow = 20

// Record is one executed action and its result. The action is kept in
// wire form for persistence and prompt formatting.
type Record struct {
	Action    map[string]any `json:"action"`
	Result    string         `json:"result"`
	Timestamp int64          `json:"timestamp"`
}

// Window is the bounded history. Safe for concurrent use.
type Window struct {
	mu      sync.Mutex
	cap     int
	records []Record
}

// New returns an empty window. A non-positive cap falls back to
// DefaultWindow.
func New(cap int) *Window {
	if cap <= 0 {
		cap = DefaultWindow
	}
	return &Window{cap: cap}
}

// Add appends a record, evicting the oldest when full.
func (w *Window) Add(r Record) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.records = append(w.records, r)
	if len(w.records) > w.cap {
		w.records = w.records[len(w.records)-w.cap:]
	}
}

// Len reports how many records are held.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.records)
}

// Recent returns up to n records, newest first.
func (w *Window) Recent(n int) []Record {
	w.mu.Lock()
	defer w.mu.Unlock()

	if n > len(w.records) {
		n = len(w.records)
	}
	out := make([]Record, 0, n)
	for i := len(w.records) - 1; i >= len(w.records)-n; i-- {
		out = append(out, w.records[i])
	}
	return out
}

// Relevant returns up to n records scored against a free-text query.
// An action kind named in the query scores 3; a matching itemName or
// blockType scores 2 each. Zero-score records are dropped; ties keep
// newer records first.
func (w *Window) Relevant(query string, n int) []Record {
	w.mu.Lock()
	defer w.mu.Unlock()

	q := strings.ToLower(query)
	type scored struct {
		r     Record
		score int
		idx   int
	}
	var hits []scored
	for i, r := range w.records {
		s := relevance(q, r)
		if s > 0 {
			hits = append(hits, scored{r: r, score: s, idx: i})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].idx > hits[j].idx
	})

	if n > len(hits) {
		n = len(hits)
	}
	out := make([]Record, 0, n)
	for _, h := range hits[:n] {
		out = append(out, h.r)
	}
	return out
}

func relevance(query string, r Record) int {
	score := 0
	if kind, ok := r.Action["type"].(string); ok && kind != "" {
		if strings.Contains(query, strings.ToLower(kind)) {
			score += 3
		}
	}
	for _, field := range [...]string{"itemName", "blockType"} {
		if v, ok := r.Action[field].(string); ok && v != "" {
			if strings.Contains(query, strings.ToLower(v)) {
				score += 2
			}
		}
	}
	return score
}

// snapshot is the persisted form.
type snapshot struct {
	Memories []Record `json:"memories"`
}

// Snapshot serializes the window as JSON.
func (w *Window) Snapshot() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return json.Marshal(snapshot{Memories: w.records})
}

// Load replaces the window contents from a Snapshot, keeping the newest
// records when the data exceeds the cap.
func (w *Window) Load(data []byte) error {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(s.Memories) > w.cap {
		s.Memories = s.Memories[len(s.Memories)-w.cap:]
	}
	w.records = s.Memories
	return nil
}

// FromAction builds a record from a typed action's wire form.
func FromAction(action map[string]any, result types.Outcome, timestamp int64) Record {
	return Record{Action: action, Result: string(result), Timestamp: timestamp}
}
