// Package predict guesses the next action from past world states. When
// the bot stands in a situation close enough to one where an action
// already succeeded, that action repeats without a model call.
package predict

import (
	"encoding/json"
	"math"
	"sort"
	"sync"

	"github.com/nathoo/craftmind/agent/schema"
	"github.com/nathoo/craftmind/types"
)

// Threshold is the minimum similarity score for a prediction to fire.
const Threshold = 0.8

// DefaultCapacity bounds the observation history.
const DefaultCapacity = 100

// maxBlockFeatures caps how many nearby blocks enter the feature vector.
const maxBlockFeatures = 5

// Features is the reduced world-state encoding similarity is computed on.
type Features struct {
	Position     types.Vec3 `json:"position"`
	Health       float64    `json:"health"`
	Food         float64    `json:"food"`
	NearbyBlocks []string   `json:"nearby_blocks"`
	Inventory    []string   `json:"inventory"`
}

// observation is one (situation, action, outcome) record. The action is
// kept in wire form so the history file stays plain JSON.
type observation struct {
	Features  Features       `json:"state_features"`
	Action    map[string]any `json:"action"`
	Result    types.Outcome  `json:"result"`
	Timestamp int64          `json:"timestamp"`
}

// Predictor holds bounded observation history. Safe for concurrent use.
type Predictor struct {
	mu       sync.Mutex
	capacity int
	history  []observation
}

// New returns an empty predictor. A non-positive capacity falls back to
// DefaultCapacity.
func New(capacity int) *Predictor {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Predictor{capacity: capacity}
}

// Encode reduces a world state to the features similarity runs on: the
// position, vitals, the names of the nearest blocks, and the inventory
// item names.
func Encode(w types.WorldState) Features {
	blocks := make([]types.Block, len(w.NearbyBlocks))
	copy(blocks, w.NearbyBlocks)
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Distance < blocks[j].Distance })
	if len(blocks) > maxBlockFeatures {
		blocks = blocks[:maxBlockFeatures]
	}

	f := Features{
		Position: w.Position,
		Health:   w.Health,
		Food:     w.Food,
	}
	for _, b := range blocks {
		f.NearbyBlocks = append(f.NearbyBlocks, b.Name)
	}
	for _, item := range w.Inventory {
		f.Inventory = append(f.Inventory, item.Name)
	}
	return f
}

// Observe appends a record, evicting the oldest when full.
func (p *Predictor) Observe(f Features, action types.Action, result types.Outcome, timestamp int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.history = append(p.history, observation{
		Features:  f,
		Action:    schema.Encode(action),
		Result:    result,
		Timestamp: timestamp,
	})
	if len(p.history) > p.capacity {
		p.history = p.history[len(p.history)-p.capacity:]
	}
}

// Len reports how many observations are held.
func (p *Predictor) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.history)
}

// Predict returns the action from the most similar past success, its
// score, and whether the score reached the threshold. Only successful
// observations are candidates; ties go to the most recent one.
func (p *Predictor) Predict(current Features) (types.Action, float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var (
		best      map[string]any
		bestScore float64
		bestTime  int64
	)
	for _, o := range p.history {
		if o.Result != types.OutcomeSuccess {
			continue
		}
		s := similarity(current, o.Features)
		if s > bestScore || (s == bestScore && best != nil && o.Timestamp > bestTime) {
			best, bestScore, bestTime = o.Action, s, o.Timestamp
		}
	}
	if best == nil || bestScore < Threshold {
		return nil, bestScore, false
	}
	act, err := schema.Decode(best)
	if err != nil {
		// A record that no longer validates cannot be replayed.
		return nil, bestScore, false
	}
	return act, bestScore, true
}

// similarity scores two feature sets in [0,1]. Weights: position 0.3,
// health 0.1, food 0.1, nearby blocks 0.2, inventory 0.3.
func similarity(a, b Features) float64 {
	dx := a.Position.X - b.Position.X
	dy := a.Position.Y - b.Position.Y
	dz := a.Position.Z - b.Position.Z
	dist := math.Sqrt(dx*dx + dy*dy + dz*dz)

	s := 0.3 * (1 / (1 + dist))
	s += 0.1 * (1 - math.Abs(a.Health-b.Health)/20)
	s += 0.1 * (1 - math.Abs(a.Food-b.Food)/20)
	s += 0.2 * jaccard(a.NearbyBlocks, b.NearbyBlocks)
	s += 0.3 * jaccard(a.Inventory, b.Inventory)
	return s
}

// jaccard is |a∩b| / |a∪b| over name sets, 0 when both are empty.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	in := map[string]bool{}
	for _, s := range a {
		in[s] = true
	}
	union := make(map[string]bool, len(in))
	for s := range in {
		union[s] = true
	}
	shared := 0
	seen := map[string]bool{}
	for _, s := range b {
		union[s] = true
		if in[s] && !seen[s] {
			shared++
			seen[s] = true
		}
	}
	return float64(shared) / float64(len(union))
}

// Snapshot serializes the observation history as a JSON array.
func (p *Predictor) Snapshot() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.history == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p.history)
}

// Load replaces the history from a Snapshot, keeping at most capacity
// records (the newest ones).
func (p *Predictor) Load(data []byte) error {
	var history []observation
	if err := json.Unmarshal(data, &history); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(history) > p.capacity {
		history = history[len(history)-p.capacity:]
	}
	p.history = history
	return nil
}
