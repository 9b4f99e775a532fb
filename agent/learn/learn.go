// Package learn accumulates experience across sessions: per-action
// success statistics bucketed by situation, action sequences that worked
// or failed, and guidance picked up from player chat. The prompt builder
// folds all of it back into the model's context.
package learn

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/nathoo/craftmind/types"
)

// defaultRate is the assumed success rate for an action with no history.
const defaultRate = 0.5

// maxGuidance bounds the player-guidance list.
const maxGuidance = 20

// maxStrategies bounds each strategy list, newest kept.
const maxStrategies = 50

// maxContextBlocks caps how many nearby blocks describe a situation.
const maxContextBlocks = 5

// Context is the simplified situation an outcome is bucketed under.
type Context struct {
	NearbyBlocks []string `json:"nearby_blocks"`
	InventoryHas []string `json:"inventory_has"`
	Health       float64  `json:"health"`
	Food         float64  `json:"food"`
}

// ContextOf reduces a world state to its outcome-bucketing context.
func ContextOf(w types.WorldState) Context {
	c := Context{Health: w.Health, Food: w.Food}
	for i, b := range w.NearbyBlocks {
		if i == maxContextBlocks {
			break
		}
		c.NearbyBlocks = append(c.NearbyBlocks, b.Name)
	}
	for _, item := range w.Inventory {
		c.InventoryHas = append(c.InventoryHas, item.Name)
	}
	return c
}

// outcomeRecord is one observed result for an action in a context.
type outcomeRecord struct {
	Result    string `json:"result"`
	Success   bool   `json:"success"`
	Timestamp int64  `json:"timestamp"`
}

// Strategy is an action sequence and how it ended.
type Strategy struct {
	Sequence  []map[string]any `json:"sequence"`
	Result    string           `json:"result"`
	Timestamp int64            `json:"timestamp"`
}

// Guidance is a player chat line worth remembering.
type Guidance struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// System holds everything learned. Safe for concurrent use.
type System struct {
	mu         sync.Mutex
	outcomes   map[string][]outcomeRecord
	successful []Strategy
	failed     []Strategy
	guidance   []Guidance
}

// New returns an empty learning system.
func New() *System {
	return &System{outcomes: map[string][]outcomeRecord{}}
}

// contextKey buckets outcomes by kind and a digest of the context.
func contextKey(kind types.ActionKind, c Context) string {
	data, _ := json.Marshal(c)
	h := fnv.New64a()
	h.Write(data)
	return fmt.Sprintf("%s_%x", kind, h.Sum64())
}

// RecordOutcome files one executed action's result under its situation.
// Success is judged by the result text containing "success".
func (s *System) RecordOutcome(kind types.ActionKind, c Context, result string, timestamp int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := contextKey(kind, c)
	s.outcomes[key] = append(s.outcomes[key], outcomeRecord{
		Result:    result,
		Success:   strings.Contains(strings.ToLower(result), "success"),
		Timestamp: timestamp,
	})
}

// SuccessRate reports the overall success rate for an action kind,
// defaultRate when there is no history.
func (s *System) SuccessRate(kind types.ActionKind) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rateLocked(kind)
}

// SuccessRateIn reports the success rate for an action kind in a
// specific context, falling back to the kind-wide rate when that exact
// situation has never been seen.
func (s *System) SuccessRateIn(kind types.ActionKind, c Context) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, ok := s.outcomes[contextKey(kind, c)]
	if !ok || len(records) == 0 {
		return s.rateLocked(kind)
	}
	return rateOf(records)
}

func (s *System) rateLocked(kind types.ActionKind) float64 {
	prefix := string(kind) + "_"
	var all []outcomeRecord
	for key, records := range s.outcomes {
		if strings.HasPrefix(key, prefix) {
			all = append(all, records...)
		}
	}
	if len(all) == 0 {
		return defaultRate
	}
	return rateOf(all)
}

func rateOf(records []outcomeRecord) float64 {
	wins := 0
	for _, r := range records {
		if r.Success {
			wins++
		}
	}
	return float64(wins) / float64(len(records))
}

// RecordSequence files a whole action sequence as a successful or
// failed strategy, judged by the overall result text.
func (s *System) RecordSequence(sequence []map[string]any, result string, timestamp int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Strategy{Sequence: sequence, Result: result, Timestamp: timestamp}
	if strings.Contains(strings.ToLower(result), "success") {
		s.successful = appendStrategy(s.successful, st)
	} else {
		s.failed = appendStrategy(s.failed, st)
	}
}

func appendStrategy(list []Strategy, st Strategy) []Strategy {
	list = append(list, st)
	if len(list) > maxStrategies {
		list = list[len(list)-maxStrategies:]
	}
	return list
}

// SuccessfulStrategy returns the most recent successful sequence whose
// actions mention the task, and whether one exists.
func (s *System) SuccessfulStrategy(task string) (Strategy, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task = strings.ToLower(task)
	best := -1
	for i, st := range s.successful {
		if !strategyMentions(st, task) {
			continue
		}
		if best < 0 || st.Timestamp >= s.successful[best].Timestamp {
			best = i
		}
	}
	if best < 0 {
		return Strategy{}, false
	}
	return s.successful[best], true
}

func strategyMentions(st Strategy, task string) bool {
	for _, action := range st.Sequence {
		data, _ := json.Marshal(action)
		if strings.Contains(strings.ToLower(string(data)), task) {
			return true
		}
	}
	return false
}

// guidanceKeywords gates which chat lines are worth remembering.
var guidanceKeywords = []string{
	"collect", "craft", "build", "dig", "move", "go",
	"make", "use", "get", "place", "wood", "stone",
	"iron", "diamond", "food", "weapon", "tool",
}

// NoteGuidance remembers a player chat line when it carries an
// actionable keyword. Returns whether the line was kept.
func (s *System) NoteGuidance(username, message string, timestamp int64) bool {
	lower := strings.ToLower(message)
	keep := false
	for _, kw := range guidanceKeywords {
		if strings.Contains(lower, kw) {
			keep = true
			break
		}
	}
	if !keep {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.guidance = append(s.guidance, Guidance{Username: username, Message: message, Timestamp: timestamp})
	if len(s.guidance) > maxGuidance {
		s.guidance = s.guidance[len(s.guidance)-maxGuidance:]
	}
	return true
}

// RecentGuidance returns up to n remembered chat lines, newest first.
func (s *System) RecentGuidance(n int) []Guidance {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n > len(s.guidance) {
		n = len(s.guidance)
	}
	out := make([]Guidance, 0, n)
	for i := len(s.guidance) - 1; i >= len(s.guidance)-n; i-- {
		out = append(out, s.guidance[i])
	}
	return out
}

// promptRateKinds are the kinds whose success rates appear in the
// learning prompt fragment.
var promptRateKinds = []types.ActionKind{
	types.KindMoveTo, types.KindCollect, types.KindCraft,
	types.KindPlaceBlock, types.KindDig,
}

// PromptFragment renders learned experience as prompt text: recent
// player guidance, a known-good strategy for the task, and per-action
// success rates. Empty sections are omitted.
func (s *System) PromptFragment(task string) string {
	var b strings.Builder
	b.WriteString("Based on my learning and experience:\n")

	if guidance := s.RecentGuidance(3); len(guidance) > 0 {
		b.WriteString("\nPlayer guidance:\n")
		for _, g := range guidance {
			fmt.Fprintf(&b, "- %s: %s\n", g.Username, g.Message)
		}
	}

	if st, ok := s.SuccessfulStrategy(task); ok {
		fmt.Fprintf(&b, "\nA strategy that completed %q before:\n", task)
		for i, action := range st.Sequence {
			data, _ := json.Marshal(action)
			fmt.Fprintf(&b, "%d. %s\n", i+1, data)
		}
	}

	b.WriteString("\nAction success rates:\n")
	for _, kind := range promptRateKinds {
		fmt.Fprintf(&b, "- %s: %.1f%%\n", kind, s.SuccessRate(kind)*100)
	}
	return b.String()
}

// snapshot is the persisted learning file shape.
type snapshot struct {
	ActionOutcomes       map[string][]outcomeRecord `json:"action_outcomes"`
	SuccessfulStrategies []Strategy                 `json:"successful_strategies"`
	FailedStrategies     []Strategy                 `json:"failed_strategies"`
	TaskKnowledge        taskKnowledge              `json:"task_knowledge"`
}

type taskKnowledge struct {
	PlayerGuidance []Guidance `json:"player_guidance,omitempty"`
}

// Snapshot serializes everything learned as JSON.
func (s *System) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return json.Marshal(snapshot{
		ActionOutcomes:       s.outcomes,
		SuccessfulStrategies: s.successful,
		FailedStrategies:     s.failed,
		TaskKnowledge:        taskKnowledge{PlayerGuidance: s.guidance},
	})
}

// Load replaces the learned state from a Snapshot.
func (s *System) Load(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.outcomes = snap.ActionOutcomes
	if s.outcomes == nil {
		s.outcomes = map[string][]outcomeRecord{}
	}
	s.successful = snap.SuccessfulStrategies
	s.failed = snap.FailedStrategies
	s.guidance = snap.TaskKnowledge.PlayerGuidance
	if len(s.guidance) > maxGuidance {
		s.guidance = s.guidance[len(s.guidance)-maxGuidance:]
	}
	return nil
}
