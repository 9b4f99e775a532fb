// Package agent wires the decision pipeline together: world state in,
// exactly one resolved action (or a short batch) out, with the
// call-avoidance layer deciding whether the language model is consulted
// at all.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nathoo/craftmind/agent/cache"
	"github.com/nathoo/craftmind/agent/learn"
	"github.com/nathoo/craftmind/agent/memory"
	"github.com/nathoo/craftmind/agent/predict"
	"github.com/nathoo/craftmind/agent/resolve"
	"github.com/nathoo/craftmind/agent/schema"
	"github.com/nathoo/craftmind/bot"
	"github.com/nathoo/craftmind/llm"
	"github.com/nathoo/craftmind/loader"
	"github.com/nathoo/craftmind/prompts"
	"github.com/nathoo/craftmind/types"
)

// pendingChatWindow is how fresh a player chat line must be to count as
// awaiting a reply. While one is pending, cached and predicted answers
// are suppressed so the reply comes from the live model.
const pendingChatWindow = 30 * time.Second

// recentForPrompt is how many memory records the user prompt mentions.
const recentForPrompt = 5

// Stats counts what the agent has done this session.
type Stats struct {
	Steps       int
	APICalls    int
	CacheHits   int
	Predictions int
	Failures    int
}

// StepResult reports one decision step for the control surfaces.
type StepResult struct {
	// Lines is display output, one event per line.
	Lines []string
	// Executed holds the actions that ran, in order.
	Executed []types.Action
	// Failed is true when an executed action reported a failure.
	Failed bool
	// Connected reports whether the bot runtime was reachable.
	Connected bool
	// World is the state observed at the start of the step. Zero when
	// the bot was not connected.
	World types.WorldState
}

func (r *StepResult) logf(format string, args ...any) {
	r.Lines = append(r.Lines, fmt.Sprintf(format, args...))
}

// Options configures a new agent.
type Options struct {
	LLM             *llm.Client
	Bot             *bot.Client
	Pack            *loader.Pack
	Log             *zap.Logger
	MemoryCapacity  int
	PredictCapacity int
	CacheTTL        time.Duration
	LearningEnabled bool
	// DataDir holds the persisted stores. Empty disables persistence.
	DataDir string
}

// Agent owns the decision loop state.
type Agent struct {
	session   string
	log       *zap.Logger
	llm       *llm.Client
	bot       *bot.Client
	pack      *loader.Pack
	cache     *cache.Cache
	predictor *predict.Predictor
	memory    *memory.Window
	learning  *learn.System
	learnOn   bool
	dataDir   string

	mu           sync.Mutex
	task         loader.Task
	stats        Stats
	lastChatSeen int64

	now func() time.Time
}

// New builds an agent. The pack's initial task is selected when set.
func New(opts Options) *Agent {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	pack := opts.Pack
	if pack == nil {
		pack = loader.Default()
	}

	a := &Agent{
		session:   uuid.NewString(),
		log:       log,
		llm:       opts.LLM,
		bot:       opts.Bot,
		pack:      pack,
		cache:     cache.New(opts.CacheTTL),
		predictor: predict.New(opts.PredictCapacity),
		memory:    memory.New(opts.MemoryCapacity),
		learning:  learn.New(),
		learnOn:   opts.LearningEnabled,
		dataDir:   opts.DataDir,
		now:       time.Now,
	}
	if initial := pack.Profile.InitialTask; initial != "" {
		if t, ok := pack.Task(initial); ok {
			a.task = t
		}
	}
	return a
}

// Session returns the session identifier.
func (a *Agent) Session() string { return a.session }

// Pack returns the loaded task pack.
func (a *Agent) Pack() *loader.Pack { return a.pack }

// Task returns the current task.
func (a *Agent) Task() loader.Task {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.task
}

// SetTask switches the current task by key.
func (a *Agent) SetTask(key string) error {
	t, ok := a.pack.Task(key)
	if !ok {
		return fmt.Errorf("unknown task %q", key)
	}
	a.mu.Lock()
	a.task = t
	a.mu.Unlock()
	a.log.Info("task changed", zap.String("task", key))
	return nil
}

// Memory exposes the recent-action window for the control surfaces.
func (a *Agent) Memory() *memory.Window { return a.memory }

// Say sends operator text as an in-game chat message and returns the
// runtime's result.
func (a *Agent) Say(ctx context.Context, text string) (string, error) {
	return a.bot.Execute(ctx, types.Chat{Message: text})
}

// Stats returns a copy of the session counters.
func (a *Agent) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// ResolveAction runs raw model text through the normalize and grammar
// pipeline, always yielding exactly one action.
func (a *Agent) ResolveAction(raw string) (types.Action, []string) {
	return resolve.Resolve(raw)
}

// TryAvoidCall checks whether a model call can be skipped: first the
// similarity predictor, then the response cache keyed on the exact
// prompt. A pending player chat disables both, so replies always come
// from the live model. The returned string names the source
// ("prediction" or "cache") on a hit.
func (a *Agent) TryAvoidCall(world types.WorldState, prompt string, hasPendingChat bool) (types.Action, string, bool) {
	if hasPendingChat {
		return nil, "", false
	}

	if act, score, ok := a.predictor.Predict(predict.Encode(world)); ok {
		a.mu.Lock()
		a.stats.Predictions++
		a.mu.Unlock()
		a.log.Debug("predicted action",
			zap.String("kind", string(act.Kind())),
			zap.Float64("score", score))
		return act, "prediction", true
	}

	temperature, maxTokens := a.llm.SamplingParams()
	fp := cache.Fingerprint(prompt, temperature, maxTokens)
	if raw, ok := a.cache.Lookup(fp); ok {
		act, _ := resolve.Resolve(raw)
		a.mu.Lock()
		a.stats.CacheHits++
		a.mu.Unlock()
		a.log.Debug("cached response reused", zap.String("kind", string(act.Kind())))
		return act, "cache", true
	}

	return nil, "", false
}

// RecordObservation files an executed action's result with the memory
// window, the predictor, and the learning system.
func (a *Agent) RecordObservation(world types.WorldState, action types.Action, result string) {
	ts := a.now().UnixMilli()
	outcome := bot.OutcomeFromResult(result)

	a.memory.Add(memory.FromAction(schema.Encode(action), outcome, ts))
	a.predictor.Observe(predict.Encode(world), action, outcome, ts)
	if a.learnOn {
		a.learning.RecordOutcome(action.Kind(), learn.ContextOf(world), result, ts)
	}
}

// hasPendingChat reports whether the newest player chat line is recent
// enough to still deserve a reply.
func (a *Agent) hasPendingChat(w types.WorldState) bool {
	var newest int64
	for _, c := range w.RecentChats {
		if c.Timestamp > newest {
			newest = c.Timestamp
		}
	}
	if newest == 0 {
		return false
	}
	age := a.now().UnixMilli() - newest
	return age >= 0 && age < pendingChatWindow.Milliseconds()
}

// noteNewChats feeds unseen player chat lines to the learning system.
func (a *Agent) noteNewChats(w types.WorldState) {
	a.mu.Lock()
	seen := a.lastChatSeen
	a.mu.Unlock()

	newest := seen
	for _, c := range w.RecentChats {
		if c.Timestamp <= seen {
			continue
		}
		if c.Timestamp > newest {
			newest = c.Timestamp
		}
		if a.learnOn {
			a.learning.NoteGuidance(c.Username, c.Message, c.Timestamp)
		}
	}

	a.mu.Lock()
	a.lastChatSeen = newest
	a.mu.Unlock()
}

// systemPrompt prefers the pack profile's persona over the generated one.
func (a *Agent) systemPrompt(task loader.Task) string {
	if p := a.pack.Profile.SystemPrompt; p != "" {
		return p + "\n\n" + prompts.System(task.Description)
	}
	return prompts.System(task.Description)
}

// Step runs one decision cycle: poll the world, decide one action (or a
// short batch), execute, and record what happened.
func (a *Agent) Step(ctx context.Context) (*StepResult, error) {
	result := &StepResult{}
	task := a.Task()

	// 1. Poll the bot runtime.
	status, err := a.bot.Status(ctx)
	if err != nil {
		return nil, err
	}
	if !status.Connected {
		result.logf("bot not connected: %s", status.Message)
		return result, nil
	}
	world := status.State
	result.Connected = true
	result.World = world

	// 2. Note fresh player chat before deciding.
	a.noteNewChats(world)
	pendingChat := a.hasPendingChat(world)

	// 3. Build the prompts for this situation.
	var insights string
	if a.learnOn {
		insights = a.learning.PromptFragment(task.Description)
	}
	system := a.systemPrompt(task)
	user := prompts.User(world, task.Description, a.memory.Recent(recentForPrompt), insights)

	// 4. Try to skip the model call.
	var actions []types.Action
	var warnings []string
	if act, source, ok := a.TryAvoidCall(world, user, pendingChat); ok {
		result.logf("%s: %s", source, act.Kind())
		actions = []types.Action{act}
	} else {
		// 5. Ask the model.
		raw, err := a.llm.Chat(ctx, system, user)
		if err != nil {
			return nil, fmt.Errorf("model call: %w", err)
		}
		a.mu.Lock()
		a.stats.APICalls++
		a.mu.Unlock()

		// 6. Cache the raw response for identical future prompts.
		temperature, maxTokens := a.llm.SamplingParams()
		if a.cache.Store(cache.Fingerprint(user, temperature, maxTokens), raw) {
			if err := a.FlushStores(); err != nil {
				a.log.Warn("store flush failed", zap.Error(err))
			}
		}

		// 7. Resolve the response into actions.
		actions, warnings = resolve.ResolveBatch(raw)
	}
	for _, w := range warnings {
		result.logf("warn: %s", w)
		a.log.Debug("resolution warning", zap.String("warning", w))
	}

	// 8. Execute in order, stopping at the first failure.
	sequence := make([]map[string]any, 0, len(actions))
	for _, act := range actions {
		execResult, err := a.bot.Execute(ctx, act)
		if err != nil {
			return nil, fmt.Errorf("executing %s: %w", act.Kind(), err)
		}
		result.Executed = append(result.Executed, act)
		result.logf("%s -> %s", act.Kind(), execResult)
		sequence = append(sequence, schema.Encode(act))

		// 9. Record the observation against the pre-action world.
		a.RecordObservation(world, act, execResult)

		if bot.OutcomeFromResult(execResult) == types.OutcomeFailure {
			result.Failed = true
			break
		}
	}

	// 10. A multi-action plan is a strategy worth remembering whole.
	if a.learnOn && len(sequence) > 1 {
		overall := "success"
		if result.Failed {
			overall = "failure"
		}
		a.learning.RecordSequence(sequence, overall, a.now().UnixMilli())
	}

	// 11. Update counters.
	a.mu.Lock()
	a.stats.Steps++
	if result.Failed {
		a.stats.Failures++
	}
	a.mu.Unlock()

	return result, nil
}

// Run executes up to steps decision cycles with delay between them.
// After a failed step the pause grows by half to let the world settle.
// A zero steps count means run until the context ends.
func (a *Agent) Run(ctx context.Context, steps int, delay time.Duration) error {
	for i := 0; steps == 0 || i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := a.Step(ctx)
		if err != nil {
			a.log.Error("step failed", zap.Int("step", i+1), zap.Error(err))
			a.mu.Lock()
			a.stats.Failures++
			a.mu.Unlock()
		} else {
			for _, line := range result.Lines {
				a.log.Info(line, zap.Int("step", i+1))
			}
		}

		pause := delay
		if err != nil || (result != nil && result.Failed) {
			pause = delay + delay/2
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
	}
	return nil
}
