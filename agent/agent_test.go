package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nathoo/craftmind/bot"
	"github.com/nathoo/craftmind/llm"
	"github.com/nathoo/craftmind/types"
)

// fakeRuntime is a scripted bot runtime: a fixed world state and a
// queue of action results.
type fakeRuntime struct {
	mu      sync.Mutex
	world   types.WorldState
	results []string
	actions []map[string]any
}

func (f *fakeRuntime) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.URL.Path {
		case "/bot/status":
			json.NewEncoder(w).Encode(map[string]any{
				"connected": true,
				"state":     f.world,
			})
		case "/bot/action":
			var action map[string]any
			json.NewDecoder(r.Body).Decode(&action)
			f.actions = append(f.actions, action)
			result := "success"
			if len(f.results) > 0 {
				result, f.results = f.results[0], f.results[1:]
			}
			state := f.world
			state.ActionResult = result
			json.NewEncoder(w).Encode(state)
		default:
			http.NotFound(w, r)
		}
	}
}

// fakeModel answers every completion with a fixed body and counts calls.
type fakeModel struct {
	mu    sync.Mutex
	reply string
	calls int
}

func (f *fakeModel) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls++
		reply := f.reply
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": reply}},
			},
		})
	}
}

func (f *fakeModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testWorld() types.WorldState {
	return types.WorldState{
		Position:     types.Vec3{X: 10, Y: 64, Z: -5},
		Health:       20,
		Food:         18,
		Inventory:    []types.ItemStack{{Name: "oak_log", Count: 4}},
		NearbyBlocks: []types.Block{{Name: "oak_log", Distance: 2}},
	}
}

func newTestAgent(t *testing.T, runtime *fakeRuntime, model *fakeModel) *Agent {
	t.Helper()
	botSrv := httptest.NewServer(runtime.handler())
	t.Cleanup(botSrv.Close)
	llmSrv := httptest.NewServer(model.handler())
	t.Cleanup(llmSrv.Close)

	return New(Options{
		LLM: llm.New(llm.Config{
			BaseURL:     llmSrv.URL,
			Model:       "test",
			Temperature: 0.7,
			MaxTokens:   500,
		}, zap.NewNop()),
		Bot:             bot.New(botSrv.URL, time.Second, zap.NewNop()),
		Log:             zap.NewNop(),
		LearningEnabled: true,
	})
}

func TestStepCallsModelAndExecutes(t *testing.T) {
	runtime := &fakeRuntime{world: testWorld()}
	model := &fakeModel{reply: `{"type":"collect","blockType":"oak_log","count":2}`}
	a := newTestAgent(t, runtime, model)

	result, err := a.Step(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Executed) != 1 {
		t.Fatalf("executed %+v", result.Executed)
	}
	if result.Executed[0] != (types.Collect{BlockType: "oak_log", Count: 2}) {
		t.Fatalf("action %#v", result.Executed[0])
	}
	if result.Failed {
		t.Fatal("step marked failed")
	}

	stats := a.Stats()
	if stats.Steps != 1 || stats.APICalls != 1 {
		t.Fatalf("stats %+v", stats)
	}
	if runtime.actions[0]["type"] != "collect" {
		t.Fatalf("wire action %+v", runtime.actions[0])
	}
}

func TestStepPredictsOnRepeatSituation(t *testing.T) {
	runtime := &fakeRuntime{world: testWorld()}
	model := &fakeModel{reply: `{"type":"collect","blockType":"oak_log"}`}
	a := newTestAgent(t, runtime, model)

	if _, err := a.Step(context.Background()); err != nil {
		t.Fatal(err)
	}
	// Identical world: the success observation from step one should
	// satisfy step two without a model call.
	if _, err := a.Step(context.Background()); err != nil {
		t.Fatal(err)
	}

	stats := a.Stats()
	if stats.APICalls != 1 {
		t.Fatalf("api calls = %d, want 1", stats.APICalls)
	}
	if stats.Predictions != 1 {
		t.Fatalf("predictions = %d, want 1", stats.Predictions)
	}
}

func TestStepExecutesBatchUntilFailure(t *testing.T) {
	runtime := &fakeRuntime{
		world:   testWorld(),
		results: []string{"success", "error: path blocked", "success"},
	}
	model := &fakeModel{reply: `[
		{"type":"moveTo","x":1,"y":64,"z":1},
		{"type":"collect","blockType":"oak_log"},
		{"type":"craft","itemName":"stick"}
	]`}
	a := newTestAgent(t, runtime, model)

	result, err := a.Step(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Executed) != 2 {
		t.Fatalf("executed %d actions, want 2 (stop at failure)", len(result.Executed))
	}
	if !result.Failed {
		t.Fatal("failure not reported")
	}
	if a.Stats().Failures != 1 {
		t.Fatalf("stats %+v", a.Stats())
	}
}

func TestStepBotDisconnected(t *testing.T) {
	botSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"connected": false, "message": "offline"})
	}))
	defer botSrv.Close()
	model := &fakeModel{reply: "unused"}
	llmSrv := httptest.NewServer(model.handler())
	defer llmSrv.Close()

	a := New(Options{
		LLM: llm.New(llm.Config{BaseURL: llmSrv.URL}, zap.NewNop()),
		Bot: bot.New(botSrv.URL, time.Second, zap.NewNop()),
		Log: zap.NewNop(),
	})

	result, err := a.Step(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Executed) != 0 || model.callCount() != 0 {
		t.Fatalf("disconnected bot still acted: %+v, %d calls", result, model.callCount())
	}
}

func TestTryAvoidCallPendingChatSuppresses(t *testing.T) {
	runtime := &fakeRuntime{world: testWorld()}
	model := &fakeModel{reply: "unused"}
	a := newTestAgent(t, runtime, model)

	world := testWorld()
	a.RecordObservation(world, types.Collect{BlockType: "oak_log"}, "success")

	if _, _, ok := a.TryAvoidCall(world, "prompt", true); ok {
		t.Fatal("pending chat must force a live model call")
	}
	act, source, ok := a.TryAvoidCall(world, "prompt", false)
	if !ok || source != "prediction" {
		t.Fatalf("want prediction hit, got %v %q", ok, source)
	}
	if act != (types.Collect{BlockType: "oak_log"}) {
		t.Fatalf("predicted %#v", act)
	}
}

func TestHasPendingChat(t *testing.T) {
	a := New(Options{Log: zap.NewNop()})
	now := time.Unix(1_700_000_000, 0)
	a.now = func() time.Time { return now }

	w := types.WorldState{RecentChats: []types.ChatMessage{
		{Username: "alex", Message: "hello", Timestamp: now.UnixMilli() - 10_000},
	}}
	if !a.hasPendingChat(w) {
		t.Fatal("10s old chat should be pending")
	}

	w.RecentChats[0].Timestamp = now.UnixMilli() - 31_000
	if a.hasPendingChat(w) {
		t.Fatal("31s old chat should not be pending")
	}
	if a.hasPendingChat(types.WorldState{}) {
		t.Fatal("no chat should not be pending")
	}
}

func TestSetTask(t *testing.T) {
	a := New(Options{Log: zap.NewNop()})
	if a.Task().Key != "gather_wood" {
		t.Fatalf("initial task %q", a.Task().Key)
	}
	if err := a.SetTask("build_shelter"); err != nil {
		t.Fatal(err)
	}
	if a.Task().Key != "build_shelter" {
		t.Fatalf("task %q", a.Task().Key)
	}
	if err := a.SetTask("no_such_task"); err == nil {
		t.Fatal("want error for unknown task")
	}
}

func TestResolveAction(t *testing.T) {
	a := New(Options{Log: zap.NewNop()})
	act, _ := a.ResolveAction("collect oak_log")
	if act != (types.Collect{BlockType: "oak_log"}) {
		t.Fatalf("resolved %#v", act)
	}
}

func TestFlushAndLoadStores(t *testing.T) {
	dir := t.TempDir()
	runtime := &fakeRuntime{world: testWorld()}
	model := &fakeModel{reply: "unused"}

	a := newTestAgent(t, runtime, model)
	a.dataDir = dir
	world := testWorld()
	a.RecordObservation(world, types.Collect{BlockType: "oak_log"}, "success")
	if err := a.FlushStores(); err != nil {
		t.Fatal(err)
	}

	b := newTestAgent(t, runtime, model)
	b.dataDir = dir
	if err := b.LoadStores(); err != nil {
		t.Fatal(err)
	}
	if _, source, ok := b.TryAvoidCall(world, "prompt", false); !ok || source != "prediction" {
		t.Fatalf("restored history did not predict: %v %q", ok, source)
	}
}
