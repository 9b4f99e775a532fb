package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nathoo/craftmind/agent"
	"github.com/nathoo/craftmind/bot"
	"github.com/nathoo/craftmind/llm"
	"github.com/nathoo/craftmind/types"
)

// fakeRuntime answers status and action requests for CLI testing.
type fakeRuntime struct {
	connected bool
	world     types.WorldState
	actions   []map[string]any
}

func (f *fakeRuntime) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bot/status":
			json.NewEncoder(w).Encode(map[string]any{
				"connected": f.connected,
				"message":   "offline",
				"state":     f.world,
			})
		case "/bot/action":
			var action map[string]any
			json.NewDecoder(r.Body).Decode(&action)
			f.actions = append(f.actions, action)
			state := f.world
			state.ActionResult = "success"
			json.NewEncoder(w).Encode(state)
		default:
			http.NotFound(w, r)
		}
	}
}

func modelHandler(reply string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": reply}},
			},
		})
	}
}

func newTestCLI(t *testing.T, runtime *fakeRuntime, reply, input string) (*CLI, *bytes.Buffer) {
	t.Helper()
	botSrv := httptest.NewServer(runtime.handler())
	t.Cleanup(botSrv.Close)
	llmSrv := httptest.NewServer(modelHandler(reply))
	t.Cleanup(llmSrv.Close)

	a := agent.New(agent.Options{
		LLM: llm.New(llm.Config{BaseURL: llmSrv.URL, Model: "test"}, zap.NewNop()),
		Bot: bot.New(botSrv.URL, time.Second, zap.NewNop()),
		Log: zap.NewNop(),
	})
	c := New(a)
	var out bytes.Buffer
	c.In = strings.NewReader(input)
	c.Out = &out
	return c, &out
}

func connectedRuntime() *fakeRuntime {
	return &fakeRuntime{
		connected: true,
		world: types.WorldState{
			Position:     types.Vec3{X: 1, Y: 64, Z: 1},
			Health:       20,
			Food:         20,
			NearbyBlocks: []types.Block{{Name: "oak_log", Distance: 3}},
		},
	}
}

func TestCLI_Banner(t *testing.T) {
	c, out := newTestCLI(t, connectedRuntime(), "unused", "/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "task: gather_wood") {
		t.Error("expected initial task in banner")
	}
	if !strings.Contains(output, "Goodbye.") {
		t.Error("expected quit message")
	}
}

func TestCLI_HelpCommand(t *testing.T) {
	c, out := newTestCLI(t, connectedRuntime(), "unused", "/help\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	for _, want := range []string{"/step", "/run", "/task", "/stats", "/memory", "/quit"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in help output", want)
		}
	}
}

func TestCLI_StepExecutesAction(t *testing.T) {
	runtime := connectedRuntime()
	c, out := newTestCLI(t, runtime, `{"type":"collect","blockType":"oak_log"}`, "/step\n/quit\n")
	c.Run(context.Background())

	if !strings.Contains(out.String(), "collect -> success") {
		t.Errorf("expected executed action in output, got:\n%s", out.String())
	}
	if len(runtime.actions) != 1 || runtime.actions[0]["type"] != "collect" {
		t.Fatalf("wire actions %+v", runtime.actions)
	}
}

func TestCLI_StepDisconnected(t *testing.T) {
	runtime := &fakeRuntime{connected: false}
	c, out := newTestCLI(t, runtime, "unused", "/step\n/quit\n")
	c.Run(context.Background())

	if !strings.Contains(out.String(), "bot not connected") {
		t.Error("expected disconnect notice")
	}
	if len(runtime.actions) != 0 {
		t.Fatalf("disconnected bot still acted: %+v", runtime.actions)
	}
}

func TestCLI_TaskShowAndSwitch(t *testing.T) {
	c, out := newTestCLI(t, connectedRuntime(), "unused",
		"/task\n/task build_shelter\n/task nope\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "current task: gather_wood") {
		t.Error("expected current task output")
	}
	if !strings.Contains(output, "task set to build_shelter") {
		t.Error("expected task switch confirmation")
	}
	if !strings.Contains(output, `unknown task "nope"`) {
		t.Error("expected unknown task error")
	}
}

func TestCLI_TasksListsPack(t *testing.T) {
	c, out := newTestCLI(t, connectedRuntime(), "unused", "/tasks\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "* gather_wood") {
		t.Error("expected current task marked in list")
	}
	if !strings.Contains(output, "build_shelter") {
		t.Error("expected other tasks listed")
	}
}

func TestCLI_StatsAfterStep(t *testing.T) {
	c, out := newTestCLI(t, connectedRuntime(), `{"type":"wait","ms":100}`,
		"/step\n/stats\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "Steps: 1") {
		t.Error("expected step counter")
	}
	if !strings.Contains(output, "API calls: 1") {
		t.Error("expected api call counter")
	}
}

func TestCLI_MemoryAfterStep(t *testing.T) {
	c, out := newTestCLI(t, connectedRuntime(), `{"type":"collect","blockType":"oak_log"}`,
		"/memory\n/step\n/memory\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "no memories yet.") {
		t.Error("expected empty memory notice before stepping")
	}
	if !strings.Contains(output, "collect") {
		t.Error("expected collect record after stepping")
	}
}

func TestCLI_FreeTextSaysInChat(t *testing.T) {
	runtime := connectedRuntime()
	c, out := newTestCLI(t, runtime, "unused", "hello there\n/quit\n")
	c.Run(context.Background())

	if !strings.Contains(out.String(), "chat -> success") {
		t.Errorf("expected chat result, got:\n%s", out.String())
	}
	if len(runtime.actions) != 1 || runtime.actions[0]["type"] != "chat" {
		t.Fatalf("wire actions %+v", runtime.actions)
	}
	if runtime.actions[0]["message"] != "hello there" {
		t.Fatalf("chat payload %+v", runtime.actions[0])
	}
}

func TestCLI_RunRejectsBadCount(t *testing.T) {
	c, out := newTestCLI(t, connectedRuntime(), "unused", "/run zero\n/quit\n")
	c.Run(context.Background())

	if !strings.Contains(out.String(), `invalid step count "zero"`) {
		t.Error("expected invalid count message")
	}
}

func TestCLI_UnknownMetaCommand(t *testing.T) {
	c, out := newTestCLI(t, connectedRuntime(), "unused", "/bogus\n/quit\n")
	c.Run(context.Background())

	if !strings.Contains(out.String(), "Unknown command") {
		t.Error("expected unknown command message")
	}
}

func TestCLI_TraceToggle(t *testing.T) {
	c, out := newTestCLI(t, connectedRuntime(), "unused", "/trace\n/trace\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "Trace output enabled") {
		t.Error("expected trace enabled message")
	}
	if !strings.Contains(output, "Trace output disabled") {
		t.Error("expected trace disabled message")
	}
}

func TestCLI_EmptyAndCommentLinesSkipped(t *testing.T) {
	runtime := connectedRuntime()
	c, _ := newTestCLI(t, runtime, "unused", "\n# a comment\n\n/quit\n")
	c.Run(context.Background())

	if len(runtime.actions) != 0 {
		t.Fatalf("blank or comment input reached the bot: %+v", runtime.actions)
	}
}
