package resolve

import (
	"reflect"
	"testing"

	"github.com/nathoo/craftmind/types"
)

func TestResolveStructured(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want types.Action
	}{
		{
			name: "type discriminator",
			raw:  `{"type": "moveTo", "x": 10, "y": 64, "z": -3}`,
			want: types.MoveTo{X: 10, Y: 64, Z: -3},
		},
		{
			name: "kind discriminator",
			raw:  `{"kind": "wait", "ticks": 40}`,
			want: types.Wait{Ticks: 40},
		},
		{
			name: "fenced object",
			raw:  "```json\n{\"type\": \"attack\", \"target\": \"zombie\"}\n```",
			want: types.Attack{Target: "zombie"},
		},
		{
			name: "object with trailing prose",
			raw:  "{\"type\": \"craft\", \"itemName\": \"stick\", \"count\": 4}\nThis will give us sticks for tools.",
			want: types.Craft{ItemName: "stick", Count: 4},
		},
		{
			name: "escaped quote inside message",
			raw:  `{"type":"chat","message":"say \"hi\" to them"}`,
			want: types.Chat{Message: `say "hi" to them`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Resolve(tt.raw)
			if got != tt.want {
				t.Fatalf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestResolveFunctionCall(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want types.Action
	}{
		{
			name: "float coordinates",
			raw:  `moveTo(x=1.5, y=64.0, z=-3.25)`,
			want: types.MoveTo{X: 1.5, Y: 64, Z: -3.25},
		},
		{
			name: "integer argument",
			raw:  `wait(ticks=40)`,
			want: types.Wait{Ticks: 40},
		},
		{
			name: "boolean argument",
			raw:  `setControlState(control=forward, state=true)`,
			want: types.SetControlState{Control: "forward", State: true},
		},
		{
			name: "python-cased boolean",
			raw:  `setControlState(control=forward, state=True)`,
			want: types.SetControlState{Control: "forward", State: true},
		},
		{
			name: "uppercase boolean",
			raw:  `setControlState(control=sprint, state=FALSE)`,
			want: types.SetControlState{Control: "sprint", State: false},
		},
		{
			name: "quoted comma stays whole",
			raw:  `chat(message='hello, world')`,
			want: types.Chat{Message: "hello, world"},
		},
		{
			name: "double quoted value",
			raw:  `collect(blockType="oak_log", count=3)`,
			want: types.Collect{BlockType: "oak_log", Count: 3},
		},
		{
			name: "no arguments",
			raw:  `clearControlStates()`,
			want: types.ClearControlStates{},
		},
		{
			name: "space before paren",
			raw:  `equip (itemName=iron_sword)`,
			want: types.Equip{ItemName: "iron_sword"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Resolve(tt.raw)
			if got != tt.want {
				t.Fatalf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestResolveBareCommand(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want types.Action
	}{
		{
			name: "collect",
			raw:  `collect oak_log`,
			want: types.Collect{BlockType: "oak_log"},
		},
		{
			name: "attack",
			raw:  `attack zombie`,
			want: types.Attack{Target: "zombie"},
		},
		{
			name: "chat with spaces",
			raw:  `chat heading to the forest now`,
			want: types.Chat{Message: "heading to the forest now"},
		},
		{
			name: "chat quoted",
			raw:  `chat "on my way"`,
			want: types.Chat{Message: "on my way"},
		},
		{
			name: "craft",
			raw:  `craft wooden_pickaxe`,
			want: types.Craft{ItemName: "wooden_pickaxe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Resolve(tt.raw)
			if got != tt.want {
				t.Fatalf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestResolveFallback(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		want        types.Action
		wantWarning bool
	}{
		{
			name: "prose becomes chat",
			raw:  "I think we should explore the cave to the north.",
			want: types.Chat{Message: "I think we should explore the cave to the north."},
		},
		{
			name: "empty input",
			raw:  "   ",
			want: types.Chat{Message: "[unparseable response]"},
		},
		{
			name:        "bare placeBlock is ambiguous",
			raw:         "placeBlock dirt",
			want:        types.Chat{Message: "placeBlock dirt"},
			wantWarning: false,
		},
		{
			name:        "structured with missing field",
			raw:         `{"type": "moveTo", "x": 1}`,
			want:        types.Chat{Message: `{"type": "moveTo", "x": 1}`},
			wantWarning: true,
		},
		{
			name:        "unknown kind function call",
			raw:         `teleport(x=1, y=2, z=3)`,
			want:        types.Chat{Message: `teleport(x=1, y=2, z=3)`},
			wantWarning: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warnings := Resolve(tt.raw)
			if got != tt.want {
				t.Fatalf("got %#v, want %#v", got, tt.want)
			}
			if tt.wantWarning && len(warnings) == 0 {
				t.Fatalf("want a warning, got none")
			}
		})
	}
}

func TestResolveBatch(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []types.Action
	}{
		{
			name: "json array",
			raw:  `[{"type":"collect","blockType":"oak_log","count":3},{"type":"craft","itemName":"stick"}]`,
			want: []types.Action{
				types.Collect{BlockType: "oak_log", Count: 3},
				types.Craft{ItemName: "stick"},
			},
		},
		{
			name: "actions envelope",
			raw:  `{"actions":[{"type":"moveTo","x":0,"y":64,"z":0},{"type":"wait","ticks":20}]}`,
			want: []types.Action{
				types.MoveTo{Y: 64},
				types.Wait{Ticks: 20},
			},
		},
		{
			name: "action envelope",
			raw:  `{"action":{"type":"dig","x":1,"y":2,"z":3}}`,
			want: []types.Action{types.Dig{X: 1, Y: 2, Z: 3}},
		},
		{
			name: "embedded array in prose",
			raw:  "Here is my plan:\n[{\"type\":\"equip\",\"itemName\":\"torch\"},{\"type\":\"useHeldItem\"}]\nLet me know.",
			want: []types.Action{
				types.Equip{ItemName: "torch"},
				types.UseHeldItem{},
			},
		},
		{
			name: "fenced multiline array",
			raw:  "```json\n[\n  {\"type\": \"chat\", \"message\": \"starting\"},\n  {\"type\": \"moveTo\", \"x\": 5, \"y\": 64, \"z\": 5}\n]\n```",
			want: []types.Action{
				types.Chat{Message: "starting"},
				types.MoveTo{X: 5, Y: 64, Z: 5},
			},
		},
		{
			name: "single function call degrades to resolve",
			raw:  `attack(target=skeleton)`,
			want: []types.Action{types.Attack{Target: "skeleton"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := ResolveBatch(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestResolveBatchSkipsInvalidMembers(t *testing.T) {
	raw := `[{"type":"collect","blockType":"stone"},{"type":"teleport"},{"type":"wait"}]`
	got, warnings := ResolveBatch(raw)
	want := []types.Action{types.Collect{BlockType: "stone"}, types.Wait{}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
	if len(warnings) != 1 {
		t.Fatalf("want 1 warning, got %v", warnings)
	}
}

func TestResolveBatchAllInvalidDegrades(t *testing.T) {
	raw := `[{"type":"teleport"},{"type":"fly"}]`
	got, _ := ResolveBatch(raw)
	if len(got) != 1 {
		t.Fatalf("want 1 fallback action, got %#v", got)
	}
	if _, ok := got[0].(types.Chat); !ok {
		t.Fatalf("want chat fallback, got %#v", got[0])
	}
}
