package predict

import (
	"math"
	"reflect"
	"testing"

	"github.com/nathoo/craftmind/types"
)

func baseState() types.WorldState {
	return types.WorldState{
		Position: types.Vec3{X: 100, Y: 64, Z: -20},
		Health:   20,
		Food:     18,
		Inventory: []types.ItemStack{
			{Name: "oak_log", Count: 12},
			{Name: "wooden_pickaxe", Count: 1},
		},
		NearbyBlocks: []types.Block{
			{Name: "dirt", Distance: 1.2},
			{Name: "oak_log", Distance: 2.5},
			{Name: "stone", Distance: 4.0},
		},
	}
}

func TestEncode(t *testing.T) {
	w := baseState()
	// Pad past the block cap, nearest first must win.
	w.NearbyBlocks = append(w.NearbyBlocks,
		types.Block{Name: "grass_block", Distance: 0.8},
		types.Block{Name: "gravel", Distance: 7.0},
		types.Block{Name: "sand", Distance: 9.0},
		types.Block{Name: "water", Distance: 11.0},
	)

	f := Encode(w)
	if f.Position != w.Position || f.Health != 20 || f.Food != 18 {
		t.Fatalf("scalar features wrong: %+v", f)
	}
	wantBlocks := []string{"grass_block", "dirt", "oak_log", "stone", "gravel"}
	if !reflect.DeepEqual(f.NearbyBlocks, wantBlocks) {
		t.Fatalf("blocks = %v, want %v", f.NearbyBlocks, wantBlocks)
	}
	wantInv := []string{"oak_log", "wooden_pickaxe"}
	if !reflect.DeepEqual(f.Inventory, wantInv) {
		t.Fatalf("inventory = %v, want %v", f.Inventory, wantInv)
	}
}

func TestSimilarityIdenticalStates(t *testing.T) {
	f := Encode(baseState())
	if s := similarity(f, f); math.Abs(s-1.0) > 1e-9 {
		t.Fatalf("identical states score %v, want 1.0", s)
	}
}

func TestPredictReplaysSuccess(t *testing.T) {
	p := New(0)
	f := Encode(baseState())
	p.Observe(f, types.Collect{BlockType: "oak_log"}, types.OutcomeSuccess, 1000)

	// Same spot, one step over.
	w := baseState()
	w.Position.X += 0.5
	act, score, ok := p.Predict(Encode(w))
	if !ok {
		t.Fatalf("no prediction, score %v", score)
	}
	if act != (types.Collect{BlockType: "oak_log"}) {
		t.Fatalf("predicted %#v", act)
	}
	if score < Threshold {
		t.Fatalf("score %v below threshold", score)
	}
}

func TestPredictIgnoresFailures(t *testing.T) {
	p := New(0)
	f := Encode(baseState())
	p.Observe(f, types.Attack{Target: "creeper"}, types.OutcomeFailure, 1000)
	p.Observe(f, types.Dig{X: 1, Y: 2, Z: 3}, types.OutcomeUnknown, 2000)

	if act, _, ok := p.Predict(f); ok {
		t.Fatalf("predicted %#v from non-success history", act)
	}
}

func TestPredictMissesOnDistantState(t *testing.T) {
	p := New(0)
	p.Observe(Encode(baseState()), types.Collect{BlockType: "oak_log"}, types.OutcomeSuccess, 1000)

	w := baseState()
	w.Position = types.Vec3{X: -500, Y: 12, Z: 800}
	w.Health = 4
	w.Food = 2
	w.Inventory = nil
	w.NearbyBlocks = []types.Block{{Name: "deepslate", Distance: 1}}

	if act, score, ok := p.Predict(Encode(w)); ok {
		t.Fatalf("predicted %#v at score %v for unrelated state", act, score)
	}
}

func TestPredictTieBreaksToRecent(t *testing.T) {
	p := New(0)
	f := Encode(baseState())
	p.Observe(f, types.Collect{BlockType: "oak_log"}, types.OutcomeSuccess, 1000)
	p.Observe(f, types.Craft{ItemName: "stick"}, types.OutcomeSuccess, 2000)

	act, _, ok := p.Predict(f)
	if !ok {
		t.Fatal("no prediction")
	}
	if act != (types.Craft{ItemName: "stick"}) {
		t.Fatalf("tie broke to %#v, want the newer observation", act)
	}
}

func TestObserveEvictsOldest(t *testing.T) {
	p := New(3)
	f := Encode(baseState())
	for i := 0; i < 5; i++ {
		p.Observe(f, types.Wait{Ticks: i + 1}, types.OutcomeSuccess, int64(i))
	}
	if p.Len() != 3 {
		t.Fatalf("len = %d, want 3", p.Len())
	}
}

func TestSnapshotLoadRoundTrip(t *testing.T) {
	p := New(0)
	f := Encode(baseState())
	p.Observe(f, types.Collect{BlockType: "oak_log", Count: 3}, types.OutcomeSuccess, 1000)
	p.Observe(f, types.Chat{Message: "done"}, types.OutcomeFailure, 2000)

	data, err := p.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	loaded := New(0)
	if err := loaded.Load(data); err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("len = %d, want 2", loaded.Len())
	}
	act, _, ok := loaded.Predict(f)
	if !ok || act != (types.Collect{BlockType: "oak_log", Count: 3}) {
		t.Fatalf("loaded history predicts %#v, %v", act, ok)
	}
}

func TestEmptySnapshot(t *testing.T) {
	p := New(0)
	data, err := p.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]" {
		t.Fatalf("empty snapshot = %q", data)
	}
}
