package schema

import (
	"github.com/nathoo/craftmind/types"
)

// Encode returns the wire form of an action: the JSON object shape the
// bot runtime's /bot/action endpoint consumes, with a "type"
// discriminator. Unset optional fields are omitted.
func Encode(a types.Action) map[string]any {
	m := map[string]any{"type": string(a.Kind())}

	switch v := a.(type) {
	case types.MoveTo:
		m["x"], m["y"], m["z"] = v.X, v.Y, v.Z
	case types.Collect:
		m["blockType"] = v.BlockType
		if v.Count > 0 {
			m["count"] = v.Count
		}
		if v.Radius > 0 {
			m["radius"] = v.Radius
		}
	case types.PlaceBlock:
		m["itemName"] = v.ItemName
		m["x"], m["y"], m["z"] = v.X, v.Y, v.Z
	case types.Dig:
		m["x"], m["y"], m["z"] = v.X, v.Y, v.Z
	case types.Attack:
		m["target"] = v.Target
	case types.JumpAttack:
		m["target"] = v.Target
	case types.LookAt:
		m["x"], m["y"], m["z"] = v.X, v.Y, v.Z
	case types.Equip:
		m["itemName"] = v.ItemName
		if v.Destination != "" {
			m["destination"] = v.Destination
		}
	case types.Unequip:
		if v.Destination != "" {
			m["destination"] = v.Destination
		}
	case types.UseHeldItem:
	case types.Craft:
		m["itemName"] = v.ItemName
		if v.Count > 0 {
			m["count"] = v.Count
		}
	case types.Chat:
		m["message"] = v.Message
	case types.SetControlState:
		m["control"] = v.Control
		m["state"] = v.State
	case types.ClearControlStates:
	case types.Wait:
		if v.Ticks > 0 {
			m["ticks"] = v.Ticks
		}
	}

	return m
}

// Decode turns a wire-form map back into a typed Action, re-running full
// validation. Persistence goes through here so corrupt or stale records
// can never smuggle an unvalidated action into the pipeline. Warnings
// are dropped.
func Decode(m map[string]any) (types.Action, error) {
	kind, _ := m["type"].(string)
	fields := make(map[string]any, len(m))
	for k, v := range m {
		if k != "type" {
			fields[k] = v
		}
	}
	a, _, err := Validate(types.Candidate{Kind: kind, Fields: fields})
	return a, err
}
