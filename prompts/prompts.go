// Package prompts assembles the text sent to the language model: a
// system prompt describing the role and the command format, and a user
// prompt rendering the current world state.
package prompts

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nathoo/craftmind/agent/memory"
	"github.com/nathoo/craftmind/agent/schema"
	"github.com/nathoo/craftmind/types"
)

// maxEntityLines bounds the nearby-entities section.
const maxEntityLines = 5

// System returns the system prompt. The command catalogue is generated
// from the schema tables so prompt and validator cannot drift apart.
func System(task string) string {
	var b strings.Builder
	b.WriteString("# Minecraft assistant\n\n")
	b.WriteString("## Your role\n")
	b.WriteString("You are an assistant controlling a bot in a Minecraft world. You can observe\n")
	b.WriteString("the surroundings, move, gather resources, craft items, build, and talk to\n")
	b.WriteString("players. Work toward the current task within the rules of the game.\n\n")

	b.WriteString("## Current task\n")
	b.WriteString(task + "\n\n")

	b.WriteString("## Command format\n")
	b.WriteString("Answer with exactly one JSON object on a single line, with a \"type\" field\n")
	b.WriteString("naming the command. For a short plan you may instead answer with a JSON\n")
	b.WriteString("array of such objects (3 to 5 steps at most).\n\n")

	b.WriteString("Available commands:\n")
	for _, kind := range schema.Kinds() {
		required, _ := schema.RequiredFields(kind)
		if len(required) == 0 {
			fmt.Fprintf(&b, "- %s\n", kind)
			continue
		}
		fmt.Fprintf(&b, "- %s (%s)\n", kind, strings.Join(required, ", "))
	}
	b.WriteString("\nOptional fields: ticks (wait), count (collect, craft), radius (collect),\n")
	b.WriteString("destination (equip, unequip).\n\n")

	b.WriteString("## Chat\n")
	b.WriteString("Players may talk to you in game chat. When a player asks something, answer\n")
	b.WriteString("with a chat command before continuing the task.\n")
	return b.String()
}

// User renders the world state, recent history, and learned insights
// into the per-step user prompt.
func User(w types.WorldState, task string, recent []memory.Record, insights string) string {
	var b strings.Builder
	b.WriteString("## Current state\n")
	fmt.Fprintf(&b, "Position: x=%.1f, y=%.1f, z=%.1f\n", w.Position.X, w.Position.Y, w.Position.Z)
	fmt.Fprintf(&b, "Health: %.0f/20\n", w.Health)
	fmt.Fprintf(&b, "Food: %.0f/20\n\n", w.Food)

	b.WriteString("## Inventory\n")
	b.WriteString(FormatInventory(w.Inventory) + "\n\n")

	b.WriteString("## Nearby entities\n")
	b.WriteString(FormatEntities(w.NearbyEntities) + "\n\n")

	b.WriteString("## Nearby blocks\n")
	b.WriteString(FormatBlocks(w.NearbyBlocks) + "\n\n")

	b.WriteString("## Recent chat\n")
	b.WriteString(FormatChats(w.RecentChats) + "\n\n")

	if w.ActionResult != "" {
		b.WriteString("## Last action result\n")
		b.WriteString(w.ActionResult + "\n\n")
	}

	if len(recent) > 0 {
		b.WriteString("## Recent actions\n")
		for _, r := range recent {
			kind, _ := r.Action["type"].(string)
			fmt.Fprintf(&b, "- %s: %s\n", kind, r.Result)
		}
		b.WriteString("\n")
	}

	if insights != "" {
		b.WriteString(insights + "\n")
	}

	fmt.Fprintf(&b, "Task: %s\nDecide the next command and answer in the JSON command format.", task)
	return b.String()
}

// FormatInventory aggregates stacks by item name.
func FormatInventory(inv []types.ItemStack) string {
	if len(inv) == 0 {
		return "empty"
	}
	counts := map[string]int{}
	var order []string
	for _, item := range inv {
		if item.Name == "" || item.Count <= 0 {
			continue
		}
		if _, seen := counts[item.Name]; !seen {
			order = append(order, item.Name)
		}
		counts[item.Name] += item.Count
	}
	if len(order) == 0 {
		return "empty"
	}
	parts := make([]string, 0, len(order))
	for _, name := range order {
		parts = append(parts, fmt.Sprintf("%s(%d)", name, counts[name]))
	}
	return strings.Join(parts, ", ")
}

// FormatEntities lists up to five entities with type and distance.
func FormatEntities(entities []types.Entity) string {
	if len(entities) == 0 {
		return "none"
	}
	if len(entities) > maxEntityLines {
		entities = entities[:maxEntityLines]
	}
	parts := make([]string, 0, len(entities))
	for _, e := range entities {
		parts = append(parts, fmt.Sprintf("%s(%s, dist:%.1f)", e.Name, e.Kind, e.Distance))
	}
	return strings.Join(parts, ", ")
}

// FormatBlocks aggregates blocks by name, reporting the count and the
// nearest distance per name.
func FormatBlocks(blocks []types.Block) string {
	if len(blocks) == 0 {
		return "none"
	}
	type info struct {
		count   int
		nearest float64
	}
	byName := map[string]*info{}
	var order []string
	for _, b := range blocks {
		if b.Name == "" {
			continue
		}
		i, seen := byName[b.Name]
		if !seen {
			i = &info{nearest: b.Distance}
			byName[b.Name] = i
			order = append(order, b.Name)
		}
		i.count++
		if b.Distance < i.nearest {
			i.nearest = b.Distance
		}
	}
	if len(order) == 0 {
		return "none"
	}
	sort.Strings(order)
	parts := make([]string, 0, len(order))
	for _, name := range order {
		i := byName[name]
		parts = append(parts, fmt.Sprintf("%s(%d, nearest:%.1f)", name, i.count, i.nearest))
	}
	return strings.Join(parts, ", ")
}

// FormatChats renders chat lines with wall-clock times. Timestamps come
// from the bot runtime in milliseconds.
func FormatChats(chats []types.ChatMessage) string {
	if len(chats) == 0 {
		return "no recent chat"
	}
	lines := make([]string, 0, len(chats))
	for _, c := range chats {
		when := "unknown time"
		if c.Timestamp > 0 {
			when = time.UnixMilli(c.Timestamp).Format("15:04:05")
		}
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", when, c.Username, c.Message))
	}
	return strings.Join(lines, "\n")
}
