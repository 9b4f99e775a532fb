package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// taskDisplayName derives a human-readable name from a task key.
// "gather_wood" -> "Gather Wood", "craft_stone_tools" -> "Craft Stone Tools".
func taskDisplayName(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// renderStatusBar produces a full-width inverted status line showing the
// current task, the bot's vitals from the last observed world state, and
// the session counters.
func (m Model) renderStatusBar() string {
	task := taskDisplayName(m.agent.Task().Key)

	vitals := "no world yet"
	if m.haveWorld {
		vitals = fmt.Sprintf("(%.0f,%.0f,%.0f) hp:%.0f food:%.0f",
			m.world.Position.X, m.world.Position.Y, m.world.Position.Z,
			m.world.Health, m.world.Food)
	}

	left := fmt.Sprintf(" %s | %s", task, vitals)
	if m.autoRun {
		left += " | auto"
	}

	s := m.agent.Stats()
	right := fmt.Sprintf("api:%d cache:%d pred:%d | step:%d ",
		s.APICalls, s.CacheHits, s.Predictions, s.Steps)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
