// Package cli provides terminal I/O, output formatting, and meta-command
// dispatch for driving the agent without the full-screen panel.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/nathoo/craftmind/agent"
)

// CLI handles terminal interaction with the operator.
type CLI struct {
	Agent     *agent.Agent
	In        io.Reader
	Out       io.Writer
	Trace     bool
	EchoInput bool // echo each input line after the prompt (for script playback)
}

// New creates a CLI wired to the given agent.
func New(a *agent.Agent) *CLI {
	return &CLI{
		Agent: a,
		In:    os.Stdin,
		Out:   os.Stdout,
	}
}

// Run starts the control loop: prompt, input, dispatch, output. Free
// text is relayed as in-game chat; meta-commands start with '/'.
func (c *CLI) Run(ctx context.Context) {
	task := c.Agent.Task()
	c.printSystem(fmt.Sprintf("session %s", c.Agent.Session()))
	c.printSystem(fmt.Sprintf("task: %s", task.Key))
	c.printLine("Type /help for commands. Free text is said in game chat.")

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			return
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		if strings.HasPrefix(input, "/") {
			if c.handleMeta(ctx, input) {
				return // /quit
			}
			continue
		}

		c.say(ctx, input)
	}
}

// handleMeta dispatches meta-commands. Returns true if the loop should exit.
func (c *CLI) handleMeta(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		if err := c.Agent.FlushStores(); err != nil {
			c.printSystem(fmt.Sprintf("flush failed: %v", err))
		}
		c.printSystem("Goodbye.")
		return true

	case "/help":
		c.cmdHelp()

	case "/step":
		c.cmdRun(ctx, 1)

	case "/run":
		n := 10
		if arg != "" {
			parsed, err := strconv.Atoi(arg)
			if err != nil || parsed <= 0 {
				c.printSystem(fmt.Sprintf("invalid step count %q", arg))
				return false
			}
			n = parsed
		}
		c.cmdRun(ctx, n)

	case "/task":
		c.cmdTask(arg)

	case "/tasks":
		c.cmdTasks()

	case "/stats":
		c.cmdStats()

	case "/memory":
		c.cmdMemory()

	case "/flush":
		if err := c.Agent.FlushStores(); err != nil {
			c.printSystem(fmt.Sprintf("flush failed: %v", err))
		} else {
			c.printSystem("stores flushed.")
		}

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdRun(ctx context.Context, n int) {
	for i := 0; i < n; i++ {
		result, err := c.Agent.Step(ctx)
		if err != nil {
			c.printSystem(fmt.Sprintf("step failed: %v", err))
			return
		}
		for _, line := range result.Lines {
			c.printLine(line)
		}
		if c.Trace {
			for _, act := range result.Executed {
				c.printSystem(fmt.Sprintf("[trace] executed %s", act.Kind()))
			}
		}
		if result.Failed {
			c.printSystem("stopping run: action failed")
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (c *CLI) cmdTask(key string) {
	if key == "" {
		t := c.Agent.Task()
		c.printSystem(fmt.Sprintf("current task: %s (%s)", t.Key, t.Description))
		return
	}
	if err := c.Agent.SetTask(key); err != nil {
		c.printSystem(err.Error())
		return
	}
	c.printSystem(fmt.Sprintf("task set to %s", key))
}

func (c *CLI) cmdTasks() {
	current := c.Agent.Task().Key
	for _, t := range c.Agent.Pack().Tasks {
		marker := " "
		if t.Key == current {
			marker = "*"
		}
		c.printLine(fmt.Sprintf("%s %-20s %s", marker, t.Key, t.Title))
	}
}

func (c *CLI) cmdStats() {
	s := c.Agent.Stats()
	c.printSystem(fmt.Sprintf("Steps: %d", s.Steps))
	c.printSystem(fmt.Sprintf("API calls: %d", s.APICalls))
	c.printSystem(fmt.Sprintf("Cache hits: %d", s.CacheHits))
	c.printSystem(fmt.Sprintf("Predictions: %d", s.Predictions))
	c.printSystem(fmt.Sprintf("Failures: %d", s.Failures))
}

func (c *CLI) cmdMemory() {
	records := c.Agent.Memory().Recent(10)
	if len(records) == 0 {
		c.printSystem("no memories yet.")
		return
	}
	for _, r := range records {
		kind, _ := r.Action["type"].(string)
		c.printLine(fmt.Sprintf("%-18s %s", kind, r.Result))
	}
}

// say relays operator text as an in-game chat message.
func (c *CLI) say(ctx context.Context, text string) {
	result, err := c.Agent.Say(ctx, text)
	if err != nil {
		c.printSystem(fmt.Sprintf("say failed: %v", err))
		return
	}
	c.printLine(fmt.Sprintf("chat -> %s", result))
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /step         — Run one decision step",
		"  /run [n]      — Run n decision steps (default 10)",
		"  /task [key]   — Show or switch the current task",
		"  /tasks        — List available tasks",
		"  /stats        — Session counters",
		"  /memory       — Recent action history",
		"  /flush        — Write stores to disk",
		"  /trace        — Toggle trace output",
		"  /quit         — Flush stores and exit",
		"",
		"Anything else is said in game chat.",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
