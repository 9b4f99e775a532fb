// Craftmind drives a Minecraft bot with a language model, avoiding
// model calls where a cached response or a learned prediction will do.
// Usage: craftmind [--version] [--plain] [--headless] [--script <file>]
// [--config <file>] [--packs <dir>] [--task <key>] [--steps <n>]
// [--verbose]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nathoo/craftmind/agent"
	"github.com/nathoo/craftmind/bot"
	"github.com/nathoo/craftmind/cli"
	"github.com/nathoo/craftmind/config"
	"github.com/nathoo/craftmind/llm"
	"github.com/nathoo/craftmind/loader"
	"github.com/nathoo/craftmind/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const flushEvery = 5 * time.Minute

func main() {
	plain := false
	headless := false
	verbose := false
	var scriptFile string
	var configPath = "config.json"
	var packDir string
	var taskKey string
	steps := -1

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("craftmind %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--headless":
			headless = true
		case "--verbose":
			verbose = true
		case "--script":
			scriptFile = stringArg(args, &i)
		case "--config":
			configPath = stringArg(args, &i)
		case "--packs":
			packDir = stringArg(args, &i)
		case "--task":
			taskKey = stringArg(args, &i)
		case "--steps":
			v, err := strconv.Atoi(stringArg(args, &i))
			if err != nil || v < 0 {
				fmt.Fprintf(os.Stderr, "--steps requires a non-negative number\n")
				os.Exit(1)
			}
			steps = v
		default:
			fmt.Fprintf(os.Stderr, "Unknown flag %s\n", args[i])
			usage()
			os.Exit(1)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := buildLogger(headless || plain || scriptFile != "", verbose)
	defer log.Sync()

	// Load the task pack: Lua files from --packs (or the configured
	// packs dir), built-in otherwise.
	if packDir == "" {
		packDir = cfg.Data.PacksDir
	}
	pack := loader.Default()
	if packDir != "" {
		pack, err = loader.Load(packDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading task pack: %v\n", err)
			os.Exit(1)
		}
	}

	a := agent.New(agent.Options{
		LLM: llm.New(llm.Config{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout(),
		}, log),
		Bot:             bot.New(cfg.Server.URL(), cfg.LLM.Timeout(), log),
		Pack:            pack,
		Log:             log,
		MemoryCapacity:  cfg.AI.MemoryCapacity,
		PredictCapacity: cfg.AI.PredictionCapacity,
		CacheTTL:        cfg.AI.CacheTTL(),
		LearningEnabled: cfg.AI.LearningEnabled,
		DataDir:         cfg.Data.Dir,
	})
	if err := a.LoadStores(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading stores: %v\n", err)
		os.Exit(1)
	}

	if taskKey != "" {
		if err := a.SetTask(taskKey); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	} else if cfg.AI.InitialTask != "" {
		// The configured task may not exist in a custom pack. The
		// pack's own initial task stands in that case.
		if err := a.SetTask(cfg.AI.InitialTask); err != nil {
			log.Warn("configured task not in pack", zap.String("task", cfg.AI.InitialTask))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if steps < 0 {
		steps = cfg.AI.Steps
	}

	switch {
	case headless:
		if err := runHeadless(ctx, a, steps, cfg.AI.Delay(), log); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case scriptFile != "":
		f, err := os.Open(scriptFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening script: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		c := cli.New(a)
		c.In = f
		c.EchoInput = true
		c.Run(ctx)

	case plain || !isTerminal():
		cli.New(a).Run(ctx)

	default:
		if err := tui.Run(a, cfg.AI.Delay()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

// runHeadless executes the decision loop unattended, flushing the
// stores periodically and once more on the way out.
func runHeadless(ctx context.Context, a *agent.Agent, steps int, delay time.Duration, log *zap.Logger) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Run(ctx, steps, delay)
	})
	g.Go(func() error {
		ticker := time.NewTicker(flushEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := a.FlushStores(); err != nil {
					log.Warn("periodic flush failed", zap.Error(err))
				}
			}
		}
	})

	err := g.Wait()
	if flushErr := a.FlushStores(); flushErr != nil {
		log.Warn("final flush failed", zap.Error(flushErr))
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// buildLogger keeps the full-screen panel quiet unless asked otherwise.
// Terminal modes get console output on stderr in headless or verbose
// runs.
func buildLogger(terminalMode, verbose bool) *zap.Logger {
	if !terminalMode && !verbose {
		return zap.NewNop()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func stringArg(args []string, i *int) string {
	if *i+1 >= len(args) {
		fmt.Fprintf(os.Stderr, "%s requires a value\n", args[*i])
		os.Exit(1)
	}
	*i++
	return args[*i]
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: craftmind [--version] [--plain] [--headless] [--script <file>] [--config <file>] [--packs <dir>] [--task <key>] [--steps <n>] [--verbose]\n")
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
