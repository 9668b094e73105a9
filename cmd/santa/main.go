package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/kingrea/secret-santa/internal/config"
	"github.com/kingrea/secret-santa/internal/draw"
	"github.com/kingrea/secret-santa/internal/report"
	"github.com/kingrea/secret-santa/internal/tui"
)

func main() {
	args := os.Args[1:]
	command := ""
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch command {
	case "":
		runDraw(ctx, args)
	case "check":
		runCheck(args)
	case "init":
		runInit(args)
	default:
		die("unknown command %q (expected check or init)", command)
	}
}

func runDraw(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("santa", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultConfigFile, "path to the draw configuration")
	dryRun := fs.Bool("dry-run", false, "write emails to files instead of sending them")
	outDir := fs.String("out", "", "directory for dry-run emails (defaults to .santa/outbox)")
	yes := fs.Bool("yes", false, "send without asking for confirmation")
	seed := fs.Int64("seed", 0, "seed the random source for a reproducible draw")
	_ = fs.Parse(args)

	cfg := loadConfig(*configPath)
	var opts []draw.Option
	if *dryRun {
		dir := strings.TrimSpace(*outDir)
		if dir == "" {
			dir = filepath.Join(cfg.StateDir(), "outbox")
		}
		opts = append(opts, draw.WithDryRun(dir))
	}
	if *seed != 0 {
		opts = append(opts, draw.WithSeed(*seed))
	}
	runner, err := draw.New(cfg, opts...)
	if err != nil {
		if errors.Is(err, draw.ErrMissingPassword) {
			die("%v (set it in the environment or %s, or use -dry-run)", err, filepath.Join(cfg.BaseDir, ".env"))
		}
		die("start draw: %v", err)
	}
	defer runner.Close()

	prepared, err := runner.Prepare(ctx)
	if err != nil {
		runner.Close()
		die("generate draw: %v", err)
	}
	summary := report.Summary(prepared.Draw)

	if *yes || !isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Println(summary)
		fmt.Printf("Debug artifact: %s\n", prepared.DebugPath)
		rep, err := runner.Deliver(ctx, prepared, func(d draw.Delivery) {
			if d.Err != nil {
				fmt.Printf("✗ %s: %v\n", d.Name, d.Err)
				return
			}
			fmt.Printf("✓ %s\n", d.Name)
		})
		fmt.Printf("%d sent, %d failed\n", rep.Sent, len(rep.Failed))
		if err != nil {
			runner.Close()
			die("deliver: %v", err)
		}
		return
	}

	app := tui.New(ctx, summary, prepared.Recipients(), func(ctx context.Context, i int) error {
		return runner.Send(ctx, prepared.Messages[i])
	}, tui.WithDryRun(*dryRun), tui.WithLogbook(runner.Journal()))
	if _, err := tea.NewProgram(app).Run(); err != nil {
		runner.Close()
		die("run review screen: %v", err)
	}
	if app.Aborted() {
		runner.Journal().Warn("draw %s aborted after %d emails", prepared.Draw.ID, app.Sent())
		fmt.Println("Aborted.")
		return
	}
	failed := app.Failed()
	if err := runner.Complete(ctx, prepared, len(failed)); err != nil {
		runner.Close()
		die("archive draw: %v", err)
	}
	fmt.Printf("Debug artifact: %s\n", prepared.DebugPath)
	if len(failed) > 0 {
		runner.Close()
		die("delivery failed for %s", strings.Join(failed, ", "))
	}
}

func runCheck(args []string) {
	fs := flag.NewFlagSet("santa check", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultConfigFile, "path to the draw configuration")
	_ = fs.Parse(args)

	cfg := loadConfig(*configPath)
	infeasible := 0
	for _, round := range draw.Check(cfg) {
		status := "ok"
		if round.Candidates == 0 {
			status = "INFEASIBLE"
			infeasible++
		}
		fmt.Printf("Round %d: %d participants, %d valid pairings  %s\n", round.Round, round.Participants, round.Candidates, status)
	}
	if infeasible > 0 {
		die("%d rounds have no valid pairing", infeasible)
	}
}

func runInit(args []string) {
	fs := flag.NewFlagSet("santa init", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultConfigFile, "path to write the example configuration")
	_ = fs.Parse(args)

	if err := config.WriteExample(*configPath); err != nil {
		die("init: %v", err)
	}
	fmt.Printf("Wrote %s\n", *configPath)
}

func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		die("load config: %v", err)
	}
	return cfg
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
