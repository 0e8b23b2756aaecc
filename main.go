package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/sadopc/timerpie/internal/alarm"
	"github.com/sadopc/timerpie/internal/config"
	"github.com/sadopc/timerpie/internal/dial"
	"github.com/sadopc/timerpie/internal/export"
	"github.com/sadopc/timerpie/internal/logger"
	"github.com/sadopc/timerpie/internal/store"
	"github.com/sadopc/timerpie/internal/timer"
	"github.com/sadopc/timerpie/internal/tui"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	root, _ := config.NewCommand("timerpie", config.Handlers{
		TUI:     runTUI,
		Parse:   runParse,
		Export:  runExport,
		History: runHistory,
	})
	return root.ParseAndRun(context.Background(), os.Args[1:])
}

func openLogger(cfg *config.Config) (*logger.Logger, error) {
	if cfg.LogLevel() == logger.LevelOff {
		return logger.Nop(), nil
	}
	path, err := cfg.ResolveLogPath()
	if err != nil {
		return nil, fmt.Errorf("resolve log path: %w", err)
	}
	return logger.Open(path, cfg.LogLevel())
}

func openStore(cfg *config.Config) (*store.Store, error) {
	dbPath, err := cfg.ResolveDBPath()
	if err != nil {
		return nil, err
	}
	s, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return s, nil
}

func runTUI(ctx context.Context, cfg *config.Config) error {
	log, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	// Timer state is not persisted, so a run still open from a previous
	// session can never finish.
	if n, err := s.CancelDanglingRuns(); err != nil {
		log.Warn("main: cancel dangling runs: %v", err)
	} else if n > 0 {
		log.Info("main: cancelled %d run(s) left open by a previous session", n)
	}

	prefs, err := s.LoadPreferences()
	if err != nil {
		log.Warn("main: load preferences, using defaults: %v", err)
		prefs = store.DefaultPreferences()
	}
	prefs = cfg.Apply(prefs)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	clock := timer.Real()
	dog := timer.NewWatchdog(clock, log)
	go dog.Run(ctx)

	var sounder alarm.Sounder = alarm.Silent{}
	if p, err := alarm.NewPlayer(log); err != nil {
		log.Warn("main: audio unavailable, alarm is silent: %v", err)
	} else {
		sounder = p
	}
	bell := alarm.New(sounder, log)
	defer bell.Stop()

	app := tui.NewApp(tui.Deps{
		Ctx:       ctx,
		Store:     s,
		Log:       log,
		Clock:     clock,
		Watchdog:  dog,
		Alarm:     bell,
		Prefs:     prefs,
		Autostart: cfg.Autostart,
		Controls:  cfg.Controls,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	log.Info("main: starting (mode %s, display %s)", prefs.Mode, prefs.Display)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func runParse(_ context.Context, cfg *config.Config, input string) error {
	mode := dial.ModeCCW
	if cfg.IsSet("mode") {
		mode, _ = dial.ParseMode(cfg.Mode)
	} else if dial.SuggestsEnd(input) {
		mode = dial.ModeEnd
	}
	return printSpec(os.Stdout, input, mode, time.Now())
}

func printSpec(out io.Writer, input string, mode dial.Mode, now time.Time) error {
	spec, err := dial.Parse(input, mode, now, dial.MaxMinutes)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "input\t%q\n", input)
	fmt.Fprintf(tw, "mode\t%s\n", mode)
	fmt.Fprintf(tw, "duration\t%s (%.2f min)\n", dial.FormatRemaining(spec.Total), spec.Total)
	if spec.HasTarget {
		fmt.Fprintf(tw, "target\t:%02d\n", int(spec.Target))
	}
	fmt.Fprintf(tw, "ends\t%s\n", dial.EndClock(now, spec.Total))
	return tw.Flush()
}

func runExport(_ context.Context, cfg *config.Config, opts config.ExportOptions) error {
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	var f store.RunFilter
	if opts.Days > 0 {
		from := time.Now().AddDate(0, 0, -opts.Days)
		f.From = &from
	}
	runs, err := s.ListRuns(f)
	if err != nil {
		return err
	}

	switch {
	case opts.Out != "" && opts.Format == "json":
		err = export.ToJSON(runs, opts.Out)
	case opts.Out != "":
		err = export.ToCSV(runs, opts.Out)
	case opts.Format == "json":
		return export.WriteJSON(os.Stdout, runs, time.Now())
	default:
		return export.WriteCSV(os.Stdout, runs)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "exported %d run(s) to %s\n", len(runs), opts.Out)
	return nil
}

func runHistory(_ context.Context, cfg *config.Config, limit int) error {
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.ListRuns(store.RunFilter{Limit: limit})
	if err != nil {
		return err
	}
	return printHistory(os.Stdout, runs, time.Now())
}

func printHistory(out io.Writer, runs []store.Run, now time.Time) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, "no runs yet")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tMODE\tINPUT\tPLANNED\tRAN\tSTATUS")
	for _, r := range runs {
		status := string(r.Status)
		if r.ByWatchdog {
			status += " (watchdog)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			humanize.RelTime(r.StartedAt, now, "ago", "from now"),
			r.Mode,
			r.Input,
			dial.FormatRemaining(r.TotalMinutes),
			dial.FormatRemaining(r.Elapsed().Minutes()),
			status,
		)
	}
	return tw.Flush()
}
