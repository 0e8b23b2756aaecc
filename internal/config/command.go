package config

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
)

// Handlers are the actions behind each command.
type Handlers struct {
	TUI     func(ctx context.Context, cfg *Config) error
	Parse   func(ctx context.Context, cfg *Config, input string) error
	Export  func(ctx context.Context, cfg *Config, opts ExportOptions) error
	History func(ctx context.Context, cfg *Config, limit int) error
}

// ExportOptions are the export subcommand's own flags.
type ExportOptions struct {
	Format string
	Out    string
	Days   int
}

// NewCommand builds the root command. The returned Config is filled in by
// ParseAndRun before any handler runs.
func NewCommand(name string, h Handlers) (*ffcli.Command, *Config) {
	cfg := &Config{}
	opts := []ff.Option{ff.WithEnvVarPrefix(EnvPrefix)}

	rootFS := flag.NewFlagSet(name, flag.ContinueOnError)
	cfg.register(rootFS)

	// guard validates cfg once the root and the chosen subcommand have both
	// parsed. Shared flags may appear on either side of the subcommand.
	guard := func(fs *flag.FlagSet, next func() error) error {
		cfg.capture(rootFS)
		cfg.capture(fs)
		if err := cfg.Validate(); err != nil {
			return err
		}
		return next()
	}

	parseFS := flag.NewFlagSet(name+" parse", flag.ContinueOnError)
	cfg.register(parseFS)
	parseCmd := &ffcli.Command{
		Name:       "parse",
		ShortUsage: name + " parse [flags] <time>",
		ShortHelp:  "Show how a time input would be read",
		FlagSet:    parseFS,
		Options:    opts,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("parse: missing time input: %w", ErrInvalidFlag)
			}
			return guard(parseFS, func() error {
				return h.Parse(ctx, cfg, strings.Join(args, " "))
			})
		},
	}

	var export ExportOptions
	exportFS := flag.NewFlagSet(name+" export", flag.ContinueOnError)
	cfg.register(exportFS)
	exportFS.StringVar(&export.Format, "format", "csv", "csv or json")
	exportFS.StringVar(&export.Out, "out", "", "output file (default stdout)")
	exportFS.IntVar(&export.Days, "days", 0, "only runs from the last N days (0 = all)")
	exportCmd := &ffcli.Command{
		Name:       "export",
		ShortUsage: name + " export [flags]",
		ShortHelp:  "Export run history",
		FlagSet:    exportFS,
		Options:    opts,
		Exec: func(ctx context.Context, _ []string) error {
			return guard(exportFS, func() error {
				if export.Format != "csv" && export.Format != "json" {
					return fmt.Errorf("--format %q: %w", export.Format, ErrInvalidFlag)
				}
				if export.Days < 0 {
					return fmt.Errorf("--days %d: %w", export.Days, ErrInvalidFlag)
				}
				return h.Export(ctx, cfg, export)
			})
		},
	}

	var limit int
	historyFS := flag.NewFlagSet(name+" history", flag.ContinueOnError)
	cfg.register(historyFS)
	historyFS.IntVar(&limit, "n", 20, "number of runs to show")
	historyCmd := &ffcli.Command{
		Name:       "history",
		ShortUsage: name + " history [flags]",
		ShortHelp:  "Print recent runs",
		FlagSet:    historyFS,
		Options:    opts,
		Exec: func(ctx context.Context, _ []string) error {
			return guard(historyFS, func() error {
				if limit <= 0 {
					return fmt.Errorf("-n %d: %w", limit, ErrInvalidFlag)
				}
				return h.History(ctx, cfg, limit)
			})
		},
	}

	root := &ffcli.Command{
		Name:       name,
		ShortUsage: name + " [flags] [<subcommand>]",
		ShortHelp:  "A radial countdown timer for the terminal",
		LongHelp: "Type minutes (or a clock time in end mode) and press enter.\n\n" +
			"Modes:\n  ccw   wedge shrinks counter-clockwise\n  cw    wedge shrinks clockwise\n  end   count down to a clock time\n\n" +
			"Every flag can also be set as " + EnvPrefix + "_<FLAG>, e.g. " + EnvPrefix + "_MODE=end.",
		FlagSet:     rootFS,
		Options:     opts,
		Subcommands: []*ffcli.Command{parseCmd, exportCmd, historyCmd},
		Exec: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unknown command %q: %w", args[0], ErrInvalidFlag)
			}
			return guard(rootFS, func() error { return h.TUI(ctx, cfg) })
		},
	}
	return root, cfg
}
