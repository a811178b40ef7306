package main

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus/notedeck/internal/config"
	"github.com/marcus/notedeck/internal/note"
	"github.com/marcus/notedeck/internal/state"
)

// errReported means the command already printed why it failed.
var errReported = errors.New("reported")

type rootOptions struct {
	configPath string
	debug      bool
	logFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "notedeck [category]",
		Short: "Browse, search and create notes from the terminal",
		Long: `notedeck lists the notes of a remote notes API with debounced search,
category filters and pagination, and creates notes through a validated form.

The optional category (todo, work, personal, meeting, shopping or all)
selects the initial filter.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var segment string
			if len(args) == 1 {
				segment = args[0]
			}
			return runTUI(cmd.Context(), opts, segment)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config file (default ~/.config/notedeck/config.json)")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flags.StringVar(&opts.logFile, "log-file", "", "TUI log file (default ~/.config/notedeck/notedeck.log)")

	cmd.AddCommand(
		newListCmd(opts),
		newCreateCmd(opts),
		newVersionCmd(),
		newConfigCmd(opts),
	)
	return cmd
}

// configFile is the config path in effect, "~" expanded.
func (o *rootOptions) configFile() string {
	if o.configPath != "" {
		return config.ExpandPath(o.configPath)
	}
	return config.ConfigPath()
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	return config.LoadFrom(o.configFile())
}

func (o *rootOptions) level() slog.Level {
	if o.debug {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// cliLogger logs to w. One-shot commands only report warnings unless
// --debug is set.
func (o *rootOptions) cliLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: o.level()}))
}

// resolveCategory picks the initial filter: the command line segment, then
// the category used last time, then the configured default.
func resolveCategory(segment string, cfg *config.Config) note.Tag {
	if strings.TrimSpace(segment) != "" {
		return note.ParseCategory(segment)
	}
	if tag, ok := state.GetLastCategory(); ok {
		return tag
	}
	return note.ParseCategory(cfg.Plugins.Notes.DefaultCategory)
}
