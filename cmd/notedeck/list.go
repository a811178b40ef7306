package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/marcus/notedeck/internal/api"
	"github.com/marcus/notedeck/internal/app"
	"github.com/marcus/notedeck/internal/note"
	"github.com/marcus/notedeck/internal/query"
)

const excerptWidth = 60

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		search string
		page   int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list [category]",
		Short: "Print one page of notes",
		Long: `Print one page of notes. The category is matched case-insensitively;
"all" or an unknown name lists every category.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := opts.cliLogger(cmd.ErrOrStderr())

			var tag note.Tag
			if len(args) == 1 {
				tag = note.ParseCategory(args[0])
			} else {
				tag = note.ParseCategory(cfg.Plugins.Notes.DefaultCategory)
			}
			if page < 1 {
				page = 1
			}

			client, err := app.NewAPI(cfg, logger)
			if err != nil {
				return fmt.Errorf("api client: %w", err)
			}
			res, err := fetchPage(cmd.Context(), app.NewQuery(cfg, logger), client, query.NotesKey(search, page, tag))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			return printNotes(out, res, page, search, time.Now())
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "search text")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output in JSON format")
	return cmd
}

// fetchPage goes through the cache so the CLI retries the same way the TUI
// does.
func fetchPage(ctx context.Context, cache *query.Client[note.ListResult], client api.NotesAPI, key query.Key) (note.ListResult, error) {
	res, err := cache.Fetch(ctx, key, func(ctx context.Context) (note.ListResult, error) {
		return client.FetchNotes(ctx, key.Search, key.Page, key.Tag)
	})
	if err != nil {
		return note.ListResult{}, fmt.Errorf("list notes: %w", err)
	}
	return res, nil
}

func printNotes(w io.Writer, res note.ListResult, page int, search string, now time.Time) error {
	if len(res.Notes) == 0 {
		if search != "" {
			_, err := fmt.Fprintf(w, "No notes match %q.\n", search)
			return err
		}
		_, err := fmt.Fprintln(w, "No notes yet.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TAG\tTITLE\tCREATED\tCONTENT")
	for _, n := range res.Notes {
		created := ""
		if !n.CreatedAt.IsZero() {
			created = humanize.RelTime(n.CreatedAt, now, "ago", "from now")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", n.Tag, n.Title, created, note.Excerpt(n.Content, excerptWidth))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	total := max(res.TotalPages, 1)
	if total > 1 {
		_, err := fmt.Fprintf(w, "\npage %d of %d\n", page, total)
		return err
	}
	return nil
}
