package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/marcus/notedeck/internal/app"
	"github.com/marcus/notedeck/internal/note"
)

const (
	createdText     = "Note created!"
	createErrorText = "Oops, something went wrong while creating the note."
)

func newCreateCmd(opts *rootOptions) *cobra.Command {
	var (
		title   string
		content string
		tag     string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:           "create",
		Short:         "Create a note",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := note.Values{Title: title, Content: content, Tag: parseTagFlag(tag)}

			// Nothing is sent unless every field is valid.
			if err := note.Validate(v); err != nil {
				printValidation(cmd, err)
				return errReported
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := opts.cliLogger(cmd.ErrOrStderr())
			client, err := app.NewAPI(cfg, logger)
			if err != nil {
				return fmt.Errorf("api client: %w", err)
			}

			n, err := client.CreateNote(cmd.Context(), v)
			if err != nil {
				logger.Error("create note failed", "err", err)
				fmt.Fprintln(cmd.ErrOrStderr(), createErrorText)
				return errReported
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(n)
			}
			fmt.Fprintln(out, createdText)
			fmt.Fprintf(out, "%s  %s  %s\n", n.ID, n.Tag, n.Title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "note title (3-50 characters)")
	cmd.Flags().StringVarP(&content, "content", "c", "", "note content, markdown (up to 500 characters)")
	cmd.Flags().StringVar(&tag, "tag", string(note.DefaultTag), "category: Todo, Work, Personal, Meeting or Shopping")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the created note as JSON")
	return cmd
}

// parseTagFlag accepts any letter case for known categories and passes
// everything else through so validation can name the problem.
func parseTagFlag(s string) note.Tag {
	if t := note.ParseCategory(s); t != "" {
		return t
	}
	return note.Tag(s)
}

func printValidation(cmd *cobra.Command, err error) {
	w := cmd.ErrOrStderr()
	var verrs note.ValidationErrors
	if !errors.As(err, &verrs) {
		fmt.Fprintln(w, err)
		return
	}
	fields := make([]string, 0, len(verrs))
	for f := range verrs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(w, "%s: %s\n", f, verrs[f])
	}
}
