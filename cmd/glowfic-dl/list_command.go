package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"glowficdl/internal/archive"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <url>",
		Short: "Show the chapters a download would include",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			spec, err := archive.Discover(cmd.Context(), cfg, args[0], archive.Options{Logger: logger})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", archive.BookTitle(spec.Title))
			if len(spec.Chapters) == 0 {
				fmt.Fprintln(out, "No chapters found.")
				return nil
			}

			rows := make([][]string, 0, len(spec.Chapters))
			for i, ch := range spec.Chapters {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					ch.Stamp.UTC().Format("2006-01-02 15:04"),
					ch.URL,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Updated (UTC)", "Location"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "%d chapters, last updated %s\n", len(spec.Chapters), humanize.Time(spec.LastUpdate()))
			return nil
		},
	}
}
