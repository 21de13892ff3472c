package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"glowficdl/internal/archive"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "download <url>",
		Short: "Download a thread, board or board section as an EPUB",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, ctx, args[0])
		},
	}
}

func runDownload(cmd *cobra.Command, ctx *commandContext, location string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	opts := archive.Options{Logger: logger}
	if errOut := cmd.ErrOrStderr(); shouldColorize(errOut) {
		progress := newBarProgress(errOut)
		defer progress.End()
		opts.Progress = progress
	}

	result, err := archive.Run(cmd.Context(), cfg, location, opts)
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), result)
	return nil
}

func printSummary(out io.Writer, result *archive.Result) {
	images := strconv.Itoa(result.ImagesDownloaded)
	if result.ImagesFailed > 0 {
		images = fmt.Sprintf("%d (%d failed)", result.ImagesDownloaded, result.ImagesFailed)
	}
	chapters := strconv.Itoa(result.Chapters)
	if result.CachedChapters > 0 {
		chapters = fmt.Sprintf("%d (%d cached)", result.Chapters, result.CachedChapters)
	}
	updated := "never"
	if !result.LastUpdate.IsZero() {
		updated = result.LastUpdate.UTC().Format("2006-01-02 15:04 MST")
	}

	rows := [][]string{
		{"Title", result.Title},
		{"Chapters", chapters},
		{"Sections", strconv.Itoa(result.Sections)},
		{"Posts", strconv.Itoa(result.Posts)},
		{"Authors", strings.Join(result.Authors, ", ")},
		{"Images", images},
		{"Links", fmt.Sprintf("%d internal, %d made absolute", result.InternalLinks, result.ExternalLinks)},
		{"Last update", updated},
		{"Size", humanize.Bytes(uint64(result.Bytes))},
		{"Elapsed", result.Elapsed.Round(10 * time.Millisecond).String()},
	}
	fmt.Fprintln(out, renderTable([]string{"Book", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
	fmt.Fprintf(out, "Wrote %s\n", result.Path)
}
