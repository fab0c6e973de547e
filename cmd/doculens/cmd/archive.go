package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"slices"
	"syscall"

	"github.com/mfenderov/doculens/internal/storage"
	"github.com/spf13/cobra"
)

var (
	archivePrefix string
	archiveFile   string
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect archived ingestion runs",
}

var archiveShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show an archived run's manifest or one of its sections",
	Long: `Read back an ingestion run archived in S3/MinIO. Without --file the run's
manifest is printed and checked against the Markdown files under the prefix.
With --file the archived section is printed as stored.

Examples:
  # List the sections of a run (the prefix is printed by ingest)
  doculens archive show --prefix archives/python/2026-10-18T15-30-05-9f2c

  # Print one archived section
  doculens archive show --prefix archives/python/2026-10-18T15-30-05-9f2c --file 3f9a.md`,
	Args: cobra.NoArgs,
	RunE: runArchiveShow,
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.AddCommand(archiveShowCmd)

	archiveShowCmd.Flags().StringVar(&archivePrefix, "prefix", "", "Archive prefix of the run")
	archiveShowCmd.Flags().StringVar(&archiveFile, "file", "", "Print this section file instead of the manifest")
	archiveShowCmd.MarkFlagRequired("prefix")
}

func runArchiveShow(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	if cfg.Storage.Endpoint == "" {
		return fmt.Errorf("storage endpoint is not configured")
	}

	client, err := newArchive(cfg)
	if err != nil {
		return err
	}
	return showArchive(ctx, cmd.OutOrStdout(), client, archivePrefix, archiveFile)
}

// archiveReader is the read side of the section archive.
type archiveReader interface {
	Bucket() string
	GetMetadata(ctx context.Context, prefix string) (*storage.ArchiveMetadata, error)
	ListMarkdownFiles(ctx context.Context, prefix string) ([]string, error)
	GetMarkdown(ctx context.Context, prefix, filename string) (string, error)
}

func showArchive(ctx context.Context, w io.Writer, ar archiveReader, prefix, file string) error {
	if file != "" {
		markdown, err := ar.GetMarkdown(ctx, prefix, file)
		if err != nil {
			return err
		}
		fmt.Fprint(w, markdown)
		return nil
	}

	meta, err := ar.GetMetadata(ctx, prefix)
	if err != nil {
		return err
	}
	files, err := ar.ListMarkdownFiles(ctx, prefix)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Archive: s3://%s/%s\n", ar.Bucket(), prefix)
	fmt.Fprintf(w, "Language: %s\n", meta.Language)
	if meta.SourceURL != "" {
		fmt.Fprintf(w, "Source: %s\n", meta.SourceURL)
	}
	fmt.Fprintf(w, "Archived at: %s\n", meta.Timestamp)
	fmt.Fprintf(w, "Sections: %d\n\n", meta.SectionCount)

	listed := make(map[string]bool, len(meta.Sections))
	for i, sec := range meta.Sections {
		listed[sec.File] = true
		mark := ""
		if !slices.Contains(files, sec.File) {
			mark = "  (missing)"
		}
		fmt.Fprintf(w, "%2d. %s\n    %s  %s%s\n", i+1, sec.Title, sec.File, sec.URL, mark)
	}

	for _, f := range files {
		if !listed[f] {
			fmt.Fprintf(w, "Unlisted: %s\n", f)
		}
	}
	return nil
}
