package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/mfenderov/doculens/internal/extractor"
	"github.com/mfenderov/doculens/internal/fetcher"
	"github.com/spf13/cobra"
)

var (
	scrapeLanguage string
	scrapeURL      string
	scrapeFormat   string
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Dry-run a documentation source without storing anything",
	Long: `Scrape a language's documentation index and every section page, then print
what would be ingested. Nothing is summarized or stored.

Examples:
  # Preview the Python tutorial
  doculens scrape --language Python

  # Preview a mirror as JSON
  doculens scrape --language Rust --url https://mirror.example.com/book/ --format json`,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVar(&scrapeLanguage, "language", "", "Language to scrape (required)")
	scrapeCmd.Flags().StringVar(&scrapeURL, "url", "", "Tutorial root to scrape, overriding the configured source")
	scrapeCmd.Flags().StringVar(&scrapeFormat, "format", "text", "Output format: text or json")
	scrapeCmd.MarkFlagRequired("language")
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	slog.Debug("scrape command starting", "language", scrapeLanguage, "url", scrapeURL)

	source, err := extractor.SourceForLanguage(scrapeLanguage)
	if err != nil {
		return err
	}

	session := fetcher.Open(fetcherConfig(cfg))
	defer session.Close()

	opts := extractorOptions(cfg)
	opts.BaseURL = scrapeURL
	if opts.BaseURL == "" {
		opts.BaseURL = sourceRoots(cfg.Sources...)[source]
	}
	ex, err := extractor.For(source, session, opts)
	if err != nil {
		return err
	}

	result, err := extractor.ScrapeAll(ctx, ex)
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}

	if scrapeFormat == "json" {
		output, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Found %d sections, scraped %d:\n\n", len(result.Attempted), len(result.Sections))
	for _, s := range result.Sections {
		fmt.Printf("%3d. %s [%s]\n", s.OrderIndex, s.Title, s.Difficulty)
		fmt.Printf("     URL:   %s\n", s.SourceURL)
		fmt.Printf("     Words: %d, Minutes: %d, Code examples: %d\n",
			s.WordCount, s.EstimatedMinutes, len(s.CodeExamples))
	}
	for _, s := range result.Skipped {
		fmt.Printf("  Skipped: %s (%s)\n", s.Title, s.SourceURL)
	}

	return nil
}
