package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mfenderov/doculens/internal/config"
	"github.com/mfenderov/doculens/internal/events"
	"github.com/mfenderov/doculens/internal/indexer"
	"github.com/mfenderov/doculens/internal/metrics"
	"github.com/mfenderov/doculens/internal/store"
	"github.com/mfenderov/doculens/internal/summarizer"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	ingestLanguage    string
	ingestURL         string
	ingestAll         bool
	ingestVideos      bool
	ingestProblems    bool
	ingestMaxPer      int
	ingestMetricsAddr string
	ingestFormat      string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Scrape, summarize and store a language's documentation",
	Long: `Scrape a language's official tutorial, summarize every section and store the
sections with their code examples. Stored sections are mirrored into
Elasticsearch and the S3 archive when those are configured.

Examples:
  # Ingest the Python tutorial
  doculens ingest --language Python

  # Ingest from a mirror of the book (a page URL resolves to its directory)
  doculens ingest --language Rust --url https://mirror.example.com/book/index.html

  # Ingest every configured source concurrently, then attach resources
  doculens ingest --all --videos --problems

  # JSON output for scripting
  doculens ingest --language Python --format json`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestLanguage, "language", "", "Language to ingest (e.g. Python, Rust)")
	ingestCmd.Flags().StringVar(&ingestURL, "url", "", "Tutorial root to scrape, overriding the configured source")
	ingestCmd.Flags().BoolVar(&ingestAll, "all", false, "Ingest every source from config")
	ingestCmd.Flags().BoolVar(&ingestVideos, "videos", false, "Attach tutorial videos after ingestion")
	ingestCmd.Flags().BoolVar(&ingestProblems, "problems", false, "Attach practice problems after ingestion")
	ingestCmd.Flags().IntVar(&ingestMaxPer, "max", 0, "Resources per section (default from config)")
	ingestCmd.Flags().StringVar(&ingestMetricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address")
	ingestCmd.Flags().StringVar(&ingestFormat, "format", "text", "Output format: text or json")
	ingestCmd.MarkFlagsMutuallyExclusive("language", "all")
	ingestCmd.MarkFlagsOneRequired("language", "all")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	slog.Debug("ingest command starting", "language", ingestLanguage, "all", ingestAll)

	sources, err := ingestSources(cfg)
	if err != nil {
		return err
	}

	addr := ingestMetricsAddr
	if addr == "" {
		addr = cfg.Metrics.Addr
	}
	if addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr); err != nil {
				slog.Error("metrics listener failed", "addr", addr, "error", err)
			}
		}()
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	sum, err := newSummarizer(cfg)
	if err != nil {
		return err
	}

	sk, err := newSinks(ctx, cfg)
	if err != nil {
		return err
	}

	// Completed runs are reported by a single consumer so concurrent
	// sources never interleave their output.
	completed := make(chan events.IngestionComplete)
	done := make(chan struct{})
	var reports []events.IngestionComplete

	go func() {
		defer close(done)
		for event := range completed {
			reports = append(reports, event)
			if ingestFormat != "json" {
				printIngestion(event)
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		g.Go(func() error {
			event, err := ingestSource(gctx, cfg, st, sum, sk, src)
			if err != nil {
				return err
			}
			completed <- event
			return nil
		})
	}
	err = g.Wait()

	close(completed)
	<-done

	if err != nil {
		return err
	}

	if ingestFormat == "json" {
		output, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
	}
	return nil
}

// ingestSources resolves the flags to the sources to run. --url replaces the
// scraping root only; the language keeps its configured documentation home.
func ingestSources(cfg config.Config) ([]config.Source, error) {
	if ingestAll {
		if len(cfg.Sources) == 0 {
			return nil, fmt.Errorf("no sources configured")
		}
		return cfg.Sources, nil
	}

	src := config.Source{Language: ingestLanguage}
	for _, s := range cfg.Sources {
		if strings.EqualFold(s.Language, ingestLanguage) {
			src = s
			src.Language = ingestLanguage
			break
		}
	}
	if ingestURL != "" {
		src.URL = ingestURL
	}
	return []config.Source{src}, nil
}

// docURL is the documentation home recorded on the language.
func docURL(src config.Source) string {
	if src.DocURL != "" {
		return src.DocURL
	}
	return src.URL
}

// ingestSource runs one language through the orchestrator, mirrors every
// stored section through a dedicated indexer, then enriches when asked.
func ingestSource(ctx context.Context, cfg config.Config, st *store.Store, sum *summarizer.Summarizer, sk sinks, src config.Source) (events.IngestionComplete, error) {
	orch := newOrchestrator(cfg, st, sum, sourceRoots(src))
	ix := sk.consumer()

	var stats indexer.Stats
	stored := make(chan events.SectionStored)
	done := make(chan struct{})

	go func() {
		defer close(done)
		stats = ix.Run(ctx, src.Language, src.URL, stored)
	}()

	if ix.Enabled() {
		orch.Notify(stored)
	}
	result, err := orch.Ingest(ctx, src.Language, docURL(src))

	close(stored)
	<-done

	if err != nil {
		return events.IngestionComplete{}, fmt.Errorf("failed to ingest %s: %w", src.Language, err)
	}

	event := events.IngestionComplete{
		LanguageID:      result.LanguageID,
		Language:        result.LanguageName,
		SourceURL:       src.URL,
		Status:          string(result.Status),
		SectionsScraped: result.SectionsScraped,
		SectionsStored:  result.SectionsStored,
		QuickPath:       result.QuickPathSections,
		Indexed:         stats.Indexed,
		Archived:        stats.Archived,
		ArchivePrefix:   stats.Prefix,
		Duration:        result.Duration,
		Errors:          append(result.Errors, stats.Errors...),
	}

	if result.LanguageID == "" || result.SectionsStored == 0 {
		return event, nil
	}

	maxPer := ingestMaxPer
	if maxPer <= 0 {
		maxPer = cfg.Ingestion.VideosPerSection
	}

	if ingestVideos {
		added, err := orch.EnrichWithVideos(ctx, result.LanguageID, maxPer)
		if err != nil {
			event.Errors = append(event.Errors, fmt.Sprintf("video enrichment failed: %v", err))
		}
		event.VideosAdded = added
	}
	if ingestProblems {
		added, err := orch.EnrichWithProblems(ctx, result.LanguageID, maxPer)
		if err != nil {
			event.Errors = append(event.Errors, fmt.Sprintf("problem enrichment failed: %v", err))
		}
		event.ProblemsAdded = added
	}

	return event, nil
}

func printIngestion(e events.IngestionComplete) {
	fmt.Printf("Ingested: %s (%s)\n", e.Language, e.Status)
	if e.SourceURL != "" {
		fmt.Printf("  Source: %s\n", e.SourceURL)
	}
	fmt.Printf("  Sections: %d stored of %d, %d on the quick path, Duration: %v\n",
		e.SectionsStored, e.SectionsScraped, e.QuickPath, e.Duration)
	if e.Indexed > 0 || e.Archived > 0 {
		fmt.Printf("  Indexed: %d, Archived: %d\n", e.Indexed, e.Archived)
	}
	if e.ArchivePrefix != "" && e.Archived > 0 {
		fmt.Printf("  Archive: %s\n", e.ArchivePrefix)
	}
	if ingestVideos || ingestProblems {
		fmt.Printf("  Videos added: %d, Problems added: %d\n", e.VideosAdded, e.ProblemsAdded)
	}
	for _, msg := range e.Errors {
		fmt.Printf("  Warning: %s\n", msg)
	}
}
