package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/mfenderov/doculens/internal/ingestion"
	"github.com/spf13/cobra"
)

var (
	enrichLanguageID string
	enrichLanguage   string
	enrichMax        int
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Attach videos or practice problems to stored sections",
	Long: `Attach external learning resources to every stored section of a language.
Sections that already hold the requested number of resources are left alone,
so enrichment can be re-run safely.

Examples:
  # Attach up to 3 tutorial videos per section
  doculens enrich videos --language Python --max 3

  # Attach practice problems by language ID
  doculens enrich problems --language-id 2b1f0c4e-... --max 5`,
}

var enrichVideosCmd = &cobra.Command{
	Use:   "videos",
	Short: "Attach YouTube tutorial videos",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEnrich("videos", func(ctx context.Context, o *ingestion.Orchestrator, id string, n int) (int, error) {
			return o.EnrichWithVideos(ctx, id, n)
		})
	},
}

var enrichProblemsCmd = &cobra.Command{
	Use:   "problems",
	Short: "Attach LeetCode practice problems",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEnrich("problems", func(ctx context.Context, o *ingestion.Orchestrator, id string, n int) (int, error) {
			return o.EnrichWithProblems(ctx, id, n)
		})
	},
}

func init() {
	rootCmd.AddCommand(enrichCmd)
	enrichCmd.AddCommand(enrichVideosCmd, enrichProblemsCmd)

	enrichCmd.PersistentFlags().StringVar(&enrichLanguageID, "language-id", "", "Language ID to enrich")
	enrichCmd.PersistentFlags().StringVar(&enrichLanguage, "language", "", "Language name to enrich")
	enrichCmd.PersistentFlags().IntVar(&enrichMax, "max", 3, "Maximum resources per section (1-10)")
	enrichCmd.MarkFlagsMutuallyExclusive("language-id", "language")
	enrichCmd.MarkFlagsOneRequired("language-id", "language")
}

type enrichFunc func(ctx context.Context, o *ingestion.Orchestrator, languageID string, maxPerSection int) (int, error)

func runEnrich(kind string, enrich enrichFunc) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	slog.Debug("enrich command starting", "kind", kind, "max", enrichMax)

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	languageID := enrichLanguageID
	if languageID == "" {
		lang, err := st.GetLanguageByName(ctx, enrichLanguage)
		if err != nil {
			return fmt.Errorf("failed to find language %q: %w", enrichLanguage, err)
		}
		languageID = lang.ID
	}

	// Enrichment never summarizes, so no providers are needed.
	orch := newOrchestrator(cfg, st, nil, nil)

	added, err := enrich(ctx, orch, languageID, enrichMax)
	if err != nil {
		return fmt.Errorf("%s enrichment failed: %w", kind, err)
	}

	fmt.Printf("Added %d %s\n", added, kind)
	return nil
}
