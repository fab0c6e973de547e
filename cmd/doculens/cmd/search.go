package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/mfenderov/doculens/internal/elasticsearch"
	"github.com/mfenderov/doculens/pkg/models"
	"github.com/spf13/cobra"
)

var (
	searchLimit      int
	searchFormat     string
	searchLanguage   string
	searchDifficulty string
	searchID         string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed sections",
	Long: `Search the documentation sections mirrored into Elasticsearch. Uses hybrid
text and vector search when embeddings are enabled.

Examples:
  # Basic search
  doculens search "list comprehensions"

  # Only easy Rust sections
  doculens search "ownership" --language rust --difficulty easy

  # JSON output for scripting
  doculens search "exceptions" --format json

  # Fetch one indexed section by ID
  doculens search --id 3f9a0c...`,
	Args: func(cmd *cobra.Command, args []string) error {
		if searchID != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum number of results")
	searchCmd.Flags().StringVar(&searchFormat, "format", "text", "Output format: text or json")
	searchCmd.Flags().StringVar(&searchLanguage, "language", "", "Restrict results to one language")
	searchCmd.Flags().StringVar(&searchDifficulty, "difficulty", "", "Restrict results to easy, medium or hard")
	searchCmd.Flags().StringVar(&searchID, "id", "", "Fetch one indexed section by ID instead of searching")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()

	esClient, err := newSearchClient(cfg)
	if err != nil {
		return err
	}

	if searchID != "" {
		doc, err := esClient.GetSection(ctx, searchID)
		if err != nil {
			return fmt.Errorf("failed to get section: %w", err)
		}
		if doc == nil {
			return fmt.Errorf("section %s is not indexed", searchID)
		}
		return printSections([]models.SectionDocument{*doc})
	}

	query := args[0]
	filter := elasticsearch.Filter{Language: searchLanguage, Difficulty: searchDifficulty}

	var docs []models.SectionDocument
	if cfg.Embeddings.Enabled {
		docs, err = hybridSearch(ctx, esClient, query, filter)
	} else {
		docs, err = esClient.Search(ctx, query, filter, searchLimit)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(docs) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	return printSections(docs)
}

func printSections(docs []models.SectionDocument) error {
	if searchFormat == "json" {
		output, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Found %d results:\n\n", len(docs))
	for i, doc := range docs {
		fmt.Printf("─── Result %d ───\n", i+1)
		fmt.Printf("Title:      %s\n", doc.Title)
		fmt.Printf("Language:   %s\n", doc.Language)
		fmt.Printf("Difficulty: %s\n", doc.Difficulty)
		fmt.Printf("URL:        %s\n", doc.URL)
		fmt.Printf("ID:         %s\n", doc.ID)
		if doc.Summary != "" {
			fmt.Printf("Summary:    %s\n", doc.Summary)
		}

		content := doc.Content
		if len(content) > 500 {
			content = content[:500] + "..."
		}
		fmt.Printf("Content:\n%s\n\n", content)
	}

	return nil
}

// hybridSearch embeds the query and falls back to text search when the
// embeddings endpoint is unavailable.
func hybridSearch(ctx context.Context, esClient *elasticsearch.Client, query string, filter elasticsearch.Filter) ([]models.SectionDocument, error) {
	embedder, err := newEmbedder(GetConfig())
	if err != nil {
		return nil, err
	}

	embedding, err := embedder.Embed(ctx, query)
	if err != nil {
		slog.Warn("failed to embed query, using text search", "error", err)
		return esClient.Search(ctx, query, filter, searchLimit)
	}
	return esClient.HybridSearch(ctx, query, embedding, filter, searchLimit)
}
