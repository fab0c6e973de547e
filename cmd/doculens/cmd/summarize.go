package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mfenderov/doculens/internal/summarizer"
	"github.com/spf13/cobra"
)

var (
	summarizeFile     string
	summarizeStyle    string
	summarizeMaxWords int
	summarizeLanguage string
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize a text file with the configured providers",
	Long: `Summarize documentation text with the primary provider, failing over to the
secondary provider when the primary is unavailable.

Examples:
  # Summarize a file
  doculens summarize --file classes.txt --language Python

  # Bullet points from stdin
  cat errors.txt | doculens summarize --style bullet_points --max-words 80`,
	RunE: runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)

	summarizeCmd.Flags().StringVar(&summarizeFile, "file", "", "File to summarize (default stdin)")
	summarizeCmd.Flags().StringVar(&summarizeStyle, "style", "concise", "Summary style: concise, detailed or bullet_points")
	summarizeCmd.Flags().IntVar(&summarizeMaxWords, "max-words", 150, "Maximum words in the summary")
	summarizeCmd.Flags().StringVar(&summarizeLanguage, "language", "", "Programming language context")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	slog.Debug("summarize command starting", "file", summarizeFile, "style", summarizeStyle)

	style, err := summarizer.ParseStyle(summarizeStyle)
	if err != nil {
		return err
	}

	var content []byte
	if summarizeFile != "" {
		content, err = os.ReadFile(summarizeFile)
	} else {
		content, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	sum, err := newSummarizer(cfg)
	if err != nil {
		return err
	}

	summary, err := sum.Summarize(ctx, summarizer.Request{
		Content:         string(content),
		MaxWords:        summarizeMaxWords,
		Style:           style,
		LanguageContext: summarizeLanguage,
	})
	if err != nil {
		return err
	}

	fmt.Println(summary)
	return nil
}
