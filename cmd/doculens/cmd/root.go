package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/mfenderov/doculens/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	cfg     config.Config
)

// GetConfig returns the loaded configuration.
func GetConfig() config.Config {
	return cfg
}

var rootCmd = &cobra.Command{
	Use:   "doculens",
	Short: "DocuLens: programming documentation ingestion",
	Long: `DocuLens scrapes official programming language tutorials, summarizes each
section, stores the sections with their code examples in SQLite and attaches
tutorial videos and practice problems.

Commands:
  ingest     Scrape, summarize and store a language's documentation
  enrich     Attach videos or practice problems to stored sections
  scrape     Dry-run a documentation source without storing anything
  summarize  Summarize a text file with the configured providers
  search     Search indexed sections
  serve      Start the MCP server for section retrieval`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func initLogger() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func initConfig() {
	cfg = config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/doculens")
		viper.AddConfigPath(".")
	}

	// DOCULENS_SUMMARIZER_PRIMARY_API_KEY -> summarizer.primary.api_key
	viper.SetEnvPrefix("DOCULENS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Unmarshal only sees env vars for keys viper already knows about.
	for _, key := range []string{
		"database.path",
		"scraper.delay",
		"scraper.timeout",
		"scraper.user_agent",
		"scraper.max_sections",
		"summarizer.primary.provider",
		"summarizer.primary.base_url",
		"summarizer.primary.api_key",
		"summarizer.primary.model",
		"summarizer.secondary.provider",
		"summarizer.secondary.base_url",
		"summarizer.secondary.api_key",
		"summarizer.secondary.model",
		"youtube.api_key",
		"youtube.base_url",
		"leetcode.graphql_url",
		"elasticsearch.enabled",
		"elasticsearch.index",
		"elasticsearch.username",
		"elasticsearch.password",
		"embeddings.enabled",
		"embeddings.base_url",
		"embeddings.socket_path",
		"embeddings.api_key",
		"embeddings.model",
		"storage.endpoint",
		"storage.bucket",
		"storage.access_key_id",
		"storage.secret_access_key",
		"storage.use_ssl",
		"mcp.name",
		"mcp.version",
		"metrics.addr",
	} {
		viper.BindEnv(key, "DOCULENS_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("config file error", "error", err)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Warn("failed to parse config", "error", err)
	}

	// Addresses may come from env as a comma-separated string.
	if addrs := os.Getenv("DOCULENS_ELASTICSEARCH_ADDRESSES"); addrs != "" {
		cfg.Elasticsearch.Addresses = strings.Split(addrs, ",")
	}
}
