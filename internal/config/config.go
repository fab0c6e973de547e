package config

import "time"

// Config holds all application configuration.
type Config struct {
	Database      Database      `mapstructure:"database"`
	Scraper       Scraper       `mapstructure:"scraper"`
	Ingestion     Ingestion     `mapstructure:"ingestion"`
	Classifier    Classifier    `mapstructure:"classifier"`
	Summarizer    Summarizer    `mapstructure:"summarizer"`
	YouTube       YouTube       `mapstructure:"youtube"`
	LeetCode      LeetCode      `mapstructure:"leetcode"`
	Elasticsearch Elasticsearch `mapstructure:"elasticsearch"`
	Embeddings    Embeddings    `mapstructure:"embeddings"`
	Storage       Storage       `mapstructure:"storage"`
	MCP           MCP           `mapstructure:"mcp"`
	Metrics       Metrics       `mapstructure:"metrics"`
	Sources       []Source      `mapstructure:"sources"`
}

// Database holds the SQLite store location.
type Database struct {
	Path string `mapstructure:"path"`
}

// Scraper holds documentation fetching configuration.
type Scraper struct {
	Delay       time.Duration `mapstructure:"delay"`
	Timeout     time.Duration `mapstructure:"timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
	MaxSections int           `mapstructure:"max_sections"`
}

// Ingestion holds orchestrator tuning.
type Ingestion struct {
	ContentCap       int     `mapstructure:"content_cap"`
	MaxCodeExamples  int     `mapstructure:"max_code_examples"`
	QuickPathRatio   float64 `mapstructure:"quick_path_ratio"`
	PreviewWords     int     `mapstructure:"preview_words"`
	SummaryMaxWords  int     `mapstructure:"summary_max_words"`
	VideosPerSection int     `mapstructure:"videos_per_section"`
}

// Classifier holds the keyword vocabularies used for difficulty estimation.
// Empty lists fall back to the built-in vocabularies.
type Classifier struct {
	Hard          []string `mapstructure:"hard"`
	Medium        []string `mapstructure:"medium"`
	EasyThreshold int      `mapstructure:"easy_threshold"`
}

// Summarizer holds the primary and fallback summarization providers.
type Summarizer struct {
	Primary   Provider `mapstructure:"primary"`
	Secondary Provider `mapstructure:"secondary"`
}

// Provider configures a single LLM provider. An empty Provider field leaves
// that slot unconfigured.
type Provider struct {
	Provider    string        `mapstructure:"provider"` // openai, groq, dmr or anthropic
	BaseURL     string        `mapstructure:"base_url"`
	SocketPath  string        `mapstructure:"socket_path"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// YouTube holds YouTube Data API configuration.
type YouTube struct {
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Language string        `mapstructure:"language"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LeetCode holds problem-bank configuration.
type LeetCode struct {
	GraphQLURL string        `mapstructure:"graphql_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Elasticsearch holds ES connection configuration.
type Elasticsearch struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Index     string   `mapstructure:"index"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

// Embeddings holds embeddings generation configuration for the search index.
type Embeddings struct {
	Enabled    bool   `mapstructure:"enabled"`
	BaseURL    string `mapstructure:"base_url"`
	SocketPath string `mapstructure:"socket_path"`
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
}

// Storage holds S3/MinIO archive configuration.
type Storage struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// MCP holds MCP server configuration.
type MCP struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// Metrics holds the Prometheus listener configuration.
type Metrics struct {
	Addr string `mapstructure:"addr"`
}

// Source defines a documentation source to ingest. URL is the tutorial root
// that gets scraped; DocURL is the documentation home recorded on the language.
type Source struct {
	Language string `mapstructure:"language"`
	URL      string `mapstructure:"url"`
	DocURL   string `mapstructure:"doc_url"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Database: Database{
			Path: "doculens.db",
		},
		Scraper: Scraper{
			Delay:       2 * time.Second,
			Timeout:     30 * time.Second,
			UserAgent:   "DocuLens-Bot/1.0",
			MaxSections: 15,
		},
		Ingestion: Ingestion{
			ContentCap:       50000,
			MaxCodeExamples:  5,
			QuickPathRatio:   0.4,
			PreviewWords:     100,
			SummaryMaxWords:  150,
			VideosPerSection: 3,
		},
		Classifier: Classifier{
			EasyThreshold: 5,
		},
		Summarizer: Summarizer{
			Primary: Provider{
				Provider:    "groq",
				BaseURL:     "https://api.groq.com/openai/v1",
				Model:       "llama-3.1-70b-versatile",
				MaxTokens:   1000,
				Temperature: 0.3,
				Timeout:     60 * time.Second,
			},
			Secondary: Provider{
				Provider:    "anthropic",
				BaseURL:     "https://api.anthropic.com",
				Model:       "claude-sonnet-4-20250514",
				MaxTokens:   1000,
				Temperature: 0.3,
				Timeout:     60 * time.Second,
			},
		},
		YouTube: YouTube{
			BaseURL:  "https://www.googleapis.com/youtube/v3",
			Language: "en",
			Timeout:  10 * time.Second,
		},
		LeetCode: LeetCode{
			GraphQLURL: "https://leetcode.com/graphql",
			Timeout:    10 * time.Second,
		},
		Elasticsearch: Elasticsearch{
			Enabled:   false,
			Addresses: []string{"http://localhost:9200"},
			Index:     "doculens-sections",
		},
		Embeddings: Embeddings{
			Enabled: false, // Requires an OpenAI-compatible embeddings endpoint
			Model:   "ai/embeddinggemma",
		},
		Storage: Storage{
			Endpoint:        "", // Archive disabled unless an endpoint is set
			Bucket:          "doculens",
			AccessKeyID:     "minioadmin",
			SecretAccessKey: "minioadmin",
			UseSSL:          false,
		},
		MCP: MCP{
			Name:    "doculens",
			Version: "1.0.0",
		},
		Sources: []Source{
			{Language: "Python", URL: "https://docs.python.org/3/tutorial/", DocURL: "https://docs.python.org/3/"},
			{Language: "Rust", URL: "https://doc.rust-lang.org/book/", DocURL: "https://doc.rust-lang.org/"},
		},
	}
}
