package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mfenderov/doculens/internal/config"
	"github.com/mfenderov/doculens/internal/elasticsearch"
	"github.com/mfenderov/doculens/internal/embeddings"
	"github.com/mfenderov/doculens/internal/extractor"
	"github.com/mfenderov/doculens/internal/fetcher"
	"github.com/mfenderov/doculens/internal/indexer"
	"github.com/mfenderov/doculens/internal/ingestion"
	"github.com/mfenderov/doculens/internal/leetcode"
	"github.com/mfenderov/doculens/internal/llm"
	"github.com/mfenderov/doculens/internal/storage"
	"github.com/mfenderov/doculens/internal/store"
	"github.com/mfenderov/doculens/internal/summarizer"
	"github.com/mfenderov/doculens/internal/youtube"
)

func openStore(cfg config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return st, nil
}

func newSummarizer(cfg config.Config) (*summarizer.Summarizer, error) {
	primary, err := llm.FromConfig(cfg.Summarizer.Primary)
	if err != nil {
		return nil, fmt.Errorf("failed to create primary provider: %w", err)
	}
	secondary, err := llm.FromConfig(cfg.Summarizer.Secondary)
	if err != nil {
		return nil, fmt.Errorf("failed to create secondary provider: %w", err)
	}

	sum := summarizer.New(primary, secondary)
	if !sum.Available() {
		slog.Warn("no summarization provider configured, summaries will use placeholders")
	}
	return sum, nil
}

func fetcherConfig(cfg config.Config) fetcher.Config {
	return fetcher.Config{
		Delay:     cfg.Scraper.Delay,
		UserAgent: cfg.Scraper.UserAgent,
		Timeout:   cfg.Scraper.Timeout,
	}
}

func extractorOptions(cfg config.Config) extractor.Options {
	c := cfg.Classifier
	return extractor.Options{
		MaxSections: cfg.Scraper.MaxSections,
		ContentCap:  cfg.Ingestion.ContentCap,
		Classifier:  extractor.DefaultClassifier().WithOverrides(c.Hard, c.Medium, c.EasyThreshold),
	}
}

// sourceRoots maps each source's language to the root its pages are scraped
// from. Sources without a URL or a known extractor are left to the defaults.
func sourceRoots(sources ...config.Source) map[extractor.Source]string {
	roots := make(map[extractor.Source]string)
	for _, src := range sources {
		if src.URL == "" {
			continue
		}
		if s, err := extractor.SourceForLanguage(src.Language); err == nil {
			roots[s] = src.URL
		}
	}
	return roots
}

func newOrchestrator(cfg config.Config, st *store.Store, sum ingestion.Summarizer, roots map[extractor.Source]string) *ingestion.Orchestrator {
	return ingestion.New(st, sum, ingestion.FetchSessions(fetcherConfig(cfg)), ingestion.Config{
		Extractor:       extractorOptions(cfg),
		Roots:           roots,
		MaxCodeExamples: cfg.Ingestion.MaxCodeExamples,
		QuickPathRatio:  cfg.Ingestion.QuickPathRatio,
		PreviewWords:    cfg.Ingestion.PreviewWords,
		SummaryMaxWords: cfg.Ingestion.SummaryMaxWords,
	}).
		WithVideos(newYouTube(cfg)).
		WithProblems(newLeetCode(cfg))
}

func newYouTube(cfg config.Config) *youtube.Client {
	return youtube.New(youtube.Config{
		APIKey:   cfg.YouTube.APIKey,
		BaseURL:  cfg.YouTube.BaseURL,
		Language: cfg.YouTube.Language,
		Timeout:  cfg.YouTube.Timeout,
	})
}

func newLeetCode(cfg config.Config) *leetcode.Client {
	return leetcode.New(leetcode.Config{
		GraphQLURL: cfg.LeetCode.GraphQLURL,
		Timeout:    cfg.LeetCode.Timeout,
	})
}

func newEmbedder(cfg config.Config) (*embeddings.Client, error) {
	client, err := embeddings.New(embeddings.Config{
		BaseURL:    cfg.Embeddings.BaseURL,
		SocketPath: cfg.Embeddings.SocketPath,
		APIKey:     cfg.Embeddings.APIKey,
		Model:      cfg.Embeddings.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings client: %w", err)
	}
	return client, nil
}

func newSearchClient(cfg config.Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.New(elasticsearch.Config{
		Addresses: cfg.Elasticsearch.Addresses,
		Index:     cfg.Elasticsearch.Index,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
		Dims:      embeddings.Dimensions(cfg.Embeddings.Model),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}
	return client, nil
}

func newArchive(cfg config.Config) (*storage.Client, error) {
	client, err := storage.New(storage.Config{
		Endpoint:        cfg.Storage.Endpoint,
		Bucket:          cfg.Storage.Bucket,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		UseSSL:          cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return client, nil
}

// sinks holds the configured stored-section sinks. Unconfigured sinks stay
// untyped nil so the indexer skips them.
type sinks struct {
	index   indexer.SearchIndex
	embed   indexer.Embedder
	archive indexer.Archive
}

// consumer returns a fresh indexer for one ingestion run.
func (s sinks) consumer() *indexer.Indexer {
	return indexer.New(s.index, s.embed, s.archive)
}

func newSinks(ctx context.Context, cfg config.Config) (sinks, error) {
	var s sinks

	if cfg.Elasticsearch.Enabled {
		esClient, err := newSearchClient(cfg)
		if err != nil {
			return s, err
		}
		if err := esClient.CreateIndex(ctx); err != nil {
			return s, fmt.Errorf("failed to create index: %w", err)
		}
		s.index = esClient

		if cfg.Embeddings.Enabled {
			embedder, err := newEmbedder(cfg)
			if err != nil {
				return s, err
			}
			s.embed = embedder
			slog.Info("embeddings enabled", "model", cfg.Embeddings.Model)
		}
	}

	if cfg.Storage.Endpoint != "" {
		s3Client, err := newArchive(cfg)
		if err != nil {
			return s, err
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return s, fmt.Errorf("failed to ensure bucket: %w", err)
		}
		s.archive = s3Client
	}

	return s, nil
}
