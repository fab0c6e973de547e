// Package elasticsearch indexes stored documentation sections for full-text
// and hybrid search.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/mfenderov/doculens/pkg/models"
)

// DefaultDims is the embedding width used when Config.Dims is zero.
const DefaultDims = 2560

// Config holds Elasticsearch client configuration.
type Config struct {
	Addresses []string
	Index     string
	Username  string
	Password  string
	Dims      int // Embedding dimensions for the index mapping
}

// Client wraps the Elasticsearch client with section-specific operations.
type Client struct {
	es    *elasticsearch.Client
	index string
	dims  int
}

// Filter narrows a search to one language and/or difficulty.
type Filter struct {
	Language   string
	Difficulty string
}

// New creates a new Elasticsearch client.
func New(config Config) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: config.Addresses,
		Username:  config.Username,
		Password:  config.Password,
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create ES client: %w", err)
	}

	dims := config.Dims
	if dims <= 0 {
		dims = DefaultDims
	}

	return &Client{
		es:    es,
		index: config.Index,
		dims:  dims,
	}, nil
}

// Ping checks if Elasticsearch is available.
func (c *Client) Ping(ctx context.Context) bool {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return false
	}
	defer res.Body.Close()
	return !res.IsError()
}

// indexMapping returns the mapping for section documents. Language and
// difficulty are keywords so they can be used as exact filters.
func indexMapping(dims int) string {
	return fmt.Sprintf(`{
	"mappings": {
		"properties": {
			"id": { "type": "keyword" },
			"language_id": { "type": "keyword" },
			"language": { "type": "keyword", "normalizer": "lowercase" },
			"title": { "type": "text" },
			"slug": { "type": "keyword" },
			"url": { "type": "keyword" },
			"content": { "type": "text", "analyzer": "english" },
			"summary": { "type": "text", "analyzer": "english" },
			"difficulty": { "type": "keyword" },
			"order_index": { "type": "integer" },
			"indexed_at": { "type": "date" },
			"embedding": {
				"type": "dense_vector",
				"dims": %d,
				"index": true,
				"similarity": "cosine"
			}
		}
	},
	"settings": {
		"analysis": {
			"normalizer": {
				"lowercase": { "type": "custom", "filter": ["lowercase"] }
			}
		}
	}
}`, dims)
}

// CreateIndex creates the index with proper mapping.
func (c *Client) CreateIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		return nil
	}

	res, err = c.es.Indices.Create(
		c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(bytes.NewReader([]byte(indexMapping(c.dims)))),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error creating index: %s", res.String())
	}

	return nil
}

// DeleteIndex removes the index (for testing/cleanup).
func (c *Client) DeleteIndex(ctx context.Context) error {
	res, err := c.es.Indices.Delete([]string{c.index}, c.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return nil
}

// IndexSection indexes a single section, replacing any previous version.
func (c *Client) IndexSection(ctx context.Context, doc models.SectionDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal section: %w", err)
	}

	res, err := c.es.Index(
		c.index,
		bytes.NewReader(data),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(doc.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to index section: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing section (status %d): %s", res.StatusCode, res.String())
	}

	return nil
}

// Refresh forces an index refresh (useful for testing).
func (c *Client) Refresh(ctx context.Context) error {
	res, err := c.es.Indices.Refresh(
		c.es.Indices.Refresh.WithContext(ctx),
		c.es.Indices.Refresh.WithIndex(c.index),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return nil
}

// searchResponse represents ES search response structure.
type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.SectionDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// textQuery builds a BM25 query over title, summary and content, with the
// filter applied as exact term matches.
func textQuery(query string, filter Filter) map[string]any {
	match := map[string]any{
		"multi_match": map[string]any{
			"query":  query,
			"fields": []string{"title^3", "summary^2", "content"},
		},
	}

	terms := filterTerms(filter)
	if len(terms) == 0 {
		return match
	}

	return map[string]any{
		"bool": map[string]any{
			"must":   match,
			"filter": terms,
		},
	}
}

func filterTerms(filter Filter) []map[string]any {
	var terms []map[string]any
	if filter.Language != "" {
		terms = append(terms, map[string]any{"term": map[string]any{"language": filter.Language}})
	}
	if filter.Difficulty != "" {
		terms = append(terms, map[string]any{"term": map[string]any{"difficulty": filter.Difficulty}})
	}
	return terms
}

// Search performs a BM25 text search over sections.
func (c *Client) Search(ctx context.Context, query string, filter Filter, limit int) ([]models.SectionDocument, error) {
	return c.search(ctx, "search", map[string]any{
		"query": textQuery(query, filter),
		"size":  limit,
	})
}

// HybridSearch performs a combined BM25 + vector search.
// If queryEmbedding is nil, falls back to BM25 only.
func (c *Client) HybridSearch(ctx context.Context, query string, queryEmbedding []float32, filter Filter, limit int) ([]models.SectionDocument, error) {
	if queryEmbedding == nil {
		return c.Search(ctx, query, filter, limit)
	}

	knn := map[string]any{
		"field":          "embedding",
		"query_vector":   queryEmbedding,
		"k":              limit,
		"num_candidates": limit * 2,
	}
	if terms := filterTerms(filter); len(terms) > 0 {
		knn["filter"] = terms
	}

	// Reciprocal rank fusion combines the BM25 and vector rankings.
	return c.search(ctx, "hybrid search", map[string]any{
		"retriever": map[string]any{
			"rrf": map[string]any{
				"retrievers": []map[string]any{
					{"standard": map[string]any{"query": textQuery(query, filter)}},
					{"knn": knn},
				},
			},
		},
		"size": limit,
	})
}

func (c *Client) search(ctx context.Context, kind string, body map[string]any) ([]models.SectionDocument, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", kind, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%s error: %s", kind, res.String())
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	docs := make([]models.SectionDocument, len(sr.Hits.Hits))
	for i, hit := range sr.Hits.Hits {
		docs[i] = hit.Source
	}

	return docs, nil
}

// getResponse represents ES get response structure.
type getResponse struct {
	Found  bool                   `json:"found"`
	Source models.SectionDocument `json:"_source"`
}

// GetSection retrieves an indexed section by ID, or nil when absent.
func (c *Client) GetSection(ctx context.Context, id string) (*models.SectionDocument, error) {
	res, err := c.es.Get(
		c.index,
		id,
		c.es.Get.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("get failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, nil
	}

	if res.IsError() {
		return nil, fmt.Errorf("get error: %s", res.String())
	}

	var gr getResponse
	if err := json.NewDecoder(res.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if !gr.Found {
		return nil, nil
	}

	return &gr.Source, nil
}
