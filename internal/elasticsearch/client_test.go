package elasticsearch

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/mfenderov/doculens/pkg/models"
)

func skipIfNoES(t *testing.T) {
	if os.Getenv("SKIP_ES_TESTS") == "1" {
		t.Skip("Skipping ES tests (SKIP_ES_TESTS=1)")
	}

	client, err := New(Config{
		Addresses: []string{"http://localhost:9200"},
		Index:     "test-skip-check",
	})
	if err != nil {
		t.Skipf("Skipping ES tests: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if !client.Ping(ctx) {
		t.Skip("Skipping ES tests: Elasticsearch not available")
	}
}

func TestIndexMapping_IsValidJSON(t *testing.T) {
	var m struct {
		Mappings struct {
			Properties map[string]struct {
				Type string `json:"type"`
				Dims int    `json:"dims"`
			} `json:"properties"`
		} `json:"mappings"`
	}
	if err := json.Unmarshal([]byte(indexMapping(1536)), &m); err != nil {
		t.Fatalf("mapping is not valid JSON: %v", err)
	}

	props := m.Mappings.Properties
	if props["embedding"].Dims != 1536 {
		t.Errorf("embedding dims = %d, want 1536", props["embedding"].Dims)
	}
	for _, field := range []string{"language", "difficulty", "language_id"} {
		if props[field].Type != "keyword" {
			t.Errorf("%s type = %q, want keyword", field, props[field].Type)
		}
	}
}

func TestTextQuery_Filters(t *testing.T) {
	plain := textQuery("closures", Filter{})
	if _, ok := plain["multi_match"]; !ok {
		t.Errorf("unfiltered query = %v, want a bare multi_match", plain)
	}

	filtered := textQuery("closures", Filter{Language: "rust", Difficulty: "medium"})
	b, ok := filtered["bool"].(map[string]any)
	if !ok {
		t.Fatalf("filtered query = %v, want a bool query", filtered)
	}
	terms, ok := b["filter"].([]map[string]any)
	if !ok || len(terms) != 2 {
		t.Fatalf("filter = %v, want two term clauses", b["filter"])
	}
	if terms[0]["term"].(map[string]any)["language"] != "rust" {
		t.Errorf("first term = %v", terms[0])
	}
}

func TestClient_Connect(t *testing.T) {
	skipIfNoES(t)

	client, err := New(Config{
		Addresses: []string{"http://localhost:9200"},
		Index:     "doculens-test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if !client.Ping(context.Background()) {
		t.Error("Ping() should return true for running ES")
	}
}

func TestClient_CreateIndex(t *testing.T) {
	skipIfNoES(t)

	client, err := New(Config{
		Addresses: []string{"http://localhost:9200"},
		Index:     "doculens-test-create",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	client.DeleteIndex(ctx)

	if err := client.CreateIndex(ctx); err != nil {
		t.Fatalf("CreateIndex() error = %v", err)
	}
	// Creating again should not error (idempotent)
	if err := client.CreateIndex(ctx); err != nil {
		t.Fatalf("CreateIndex() second call error = %v", err)
	}

	client.DeleteIndex(ctx)
}

func TestClient_IndexAndSearch(t *testing.T) {
	skipIfNoES(t)

	client, err := New(Config{
		Addresses: []string{"http://localhost:9200"},
		Index:     "doculens-test-search",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	client.DeleteIndex(ctx)
	if err := client.CreateIndex(ctx); err != nil {
		t.Fatalf("CreateIndex() error = %v", err)
	}

	docs := []models.SectionDocument{
		{
			ID:         "py-classes",
			Language:   "Python",
			Title:      "Classes",
			URL:        "https://docs.python.org/3/tutorial/classes.html",
			Content:    "Classes provide a means of bundling data and functionality together.",
			Difficulty: "medium",
		},
		{
			ID:         "py-errors",
			Language:   "Python",
			Title:      "Errors and Exceptions",
			URL:        "https://docs.python.org/3/tutorial/errors.html",
			Content:    "There are two kinds of errors: syntax errors and exceptions.",
			Difficulty: "medium",
		},
		{
			ID:         "rs-closures",
			Language:   "Rust",
			Title:      "Closures",
			URL:        "https://doc.rust-lang.org/book/ch13-01-closures.html",
			Content:    "Closures are anonymous functions that capture their environment.",
			Difficulty: "medium",
		},
	}

	for _, doc := range docs {
		if err := client.IndexSection(ctx, doc); err != nil {
			t.Fatalf("IndexSection() error = %v", err)
		}
	}

	time.Sleep(1 * time.Second)
	client.Refresh(ctx)

	results, err := client.Search(ctx, "exceptions", Filter{}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !containsID(results, "py-errors") {
		t.Errorf("Search('exceptions') should include py-errors, got %+v", results)
	}

	results, err = client.Search(ctx, "functions", Filter{Language: "python"}, 10)
	if err != nil {
		t.Fatalf("Search(filtered) error = %v", err)
	}
	if containsID(results, "rs-closures") {
		t.Error("language filter should exclude Rust sections")
	}

	client.DeleteIndex(ctx)
}

func TestClient_GetSection(t *testing.T) {
	skipIfNoES(t)

	client, err := New(Config{
		Addresses: []string{"http://localhost:9200"},
		Index:     "doculens-test-get",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	client.DeleteIndex(ctx)
	client.CreateIndex(ctx)

	doc := models.SectionDocument{
		ID:      "test-section-get",
		URL:     "https://example.com/test.html",
		Title:   "Test Section",
		Content: "Test content for get operation.",
	}
	if err := client.IndexSection(ctx, doc); err != nil {
		t.Fatalf("IndexSection() error = %v", err)
	}

	time.Sleep(500 * time.Millisecond)

	result, err := client.GetSection(ctx, "test-section-get")
	if err != nil {
		t.Fatalf("GetSection() error = %v", err)
	}
	if result == nil {
		t.Fatal("GetSection() returned nil")
	}
	if result.ID != doc.ID || result.Content != doc.Content {
		t.Errorf("GetSection() = %+v", result)
	}

	missing, err := client.GetSection(ctx, "does-not-exist")
	if err != nil || missing != nil {
		t.Errorf("GetSection(missing) = %+v, %v; want nil, nil", missing, err)
	}

	client.DeleteIndex(ctx)
}

func containsID(docs []models.SectionDocument, id string) bool {
	for _, d := range docs {
		if d.ID == id {
			return true
		}
	}
	return false
}
