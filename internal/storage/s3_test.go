package storage

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "empty endpoint",
			config:  Config{Endpoint: "", Bucket: "test"},
			wantErr: true,
		},
		{
			name:    "empty bucket",
			config:  Config{Endpoint: "localhost:9000", Bucket: ""},
			wantErr: true,
		},
		{
			name: "valid config",
			config: Config{
				Endpoint:        "localhost:9000",
				Bucket:          "test",
				AccessKeyID:     "minioadmin",
				SecretAccessKey: "minioadmin",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunPrefix(t *testing.T) {
	at := time.Date(2026, 10, 18, 17, 30, 5, 0, time.FixedZone("CEST", 2*3600))

	tests := []struct {
		language string
		want     string
	}{
		{"Python", "archives/python/2026-10-18T15-30-05-run1"},
		{"Rust", "archives/rust/2026-10-18T15-30-05-run1"},
		{"Python 3", "archives/python-3/2026-10-18T15-30-05-run1"},
	}
	for _, tt := range tests {
		if got := RunPrefix(tt.language, at, "run1"); got != tt.want {
			t.Errorf("RunPrefix(%q) = %q, want %q", tt.language, got, tt.want)
		}
	}
}

// TestIntegration_S3Operations tests actual S3 operations against MinIO.
// Skip if MinIO is not running.
func TestIntegration_S3Operations(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:9000"
	}

	client, err := New(Config{
		Endpoint:        endpoint,
		Bucket:          "doculens-test",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		UseSSL:          false,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	ctx := context.Background()

	if err := client.EnsureBucket(ctx); err != nil {
		t.Skipf("MinIO not available, skipping integration test: %v", err)
	}

	prefix := RunPrefix("Python", time.Now(), "test123")
	content := "---\ntitle: \"Classes\"\n---\n\nClasses provide a means of bundling data."

	t.Run("PutMarkdown", func(t *testing.T) {
		if err := client.PutMarkdown(ctx, prefix, "abc123.md", content); err != nil {
			t.Fatalf("PutMarkdown() error = %v", err)
		}
	})

	t.Run("GetMarkdown", func(t *testing.T) {
		got, err := client.GetMarkdown(ctx, prefix, "abc123.md")
		if err != nil {
			t.Fatalf("GetMarkdown() error = %v", err)
		}
		if got != content {
			t.Errorf("GetMarkdown() = %q, want %q", got, content)
		}
	})

	t.Run("PutMetadata", func(t *testing.T) {
		meta := ArchiveMetadata{
			Language:     "Python",
			SourceURL:    "https://docs.python.org/3/tutorial/",
			Timestamp:    "2026-10-18T17:30:00Z",
			SectionCount: 1,
			Sections: []ArchivedSection{{
				SectionID: "s1", Title: "Classes",
				URL: "https://docs.python.org/3/tutorial/classes.html", File: "abc123.md",
			}},
		}
		if err := client.PutMetadata(ctx, prefix, meta); err != nil {
			t.Fatalf("PutMetadata() error = %v", err)
		}
	})

	t.Run("GetMetadata", func(t *testing.T) {
		meta, err := client.GetMetadata(ctx, prefix)
		if err != nil {
			t.Fatalf("GetMetadata() error = %v", err)
		}
		if meta.Language != "Python" || meta.SectionCount != 1 || len(meta.Sections) != 1 {
			t.Errorf("GetMetadata() = %+v", meta)
		}
	})

	t.Run("ListMarkdownFiles", func(t *testing.T) {
		files, err := client.ListMarkdownFiles(ctx, prefix)
		if err != nil {
			t.Fatalf("ListMarkdownFiles() error = %v", err)
		}
		if len(files) != 1 || files[0] != "abc123.md" {
			t.Errorf("ListMarkdownFiles() = %v, want [abc123.md]", files)
		}
	})

	t.Run("GetMetadataUnknownRun", func(t *testing.T) {
		if _, err := client.GetMetadata(ctx, RunPrefix("Python", time.Now(), "missing")); err == nil {
			t.Error("GetMetadata() should fail for a run that was never archived")
		}
	})
}
