// Package storage archives rendered documentation sections in S3/MinIO.
//
// Each ingestion run writes under its own prefix:
//
//	archives/{language}/{timestamp}-{runID}/metadata.json
//	archives/{language}/{timestamp}-{runID}/pages/{sectionID}.md
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	manifestName = "metadata.json"
	pagesDir     = "pages"
)

// Config locates the section archive.
type Config struct {
	Endpoint        string // host:port of the S3 API, e.g. "localhost:9000" for MinIO
	Bucket          string // "doculens"
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// Client reads and writes archived ingestion runs.
type Client struct {
	minioClient *minio.Client
	bucket      string
}

// New creates an archive client. No request is made until first use.
func New(config Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("archive endpoint is required")
	}
	if config.Bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}

	minioClient, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create archive client for %s: %w", config.Endpoint, err)
	}

	return &Client{
		minioClient: minioClient,
		bucket:      config.Bucket,
	}, nil
}

// EnsureBucket makes sure the archive bucket exists before a run writes to it.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.minioClient.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to look up archive bucket %s: %w", c.bucket, err)
	}
	if exists {
		return nil
	}

	if err := c.minioClient.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create archive bucket %s: %w", c.bucket, err)
	}
	return nil
}

// RunPrefix returns the object prefix for one ingestion run of a language:
// archives/{language}/{timestamp}-{runID}.
func RunPrefix(language string, at time.Time, runID string) string {
	lang := strings.ToLower(strings.Join(strings.Fields(language), "-"))
	return path.Join("archives", lang, at.UTC().Format("2006-01-02T15-04-05")+"-"+runID)
}

// ArchivedSection is one entry of an archive manifest.
type ArchivedSection struct {
	SectionID string `json:"section_id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	File      string `json:"file"`
}

// ArchiveMetadata is the manifest of one run: which sections were archived
// and under which file.
type ArchiveMetadata struct {
	Language     string            `json:"language"`
	SourceURL    string            `json:"source_url,omitempty"`
	Timestamp    string            `json:"timestamp"`
	SectionCount int               `json:"section_count"`
	Sections     []ArchivedSection `json:"sections"`
}

// PutMarkdown stores one rendered section of the run at prefix.
func (c *Client) PutMarkdown(ctx context.Context, prefix, filename, content string) error {
	key := path.Join(prefix, pagesDir, filename)

	_, err := c.minioClient.PutObject(ctx, c.bucket, key, strings.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: "text/markdown",
	})
	if err != nil {
		return fmt.Errorf("failed to archive section %s: %w", key, err)
	}
	return nil
}

// PutMetadata writes the run manifest. It is written last, once every
// section of the run has been archived.
func (c *Client) PutMetadata(ctx context.Context, prefix string, meta ArchiveMetadata) error {
	key := path.Join(prefix, manifestName)

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode archive manifest: %w", err)
	}

	_, err = c.minioClient.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to write archive manifest %s: %w", key, err)
	}
	return nil
}

// ListMarkdownFiles returns the section files archived under a run prefix,
// whether or not the manifest lists them.
func (c *Client) ListMarkdownFiles(ctx context.Context, prefix string) ([]string, error) {
	var files []string

	objects := c.minioClient.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    path.Join(prefix, pagesDir) + "/",
		Recursive: true,
	})
	for object := range objects {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list archived sections under %s: %w", prefix, object.Err)
		}
		if strings.HasSuffix(object.Key, ".md") {
			files = append(files, path.Base(object.Key))
		}
	}

	return files, nil
}

// GetMarkdown reads one archived section back.
func (c *Client) GetMarkdown(ctx context.Context, prefix, filename string) (string, error) {
	data, err := c.read(ctx, path.Join(prefix, pagesDir, filename))
	if err != nil {
		return "", fmt.Errorf("failed to read archived section %s: %w", filename, err)
	}
	return string(data), nil
}

// GetMetadata reads the manifest of a run.
func (c *Client) GetMetadata(ctx context.Context, prefix string) (*ArchiveMetadata, error) {
	data, err := c.read(ctx, path.Join(prefix, manifestName))
	if err != nil {
		return nil, fmt.Errorf("failed to read archive manifest for %s: %w", prefix, err)
	}

	var meta ArchiveMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode archive manifest for %s: %w", prefix, err)
	}
	return &meta, nil
}

// read returns the whole object at key. GetObject is lazy, so a missing key
// surfaces on the first read.
func (c *Client) read(ctx context.Context, key string) ([]byte, error) {
	object, err := c.minioClient.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer object.Close()

	return io.ReadAll(object)
}

// Bucket is the archive bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}
