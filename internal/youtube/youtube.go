// Package youtube finds tutorial videos through the YouTube Data API v3.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mfenderov/doculens/pkg/models"
)

// ErrNoAPIKey is returned by Search when no API key is configured.
var ErrNoAPIKey = errors.New("youtube API key not configured")

const (
	// DefaultBaseURL is the YouTube Data API root.
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

	// Platform is the value stored on every candidate.
	Platform = "youtube"

	watchURL = "https://www.youtube.com/watch?v="
)

var durationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// Order is a search ranking accepted by the API.
type Order string

const (
	OrderRelevance Order = "relevance"
	OrderDate      Order = "date"
	OrderViewCount Order = "viewCount"
	OrderRating    Order = "rating"
)

// Config holds YouTube client configuration.
type Config struct {
	APIKey   string
	BaseURL  string
	Language string // relevanceLanguage filter
	Timeout  time.Duration
}

// Client searches for instructional videos.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	language   string
}

// New creates a YouTube client.
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Language == "" {
		config.Language = "en"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		apiKey:     config.APIKey,
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		language:   config.Language,
	}
}

// TutorialQuery builds the search query for a section of a language's docs.
func TutorialQuery(language, sectionTitle string) string {
	return strings.Join(strings.Fields(language+" "+sectionTitle+" tutorial"), " ")
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			Thumbnails   map[string]struct {
				URL string `json:"url"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

type videosResponse struct {
	Items []videoDetail `json:"items"`
}

type videoDetail struct {
	ID             string `json:"id"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
	Statistics struct {
		ViewCount string `json:"viewCount"`
	} `json:"statistics"`
}

// Search returns up to maxResults medium-length, high-definition videos for
// query, ranked by order. Duration and view count come from a second lookup
// joined by video ID; if that lookup fails the videos are returned without
// them.
func (c *Client) Search(ctx context.Context, query string, maxResults int, order Order) ([]models.VideoCandidate, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	if order == "" {
		order = OrderRelevance
	}

	params := url.Values{
		"part":              {"snippet"},
		"q":                 {query},
		"type":              {"video"},
		"maxResults":        {strconv.Itoa(maxResults)},
		"order":             {string(order)},
		"videoDuration":     {"medium"},
		"videoDefinition":   {"high"},
		"relevanceLanguage": {c.language},
		"key":               {c.apiKey},
	}

	var search searchResponse
	if err := c.get(ctx, "/search", params, &search); err != nil {
		return nil, fmt.Errorf("failed to search videos: %w", err)
	}

	ids := make([]string, 0, len(search.Items))
	for _, item := range search.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	details, err := c.details(ctx, ids)
	if err != nil {
		slog.Error("failed to fetch video details", "query", query, "error", err)
	}

	videos := make([]models.VideoCandidate, 0, len(ids))
	for _, item := range search.Items {
		id := item.ID.VideoID
		if id == "" {
			continue
		}
		v := models.VideoCandidate{
			Title:        item.Snippet.Title,
			URL:          watchURL + id,
			Platform:     Platform,
			ChannelName:  item.Snippet.ChannelTitle,
			ThumbnailURL: item.Snippet.Thumbnails["high"].URL,
			OrderIndex:   len(videos),
		}
		if d, ok := details[id]; ok {
			v.DurationSeconds = ParseDuration(d.ContentDetails.Duration)
			v.Views, _ = strconv.ParseInt(d.Statistics.ViewCount, 10, 64)
		}
		videos = append(videos, v)
	}

	slog.Info("found videos", "query", query, "count", len(videos))
	return videos, nil
}

func (c *Client) details(ctx context.Context, ids []string) (map[string]videoDetail, error) {
	params := url.Values{
		"part": {"contentDetails,statistics"},
		"id":   {strings.Join(ids, ",")},
		"key":  {c.apiKey},
	}

	var resp videosResponse
	if err := c.get(ctx, "/videos", params, &resp); err != nil {
		return nil, err
	}

	byID := make(map[string]videoDetail, len(resp.Items))
	for _, item := range resp.Items {
		byID[item.ID] = item
	}
	return byID, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// ParseDuration converts an ISO 8601 duration such as PT15M33S into
// seconds. Input that does not start with PT yields 0.
func ParseDuration(iso string) int {
	m := durationPattern.FindStringSubmatch(iso)
	if m == nil {
		return 0
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	return hours*3600 + minutes*60 + seconds
}
