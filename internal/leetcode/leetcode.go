// Package leetcode finds practice problems for a documentation topic. When
// the LeetCode GraphQL endpoint is unavailable it answers from a small
// curated table so callers always get something for the common tags.
package leetcode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mfenderov/doculens/pkg/models"
)

const (
	// DefaultGraphQLURL is LeetCode's public GraphQL endpoint.
	DefaultGraphQLURL = "https://leetcode.com/graphql"

	// Platform is the value stored on every candidate.
	Platform = "leetcode"

	problemBaseURL = "https://leetcode.com/problems/"
	maxTags        = 5
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

const questionListQuery = `query problemsetQuestionList($categorySlug: String, $limit: Int, $filters: QuestionListFilterInput) {
  problemsetQuestionList: questionList(categorySlug: $categorySlug, limit: $limit, filters: $filters) {
    questions: data {
      questionId
      questionFrontendId
      title
      titleSlug
      difficulty
      topicTags { name slug }
      acRate
    }
  }
}`

// Config holds LeetCode client configuration.
type Config struct {
	GraphQLURL string
	Timeout    time.Duration
}

// Client queries the problem bank.
type Client struct {
	httpClient *http.Client
	graphqlURL string
}

// New creates a LeetCode client.
func New(config Config) *Client {
	if config.GraphQLURL == "" {
		config.GraphQLURL = DefaultGraphQLURL
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		graphqlURL: config.GraphQLURL,
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type question struct {
	QuestionFrontendID string  `json:"questionFrontendId"`
	Title              string  `json:"title"`
	TitleSlug          string  `json:"titleSlug"`
	Difficulty         string  `json:"difficulty"`
	ACRate             float64 `json:"acRate"`
	TopicTags          []struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	} `json:"topicTags"`
}

type graphqlResponse struct {
	Data struct {
		ProblemsetQuestionList struct {
			Questions []question `json:"questions"`
		} `json:"problemsetQuestionList"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Search returns up to limit problems tagged tag, optionally filtered by
// difficulty (easy, medium or hard, any case). It never fails: any upstream
// error falls back to the curated table.
func (c *Client) Search(ctx context.Context, tag, difficulty string, limit int) []models.ProblemCandidate {
	if limit <= 0 {
		limit = 10
	}
	tag = strings.ToLower(strings.TrimSpace(tag))
	difficulty = strings.ToLower(strings.TrimSpace(difficulty))

	problems, err := c.query(ctx, tag, difficulty, limit)
	if err != nil {
		slog.Warn("leetcode query failed, using curated problems", "tag", tag, "error", err)
		return Fallback(tag, difficulty, limit)
	}

	slog.Info("found problems", "tag", tag, "count", len(problems))
	return problems
}

func (c *Client) query(ctx context.Context, tag, difficulty string, limit int) ([]models.ProblemCandidate, error) {
	filters := map[string]any{"tags": []string{tag}}
	if difficulty != "" {
		filters["difficulty"] = strings.ToUpper(difficulty)
	}

	body, err := json.Marshal(graphqlRequest{
		Query: questionListQuery,
		Variables: map[string]any{
			"categorySlug": "",
			"limit":        limit,
			"filters":      filters,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d)", resp.StatusCode)
	}

	var gql graphqlResponse
	if err := json.Unmarshal(respBody, &gql); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(gql.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s", gql.Errors[0].Message)
	}

	questions := gql.Data.ProblemsetQuestionList.Questions
	problems := make([]models.ProblemCandidate, 0, len(questions))
	for i, q := range questions {
		tags := make([]string, 0, len(q.TopicTags))
		for _, t := range q.TopicTags {
			tags = append(tags, t.Name)
		}
		if len(tags) > maxTags {
			tags = tags[:maxTags]
		}

		problems = append(problems, models.ProblemCandidate{
			Title:       q.Title,
			URL:         problemBaseURL + q.TitleSlug + "/",
			Platform:    Platform,
			Difficulty:  strings.ToLower(q.Difficulty),
			Description: fmt.Sprintf("LeetCode #%s - Acceptance: %.1f%%", q.QuestionFrontendID, q.ACRate),
			Tags:        tags,
			OrderIndex:  i,
		})
	}
	return problems, nil
}
