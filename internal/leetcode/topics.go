package leetcode

import (
	"fmt"
	"strings"

	"github.com/mfenderov/doculens/pkg/models"
)

// DefaultTag is used when a title matches no known topic.
const DefaultTag = "array"

// topicTags maps documentation topic words to LeetCode tags. Both singular
// and plural forms are listed so titles match either way.
var topicTags = map[string]string{
	"list":                "array",
	"lists":               "array",
	"array":               "array",
	"arrays":              "array",
	"vector":              "array",
	"vectors":             "array",
	"string":              "string",
	"strings":             "string",
	"dictionary":          "hash-table",
	"dictionaries":        "hash-table",
	"hash":                "hash-table",
	"set":                 "hash-table",
	"sets":                "hash-table",
	"function":            "design",
	"functions":           "design",
	"class":               "design",
	"classes":             "design",
	"recursion":           "recursion",
	"sorting":             "sorting",
	"searching":           "binary-search",
	"tree":                "tree",
	"trees":               "tree",
	"graph":               "graph",
	"graphs":              "graph",
	"dynamic programming": "dynamic-programming",
}

// TagForTopic maps a single topic word or phrase to a LeetCode tag, falling
// back to DefaultTag.
func TagForTopic(topic string) string {
	if tag, ok := topicTags[strings.ToLower(strings.TrimSpace(topic))]; ok {
		return tag
	}
	return DefaultTag
}

// TagForTitle scans a section title for the first known topic, checking
// multi-word phrases before single words.
func TagForTitle(title string) string {
	lower := strings.ToLower(title)
	if strings.Contains(lower, "dynamic programming") {
		return topicTags["dynamic programming"]
	}

	words := strings.FieldsFunc(lower, func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})
	for _, w := range words {
		if tag, ok := topicTags[w]; ok {
			return tag
		}
	}
	return DefaultTag
}

type curatedProblem struct {
	id         string
	title      string
	difficulty string
}

// curated is the offline fallback, keyed by tag.
var curated = map[string][]curatedProblem{
	"array": {
		{"1", "Two Sum", "easy"},
		{"121", "Best Time to Buy and Sell Stock", "easy"},
		{"217", "Contains Duplicate", "easy"},
		{"283", "Move Zeroes", "easy"},
		{"15", "3Sum", "medium"},
		{"53", "Maximum Subarray", "medium"},
		{"238", "Product of Array Except Self", "medium"},
		{"4", "Median of Two Sorted Arrays", "hard"},
	},
	"string": {
		{"20", "Valid Parentheses", "easy"},
		{"242", "Valid Anagram", "easy"},
		{"125", "Valid Palindrome", "easy"},
		{"3", "Longest Substring Without Repeating Characters", "medium"},
		{"5", "Longest Palindromic Substring", "medium"},
		{"76", "Minimum Window Substring", "hard"},
	},
	"hash-table": {
		{"1", "Two Sum", "easy"},
		{"217", "Contains Duplicate", "easy"},
		{"49", "Group Anagrams", "medium"},
		{"128", "Longest Consecutive Sequence", "medium"},
	},
	"tree": {
		{"94", "Binary Tree Inorder Traversal", "easy"},
		{"104", "Maximum Depth of Binary Tree", "easy"},
		{"226", "Invert Binary Tree", "easy"},
		{"102", "Binary Tree Level Order Traversal", "medium"},
		{"124", "Binary Tree Maximum Path Sum", "hard"},
	},
	"dynamic-programming": {
		{"70", "Climbing Stairs", "easy"},
		{"198", "House Robber", "medium"},
		{"322", "Coin Change", "medium"},
		{"72", "Edit Distance", "hard"},
	},
}

// Fallback returns curated problems for tag (array when unknown), filtered
// by difficulty when set and capped at limit.
func Fallback(tag, difficulty string, limit int) []models.ProblemCandidate {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(tag)), " ", "-")
	problems, ok := curated[key]
	if !ok {
		problems = curated[DefaultTag]
	}
	difficulty = strings.ToLower(difficulty)

	var out []models.ProblemCandidate
	for _, p := range problems {
		if difficulty != "" && p.difficulty != difficulty {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, models.ProblemCandidate{
			Title:       p.title,
			URL:         problemBaseURL + strings.ReplaceAll(strings.ToLower(p.title), " ", "-") + "/",
			Platform:    Platform,
			Difficulty:  p.difficulty,
			Description: fmt.Sprintf("LeetCode #%s", p.id),
			Tags:        []string{tag},
			OrderIndex:  len(out),
		})
	}
	return out
}
