package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mfenderov/doculens/internal/elasticsearch"
	"github.com/mfenderov/doculens/pkg/models"
)

// Config holds MCP server configuration.
type Config struct {
	Name    string
	Version string
}

// Catalog is the read side of the section store.
type Catalog interface {
	GetLanguageByName(ctx context.Context, name string) (*models.Language, error)
	ListSections(ctx context.Context, languageID string) ([]models.Section, error)
	GetSection(ctx context.Context, id string) (*models.Section, error)
	ListCodeExamples(ctx context.Context, sectionID string) ([]models.CodeExample, error)
	ListVideos(ctx context.Context, sectionID string) ([]models.VideoCandidate, error)
	ListProblems(ctx context.Context, sectionID string) ([]models.ProblemCandidate, error)
}

// Searcher runs full-text queries over indexed sections.
type Searcher interface {
	Search(ctx context.Context, query string, filter elasticsearch.Filter, limit int) ([]models.SectionDocument, error)
}

var errNoSearch = errors.New("search index not configured")

// Server wraps the MCP server with the section catalog and search index.
type Server struct {
	mcpServer *server.MCPServer
	catalog   Catalog
	search    Searcher // nil disables search_sections
}

// SectionDetail is a stored section with everything attached to it.
type SectionDetail struct {
	models.Section
	CodeExamples []models.CodeExample      `json:"code_examples"`
	Videos       []models.VideoCandidate   `json:"videos"`
	Problems     []models.ProblemCandidate `json:"practice_problems"`
}

// SectionSummary is a compact listing entry.
type SectionSummary struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	OrderIndex       int               `json:"order_index"`
	Difficulty       models.Difficulty `json:"difficulty"`
	EstimatedMinutes int               `json:"estimated_time_minutes"`
	IsQuickPath      bool              `json:"is_quick_path"`
	Summary          string            `json:"content_summary"`
}

// NewServer creates a new MCP server with section tools.
func NewServer(config Config, catalog Catalog, search Searcher) *Server {
	mcpServer := server.NewMCPServer(
		config.Name,
		config.Version,
		server.WithToolCapabilities(true),
	)

	s := &Server{
		mcpServer: mcpServer,
		catalog:   catalog,
		search:    search,
	}

	searchTool := mcp.NewTool("search_sections",
		mcp.WithDescription("Search ingested documentation sections by query. Returns matching sections with their summaries."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query string"),
		),
		mcp.WithString("language",
			mcp.Description("Restrict results to one language, e.g. python"),
		),
		mcp.WithString("difficulty",
			mcp.Description("Restrict results to easy, medium or hard sections"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (default: 10)"),
		),
	)
	mcpServer.AddTool(searchTool, s.searchHandler)

	getTool := mcp.NewTool("get_section",
		mcp.WithDescription("Get a documentation section by ID, with its code examples, videos and practice problems"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Section ID to retrieve"),
		),
	)
	mcpServer.AddTool(getTool, s.getSectionHandler)

	listTool := mcp.NewTool("list_sections",
		mcp.WithDescription("List the sections of an ingested language in learning order"),
		mcp.WithString("language",
			mcp.Required(),
			mcp.Description("Language name, e.g. Python"),
		),
		mcp.WithBoolean("quick_path_only",
			mcp.Description("Only return sections on the quick path"),
		),
	)
	mcpServer.AddTool(listTool, s.listSectionsHandler)

	return s
}

// searchHandler handles the search_sections tool call.
func (s *Server) searchHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	filter := elasticsearch.Filter{
		Language:   req.GetString("language", ""),
		Difficulty: req.GetString("difficulty", ""),
	}
	limit := req.GetInt("limit", 10)

	docs, err := s.handleSearch(ctx, query, filter, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	return jsonResult(docs)
}

// getSectionHandler handles the get_section tool call.
func (s *Server) getSectionHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	detail, err := s.handleGetSection(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get section failed: %v", err)), nil
	}

	return jsonResult(detail)
}

// listSectionsHandler handles the list_sections tool call.
func (s *Server) listSectionsHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	language, err := req.RequireString("language")
	if err != nil {
		return mcp.NewToolResultError("language parameter is required"), nil
	}

	sections, err := s.handleListSections(ctx, language, req.GetBool("quick_path_only", false))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list sections failed: %v", err)), nil
	}

	return jsonResult(sections)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(result)), nil
}

// handleSearch searches indexed sections matching the query.
func (s *Server) handleSearch(ctx context.Context, query string, filter elasticsearch.Filter, limit int) ([]models.SectionDocument, error) {
	if s.search == nil {
		return nil, errNoSearch
	}
	return s.search.Search(ctx, query, filter, limit)
}

// handleGetSection loads a section and its attachments from the catalog.
func (s *Server) handleGetSection(ctx context.Context, id string) (*SectionDetail, error) {
	sec, err := s.catalog.GetSection(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &SectionDetail{Section: *sec}
	if detail.CodeExamples, err = s.catalog.ListCodeExamples(ctx, id); err != nil {
		return nil, err
	}
	if detail.Videos, err = s.catalog.ListVideos(ctx, id); err != nil {
		return nil, err
	}
	if detail.Problems, err = s.catalog.ListProblems(ctx, id); err != nil {
		return nil, err
	}
	return detail, nil
}

// handleListSections lists a language's sections in order.
func (s *Server) handleListSections(ctx context.Context, language string, quickOnly bool) ([]SectionSummary, error) {
	lang, err := s.catalog.GetLanguageByName(ctx, language)
	if err != nil {
		return nil, err
	}

	sections, err := s.catalog.ListSections(ctx, lang.ID)
	if err != nil {
		return nil, err
	}

	out := make([]SectionSummary, 0, len(sections))
	for _, sec := range sections {
		if quickOnly && !sec.IsQuickPath {
			continue
		}
		out = append(out, SectionSummary{
			ID:               sec.ID,
			Title:            sec.Title,
			OrderIndex:       sec.OrderIndex,
			Difficulty:       sec.Difficulty,
			EstimatedMinutes: sec.EstimatedMinutes,
			IsQuickPath:      sec.IsQuickPath,
			Summary:          sec.Summary,
		})
	}
	return out, nil
}

// ServeStdio starts the MCP server using stdio transport.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
