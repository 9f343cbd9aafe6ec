package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/schoolcms/schoolcms/internal/model"
	"github.com/schoolcms/schoolcms/internal/store"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// registerTools registers the read-only content tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	// ----- News -----

	srv.AddTool(
		mcp.NewTool("school_list_news",
			mcp.WithDescription(
				"List published news articles, newest first. Returns one page of "+
					"articles plus pagination totals.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithNumber("page",
				mcp.Description("1-based page number (default 1)"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Articles per page (default 10, max 100)"),
			),
		),
		s.handleListNews,
	)

	srv.AddTool(
		mcp.NewTool("school_get_news",
			mcp.WithDescription("Get one news article by id, including its full content."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("News article id"),
			),
		),
		s.handleGetNews,
	)

	// ----- People and home page -----

	srv.AddTool(
		mcp.NewTool("school_list_teachers",
			mcp.WithDescription("List staff profiles in display order."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("department",
				mcp.Description("Only return teachers of this department"),
			),
		),
		s.handleListTeachers,
	)

	srv.AddTool(
		mcp.NewTool("school_list_slides",
			mcp.WithDescription("List the home page carousel slides in display order."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListSlides,
	)

	// ----- Files and settings -----

	srv.AddTool(
		mcp.NewTool("school_list_downloads",
			mcp.WithDescription(
				"List files published for download, newest first, with their size "+
					"and download count.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("category",
				mcp.Description("Only return files in this category"),
			),
		),
		s.handleListDownloads,
	)

	srv.AddTool(
		mcp.NewTool("school_get_settings",
			mcp.WithDescription(
				"Get the site settings (school name, slogan, contact details, footer "+
					"text and any custom keys) as a key/value object.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleGetSettings,
	)

	// ----- Audit -----

	srv.AddTool(
		mcp.NewTool("school_list_activities",
			mcp.WithDescription(
				"List recent admin activity (logins, password changes, content edits), "+
					"newest first.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithNumber("page",
				mcp.Description("1-based page number (default 1)"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Entries per page (default 10, max 100)"),
			),
		),
		s.handleListActivities,
	)
}

// =========================================================================
// Tool handlers
// =========================================================================

func (s *MCPServer) handleListNews(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	page, limit := pageArgs(request)
	news, err := s.store.ListNews(ctx, page, limit)
	if err != nil {
		return toolError("Failed to list news: %v", err)
	}
	total, err := s.store.CountNews(ctx)
	if err != nil {
		return toolError("Failed to count news: %v", err)
	}

	return successJSON(map[string]interface{}{
		"news":       news,
		"pagination": model.NewPagination(total, page, limit),
	})
}

func (s *MCPServer) handleGetNews(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	id := optionalInt(request, "id", 0)
	if id < 1 {
		return toolError("Parameter \"id\" must be a positive integer. Use school_list_news to find ids.")
	}

	n, err := s.store.GetNews(ctx, int64(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return toolError("News article %d not found. Use school_list_news to find ids.", id)
		}
		return toolError("Failed to get news %d: %v", id, err)
	}
	return successJSON(n)
}

func (s *MCPServer) handleListTeachers(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	teachers, err := s.store.ListTeachers(ctx)
	if err != nil {
		return toolError("Failed to list teachers: %v", err)
	}

	if dept := optionalString(request, "department"); dept != "" {
		filtered := make([]model.Teacher, 0, len(teachers))
		for _, t := range teachers {
			if t.Department == dept {
				filtered = append(filtered, t)
			}
		}
		teachers = filtered
	}

	return successJSON(map[string]interface{}{
		"teachers": teachers,
		"count":    len(teachers),
	})
}

func (s *MCPServer) handleListSlides(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	slides, err := s.store.ListSlides(ctx)
	if err != nil {
		return toolError("Failed to list slides: %v", err)
	}
	return successJSON(map[string]interface{}{
		"slides": slides,
		"count":  len(slides),
	})
}

func (s *MCPServer) handleListDownloads(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	downloads, err := s.store.ListDownloads(ctx, optionalString(request, "category"))
	if err != nil {
		return toolError("Failed to list downloads: %v", err)
	}
	return successJSON(map[string]interface{}{
		"downloads": downloads,
		"count":     len(downloads),
	})
}

func (s *MCPServer) handleGetSettings(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	values, err := s.settingsMap(ctx)
	if err != nil {
		return toolError("Failed to load settings: %v", err)
	}
	return successJSON(values)
}

func (s *MCPServer) handleListActivities(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	page, limit := pageArgs(request)
	activities, err := s.store.ListActivities(ctx, page, limit)
	if err != nil {
		return toolError("Failed to list activities: %v", err)
	}
	total, err := s.store.CountActivities(ctx)
	if err != nil {
		return toolError("Failed to count activities: %v", err)
	}

	return successJSON(map[string]interface{}{
		"activities": activities,
		"pagination": model.NewPagination(total, page, limit),
	})
}

// settingsMap returns the site settings keyed by setting key.
func (s *MCPServer) settingsMap(ctx context.Context) (map[string]string, error) {
	settings, err := s.store.ListSettings(ctx)
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(settings))
	for _, st := range settings {
		values[st.Key] = st.Value
	}
	return values, nil
}

// pageArgs reads the page and limit arguments with the same bounds as the
// REST list endpoints.
func pageArgs(request mcp.CallToolRequest) (page, limit int) {
	page = optionalInt(request, "page", 1)
	if page < 1 {
		page = 1
	}
	limit = clamp(optionalInt(request, "limit", defaultLimit), 1, maxLimit)
	return page, limit
}
