package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/schoolcms/schoolcms/internal/store"
)

const (
	settingsURI    = "school://settings"
	newsURIPrefix  = "school://news/"
	newsURIPattern = newsURIPrefix + "{id}"
)

// registerResources adds MCP resource definitions to the server. Resources
// provide read-only data that LLM clients can load into their context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {

	// -------------------------------------------------------------------
	// school://settings: site-wide settings
	// -------------------------------------------------------------------
	srv.AddResource(
		mcp.NewResource(
			settingsURI,
			"Site Settings",
			mcp.WithResourceDescription(
				"School name, slogan, contact details and the other site-wide settings.",
			),
			mcp.WithMIMEType("application/json"),
		),
		s.handleSettingsResource,
	)

	// -------------------------------------------------------------------
	// school://news/{id}: one news article (template)
	// -------------------------------------------------------------------
	srv.AddResourceTemplate(
		mcp.NewResourceTemplate(
			newsURIPattern,
			"News Article",
			mcp.WithTemplateDescription("A single news article with its full content."),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleNewsResource,
	)
}

func (s *MCPServer) handleSettingsResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	values, err := s.settingsMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return jsonResource(settingsURI, values)
}

func (s *MCPServer) handleNewsResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	uri := request.Params.URI
	raw := strings.TrimPrefix(uri, newsURIPrefix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if raw == uri || err != nil || id < 1 {
		return nil, fmt.Errorf("invalid news URI %q: expected %s", uri, newsURIPattern)
	}

	n, err := s.store.GetNews(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("news article %d not found", id)
		}
		return nil, fmt.Errorf("failed to get news %d: %w", id, err)
	}
	return jsonResource(uri, n)
}

func jsonResource(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
