package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/schoolcms/schoolcms/internal/model"
	"github.com/schoolcms/schoolcms/internal/store"
)

func newTestServer(t *testing.T) (*MCPServer, *store.Store) {
	t.Helper()
	st, err := store.Open(store.Options{})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewMCPServer(st, "test", slog.New(slog.NewTextHandler(io.Discard, nil))), st
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

// resultText returns the text of a single-content tool result.
func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected 1 content item, got %d", len(res.Content))
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestListNewsTool(t *testing.T) {
	s, st := newTestServer(t)
	ctx := context.Background()
	for _, title := range []string{"Open day", "Science fair", "Graduation"} {
		if err := st.CreateNews(ctx, &model.News{Title: title}); err != nil {
			t.Fatal(err)
		}
	}

	res, err := s.handleListNews(ctx, callRequest(map[string]interface{}{"limit": float64(2)}))
	if err != nil || res.IsError {
		t.Fatalf("unexpected failure: %v %v", err, res)
	}

	var body struct {
		News       []model.News     `json:"news"`
		Pagination model.Pagination `json:"pagination"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.News) != 2 || body.News[0].Title != "Graduation" {
		t.Errorf("unexpected news page %+v", body.News)
	}
	if body.Pagination.Total != 3 || body.Pagination.TotalPages != 2 {
		t.Errorf("unexpected pagination %+v", body.Pagination)
	}
}

func TestGetNewsTool(t *testing.T) {
	s, st := newTestServer(t)
	ctx := context.Background()
	n := &model.News{Title: "Open day", Content: "Doors open at 9."}
	if err := st.CreateNews(ctx, n); err != nil {
		t.Fatal(err)
	}

	res, _ := s.handleGetNews(ctx, callRequest(map[string]interface{}{"id": float64(n.ID)}))
	if res.IsError || !strings.Contains(resultText(t, res), "Doors open at 9.") {
		t.Errorf("unexpected result %v", res)
	}

	res, _ = s.handleGetNews(ctx, callRequest(map[string]interface{}{"id": float64(999)}))
	if !res.IsError || !strings.Contains(resultText(t, res), "not found") {
		t.Errorf("expected not found error, got %v", res)
	}

	res, _ = s.handleGetNews(ctx, callRequest(nil))
	if !res.IsError {
		t.Error("expected error for missing id")
	}
}

func TestListTeachersToolFiltersDepartment(t *testing.T) {
	s, st := newTestServer(t)
	ctx := context.Background()
	st.CreateTeacher(ctx, &model.Teacher{Name: "Ms. Li", Department: "Math", OrderNum: 1})
	st.CreateTeacher(ctx, &model.Teacher{Name: "Mr. Chen", Department: "Art", OrderNum: 2})

	res, _ := s.handleListTeachers(ctx, callRequest(map[string]interface{}{"department": "Art"}))
	text := resultText(t, res)
	if !strings.Contains(text, "Mr. Chen") || strings.Contains(text, "Ms. Li") {
		t.Errorf("department filter not applied: %s", text)
	}
}

func TestListActivitiesTool(t *testing.T) {
	s, st := newTestServer(t)
	ctx := context.Background()
	st.AppendActivity(ctx, model.ActivityNews, "added news: Open day", nil)

	res, _ := s.handleListActivities(ctx, callRequest(nil))
	if res.IsError || !strings.Contains(resultText(t, res), "added news: Open day") {
		t.Errorf("unexpected result %v", res)
	}
}

func TestSettingsResource(t *testing.T) {
	s, st := newTestServer(t)
	ctx := context.Background()
	if err := st.SaveSettings(ctx, map[string]string{"school_name": "Riverside Primary"}); err != nil {
		t.Fatal(err)
	}

	var req mcp.ReadResourceRequest
	req.Params.URI = settingsURI
	contents, err := s.handleSettingsResource(ctx, req)
	if err != nil {
		t.Fatalf("read resource: %v", err)
	}
	text := contents[0].(mcp.TextResourceContents)
	var values map[string]string
	if err := json.Unmarshal([]byte(text.Text), &values); err != nil {
		t.Fatal(err)
	}
	if values["school_name"] != "Riverside Primary" {
		t.Errorf("school_name = %q", values["school_name"])
	}

	tool, _ := s.handleGetSettings(ctx, callRequest(nil))
	if !strings.Contains(resultText(t, tool), "Riverside Primary") {
		t.Error("settings tool and resource disagree")
	}
}

func TestNewsResourceInvalidURI(t *testing.T) {
	s, _ := newTestServer(t)

	for _, uri := range []string{"school://news/abc", "school://news/0", "school://other/1"} {
		var req mcp.ReadResourceRequest
		req.Params.URI = uri
		if _, err := s.handleNewsResource(context.Background(), req); err == nil {
			t.Errorf("expected error for %q", uri)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		val      int
		min      int
		max      int
		expected int
	}{
		{"value in range", 5, 1, 10, 5},
		{"value below min", -3, 1, 10, 1},
		{"value above max", 15, 1, 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clamp(tt.val, tt.min, tt.max); got != tt.expected {
				t.Errorf("clamp(%d, %d, %d) = %d, want %d", tt.val, tt.min, tt.max, got, tt.expected)
			}
		})
	}
}

func TestReadOnlyAnnotation(t *testing.T) {
	ann := readOnlyAnnotation()
	if ann.ReadOnlyHint == nil || !*ann.ReadOnlyHint {
		t.Errorf("ReadOnlyHint = %v, want true", ann.ReadOnlyHint)
	}
}
