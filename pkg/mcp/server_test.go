package mcp

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rmax-ai/schedgraph/pkg/api"
	"github.com/rmax-ai/schedgraph/pkg/instance"
)

const fixture = `{
  "skills": ["MTN-MECH", "MTN-INST"],
  "periods": ["2025-03-03"],
  "work_orders": [
    {
      "number": 2200000001,
      "basic_start": "2025-03-04",
      "activities": [{"number": 10, "skill": "MTN-INST", "work": 5}],
      "weight": 2
    }
  ],
  "technicians": [{"id": 42, "skills": ["MTN-INST"]}],
  "capacity": [
    {"period": "2025-03-03", "technician": 42, "total_hours": 37.5, "skill_hours": {"MTN-INST": 37.5}}
  ],
  "assignments": [{"technician": 42, "work_order": 2200000001, "period": "2025-03-03"}],
  "period_locks": ["2025-03-03"]
}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	inst, err := instance.Parse(strings.NewReader(fixture))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	res, err := instance.Build(inst, instance.BuildOptions{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	res.Graph.Freeze()

	ts := httptest.NewServer(api.NewServer(res.Graph, res.Parameters, "", nil).Handler())
	t.Cleanup(ts.Close)
	return NewServer(ts.URL)
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatalf("Expected content in result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Expected TextContent, got %T", result.Content[0])
	}
	return text.Text
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func TestMCPServer_ReadSummary(t *testing.T) {
	s := newTestServer(t)

	req := mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: "schedgraph://summary",
		},
	}
	result, err := s.handleReadSummary(context.Background(), req)
	if err != nil {
		t.Fatalf("handleReadSummary failed: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("Expected 1 resource content, got %d", len(result))
	}

	content, ok := result[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("Expected TextResourceContents")
	}
	if content.MIMEType != "application/json" {
		t.Errorf("Expected application/json, got %s", content.MIMEType)
	}

	var summary map[string]any
	if err := json.Unmarshal([]byte(content.Text), &summary); err != nil {
		t.Fatalf("Failed to parse result JSON: %v", err)
	}
	if summary["frozen"] != true {
		t.Errorf("expected frozen graph in summary: %v", summary)
	}
}

func TestMCPServer_FindAssignments(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleFindAssignments(context.Background(), callRequest("find_assignments", map[string]any{
		"period": "2025-03-03",
		"active": true,
	}))
	if err != nil {
		t.Fatalf("handleFindAssignments failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("Expected success, got error: %s", toolText(t, result))
	}

	text := toolText(t, result)
	if !strings.Contains(text, "1 assignments") || !strings.Contains(text, "technician(42)") {
		t.Errorf("unexpected text: %q", text)
	}
}

func TestMCPServer_FindAssignments_Errors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		period string
	}{
		{"malformed", "March 3rd"},
		{"unknown", "2026-01-05"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.handleFindAssignments(context.Background(), callRequest("find_assignments", map[string]any{
				"period": tt.period,
			}))
			if err != nil {
				t.Fatalf("handler returned protocol error: %v", err)
			}
			if !result.IsError {
				t.Errorf("expected tool error for %q", tt.period)
			}
		})
	}
}

func TestMCPServer_PeriodCapacity(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handlePeriodCapacity(context.Background(), callRequest("period_capacity", map[string]any{
		"period": "2025-03-03",
	}))
	if err != nil {
		t.Fatalf("handlePeriodCapacity failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("Expected success, got error: %s", toolText(t, result))
	}

	text := toolText(t, result)
	for _, want := range []string{"37.5 hours", "(locked)", "MTN-INST"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in %q", want, text)
		}
	}
}

func TestMCPServer_WorkOrder(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleWorkOrder(context.Background(), callRequest("work_order", map[string]any{
		"number": "2200000001",
	}))
	if err != nil {
		t.Fatalf("handleWorkOrder failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("Expected success, got error: %s", toolText(t, result))
	}
	if !strings.Contains(toolText(t, result), `"basic_start": "2025-03-04"`) {
		t.Errorf("unexpected text: %s", toolText(t, result))
	}

	result, err = s.handleWorkOrder(context.Background(), callRequest("work_order", map[string]any{
		"number": "not-a-number",
	}))
	if err != nil {
		t.Fatalf("handleWorkOrder failed: %v", err)
	}
	if !result.IsError {
		t.Errorf("expected tool error for malformed number")
	}
}

func TestMCPServer_Prompt(t *testing.T) {
	s := newTestServer(t)

	req := mcp.GetPromptRequest{}
	req.Params.Name = "schedgraph-aware"
	result, err := s.handleGetPrompt(context.Background(), req)
	if err != nil {
		t.Fatalf("handleGetPrompt failed: %v", err)
	}
	if len(result.Messages) != 1 {
		t.Errorf("expected one prompt message, got %d", len(result.Messages))
	}

	req.Params.Name = "unknown"
	if _, err := s.handleGetPrompt(context.Background(), req); err == nil {
		t.Errorf("expected error for unknown prompt")
	}
}
