package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rmax-ai/schedgraph/pkg/client"
	"github.com/rmax-ai/schedgraph/pkg/domain"
)

// Server adapts schedgraph-d to the Model Context Protocol.
type Server struct {
	mcpServer *server.MCPServer
	apiClient *client.Client
}

// NewServer creates a new MCP server instance.
func NewServer(apiURL string) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"schedgraph",
			"1.0.0",
		),
		apiClient: client.NewClient(apiURL),
	}
	s.registerResources()
	s.registerTools()
	s.registerPrompts()
	return s
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// --- Resources ---

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(
		"schedgraph://summary",
		"Schedule Graph Summary",
		mcp.WithResourceDescription("Node and edge counts, periods, technicians and work orders of the loaded instance"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadSummary)
}

// --- Tools ---

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"find_assignments",
		mcp.WithDescription("List the technician assignments touching a two-week period or any of its days."),
		mcp.WithString("period", mcp.Required(), mcp.Description("First day of the period, YYYY-MM-DD")),
		mcp.WithBoolean("active", mcp.Description("Leave out retracted assignments (default false)")),
	), s.handleFindAssignments)

	s.mcpServer.AddTool(mcp.NewTool(
		"period_capacity",
		mcp.WithDescription("Show the technician hours available in a period, in total and per skill."),
		mcp.WithString("period", mcp.Required(), mcp.Description("First day of the period, YYYY-MM-DD")),
	), s.handlePeriodCapacity)

	s.mcpServer.AddTool(mcp.NewTool(
		"work_order",
		mcp.WithDescription("Show the activities, excluded periods and scheduling parameter of a work order."),
		mcp.WithString("number", mcp.Required(), mcp.Description("The 10-digit work order number")),
	), s.handleWorkOrder)
}

// --- Prompts ---

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(mcp.NewPrompt(
		"schedgraph-aware",
		mcp.WithPromptDescription("Provides context about schedgraph concepts (periods, work orders, technicians, capacity)"),
	), s.handleGetPrompt)
}

// --- Handlers ---

func (s *Server) handleReadSummary(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	summary, err := s.apiClient.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch summary: %w", err)
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleFindAssignments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	period, err := domain.ParsePeriod(mcp.ParseString(request, "period", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid period: %v", err)), nil
	}
	active := mcp.ParseBoolean(request, "active", false)

	resp, err := s.apiClient.Assignments(ctx, period, active)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}

	if len(resp.Assignments) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No assignments in period %s.", period)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d assignments in period %s:\n", len(resp.Assignments), period)
	for _, a := range resp.Assignments {
		members := make([]string, len(a.Nodes))
		for i, n := range a.Nodes {
			members[i] = n.Kind + "(" + n.Value + ")"
		}
		fmt.Fprintf(&b, "- #%d %s", a.ID, strings.Join(members, " "))
		if a.Shift != nil {
			fmt.Fprintf(&b, " shift %s", a.Shift)
		}
		if a.Retracted {
			b.WriteString(" [retracted]")
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handlePeriodCapacity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	period, err := domain.ParsePeriod(mcp.ParseString(request, "period", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid period: %v", err)), nil
	}

	capacity, err := s.apiClient.Capacity(ctx, period)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Period %s: %v hours", period, capacity.TotalHours)
	if capacity.Locked {
		b.WriteString(" (locked)")
	}
	b.WriteString("\n")
	for _, skill := range domain.Skills() {
		if hours, ok := capacity.SkillHours[skill]; ok {
			fmt.Fprintf(&b, "- %s: %v hours\n", skill, hours)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleWorkOrder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(mcp.ParseString(request, "number", "")), 10, 64)
	if err != nil {
		return mcp.NewToolResultError("invalid work order number"), nil
	}

	wo, err := s.apiClient.WorkOrder(ctx, domain.WorkOrderNumber(n))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}

	data, err := json.MarshalIndent(wo, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal work order: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleGetPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	if name != "schedgraph-aware" {
		return nil, fmt.Errorf("prompt not found: %s", name)
	}

	promptText := `You are reading a maintenance schedule held by schedgraph.

Concepts:
- Period: a 14-day planning window named by its first day (YYYY-MM-DD).
- Work order: a 10-digit maintenance job made of numbered activities, each needing one skill.
- Technician: a worker with skills and availability windows.
- Assignment: a technician placed on a work order for a period, or on an activity for specific days and a shift.
- Capacity: technician hours per period, in total and per skill.

Use 'find_assignments' to see who works in a period, 'period_capacity' to see how many hours are available,
and 'work_order' to inspect a job. The schedule is read-only through these tools.
`

	return mcp.NewGetPromptResult(
		"schedgraph-aware",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(promptText)),
		},
	), nil
}
