// Package mcp exposes the bug store as MCP tools over stdio, so agent
// tooling can query and file bugs without going through the HTTP API.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jmahler/bugtrack/internal/models"
	"github.com/jmahler/bugtrack/internal/store"
	"github.com/jmahler/bugtrack/internal/validate"
)

// Server wraps the bug store and exposes it as MCP tools.
type Server struct {
	store store.Store
}

// NewServer creates the MCP server wrapper.
func NewServer(s store.Store) *Server {
	return &Server{store: s}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("bugtrack", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.listBugsTool())
	srv.AddTool(s.getBugTool())
	srv.AddTool(s.createBugTool())
	srv.AddTool(s.updateBugTool())
	srv.AddTool(s.deleteBugTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// bugOut is the JSON shape returned by every tool.
type bugOut struct {
	ID               string             `json:"id"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	Status           string             `json:"status"`
	Priority         string             `json:"priority"`
	Reporter         string             `json:"reporter"`
	Assignee         string             `json:"assignee,omitempty"`
	StepsToReproduce []string           `json:"steps_to_reproduce,omitempty"`
	Environment      models.Environment `json:"environment,omitempty"`
	CreatedAt        string             `json:"created_at"`
	UpdatedAt        string             `json:"updated_at"`
}

func toBugOut(b *models.Bug) bugOut {
	return bugOut{
		ID:               b.ID,
		Title:            b.Title,
		Description:      b.Description,
		Status:           string(b.Status),
		Priority:         string(b.Priority),
		Reporter:         b.Reporter,
		Assignee:         b.Assignee,
		StepsToReproduce: b.StepsToReproduce,
		Environment:      b.Environment,
		CreatedAt:        b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        b.UpdatedAt.Format(time.RFC3339),
	}
}

// bug_list
func (s *Server) listBugsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("bug_list",
		mcp.WithDescription("List bug reports, optionally filtered by status and/or priority, newest first. Returns a JSON object with bugs, total, totalPages, and currentPage."),
		mcp.WithString("status", mcp.Description("Status filter: open, in-progress, resolved, closed")),
		mcp.WithString("priority", mcp.Description("Priority filter: low, medium, high, critical")),
		mcp.WithNumber("page", mcp.Description("1-based page number (default 1)")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 10)")),
	)
	return tool, s.handleListBugs
}

func (s *Server) handleListBugs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := store.BugFilter{
		Status:   models.BugStatus(request.GetString("status", "")),
		Priority: models.BugPriority(request.GetString("priority", "")),
	}
	page := request.GetInt("page", 1)
	limit := request.GetInt("limit", 10)
	if page < 1 || limit < 1 {
		return mcp.NewToolResultError("page and limit must be positive integers"), nil
	}

	bugs, total, err := s.store.ListBugs(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list bugs: %v", err)), nil
	}

	out := make([]bugOut, len(bugs))
	for i, b := range bugs {
		out[i] = toBugOut(b)
	}

	result := map[string]any{
		"bugs":        out,
		"total":       total,
		"totalPages":  (total + limit - 1) / limit,
		"currentPage": page,
	}
	data, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal bugs: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// bug_get
func (s *Server) getBugTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("bug_get",
		mcp.WithDescription("Get a single bug report by id. Returns the bug as JSON."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Bug id (ULID)")),
	)
	return tool, s.handleGetBug
}

func (s *Server) handleGetBug(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}

	bug, err := s.store.GetBug(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get bug: %v", err)), nil
	}

	data, err := json.Marshal(toBugOut(bug))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal bug: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// bug_create
func (s *Server) createBugTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("bug_create",
		mcp.WithDescription("Create a new bug report. Returns the created bug as JSON."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Bug title (max 100 characters)")),
		mcp.WithString("description", mcp.Required(), mcp.Description("What went wrong")),
		mcp.WithString("reporter", mcp.Required(), mcp.Description("Who is reporting the bug")),
		mcp.WithString("status", mcp.Description("Status: open, in-progress, resolved, closed (default: open)")),
		mcp.WithString("priority", mcp.Description("Priority: low, medium, high, critical (default: medium)")),
		mcp.WithString("assignee", mcp.Description("Who the bug is assigned to")),
		mcp.WithString("steps", mcp.Description("Steps to reproduce, one per line")),
	)
	return tool, s.handleCreateBug
}

func (s *Server) handleCreateBug(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: title"), nil
	}
	description, err := request.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: description"), nil
	}
	reporter, err := request.RequireString("reporter")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: reporter"), nil
	}

	payload := validate.CreatePayload{
		Title:            title,
		Description:      description,
		Reporter:         reporter,
		Status:           request.GetString("status", ""),
		Priority:         request.GetString("priority", ""),
		Assignee:         request.GetString("assignee", ""),
		StepsToReproduce: splitSteps(request.GetString("steps", "")),
	}
	if err := payload.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	bug := payload.Normalize()
	if err := s.store.CreateBug(ctx, &bug); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create bug: %v", err)), nil
	}

	data, err := json.Marshal(toBugOut(&bug))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal bug: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// splitSteps turns multi-line tool input into the ordered step sequence the
// validator expects. The validator itself never splits text.
func splitSteps(raw string) []string {
	if raw == "" {
		return nil
	}
	var steps []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			steps = append(steps, line)
		}
	}
	return steps
}

// bug_update
func (s *Server) updateBugTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("bug_update",
		mcp.WithDescription("Update fields on an existing bug. Only supplied fields change. Returns the updated bug as JSON."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Bug id (ULID)")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("status", mcp.Description("New status: open, in-progress, resolved, closed")),
		mcp.WithString("priority", mcp.Description("New priority: low, medium, high, critical")),
		mcp.WithString("assignee", mcp.Description("New assignee")),
	)
	return tool, s.handleUpdateBug
}

func (s *Server) handleUpdateBug(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}

	var payload validate.UpdatePayload
	if v := request.GetString("title", ""); v != "" {
		payload.Title = &v
	}
	if v := request.GetString("description", ""); v != "" {
		payload.Description = &v
	}
	if v := request.GetString("status", ""); v != "" {
		payload.Status = &v
	}
	if v := request.GetString("priority", ""); v != "" {
		payload.Priority = &v
	}
	if v := request.GetString("assignee", ""); v != "" {
		payload.Assignee = &v
	}
	if err := payload.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	bug, err := s.store.GetBug(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get bug: %v", err)), nil
	}

	payload.Apply(bug)
	if err := s.store.UpdateBug(ctx, bug); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update bug: %v", err)), nil
	}

	data, err := json.Marshal(toBugOut(bug))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal bug: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// bug_delete
func (s *Server) deleteBugTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("bug_delete",
		mcp.WithDescription("Permanently delete a bug report by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Bug id (ULID)")),
	)
	return tool, s.handleDeleteBug
}

func (s *Server) handleDeleteBug(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}

	if err := s.store.DeleteBug(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete bug: %v", err)), nil
	}
	return mcp.NewToolResultText(`{"message": "Bug deleted successfully"}`), nil
}
