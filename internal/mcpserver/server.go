// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes HomeworkHub tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/andrewcz-se/homeworkhub/internal/store"
	"github.com/andrewcz-se/homeworkhub/internal/subject"
	"github.com/andrewcz-se/homeworkhub/internal/sync"
	"github.com/andrewcz-se/homeworkhub/internal/taskservice"
)

// Server wraps the MCP server with HomeworkHub tools.
type Server struct {
	mcp        *server.MCPServer
	svc        *taskservice.Service
	reconciler *sync.Reconciler
	userID     string
}

// New creates a new MCP server with all HomeworkHub tools registered.
// Tools operate as userID, the same principal the HTTP API serves.
func New(svc *taskservice.Service, reconciler *sync.Reconciler, userID string) *Server {
	s := &Server{svc: svc, reconciler: reconciler, userID: userID}

	s.mcp = server.NewMCPServer(
		"HomeworkHub",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List homework tasks, optionally filtered by source or completion state."),
		mcp.WithString("source", mcp.Description("Filter by source: manual or toddle (empty for all)")),
		mcp.WithString("completed", mcp.Description("Filter by completion: true or false (empty for all)")),
	), s.listTasks)

	s.mcp.AddTool(mcp.NewTool("get_task",
		mcp.WithDescription("Read a single homework task by ID."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Task ID")),
	), s.getTask)

	s.mcp.AddTool(mcp.NewTool("add_task",
		mcp.WithDescription("Create a manual homework task. Subject must be one of: "+
			strings.Join(subject.Labels, ", ")+". Due date is YYYY-MM-DD."),
		mcp.WithString("taskName", mcp.Required(), mcp.Description("Task title")),
		mcp.WithString("subject", mcp.Required(), mcp.Description("School subject label")),
		mcp.WithString("dueDate", mcp.Required(), mcp.Description("Due date in YYYY-MM-DD format")),
		mcp.WithString("description", mcp.Description("Optional longer description")),
	), s.addTask)

	s.mcp.AddTool(mcp.NewTool("complete_task",
		mcp.WithDescription("Toggle a task's completed flag. Works for both manual and calendar-synced tasks."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Task ID")),
	), s.completeTask)

	s.mcp.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a manual task. Calendar-synced tasks cannot be deleted; "+
			"they are replaced wholesale on the next sync."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Task ID")),
	), s.deleteTask)

	s.mcp.AddTool(mcp.NewTool("sync_calendar",
		mcp.WithDescription("Run a calendar sync against the configured iCal feed now. "+
			"Replaces all synced tasks with the feed's current upcoming events."),
	), s.syncCalendar)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var f store.TaskFilter
	if src, err := req.RequireString("source"); err == nil {
		f.Source = src
	}
	if c, err := req.RequireString("completed"); err == nil && c != "" {
		done := c == "true"
		f.Completed = &done
	}

	tasks, err := s.svc.ListTasks(ctx, s.userID, f)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(tasks, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	task, err := s.svc.GetTask(ctx, s.userID, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(task, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) addTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("taskName")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	subj, err := req.RequireString("subject")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	due, err := req.RequireString("dueDate")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	desc := ""
	if d, err := req.RequireString("description"); err == nil {
		desc = d
	}

	task, err := s.svc.CreateTask(ctx, s.userID, taskservice.TaskInput{
		TaskName:    name,
		Subject:     subj,
		DueDate:     due,
		Description: desc,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", task.ID)), nil
}

func (s *Server) completeTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	task, err := s.svc.ToggleCompleted(ctx, s.userID, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	state := "incomplete"
	if task.Completed {
		state = "completed"
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s: %s", state, task.ID)), nil
}

func (s *Server) deleteTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteTask(ctx, s.userID, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) syncCalendar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	settings, err := s.svc.SyncSettings(ctx, s.userID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if settings.ICalURL == "" {
		return mcp.NewToolResultError("no feed url configured"), nil
	}
	res, err := s.reconciler.Reconcile(ctx, s.userID, settings.ICalURL)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("synced %d tasks", res.Count)), nil
}
