// Package mcpserver exposes the record operations as MCP tools over stdio.
package mcpserver

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/chandan1819/nosql-mcp-server/internal/database"
	"github.com/chandan1819/nosql-mcp-server/internal/response"
	"github.com/chandan1819/nosql-mcp-server/internal/store"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/localrivet/gomcp/server"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrServerNotInitialized is returned by Start before Initialize.
var ErrServerNotInitialized = errors.New("server not initialized")

// Operation names reported in the envelope.
const (
	opCreate       = "create"
	opRead         = "read"
	opUpdate       = "update"
	opDelete       = "delete"
	opSearch       = "search"
	opTasksByUser  = "get_tasks_by_user"
	opTaskSummary  = "get_user_task_summary"
	opTasksByUsers = "get_tasks_by_users"
	opUnassigned   = "get_unassigned_tasks"
	opCapabilities = "get_query_capabilities"
)

// Server registers one MCP tool per record operation and serves them on stdio.
type Server struct {
	name      string
	manager   *database.Manager
	mcpServer server.Server
}

// New creates a Server that answers tool calls with manager.
func New(name string, manager *database.Manager) *Server {
	return &Server{name: name, manager: manager}
}

// Initialize registers the tools.
func (s *Server) Initialize() error {
	if s.manager == nil {
		return fmt.Errorf("mcp server initialization failed: %w", errors.New("missing database manager"))
	}
	slog.Info("Initializing MCP server", "name", s.name)

	srv := server.NewServer(s.name)

	srv = srv.Tool(ToolCreateRecord,
		"Create a record in a collection (users, tasks, products). Fields are validated and defaults applied.",
		s.handleCreateRecord)
	srv = srv.Tool(ToolReadRecords,
		"Read records from a collection, optionally filtered by a query expression.",
		s.handleReadRecords)
	srv = srv.Tool(ToolUpdateRecord,
		"Update every record matching the filters. Filters are required; id and created_at cannot change.",
		s.handleUpdateRecord)
	srv = srv.Tool(ToolDeleteRecord,
		"Delete every record matching the filters, or mark them deleted with soft_delete.",
		s.handleDeleteRecord)
	srv = srv.Tool(ToolSearchRecords,
		"Search a collection with a query expression using and/or/not and field operators.",
		s.handleSearchRecords)
	srv = srv.Tool(ToolTasksByUser,
		"List the tasks assigned to a user, optionally limited to one status.",
		s.handleTasksByUser)
	srv = srv.Tool(ToolUserTaskSummary,
		"Count a user's tasks by status and priority.",
		s.handleUserTaskSummary)
	srv = srv.Tool(ToolTasksByUsers,
		"Group the tasks of several users, optionally limited to one status.",
		s.handleTasksByUsers)
	srv = srv.Tool(ToolUnassignedTasks,
		"List tasks that have no assignee.",
		s.handleUnassignedTasks)
	srv = srv.Tool(ToolQueryCapabilities,
		"Describe the supported query operators with syntax examples.",
		s.handleQueryCapabilities)

	s.mcpServer = srv
	slog.Info("MCP server initialized", "tool_count", 10)
	return nil
}

// Start serves tool calls on stdin/stdout until stdin is closed.
func (s *Server) Start() error {
	if s.mcpServer == nil {
		return ErrServerNotInitialized
	}
	slog.Info("Starting MCP server on stdio", "name", s.name)
	return s.mcpServer.AsStdio().Run()
}

// normalizeArgs re-decodes a tool argument so that numbers follow the store's
// convention (int64 for integral values) instead of the transport's float64.
func normalizeArgs(args map[string]any) (map[string]any, error) {
	if len(args) == 0 {
		return args, nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", database.ErrInvalidArgument, err)
	}
	rec, err := store.DecodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", database.ErrInvalidArgument, err)
	}
	return rec, nil
}

func withRequestID(env response.Envelope) response.Envelope {
	return env.WithMetadata("request_id", uuid.NewString())
}

func failure(op string, err error, data any) response.Envelope {
	slog.Error("Tool call failed", "operation", op, "error", err)
	return withRequestID(response.Failure(op, err, data))
}

func (s *Server) handleCreateRecord(ctx *server.Context, req CreateRecordRequest) (response.Envelope, error) {
	slog.Info("Processing create_record request", "collection", req.Collection)

	data, err := normalizeArgs(req.Data)
	if err != nil {
		return failure(opCreate, err, nil), nil
	}
	rec, err := s.manager.Create(req.Collection, data)
	if err != nil {
		return failure(opCreate, err, nil), nil
	}
	env := response.Success(opCreate, fmt.Sprintf("Record created successfully in %s", req.Collection), rec, 1).
		WithMetadata("collection", req.Collection)
	return withRequestID(env), nil
}

func (s *Server) handleReadRecords(ctx *server.Context, req ReadRecordsRequest) (response.Envelope, error) {
	slog.Info("Processing read_records request", "collection", req.Collection, "filtered", len(req.Filters) > 0)

	filters, err := normalizeArgs(req.Filters)
	if err != nil {
		return failure(opRead, err, []store.Record{}), nil
	}
	recs, err := s.manager.Read(req.Collection, filters)
	if err != nil {
		return failure(opRead, err, []store.Record{}), nil
	}
	env := response.Success(opRead,
		fmt.Sprintf("Successfully retrieved %d records from %s", len(recs), req.Collection), recs, len(recs)).
		WithMetadata("collection", req.Collection)
	if len(filters) > 0 {
		env = env.WithMetadata("filters", filters)
	}
	return withRequestID(env), nil
}

func (s *Server) handleUpdateRecord(ctx *server.Context, req UpdateRecordRequest) (response.Envelope, error) {
	slog.Info("Processing update_record request", "collection", req.Collection)

	filters, err := normalizeArgs(req.Filters)
	if err != nil {
		return failure(opUpdate, err, []store.Record{}), nil
	}
	updates, err := normalizeArgs(req.Updates)
	if err != nil {
		return failure(opUpdate, err, []store.Record{}), nil
	}
	if len(updates) == 0 {
		return failure(opUpdate, fmt.Errorf("%w: updates must not be empty", database.ErrInvalidArgument), []store.Record{}), nil
	}
	recs, err := s.manager.Update(req.Collection, filters, updates)
	if err != nil {
		return failure(opUpdate, err, []store.Record{}), nil
	}
	msg := fmt.Sprintf("Successfully updated %d records in %s", len(recs), req.Collection)
	if len(recs) == 0 {
		msg = fmt.Sprintf("No records found matching the specified criteria in %s", req.Collection)
	}
	env := response.Success(opUpdate, msg, recs, len(recs)).WithMetadata("collection", req.Collection)
	return withRequestID(env), nil
}

func (s *Server) handleDeleteRecord(ctx *server.Context, req DeleteRecordRequest) (response.Envelope, error) {
	slog.Info("Processing delete_record request", "collection", req.Collection, "soft_delete", req.SoftDelete)

	filters, err := normalizeArgs(req.Filters)
	if err != nil {
		return failure(opDelete, err, []store.Record{}), nil
	}
	recs, err := s.manager.Delete(req.Collection, filters, req.SoftDelete)
	if err != nil {
		return failure(opDelete, err, []store.Record{}), nil
	}
	verb := "deleted"
	if req.SoftDelete {
		verb = "soft deleted"
	}
	msg := fmt.Sprintf("Successfully %s %d records from %s", verb, len(recs), req.Collection)
	if len(recs) == 0 {
		msg = fmt.Sprintf("No records found matching the specified criteria in %s", req.Collection)
	}
	env := response.Success(opDelete, msg, recs, len(recs)).
		WithMetadata("collection", req.Collection).
		WithMetadata("soft_delete", req.SoftDelete)
	return withRequestID(env), nil
}

func (s *Server) handleSearchRecords(ctx *server.Context, req SearchRecordsRequest) (response.Envelope, error) {
	slog.Info("Processing search_records request", "collection", req.Collection)

	expr, err := normalizeArgs(req.Query)
	if err != nil {
		return failure(opSearch, err, []store.Record{}), nil
	}
	recs, err := s.manager.Search(req.Collection, expr)
	if err != nil {
		return failure(opSearch, err, []store.Record{}), nil
	}
	env := response.Success(opSearch,
		fmt.Sprintf("Search completed: found %d matching records in %s", len(recs), req.Collection), recs, len(recs)).
		WithMetadata("collection", req.Collection)
	return withRequestID(env), nil
}

func (s *Server) handleTasksByUser(ctx *server.Context, req TasksByUserRequest) (response.Envelope, error) {
	slog.Info("Processing get_tasks_by_user request", "user_id", req.UserID, "status", req.Status)

	tasks, exists, err := s.manager.TasksByUser(req.UserID, req.Status)
	if err != nil {
		return failure(opTasksByUser, err, []store.Record{}), nil
	}
	msg := fmt.Sprintf("Successfully retrieved %d tasks for user %d", len(tasks), req.UserID)
	if !exists {
		msg = fmt.Sprintf("User with ID %d does not exist", req.UserID)
	} else if req.Status != "" {
		msg += fmt.Sprintf(" with status '%s'", req.Status)
	}
	env := response.Success(opTasksByUser, msg, tasks, len(tasks)).
		WithMetadata("user_id", req.UserID).
		WithMetadata("user_exists", exists)
	if req.Status != "" {
		env = env.WithMetadata("status_filter", req.Status)
	}
	return withRequestID(env), nil
}

func (s *Server) handleUserTaskSummary(ctx *server.Context, req UserTaskSummaryRequest) (response.Envelope, error) {
	slog.Info("Processing get_user_task_summary request", "user_id", req.UserID)

	summary, err := s.manager.UserTaskSummary(req.UserID)
	if err != nil {
		return failure(opTaskSummary, err, nil), nil
	}
	msg := fmt.Sprintf("Successfully generated task summary for user %d", req.UserID)
	if !summary.UserExists {
		msg = fmt.Sprintf("User with ID %d does not exist", req.UserID)
	}
	return withRequestID(response.Success(opTaskSummary, msg, summary, summary.TotalTasks)), nil
}

func (s *Server) handleTasksByUsers(ctx *server.Context, req TasksByUsersRequest) (response.Envelope, error) {
	slog.Info("Processing get_tasks_by_users request", "user_ids", req.UserIDs, "status", req.Status)

	res, err := s.manager.TasksByUsers(req.UserIDs, req.Status)
	if err != nil {
		return failure(opTasksByUsers, err, nil), nil
	}
	env := response.Success(opTasksByUsers,
		fmt.Sprintf("Successfully retrieved tasks for %d users", len(req.UserIDs)), res, res.TotalTasks)
	return withRequestID(env), nil
}

func (s *Server) handleUnassignedTasks(ctx *server.Context, req UnassignedTasksRequest) (response.Envelope, error) {
	slog.Info("Processing get_unassigned_tasks request", "status", req.Status)

	tasks, err := s.manager.UnassignedTasks(req.Status)
	if err != nil {
		return failure(opUnassigned, err, []store.Record{}), nil
	}
	msg := fmt.Sprintf("Successfully retrieved %d unassigned tasks", len(tasks))
	if req.Status != "" {
		msg += fmt.Sprintf(" with status '%s'", req.Status)
	}
	return withRequestID(response.Success(opUnassigned, msg, tasks, len(tasks))), nil
}

func (s *Server) handleQueryCapabilities(ctx *server.Context, req QueryCapabilitiesRequest) (response.Envelope, error) {
	caps := s.manager.Capabilities()
	env := response.Success(opCapabilities, "Query capabilities retrieved", caps, len(caps.Operators))
	return withRequestID(env), nil
}
