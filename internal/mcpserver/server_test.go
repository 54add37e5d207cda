package mcpserver

import (
	"testing"

	"github.com/chandan1819/nosql-mcp-server/internal/database"
	"github.com/chandan1819/nosql-mcp-server/internal/response"
	"github.com/chandan1819/nosql-mcp-server/internal/schema"
	"github.com/chandan1819/nosql-mcp-server/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	m := database.NewManager(store.New(), schema.MustNew())
	_, err := m.SeedSampleData(false)
	require.NoError(t, err)
	return New("nosql-mcp-server-test", m)
}

func recordIDs(t *testing.T, env response.Envelope) []int64 {
	t.Helper()
	recs, ok := env.Data.([]store.Record)
	require.True(t, ok, "data is %T", env.Data)
	out := make([]int64, len(recs))
	for i, r := range recs {
		out[i], _ = r["id"].(int64)
	}
	return out
}

func assertRequestID(t *testing.T, env response.Envelope) {
	t.Helper()
	id, ok := env.Metadata["request_id"].(string)
	require.True(t, ok)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
}

func TestInitialize(t *testing.T) {
	assert.Error(t, New("x", nil).Initialize())
	assert.ErrorIs(t, New("x", nil).Start(), ErrServerNotInitialized)

	s := newTestServer(t)
	require.NoError(t, s.Initialize())
	assert.NotNil(t, s.mcpServer)
}

func TestHandleCreateRecord(t *testing.T) {
	s := newTestServer(t)

	// Numbers arrive from the transport as float64.
	env, err := s.handleCreateRecord(nil, CreateRecordRequest{
		Collection: "tasks",
		Data:       map[string]any{"title": "Review PR", "assigned_to": float64(3)},
	})
	require.NoError(t, err)
	require.True(t, env.Success, "%v", env.Error)
	assert.Equal(t, "create", env.Operation)
	assert.Equal(t, 1, env.Count)
	rec := env.Data.(store.Record)
	assert.Equal(t, int64(7), rec["id"])
	assert.Equal(t, int64(3), rec["assigned_to"])
	assert.Equal(t, "pending", rec["status"])
	assertRequestID(t, env)

	env, err = s.handleCreateRecord(nil, CreateRecordRequest{Collection: "users", Data: map[string]any{"name": "No Email"}})
	require.NoError(t, err)
	assert.False(t, env.Success)
	assert.Equal(t, response.CodeValidation, env.ErrorCode)
	assert.Equal(t, "Create failed", env.Message)

	env, err = s.handleCreateRecord(nil, CreateRecordRequest{Collection: "orders", Data: map[string]any{"name": "x"}})
	require.NoError(t, err)
	assert.Equal(t, response.CodeInvalidCollection, env.ErrorCode)
}

func TestHandleReadRecords(t *testing.T) {
	s := newTestServer(t)

	env, err := s.handleReadRecords(nil, ReadRecordsRequest{Collection: "users"})
	require.NoError(t, err)
	assert.True(t, env.Success)
	assert.Equal(t, 4, env.Count)
	assert.Equal(t, "Successfully retrieved 4 records from users", env.Message)

	env, err = s.handleReadRecords(nil, ReadRecordsRequest{
		Collection: "tasks",
		Filters:    map[string]any{"assigned_to": float64(2)},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 6}, recordIDs(t, env))
	assert.Equal(t, map[string]any{"assigned_to": int64(2)}, env.Metadata["filters"])
}

func TestHandleSearchRecords(t *testing.T) {
	s := newTestServer(t)

	env, err := s.handleSearchRecords(nil, SearchRecordsRequest{
		Collection: "products",
		Query: map[string]any{"and": []any{
			map[string]any{"price": map[string]any{"between": []any{float64(100), float64(300)}}},
			map[string]any{"name": map[string]any{"contains": "desk"}},
		}},
	})
	require.NoError(t, err)
	require.True(t, env.Success)
	assert.Equal(t, []int64{4}, recordIDs(t, env))

	env, err = s.handleSearchRecords(nil, SearchRecordsRequest{
		Collection: "products",
		Query:      map[string]any{"price": map[string]any{"approx": float64(1)}},
	})
	require.NoError(t, err)
	assert.False(t, env.Success)
	assert.Equal(t, response.CodeMalformedExpression, env.ErrorCode)
	assert.Equal(t, []store.Record{}, env.Data)

	env, err = s.handleSearchRecords(nil, SearchRecordsRequest{
		Collection: "products",
		Query:      map[string]any{"category": map[string]any{"gt": float64(1)}},
	})
	require.NoError(t, err)
	assert.Equal(t, response.CodeUnorderableComparison, env.ErrorCode)
}

func TestHandleUpdateAndDelete(t *testing.T) {
	s := newTestServer(t)

	env, err := s.handleUpdateRecord(nil, UpdateRecordRequest{
		Collection: "tasks",
		Filters:    map[string]any{"id": float64(3)},
		Updates:    map[string]any{"status": "completed"},
	})
	require.NoError(t, err)
	require.True(t, env.Success)
	assert.Equal(t, 1, env.Count)

	env, err = s.handleUpdateRecord(nil, UpdateRecordRequest{
		Collection: "tasks",
		Updates:    map[string]any{"status": "completed"},
	})
	require.NoError(t, err)
	assert.Equal(t, response.CodeEmptyFilter, env.ErrorCode)

	env, err = s.handleUpdateRecord(nil, UpdateRecordRequest{
		Collection: "tasks",
		Filters:    map[string]any{"id": float64(3)},
	})
	require.NoError(t, err)
	assert.Equal(t, response.CodeInvalidArgument, env.ErrorCode)

	env, err = s.handleUpdateRecord(nil, UpdateRecordRequest{
		Collection: "tasks",
		Filters:    map[string]any{"id": float64(3)},
		Updates:    map[string]any{"id": float64(30)},
	})
	require.NoError(t, err)
	assert.Equal(t, response.CodeImmutableField, env.ErrorCode)

	env, err = s.handleDeleteRecord(nil, DeleteRecordRequest{
		Collection: "products",
		Filters:    map[string]any{"in_stock": false},
		SoftDelete: true,
	})
	require.NoError(t, err)
	require.True(t, env.Success)
	assert.Equal(t, "Successfully soft deleted 1 records from products", env.Message)
	assert.Equal(t, true, env.Metadata["soft_delete"])

	env, err = s.handleDeleteRecord(nil, DeleteRecordRequest{
		Collection: "products",
		Filters:    map[string]any{"category": "Toys"},
	})
	require.NoError(t, err)
	assert.True(t, env.Success)
	assert.Zero(t, env.Count)
	assert.Equal(t, "No records found matching the specified criteria in products", env.Message)
}

func TestHandleTaskTools(t *testing.T) {
	s := newTestServer(t)

	env, err := s.handleTasksByUser(nil, TasksByUserRequest{UserID: 1, Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, recordIDs(t, env))
	assert.Equal(t, "Successfully retrieved 1 tasks for user 1 with status 'pending'", env.Message)

	env, err = s.handleTasksByUser(nil, TasksByUserRequest{UserID: 77})
	require.NoError(t, err)
	assert.True(t, env.Success)
	assert.Equal(t, "User with ID 77 does not exist", env.Message)
	assert.Equal(t, false, env.Metadata["user_exists"])

	env, err = s.handleTasksByUser(nil, TasksByUserRequest{UserID: -1})
	require.NoError(t, err)
	assert.Equal(t, response.CodeInvalidArgument, env.ErrorCode)

	env, err = s.handleUserTaskSummary(nil, UserTaskSummaryRequest{UserID: 2})
	require.NoError(t, err)
	summary := env.Data.(database.TaskSummary)
	assert.Equal(t, 2, summary.TotalTasks)
	assert.Equal(t, map[string]int{"in_progress": 1, "pending": 1}, summary.ByStatus)

	env, err = s.handleTasksByUsers(nil, TasksByUsersRequest{UserIDs: []int64{3, 4}})
	require.NoError(t, err)
	assert.Equal(t, 2, env.Count)
	assert.Equal(t, "Successfully retrieved tasks for 2 users", env.Message)

	env, err = s.handleUnassignedTasks(nil, UnassignedTasksRequest{})
	require.NoError(t, err)
	assert.True(t, env.Success)
	assert.Zero(t, env.Count)

	env, err = s.handleUnassignedTasks(nil, UnassignedTasksRequest{Status: "someday"})
	require.NoError(t, err)
	assert.Equal(t, response.CodeInvalidArgument, env.ErrorCode)
}

func TestHandleQueryCapabilities(t *testing.T) {
	s := newTestServer(t)

	env, err := s.handleQueryCapabilities(nil, QueryCapabilitiesRequest{})
	require.NoError(t, err)
	assert.Equal(t, 13, env.Count)
	caps := env.Data.(database.Capabilities)
	assert.Equal(t, []string{"and", "or", "not"}, caps.LogicalOperators)
	assertRequestID(t, env)
}

func TestNormalizeArgs(t *testing.T) {
	got, err := normalizeArgs(map[string]any{
		"n":    float64(4),
		"f":    1.5,
		"list": []any{float64(1), "a"},
		"sub":  map[string]any{"gte": float64(10)},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"n":    int64(4),
		"f":    1.5,
		"list": []any{int64(1), "a"},
		"sub":  map[string]any{"gte": int64(10)},
	}, got)

	got, err = normalizeArgs(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}
