package database

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/chandan1819/nosql-mcp-server/internal/globalconst"
	"github.com/chandan1819/nosql-mcp-server/internal/query"
	"github.com/chandan1819/nosql-mcp-server/internal/store"
)

// TaskSummary counts one user's tasks.
type TaskSummary struct {
	UserID     int64          `json:"user_id"`
	UserExists bool           `json:"user_exists"`
	TotalTasks int            `json:"total_tasks"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
}

// UsersTasks groups the tasks of several users.
type UsersTasks struct {
	TasksByUser  map[int64][]store.Record `json:"tasks_by_user"`
	TotalTasks   int                      `json:"total_tasks"`
	UserIDs      []int64                  `json:"user_ids"`
	StatusFilter string                   `json:"status_filter,omitempty"`
}

func checkUserID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: user_id must be a positive integer, got %d", ErrInvalidArgument, id)
	}
	return nil
}

func checkStatus(status string) error {
	if status == "" || slices.Contains(globalconst.TaskStatuses, status) {
		return nil
	}
	return fmt.Errorf("%w: invalid status filter %q, must be one of: %s",
		ErrInvalidArgument, status, strings.Join(globalconst.TaskStatuses, ", "))
}

// UserExists reports whether a user with the given id exists.
func (m *Manager) UserExists(userID int64) (bool, error) {
	users, err := m.db.Collection(globalconst.CollectionUsers)
	if err != nil {
		return false, err
	}
	_, ok := users.Get(userID)
	return ok, nil
}

// TasksByUser returns the tasks assigned to userID, optionally limited to one status.
// The second result reports whether the user exists; for an unknown user the task
// list is empty and no error is returned.
func (m *Manager) TasksByUser(userID int64, status string) ([]store.Record, bool, error) {
	if err := checkUserID(userID); err != nil {
		return nil, false, err
	}
	if err := checkStatus(status); err != nil {
		return nil, false, err
	}
	exists, err := m.UserExists(userID)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		slog.Warn("User does not exist", "user_id", userID)
		return []store.Record{}, false, nil
	}

	filter := map[string]any{"assigned_to": userID}
	if status != "" {
		filter["status"] = status
	}
	tasks, err := m.Read(globalconst.CollectionTasks, filter)
	if err != nil {
		return nil, true, err
	}
	slog.Info("Tasks found for user", "user_id", userID, "status", status, "count", len(tasks))
	return tasks, true, nil
}

// UserTaskSummary counts a user's tasks by status and by priority.
func (m *Manager) UserTaskSummary(userID int64) (TaskSummary, error) {
	summary := TaskSummary{
		UserID:     userID,
		ByStatus:   map[string]int{},
		ByPriority: map[string]int{},
	}
	tasks, exists, err := m.TasksByUser(userID, "")
	if err != nil {
		return TaskSummary{}, err
	}
	summary.UserExists = exists
	summary.TotalTasks = len(tasks)
	for _, task := range tasks {
		summary.ByStatus[stringOr(task["status"], "unknown")]++
		summary.ByPriority[stringOr(task["priority"], "unknown")]++
	}
	return summary, nil
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

// TasksByUsers returns the tasks of several users in one search, grouped per user.
// Every requested id has an entry, possibly empty.
func (m *Manager) TasksByUsers(userIDs []int64, status string) (UsersTasks, error) {
	if len(userIDs) == 0 {
		return UsersTasks{}, fmt.Errorf("%w: user_ids must be a non-empty list", ErrInvalidArgument)
	}
	for _, id := range userIDs {
		if err := checkUserID(id); err != nil {
			return UsersTasks{}, err
		}
	}
	if err := checkStatus(status); err != nil {
		return UsersTasks{}, err
	}

	ids := make([]any, len(userIDs))
	for i, id := range userIDs {
		ids[i] = id
	}
	conds := []map[string]any{query.Field("assigned_to").In(ids...)}
	if status != "" {
		conds = append(conds, query.Field("status").Eq(status))
	}
	tasks, err := m.Search(globalconst.CollectionTasks, query.And(conds...))
	if err != nil {
		return UsersTasks{}, err
	}

	result := UsersTasks{
		TasksByUser:  make(map[int64][]store.Record, len(userIDs)),
		TotalTasks:   len(tasks),
		UserIDs:      userIDs,
		StatusFilter: status,
	}
	for _, id := range userIDs {
		result.TasksByUser[id] = []store.Record{}
	}
	for _, task := range tasks {
		if id, ok := task["assigned_to"].(int64); ok {
			result.TasksByUser[id] = append(result.TasksByUser[id], task)
		}
	}
	return result, nil
}

// UnassignedTasks returns tasks with no assignee: the field is missing or null.
func (m *Manager) UnassignedTasks(status string) ([]store.Record, error) {
	if err := checkStatus(status); err != nil {
		return nil, err
	}
	expr := query.Or(
		query.Field("assigned_to").Exists(false),
		map[string]any{"assigned_to": nil},
	)
	if status != "" {
		expr = query.And(expr, query.Field("status").Eq(status))
	}
	return m.Search(globalconst.CollectionTasks, expr)
}
