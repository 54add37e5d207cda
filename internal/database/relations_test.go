package database

import (
	"testing"

	"github.com/chandan1819/nosql-mcp-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTasksByUser(t *testing.T) {
	m := newSeededManager(t)

	tasks, exists, err := m.TasksByUser(2, "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, []int64{1, 6}, ids(tasks))

	tasks, _, err = m.TasksByUser(2, "pending")
	require.NoError(t, err)
	assert.Equal(t, []int64{6}, ids(tasks))

	tasks, exists, err = m.TasksByUser(99, "")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Empty(t, tasks)

	_, _, err = m.TasksByUser(0, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, _, err = m.TasksByUser(1, "bogus")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestUserTaskSummary(t *testing.T) {
	m := newSeededManager(t)

	summary, err := m.UserTaskSummary(1)
	require.NoError(t, err)
	assert.Equal(t, TaskSummary{
		UserID:     1,
		UserExists: true,
		TotalTasks: 2,
		ByStatus:   map[string]int{"completed": 1, "pending": 1},
		ByPriority: map[string]int{"high": 1, "low": 1},
	}, summary)

	summary, err = m.UserTaskSummary(42)
	require.NoError(t, err)
	assert.False(t, summary.UserExists)
	assert.Zero(t, summary.TotalTasks)
}

func TestTasksByUsers(t *testing.T) {
	m := newSeededManager(t)

	res, err := m.TasksByUsers([]int64{1, 2, 7}, "")
	require.NoError(t, err)
	assert.Equal(t, 4, res.TotalTasks)
	assert.Equal(t, []int64{2, 5}, ids(res.TasksByUser[1]))
	assert.Equal(t, []int64{1, 6}, ids(res.TasksByUser[2]))
	assert.Empty(t, res.TasksByUser[7])

	res, err = m.TasksByUsers([]int64{1, 2}, "pending")
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalTasks)
	assert.Equal(t, []int64{5}, ids(res.TasksByUser[1]))
	assert.Equal(t, []int64{6}, ids(res.TasksByUser[2]))

	_, err = m.TasksByUsers(nil, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = m.TasksByUsers([]int64{1, -2}, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestUnassignedTasks(t *testing.T) {
	m := newSeededManager(t)

	tasks, err := m.UnassignedTasks("")
	require.NoError(t, err)
	assert.Empty(t, tasks)

	_, err = m.Create("tasks", store.Record{"title": "Nobody's job"})
	require.NoError(t, err)
	_, err = m.Create("tasks", store.Record{"title": "Explicitly open", "assigned_to": nil, "status": "in_progress"})
	require.NoError(t, err)

	tasks, err = m.UnassignedTasks("")
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 8}, ids(tasks))

	tasks, err = m.UnassignedTasks("in_progress")
	require.NoError(t, err)
	assert.Equal(t, []int64{8}, ids(tasks))

	_, err = m.UnassignedTasks("later")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
