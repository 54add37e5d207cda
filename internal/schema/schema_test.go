package schema

import (
	"errors"
	"testing"

	"github.com/chandan1819/nosql-mcp-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCreate_Defaults(t *testing.T) {
	v := MustNew()

	user, err := v.ValidateCreate("users", store.Record{"name": "Alice", "email": "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "User", user["role"])

	user, err = v.ValidateCreate("users", store.Record{"name": "Bob", "email": "bob@example.com", "role": "Admin"})
	require.NoError(t, err)
	assert.Equal(t, "Admin", user["role"])

	task, err := v.ValidateCreate("tasks", store.Record{"title": "Write docs"})
	require.NoError(t, err)
	assert.Equal(t, "pending", task["status"])
	assert.Equal(t, "medium", task["priority"])

	product, err := v.ValidateCreate("products", store.Record{"name": "Pen", "price": int64(2)})
	require.NoError(t, err)
	assert.Equal(t, true, product["in_stock"])
	assert.Equal(t, "General", product["category"])
	assert.Equal(t, float64(2), product["price"])
}

func TestValidateCreate_DoesNotMutateInput(t *testing.T) {
	in := store.Record{"title": "Write docs"}
	_, err := MustNew().ValidateCreate("tasks", in)
	require.NoError(t, err)
	assert.NotContains(t, in, "status")
}

func TestValidateCreate_Rejects(t *testing.T) {
	tests := []struct {
		name       string
		collection string
		data       store.Record
	}{
		{"empty data", "users", store.Record{}},
		{"user without email", "users", store.Record{"name": "Alice"}},
		{"user with empty name", "users", store.Record{"name": "", "email": "a@b.co"}},
		{"bad email", "users", store.Record{"name": "Alice", "email": "not-an-email"}},
		{"email without domain dot", "users", store.Record{"name": "Alice", "email": "alice@localhost"}},
		{"task without title", "tasks", store.Record{"status": "pending"}},
		{"bad status", "tasks", store.Record{"title": "T", "status": "done"}},
		{"bad priority", "tasks", store.Record{"title": "T", "priority": "critical"}},
		{"assigned_to zero", "tasks", store.Record{"title": "T", "assigned_to": int64(0)}},
		{"assigned_to string", "tasks", store.Record{"title": "T", "assigned_to": "2"}},
		{"product without price", "products", store.Record{"name": "Pen"}},
		{"negative price", "products", store.Record{"name": "Pen", "price": -1.5}},
		{"price as text", "products", store.Record{"name": "Pen", "price": "cheap"}},
	}

	v := MustNew()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.ValidateCreate(tt.collection, tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.NotEmpty(t, ve.Problems)
		})
	}
}

func TestValidateCreate_AllowsNullAssignee(t *testing.T) {
	task, err := MustNew().ValidateCreate("tasks", store.Record{"title": "T", "assigned_to": nil})
	require.NoError(t, err)
	assert.Nil(t, task["assigned_to"])
}

func TestValidateUpdate(t *testing.T) {
	v := MustNew()

	upd, err := v.ValidateUpdate("tasks", store.Record{"status": "completed"})
	require.NoError(t, err)
	assert.Equal(t, store.Record{"status": "completed"}, upd, "no defaults on update")

	_, err = v.ValidateUpdate("tasks", store.Record{"status": "done"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = v.ValidateUpdate("users", store.Record{"email": "nope"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = v.ValidateUpdate("products", store.Record{})
	assert.ErrorIs(t, err, ErrValidation)

	upd, err = v.ValidateUpdate("products", store.Record{"price": int64(5)})
	require.NoError(t, err)
	assert.Equal(t, float64(5), upd["price"])
}

func TestUnknownCollection(t *testing.T) {
	_, err := MustNew().ValidateCreate("orders", store.Record{"x": 1})
	assert.ErrorIs(t, err, store.ErrUnknownCollection)
	_, err = MustNew().ValidateUpdate("orders", store.Record{"x": 1})
	assert.ErrorIs(t, err, store.ErrUnknownCollection)
}
