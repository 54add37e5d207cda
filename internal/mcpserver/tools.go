package mcpserver

const (
	// ToolCreateRecord is the name of the create_record MCP tool
	ToolCreateRecord = "create_record"

	// ToolReadRecords is the name of the read_records MCP tool
	ToolReadRecords = "read_records"

	// ToolUpdateRecord is the name of the update_record MCP tool
	ToolUpdateRecord = "update_record"

	// ToolDeleteRecord is the name of the delete_record MCP tool
	ToolDeleteRecord = "delete_record"

	// ToolSearchRecords is the name of the search_records MCP tool
	ToolSearchRecords = "search_records"

	// ToolTasksByUser is the name of the get_tasks_by_user MCP tool
	ToolTasksByUser = "get_tasks_by_user"

	// ToolUserTaskSummary is the name of the get_user_task_summary MCP tool
	ToolUserTaskSummary = "get_user_task_summary"

	// ToolTasksByUsers is the name of the get_tasks_by_users MCP tool
	ToolTasksByUsers = "get_tasks_by_users"

	// ToolUnassignedTasks is the name of the get_unassigned_tasks MCP tool
	ToolUnassignedTasks = "get_unassigned_tasks"

	// ToolQueryCapabilities is the name of the get_query_capabilities MCP tool
	ToolQueryCapabilities = "get_query_capabilities"
)

// CreateRecordRequest defines the input schema for the create_record tool
type CreateRecordRequest struct {
	// Collection is one of users, tasks or products
	Collection string `json:"collection"`

	// Data holds the fields of the new record
	Data map[string]any `json:"data"`
}

// ReadRecordsRequest defines the input schema for the read_records tool
type ReadRecordsRequest struct {
	// Collection is one of users, tasks or products
	Collection string `json:"collection"`

	// Filters is an optional query expression; every record is returned when empty
	Filters map[string]any `json:"filters,omitempty"`
}

// UpdateRecordRequest defines the input schema for the update_record tool
type UpdateRecordRequest struct {
	// Collection is one of users, tasks or products
	Collection string `json:"collection"`

	// Filters selects the records to change and must not be empty
	Filters map[string]any `json:"filters"`

	// Updates holds the fields to set on every selected record
	Updates map[string]any `json:"updates"`
}

// DeleteRecordRequest defines the input schema for the delete_record tool
type DeleteRecordRequest struct {
	// Collection is one of users, tasks or products
	Collection string `json:"collection"`

	// Filters selects the records to delete and must not be empty
	Filters map[string]any `json:"filters"`

	// SoftDelete marks the records as deleted instead of removing them
	SoftDelete bool `json:"soft_delete,omitempty"`
}

// SearchRecordsRequest defines the input schema for the search_records tool
type SearchRecordsRequest struct {
	// Collection is one of users, tasks or products
	Collection string `json:"collection"`

	// Query is the search expression
	Query map[string]any `json:"query"`
}

// TasksByUserRequest defines the input schema for the get_tasks_by_user tool
type TasksByUserRequest struct {
	// UserID is the id of the assignee
	UserID int64 `json:"user_id"`

	// Status optionally limits the result to one task status
	Status string `json:"status,omitempty"`
}

// UserTaskSummaryRequest defines the input schema for the get_user_task_summary tool
type UserTaskSummaryRequest struct {
	// UserID is the id of the user to summarise
	UserID int64 `json:"user_id"`
}

// TasksByUsersRequest defines the input schema for the get_tasks_by_users tool
type TasksByUsersRequest struct {
	// UserIDs lists the assignees to group tasks by
	UserIDs []int64 `json:"user_ids"`

	// Status optionally limits the result to one task status
	Status string `json:"status,omitempty"`
}

// UnassignedTasksRequest defines the input schema for the get_unassigned_tasks tool
type UnassignedTasksRequest struct {
	// Status optionally limits the result to one task status
	Status string `json:"status,omitempty"`
}

// QueryCapabilitiesRequest defines the input schema for the get_query_capabilities tool.
// The tool takes no arguments.
type QueryCapabilitiesRequest struct{}
