package globalconst

// This package centralizes all constants and "magic strings" used throughout the application
// to improve maintainability and reduce errors from typos.

const (
	// =========================================================================
	// Record Fields
	// =========================================================================

	// ID is the field for the record's unique integer identifier.
	ID = "id"
	// CREATED_AT is the field for the record's creation timestamp.
	CREATED_AT = "created_at"
	// DELETED_FLAG is the boolean field set by soft deletes.
	DELETED_FLAG = "deleted"
	// DELETED_AT is the timestamp written alongside DELETED_FLAG.
	DELETED_AT = "deleted_at"

	// TimestampLayout is RFC3339 with a literal Z, the format every stored timestamp uses.
	TimestampLayout = "2006-01-02T15:04:05Z"

	// =========================================================================
	// Collections
	// =========================================================================

	CollectionUsers    = "users"
	CollectionTasks    = "tasks"
	CollectionProducts = "products"

	// =========================================================================
	// Query Keywords
	// =========================================================================

	// --- Comparison Operators ---
	OpEqual              = "eq"
	OpNotEqual           = "ne"
	OpGreaterThan        = "gt"
	OpGreaterThanOrEqual = "gte"
	OpLessThan           = "lt"
	OpLessThanOrEqual    = "lte"
	OpContains           = "contains"
	OpStartsWith         = "startswith"
	OpEndsWith           = "endswith"
	OpIn                 = "in"
	OpNotIn              = "not_in"
	OpExists             = "exists"
	OpBetween            = "between"

	// --- Logical Operators ---
	OpAnd = "and"
	OpOr  = "or"
	OpNot = "not"

	// LogicalPrefix is the optional prefix for logical keys ("$and").
	LogicalPrefix = "$"

	// =========================================================================
	// Persistence Keywords
	// =========================================================================

	// DefaultDataFile is the default path of the JSON document file.
	DefaultDataFile = "data/mcp_server.json"
	// BackupsDirName is the default root directory name for backups.
	BackupsDirName = "backups"
	// TempFileSuffix is the suffix added to temporary files during writes.
	TempFileSuffix = ".tmp"
	// SnapshotVersion is the on-disk format version of the data file.
	SnapshotVersion = 1
)

// Collections lists the fixed collection set in a stable order.
var Collections = []string{CollectionUsers, CollectionTasks, CollectionProducts}

// TaskStatuses are the accepted values of tasks.status.
var TaskStatuses = []string{"pending", "in_progress", "completed", "cancelled", "archived"}

// TaskPriorities are the accepted values of tasks.priority.
var TaskPriorities = []string{"low", "medium", "high", "urgent"}
