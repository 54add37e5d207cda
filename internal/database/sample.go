package database

import (
	"log/slog"

	"github.com/chandan1819/nosql-mcp-server/internal/globalconst"
	"github.com/chandan1819/nosql-mcp-server/internal/query"
	"github.com/chandan1819/nosql-mcp-server/internal/store"
)

// SampleUsers, SampleTasks and SampleProducts form the demonstration data set.
// Task assignees refer to the sample user ids.
func SampleUsers() []store.Record {
	return []store.Record{
		{"id": int64(1), "name": "Alice Johnson", "email": "alice.johnson@example.com", "role": "Project Manager", "created_at": "2024-01-15T09:00:00Z"},
		{"id": int64(2), "name": "Bob Smith", "email": "bob.smith@example.com", "role": "Software Developer", "created_at": "2024-01-16T10:30:00Z"},
		{"id": int64(3), "name": "Carol Davis", "email": "carol.davis@example.com", "role": "QA Engineer", "created_at": "2024-01-17T14:15:00Z"},
		{"id": int64(4), "name": "David Wilson", "email": "david.wilson@example.com", "role": "DevOps Engineer", "created_at": "2024-01-18T11:45:00Z"},
	}
}

func SampleTasks() []store.Record {
	return []store.Record{
		{"id": int64(1), "title": "Implement user authentication", "description": "Create login and registration functionality with JWT tokens",
			"assigned_to": int64(2), "status": "in_progress", "priority": "high", "created_at": "2024-01-20T09:00:00Z", "due_date": "2024-02-15T17:00:00Z"},
		{"id": int64(2), "title": "Design database schema", "description": "Create comprehensive database design for the application",
			"assigned_to": int64(1), "status": "completed", "priority": "high", "created_at": "2024-01-18T10:00:00Z", "due_date": "2024-01-25T17:00:00Z"},
		{"id": int64(3), "title": "Write unit tests for API endpoints", "description": "Create comprehensive test suite for all REST API endpoints",
			"assigned_to": int64(3), "status": "pending", "priority": "medium", "created_at": "2024-01-22T11:30:00Z", "due_date": "2024-02-20T17:00:00Z"},
		{"id": int64(4), "title": "Set up CI/CD pipeline", "description": "Configure automated testing and deployment pipeline",
			"assigned_to": int64(4), "status": "in_progress", "priority": "medium", "created_at": "2024-01-21T14:00:00Z", "due_date": "2024-02-10T17:00:00Z"},
		{"id": int64(5), "title": "Create user documentation", "description": "Write comprehensive user guide and API documentation",
			"assigned_to": int64(1), "status": "pending", "priority": "low", "created_at": "2024-01-23T16:00:00Z", "due_date": "2024-03-01T17:00:00Z"},
		{"id": int64(6), "title": "Performance optimization", "description": "Optimize database queries and API response times",
			"assigned_to": int64(2), "status": "pending", "priority": "medium", "created_at": "2024-01-24T13:00:00Z", "due_date": "2024-02-28T17:00:00Z"},
	}
}

func SampleProducts() []store.Record {
	return []store.Record{
		{"id": int64(1), "name": "Wireless Bluetooth Headphones", "description": "High-quality wireless headphones with noise cancellation",
			"price": 199.99, "category": "Electronics", "in_stock": true, "created_at": "2024-01-10T12:00:00Z"},
		{"id": int64(2), "name": "Ergonomic Office Chair", "description": "Comfortable office chair with lumbar support and adjustable height",
			"price": 349.99, "category": "Furniture", "in_stock": true, "created_at": "2024-01-11T15:30:00Z"},
		{"id": int64(3), "name": "Mechanical Keyboard", "description": "RGB backlit mechanical keyboard with blue switches",
			"price": 129.99, "category": "Electronics", "in_stock": false, "created_at": "2024-01-12T10:15:00Z"},
		{"id": int64(4), "name": "Standing Desk Converter", "description": "Adjustable standing desk converter for healthier work habits",
			"price": 299.99, "category": "Furniture", "in_stock": true, "created_at": "2024-01-13T14:45:00Z"},
		{"id": int64(5), "name": "4K Webcam", "description": "Ultra HD webcam with auto-focus and built-in microphone",
			"price": 89.99, "category": "Electronics", "in_stock": true, "created_at": "2024-01-14T11:20:00Z"},
	}
}

var sampleData = map[string]func() []store.Record{
	globalconst.CollectionUsers:    SampleUsers,
	globalconst.CollectionTasks:    SampleTasks,
	globalconst.CollectionProducts: SampleProducts,
}

// SeedSampleData loads the sample set into every empty collection and returns how
// many records went into each. With force, existing data is backed up (when backups
// are configured) and every collection is emptied first, which also resets ids.
// Sample ids are shifted past the last id a collection ever handed out, so records
// deleted earlier never see their ids reappear; task assignees follow the users.
func (m *Manager) SeedSampleData(force bool) (map[string]int, error) {
	if force {
		if m.backups != nil {
			if name, err := m.backups.PerformBackup(); err != nil {
				slog.Warn("Safety backup before reset failed", "error", err)
			} else {
				slog.Info("Safety backup taken before reset", "name", name)
			}
		}
		for _, t := range m.db.Tables() {
			t.Truncate()
		}
	}

	offsets := make(map[string]int64, len(globalconst.Collections))
	for _, t := range m.db.Tables() {
		if t.Len() == 0 {
			offsets[t.Name()] = t.LastID()
		}
	}

	counts := make(map[string]int, len(globalconst.Collections))
	for _, t := range m.db.Tables() {
		counts[t.Name()] = 0
		offset, seed := offsets[t.Name()]
		if !seed {
			slog.Info("Collection already has data, skipping sample data", "collection", t.Name())
			continue
		}
		for _, rec := range sampleData[t.Name()]() {
			rec[globalconst.ID] = rec[globalconst.ID].(int64) + offset
			if t.Name() == globalconst.CollectionTasks {
				if userOffset, ok := offsets[globalconst.CollectionUsers]; ok {
					rec["assigned_to"] = rec["assigned_to"].(int64) + userOffset
				}
			}
			if err := t.Restore(rec); err != nil {
				return nil, err
			}
			counts[t.Name()]++
		}
		slog.Info("Sample data inserted", "collection", t.Name(), "count", counts[t.Name()], "first_id", offset+1)
	}
	if err := m.db.Save(); err != nil {
		return nil, err
	}
	return counts, nil
}

// Capabilities describes the query grammar for clients.
type Capabilities struct {
	Operators        []query.OperatorInfo `json:"supported_operators"`
	LogicalOperators []string             `json:"logical_operators"`
	FieldOperators   map[string][]string  `json:"field_operators"`
	SyntaxExamples   map[string]any       `json:"syntax_examples"`
	OperatorExamples map[string]any       `json:"operator_examples"`
	Collections      []string             `json:"collections"`
	Indexes          map[string][]string  `json:"indexes"`
}

// Capabilities lists the supported operators with examples, and the fields each
// collection indexes for equality lookups.
func (m *Manager) Capabilities() Capabilities {
	indexes := make(map[string][]string, len(globalconst.Collections))
	for _, t := range m.db.Tables() {
		indexes[t.Name()] = t.Indexes()
	}
	return Capabilities{
		Operators:        query.Operators(),
		LogicalOperators: query.LogicalOperators(),
		FieldOperators: map[string][]string{
			"equality":   {"eq", "ne"},
			"comparison": {"gt", "gte", "lt", "lte"},
			"string":     {"contains", "startswith", "endswith"},
			"list":       {"in", "not_in"},
			"existence":  {"exists"},
			"range":      {"between"},
		},
		SyntaxExamples: map[string]any{
			"simple_equality": map[string]any{"field": "value"},
			"comparison":      map[string]any{"field": map[string]any{"gt": 10}},
			"logical_and":     map[string]any{"and": []any{map[string]any{"field1": "value1"}, map[string]any{"field2": "value2"}}},
			"logical_or":      map[string]any{"or": []any{map[string]any{"field1": "value1"}, map[string]any{"field2": "value2"}}},
			"logical_not":     map[string]any{"not": map[string]any{"field": "value"}},
			"complex_example": map[string]any{
				"and": []any{
					map[string]any{"status": "pending"},
					map[string]any{"or": []any{
						map[string]any{"priority": map[string]any{"in": []any{"high", "urgent"}}},
						map[string]any{"assigned_to": map[string]any{"exists": true}},
					}},
					map[string]any{"created_at": map[string]any{"gte": "2024-01-01"}},
				},
			},
		},
		OperatorExamples: operatorExamples(),
		Collections:      globalconst.Collections,
		Indexes:          indexes,
	}
}

// operatorExamples shows one condition per operator against the sample data.
func operatorExamples() map[string]any {
	return map[string]any{
		"eq":         query.Field("status").Eq("pending"),
		"ne":         query.Field("role").Ne("User"),
		"gt":         query.Field("price").Gt(100),
		"gte":        query.Field("price").Gte(100),
		"lt":         query.Field("price").Lt(50),
		"lte":        query.Field("price").Lte(50),
		"contains":   query.Field("name").Contains("keyboard"),
		"startswith": query.Field("email").StartsWith("alice"),
		"endswith":   query.Field("email").EndsWith("@example.com"),
		"in":         query.Field("priority").In("high", "medium"),
		"not_in":     query.Field("status").NotIn("completed"),
		"exists":     query.Field("due_date").Exists(true),
		"between":    query.Field("created_at").Between("2024-01-01", "2024-01-31"),
		"not":        query.Not(query.Field("category").Eq("Electronics")),
	}
}
