// Package schema validates records before they are written and fills in the
// default values each collection defines.
package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/chandan1819/nosql-mcp-server/internal/globalconst"
	"github.com/chandan1819/nosql-mcp-server/internal/store"
	"github.com/xeipuuv/gojsonschema"
)

var ErrValidation = errors.New("validation failed")

// ValidationError lists every problem found in one record.
type ValidationError struct {
	Collection string
	Problems   []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s data: %s", e.Collection, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

const emailPattern = `^[^@\\s]+@[^@\\s]+\\.[^@\\s]+$`

var createSchemas = map[string]string{
	globalconst.CollectionUsers: `{
		"type": "object",
		"minProperties": 1,
		"required": ["name", "email"],
		"properties": {
			"name":  {"type": "string", "minLength": 1},
			"email": {"type": "string", "minLength": 1, "pattern": "` + emailPattern + `"},
			"role":  {"type": "string"},
			"age":   {"type": "integer", "minimum": 0}
		}
	}`,
	globalconst.CollectionTasks: `{
		"type": "object",
		"minProperties": 1,
		"required": ["title"],
		"properties": {
			"title":       {"type": "string", "minLength": 1},
			"description": {"type": "string"},
			"status":      {"enum": ` + enumJSON(globalconst.TaskStatuses) + `},
			"priority":    {"enum": ` + enumJSON(globalconst.TaskPriorities) + `},
			"assigned_to": {"type": ["integer", "null"], "minimum": 1},
			"due_date":    {"type": ["string", "null"]}
		}
	}`,
	globalconst.CollectionProducts: `{
		"type": "object",
		"minProperties": 1,
		"required": ["name", "price"],
		"properties": {
			"name":     {"type": "string", "minLength": 1},
			"price":    {"type": "number", "minimum": 0},
			"category": {"type": "string"},
			"in_stock": {"type": "boolean"}
		}
	}`,
}

// Update schemas accept partial records but keep the same per-field rules.
var updateSchemas = map[string]string{
	globalconst.CollectionUsers: `{
		"type": "object",
		"minProperties": 1,
		"properties": {
			"name":  {"type": "string", "minLength": 1},
			"email": {"type": "string", "minLength": 1, "pattern": "` + emailPattern + `"},
			"role":  {"type": "string"},
			"age":   {"type": "integer", "minimum": 0}
		}
	}`,
	globalconst.CollectionTasks: `{
		"type": "object",
		"minProperties": 1,
		"properties": {
			"title":       {"type": "string", "minLength": 1},
			"status":      {"enum": ` + enumJSON(globalconst.TaskStatuses) + `},
			"priority":    {"enum": ` + enumJSON(globalconst.TaskPriorities) + `},
			"assigned_to": {"type": ["integer", "null"], "minimum": 1}
		}
	}`,
	globalconst.CollectionProducts: `{
		"type": "object",
		"minProperties": 1,
		"properties": {
			"name":     {"type": "string", "minLength": 1},
			"price":    {"type": "number", "minimum": 0},
			"in_stock": {"type": "boolean"}
		}
	}`,
}

func enumJSON(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + v + `"`
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// Validator holds the compiled schemas of every collection.
type Validator struct {
	create map[string]*gojsonschema.Schema
	update map[string]*gojsonschema.Schema
}

// New compiles the collection schemas.
func New() (*Validator, error) {
	v := &Validator{
		create: make(map[string]*gojsonschema.Schema, len(createSchemas)),
		update: make(map[string]*gojsonschema.Schema, len(updateSchemas)),
	}
	for name, src := range createSchemas {
		s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s create schema: %w", name, err)
		}
		v.create[name] = s
	}
	for name, src := range updateSchemas {
		s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s update schema: %w", name, err)
		}
		v.update[name] = s
	}
	return v, nil
}

// MustNew is New for program start-up; the schemas are constants so failure is a bug.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// ValidateCreate applies the collection defaults to a copy of data and validates it.
func (v *Validator) ValidateCreate(collection string, data store.Record) (store.Record, error) {
	s, ok := v.create[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownCollection, collection)
	}
	if len(data) == 0 {
		return nil, &ValidationError{Collection: collection, Problems: []string{"data cannot be empty"}}
	}
	rec := store.CloneRecord(data)
	applyDefaults(collection, rec)
	if err := check(s, collection, rec); err != nil {
		return nil, err
	}
	normalizePrice(rec)
	return rec, nil
}

// ValidateUpdate checks a partial update. No defaults are applied.
func (v *Validator) ValidateUpdate(collection string, updates store.Record) (store.Record, error) {
	s, ok := v.update[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownCollection, collection)
	}
	if len(updates) == 0 {
		return nil, &ValidationError{Collection: collection, Problems: []string{"updates cannot be empty"}}
	}
	rec := store.CloneRecord(updates)
	if err := check(s, collection, rec); err != nil {
		return nil, err
	}
	normalizePrice(rec)
	return rec, nil
}

func check(s *gojsonschema.Schema, collection string, rec store.Record) error {
	result, err := s.Validate(gojsonschema.NewGoLoader(rec))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	sort.Strings(problems)
	return &ValidationError{Collection: collection, Problems: problems}
}

func applyDefaults(collection string, rec store.Record) {
	switch collection {
	case globalconst.CollectionUsers:
		if role, ok := rec["role"]; !ok || role == nil || role == "" {
			rec["role"] = "User"
		}
	case globalconst.CollectionTasks:
		setDefault(rec, "status", "pending")
		setDefault(rec, "priority", "medium")
	case globalconst.CollectionProducts:
		setDefault(rec, "in_stock", true)
		setDefault(rec, "category", "General")
	}
}

func setDefault(rec store.Record, field string, value any) {
	if _, ok := rec[field]; !ok {
		rec[field] = value
	}
}

// Prices are always stored as floating point numbers.
func normalizePrice(rec store.Record) {
	switch p := rec["price"].(type) {
	case int64:
		rec["price"] = float64(p)
	case int:
		rec["price"] = float64(p)
	}
}
