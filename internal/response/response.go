// Package response builds the uniform envelope every tool call returns.
package response

import (
	"errors"
	"strings"
	"time"

	"github.com/chandan1819/nosql-mcp-server/internal/database"
	"github.com/chandan1819/nosql-mcp-server/internal/globalconst"
	"github.com/chandan1819/nosql-mcp-server/internal/query"
	"github.com/chandan1819/nosql-mcp-server/internal/schema"
	"github.com/chandan1819/nosql-mcp-server/internal/store"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Error codes carried in Envelope.ErrorCode.
const (
	CodeMalformedExpression   = "MALFORMED_EXPRESSION"
	CodeUnorderableComparison = "UNORDERABLE_COMPARISON"
	CodeValidation            = "VALIDATION_ERROR"
	CodeInvalidCollection     = "INVALID_COLLECTION"
	CodeImmutableField        = "IMMUTABLE_FIELD"
	CodeEmptyFilter           = "EMPTY_FILTER"
	CodeInvalidArgument       = "INVALID_ARGUMENT"
	CodeInternal              = "INTERNAL_ERROR"
)

// Envelope is the result of one operation. Error is null on success.
type Envelope struct {
	Success   bool           `json:"success"`
	Data      any            `json:"data"`
	Message   string         `json:"message"`
	Count     int            `json:"count"`
	Error     *string        `json:"error"`
	Operation string         `json:"operation"`
	Timestamp string         `json:"timestamp"`
	ErrorCode string         `json:"error_code,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// now is replaced in tests.
var now = time.Now

func timestamp() string {
	return now().UTC().Format(globalconst.TimestampLayout)
}

// Success builds a successful envelope.
func Success(operation, message string, data any, count int) Envelope {
	return Envelope{
		Success:   true,
		Data:      data,
		Message:   message,
		Count:     count,
		Operation: operation,
		Timestamp: timestamp(),
	}
}

// Failure builds an error envelope for err. Data is set to the empty value the
// operation would have returned so clients can read it unconditionally.
func Failure(operation string, err error, data any) Envelope {
	msg := err.Error()
	return Envelope{
		Success:   false,
		Data:      data,
		Message:   capitalize(operation) + " failed",
		Error:     &msg,
		Operation: operation,
		Timestamp: timestamp(),
		ErrorCode: Code(err),
	}
}

// WithMetadata returns a copy of e with key set in its metadata.
func (e Envelope) WithMetadata(key string, value any) Envelope {
	md := make(map[string]any, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		md[k] = v
	}
	md[key] = value
	e.Metadata = md
	return e
}

// JSON encodes the envelope.
func (e Envelope) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// Code classifies err into one of the error codes.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, query.ErrMalformedExpression):
		return CodeMalformedExpression
	case errors.Is(err, query.ErrUnorderableComparison):
		return CodeUnorderableComparison
	case errors.Is(err, schema.ErrValidation):
		return CodeValidation
	case errors.Is(err, store.ErrUnknownCollection):
		return CodeInvalidCollection
	case errors.Is(err, store.ErrImmutableField):
		return CodeImmutableField
	case errors.Is(err, database.ErrEmptyFilter):
		return CodeEmptyFilter
	case errors.Is(err, database.ErrInvalidArgument):
		return CodeInvalidArgument
	default:
		return CodeInternal
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
