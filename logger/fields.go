package logger

import (
	"context"

	"go.uber.org/zap"
)

// Field names shared by every component. Grep for these rather than raw strings.
const (
	FieldRequestID = "request_id"
	FieldPassID    = "pass_id"
	FieldClientID  = "client_id"

	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatus     = "status"
	FieldDurationMS = "duration_ms"

	FieldError = "error"

	FieldCount   = "count"
	FieldNodes   = "nodes"
	FieldEdges   = "edges"
	FieldVersion = "version"

	FieldFile    = "file"
	FieldAddress = "address"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	clientIDKey
)

// WithRequestID tags ctx with an HTTP request id
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// WithClientID tags ctx with a WebSocket client id
func WithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientIDKey, id)
}

// FieldsFromContext returns the ids stored in ctx as Infow key/value pairs
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		fields = append(fields, FieldRequestID, id)
	}
	if id, ok := ctx.Value(clientIDKey).(string); ok && id != "" {
		fields = append(fields, FieldClientID, id)
	}
	return fields
}

// FromContext decorates base with the ids stored in ctx.
// A nil base falls back to the global Logger.
func FromContext(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if base == nil {
		base = Logger
	}
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// ComponentLogger returns the global logger named for one component:
//
//	engine := graph.NewEngine(cfg, logger.ComponentLogger("render"))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger adds fixed key/value pairs to parent
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}
