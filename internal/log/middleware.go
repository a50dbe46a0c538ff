package log

import (
	"context"
	"log/slog"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// IntoContext returns a copy of ctx carrying logger.
func IntoContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the request context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogBillSaved logs a successful create or update of a bill
func (sl *StructuredLogger) LogBillSaved(ctx context.Context, op, id, title, billTypeID, amount, currency, period string) {
	fields := NewFields().
		WithBill(id, title, billTypeID, amount, currency, period).
		WithOperation(op)

	sl.logger.WithComponent(ComponentBills).InfoContext(ctx, "Bill saved", fields.ToSlice()...)
}

// LogFileAttached logs a stored attachment
func (sl *StructuredLogger) LogFileAttached(ctx context.Context, billID, fileID, name string, size int64) {
	fields := NewFields().
		WithFile(fileID, name, size).
		WithOperation(OpAttach)
	fields[FieldBillID] = billID

	sl.logger.WithComponent(ComponentBills).InfoContext(ctx, "File attached", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation)

	sl.logger.WithComponent(component).ErrorContext(ctx, msg, allFields.ToSlice()...)
}
