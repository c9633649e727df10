// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// AgentKey is the context key for the signed-in agent's username
	AgentKey contextKey = "agent"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports request_id and agent from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = newLogger.WithRequestID(requestID)
	}

	if agent, ok := ctx.Value(AgentKey).(string); ok && agent != "" {
		newLogger = &Logger{
			Logger: newLogger.With(slog.String("agent", agent)),
		}
	}

	return newLogger
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// AuthEvent logs session lifecycle events (login, logout, expiry)
func (l *Logger) AuthEvent(event, username string, success bool, reason string) {
	if success {
		l.Info("auth_event",
			slog.String("event", event),
			slog.String("username", username),
			slog.Bool("success", success),
		)
	} else {
		l.Warn("auth_event",
			slog.String("event", event),
			slog.String("username", username),
			slog.Bool("success", success),
			slog.String("reason", reason),
		)
	}
}

// RefreshEvent logs the outcome of a case store refresh
func (l *Logger) RefreshEvent(trigger string, caseCount int, err error) {
	if err != nil {
		l.Warn("case_refresh",
			slog.String("trigger", trigger),
			slog.String("error", err.Error()),
		)
		return
	}
	l.Debug("case_refresh",
		slog.String("trigger", trigger),
		slog.Int("cases", caseCount),
	)
}

// BatchEvent logs the outcome of a scoring batch
func (l *Logger) BatchEvent(batchID string, submitted, failed int) {
	l.Info("analysis_batch",
		slog.String("batch_id", batchID),
		slog.Int("submitted", submitted),
		slog.Int("failed", failed),
	)
}

// CallEvent logs a call bridge phase change
func (l *Logger) CallEvent(sessionID, phase, number string) {
	l.Info("call_event",
		slog.String("session_id", sessionID),
		slog.String("phase", phase),
		slog.String("number", number),
	)
}

// LedgerError logs a failed call to the upstream ledger API
func (l *Logger) LedgerError(operation string, err error) {
	l.Error("ledger_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
