// Package http provides the HTTP server infrastructure including module
// registration.
package http

import (
	"collections_console/internal/events"
	"collections_console/platform/config"
	"collections_console/platform/logger"

	"github.com/prometheus/client_golang/prometheus"
)

// RouterConfig combines the config interfaces the router needs.
type RouterConfig interface {
	config.HTTPConfig
}

// TokenSource reports whether a credential is currently held. Satisfied
// by the session manager; defined here so the HTTP infrastructure does
// not depend on the session module it routes for.
type TokenSource interface {
	Token() (string, bool)
}

// App holds the fully initialized application dependencies. It is
// populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the HTTP settings (listen address, CORS, rate limits).
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Session gates the protected route group.
	Session TokenSource
	// EventBus is the domain event bus for cross-module communication.
	EventBus events.Bus
	// Registry backs the /metrics endpoint.
	Registry *prometheus.Registry
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
