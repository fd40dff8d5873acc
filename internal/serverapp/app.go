// Package serverapp hosts a generated schema over HTTP: it loads the schema
// source, builds the schema and owns the server lifecycle.
package serverapp

import (
	"errors"
	"net/http"
	"sync"

	"gql-automap/internal/config"
	"gql-automap/internal/logging"
	"gql-automap/internal/observability"
)

// App owns runtime resources for the gql-automap server lifecycle.
type App struct {
	cfg    *config.Config
	logger *logging.Logger

	loggerProvider *observability.LoggerProvider

	meterProvider  *observability.MeterProvider
	graphqlMetrics *observability.GraphQLMetrics
	buildMetrics   *observability.SchemaBuildMetrics
	tracerProvider *observability.TracerProvider

	source *Source
	schema *Schema

	mux     *http.ServeMux
	handler http.Handler

	serverAddr string
	srv        *http.Server

	cleanup cleanupStack

	stateMu      sync.Mutex
	initialized  bool
	started      bool
	serverErrors chan error

	shutdownOnce sync.Once
}

// New creates an App lifecycle wrapper.
func New(cfg *config.Config, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &App{cfg: cfg, logger: logger}, nil
}

// AttachLoggerProvider registers an optional logger provider for shutdown cleanup.
func (a *App) AttachLoggerProvider(provider *observability.LoggerProvider) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	a.loggerProvider = provider
}

// Handler returns the root HTTP handler once Init has completed.
func (a *App) Handler() http.Handler {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	return a.handler
}

// Schema returns the schema being served once Init has completed.
func (a *App) Schema() *Schema {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	return a.schema
}
