package serverapp

import (
	"context"
	"fmt"
	"log/slog"
)

// Init initializes all runtime resources. It is idempotent.
func (a *App) Init(ctx context.Context) error {
	a.stateMu.Lock()
	if a.initialized {
		a.stateMu.Unlock()
		return nil
	}
	a.stateMu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}

	cleanup := cleanupStack{}
	success := false
	defer func() {
		if !success {
			cleanup.run(context.Background(), a.logger)
		}
	}()

	if a.loggerProvider != nil {
		cleanup.push("logger provider", func(shutdownCtx context.Context) error {
			return a.loggerProvider.Shutdown(shutdownCtx, a.logger.Logger)
		})
	}

	meterProvider, graphqlMetrics, buildMetrics, err := initMetrics(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry metrics: %w", err)
	}
	if meterProvider != nil {
		cleanup.push("meter provider", func(shutdownCtx context.Context) error {
			return meterProvider.Shutdown(shutdownCtx, a.logger.Logger)
		})
	}

	tracerProvider, err := initTracing(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry tracing: %w", err)
	}
	if tracerProvider != nil {
		cleanup.push("tracer provider", func(shutdownCtx context.Context) error {
			return tracerProvider.Shutdown(shutdownCtx, a.logger.Logger)
		})
	}

	source, err := LoadSource(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to load schema source: %w", err)
	}
	cleanup.push("schema source", func(_ context.Context) error {
		return source.Close()
	})

	schema, err := BuildSchema(ctx, a.cfg, source, a.logger, buildMetrics)
	if err != nil {
		return fmt.Errorf("failed to build schema: %w", err)
	}
	a.logger.Info("schema ready",
		slog.String("source", source.Kind),
		slog.String("context", source.Context.Name),
		slog.Int("root_fields", len(schema.Result.RootFields)),
		slog.Int("types", len(schema.Result.Nodes)),
		slog.String("fingerprint", schema.Fingerprint),
	)

	graphqlHandler := buildGraphQLHandler(a.cfg, a.logger, schema, source, graphqlMetrics)
	mux := buildRouter(a.cfg, a.logger, source, graphqlHandler, meterProvider)
	handler := wrapHTTPHandler(a.cfg, a.logger, mux)

	serverAddr := fmt.Sprintf(":%d", a.cfg.Server.Port)
	srv := buildServer(a.cfg, handler, serverAddr)
	cleanup.push("HTTP server", func(shutdownCtx context.Context) error {
		return srv.Shutdown(shutdownCtx)
	})

	a.stateMu.Lock()
	a.meterProvider = meterProvider
	a.graphqlMetrics = graphqlMetrics
	a.buildMetrics = buildMetrics
	a.tracerProvider = tracerProvider
	a.source = source
	a.schema = schema
	a.mux = mux
	a.handler = handler
	a.serverAddr = serverAddr
	a.srv = srv
	a.cleanup = cleanup
	a.initialized = true
	a.stateMu.Unlock()

	success = true
	return nil
}
