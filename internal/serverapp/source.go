package serverapp

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"

	"gql-automap/internal/autoschema"
	"gql-automap/internal/config"
	"gql-automap/internal/datacontext"
	"gql-automap/internal/dbexec"
	"gql-automap/internal/introspection"
	"gql-automap/internal/logging"
	"gql-automap/internal/metadata"
	"gql-automap/internal/naming"
	"gql-automap/internal/observability"
	"gql-automap/internal/schemafilter"
	"gql-automap/internal/sqlcontext"
)

// Source is the entity metadata, context descriptor and instance data a schema
// is generated from and served with.
type Source struct {
	// Kind is config.SourceFile or config.SourceDatabase.
	Kind     string
	Provider metadata.Provider
	Context  metadata.ContextType
	Data     datacontext.Context

	db         *sql.DB
	dbStatsReg interface{ Unregister() error }
}

// Ping checks that the data behind the source is reachable. File sources are
// always reachable.
func (s *Source) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

// Close releases the database connection, if any.
func (s *Source) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if s.dbStatsReg != nil {
		if err := s.dbStatsReg.Unregister(); err != nil {
			slog.Warn("failed to unregister DB stats metrics", slog.String("error", err.Error()))
		}
	}
	return s.db.Close()
}

// LoadSource opens the configured schema source.
func LoadSource(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Source, error) {
	namer := naming.New(cfg.Naming, logger.Logger)
	switch cfg.Schema.Source {
	case config.SourceFile, "":
		return loadFileSource(cfg, namer, logger)
	case config.SourceDatabase:
		return loadDatabaseSource(ctx, cfg, namer, logger)
	default:
		return nil, fmt.Errorf("unknown schema source %q", cfg.Schema.Source)
	}
}

func loadFileSource(cfg *config.Config, namer *naming.Namer, logger *logging.Logger) (*Source, error) {
	doc, err := metadata.LoadModelFile(cfg.Schema.ModelFile)
	if err != nil {
		return nil, err
	}

	var ctxType metadata.ContextType
	if doc.Context != nil {
		ctxType = *doc.Context
	} else {
		ctxType = doc.Model.DefaultContext(cfg.Schema.ContextName, func(e *metadata.Entity) string {
			return namer.FieldName(namer.Pluralize(e.SimpleName()))
		})
	}

	store := datacontext.NewStore(ctxType.Name)
	if cfg.Schema.DataFile != "" {
		if store, err = datacontext.LoadFixtureFile(cfg.Schema.DataFile); err != nil {
			return nil, err
		}
		if store.Name() != "" && ctxType.Name != "" && store.Name() != ctxType.Name {
			return nil, fmt.Errorf("data file %s holds fixtures for context %q, model declares %q",
				cfg.Schema.DataFile, store.Name(), ctxType.Name)
		}
	}
	// Collections without fixtures serve an empty list.
	for _, c := range ctxType.RootCollections() {
		store.Add(c.Name)
	}

	logger.Info("loaded schema source",
		slog.String("source", config.SourceFile),
		slog.String("model_file", cfg.Schema.ModelFile),
		slog.String("data_file", cfg.Schema.DataFile),
		slog.Int("entities", len(doc.Model.Entities())),
		slog.Int("collections", len(ctxType.Collections)),
	)
	return &Source{
		Kind:     config.SourceFile,
		Provider: doc.Model,
		Context:  ctxType,
		Data:     store,
	}, nil
}

func loadDatabaseSource(ctx context.Context, cfg *config.Config, namer *naming.Namer, logger *logging.Logger) (*Source, error) {
	databaseName, err := cfg.Database.EffectiveDatabaseName()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve effective database configuration: %w", err)
	}

	logger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.Int("port", cfg.Database.Port),
		slog.String("database", databaseName),
		slog.Bool("dsn_present", cfg.Database.ConnectionString != ""),
	)

	db, dbStatsReg, err := connectDB(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	src := &Source{Kind: config.SourceDatabase, db: db, dbStatsReg: dbStatsReg}

	if err := configureDatabase(ctx, cfg, logger, db, databaseName); err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("failed to verify database connection: %w", err)
	}

	filters := cfg.Schema.Filters
	catalog, err := introspection.Load(ctx, db, databaseName, namer, logger.Logger, func(schema *introspection.Schema) {
		before := len(schema.Tables)
		schemafilter.Apply(schema, filters)
		if !filters.Empty() || before != len(schema.Tables) {
			logger.Info("schema filters applied",
				slog.Int("tables_before", before),
				slog.Int("tables_after", len(schema.Tables)),
			)
		}
	})
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("failed to introspect database %s: %w", databaseName, err)
	}

	executor := dbexec.NewLoggingExecutor(dbexec.NewStandardExecutor(db), logger.Logger)
	src.Provider = catalog.Model
	src.Context = catalog.Context
	src.Data = sqlcontext.New(executor, catalog, logger.Logger)

	logger.Info("loaded schema source",
		slog.String("source", config.SourceDatabase),
		slog.String("database", databaseName),
		slog.Int("tables", len(catalog.Schema.Tables)),
		slog.Int("collections", len(catalog.Context.Collections)),
	)
	return src, nil
}

// Schema is a generated schema with its SDL rendering.
type Schema struct {
	Result *autoschema.Result
	SDL    string
	// Fingerprint is the SHA-256 of SDL. Spans carry it so traces can be
	// matched to the schema that served them.
	Fingerprint string
}

// BuildSchema generates the GraphQL schema for src.
func BuildSchema(ctx context.Context, cfg *config.Config, src *Source, logger *logging.Logger, metrics *observability.SchemaBuildMetrics) (*Schema, error) {
	result, err := autoschema.Build(ctx, autoschema.Options{
		Provider:     src.Provider,
		Context:      src.Context,
		Connections:  cfg.Schema.Connections,
		Naming:       cfg.Naming,
		DefaultLimit: cfg.Server.DefaultLimit,
		MaxLimit:     cfg.Server.MaxLimit,
		Source:       src.Kind,
		Logger:       logger.Logger,
		Metrics:      metrics,
	})
	if err != nil {
		return nil, err
	}
	return newSchema(result, autoschema.RenderSDL(result))
}

// newSchema checks sdl with an independent SDL parser before fingerprinting it,
// so a schema other GraphQL tooling would reject never starts serving.
func newSchema(result *autoschema.Result, sdl string) (*Schema, error) {
	if _, err := autoschema.ValidateSDL(sdl); err != nil {
		return nil, fmt.Errorf("generated schema: %w", err)
	}
	sum := sha256.Sum256([]byte(sdl))
	return &Schema{
		Result:      result,
		SDL:         sdl,
		Fingerprint: hex.EncodeToString(sum[:]),
	}, nil
}
