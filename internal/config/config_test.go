package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "automap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, fs, err := Load([]string{"-c", writeConfig(t, "{}\n")})
	require.NoError(t, err)
	require.NotNil(t, fs)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0, cfg.Server.DefaultLimit)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, SourceFile, cfg.Schema.Source)
	assert.Equal(t, "model.yaml", cfg.Schema.ModelFile)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, 25, cfg.Database.Pool.MaxOpen)
	assert.Equal(t, "info", cfg.Observability.Logging.Level)
	assert.Equal(t, "grpc", cfg.Observability.OTLP.Protocol)
	assert.Empty(t, cfg.Naming.PluralOverrides)
	assert.True(t, cfg.Schema.Filters.ScanViewsEnabled)
	assert.Empty(t, cfg.Schema.Filters.DenyTables)
	assert.False(t, cfg.Validate().HasErrors(), cfg.Validate().Error())
}

func TestLoadSchemaFilters(t *testing.T) {
	path := writeConfig(t, `
schema:
  filters:
    allow_tables: [app_*]
    deny_columns:
      users: [password_*]
`)
	t.Setenv("AUTOMAP_SCHEMA_FILTERS_DENY_TABLES", "app_audit,app_tmp")
	cfg, _, err := Load([]string{"-c", path, "--schema.filters.scan_views_enabled=false"})
	require.NoError(t, err)

	assert.Equal(t, []string{"app_*"}, cfg.Schema.Filters.AllowTables)
	assert.Equal(t, []string{"app_audit", "app_tmp"}, cfg.Schema.Filters.DenyTables)
	assert.Equal(t, map[string][]string{"users": {"password_*"}}, cfg.Schema.Filters.DenyColumns)
	assert.False(t, cfg.Schema.Filters.ScanViewsEnabled)

	cfg, _, err = Load([]string{"-c", path, "--schema.filters.allow_tables", "a,b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, cfg.Schema.Filters.AllowTables)
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  default_limit: 10
schema:
  source: file
  model_file: shop.yaml
  connections: true
naming:
  plural_overrides:
    person: people
`)
	t.Setenv("AUTOMAP_SERVER_PORT", "9100")
	t.Setenv("AUTOMAP_SERVER_MAX_LIMIT", "500")

	cfg, _, err := Load([]string{"--config", path, "--server.max_limit=200", "--observability.logging.level=debug"})
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "env beats file")
	assert.Equal(t, 200, cfg.Server.MaxLimit, "flag beats env")
	assert.Equal(t, 10, cfg.Server.DefaultLimit)
	assert.Equal(t, "shop.yaml", cfg.Schema.ModelFile)
	assert.True(t, cfg.Schema.Connections)
	assert.Equal(t, map[string]string{"person": "people"}, cfg.Naming.PluralOverrides)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
}

func TestLoadStringMapsFromFlagsAndEnv(t *testing.T) {
	t.Setenv("AUTOMAP_OBSERVABILITY_OTLP_HEADERS", "x-api-key=abc, x-team = core")

	cfg, _, err := Load([]string{
		"-c", writeConfig(t, "{}\n"),
		"--naming.singular_overrides=data=datum,media=medium",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"data": "datum", "media": "medium"}, cfg.Naming.SingularOverrides)
	assert.Equal(t, map[string]string{"x-api-key": "abc", "x-team": "core"}, cfg.Observability.OTLP.Headers)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, _, err := Load([]string{"-c", writeConfig(t, "server:\n  graphql_max_depth: 5\n")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal config")
}

func TestLoadMissingExplicitConfigFile(t *testing.T) {
	_, _, err := Load([]string{"-c", filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadProcessFlagsAreNotConfigKeys(t *testing.T) {
	cfg, fs, err := Load([]string{"-c", writeConfig(t, "{}\n"), "--print-schema", "--version"})
	require.NoError(t, err)
	require.NotNil(t, cfg)

	printSchema, _ := fs.GetBool("print-schema")
	version, _ := fs.GetBool("version")
	assert.True(t, printSchema)
	assert.True(t, version)
}

func TestLoadDatabaseSecrets(t *testing.T) {
	dir := t.TempDir()
	pwFile := filepath.Join(dir, "pw")
	require.NoError(t, os.WriteFile(pwFile, []byte("s3cret\n"), 0o600))
	dsnFile := filepath.Join(dir, "dsn")
	require.NoError(t, os.WriteFile(dsnFile, []byte("app:pw@tcp(db:3306)/shop\n"), 0o600))

	t.Run("password file", func(t *testing.T) {
		cfg, _, err := Load([]string{
			"-c", writeConfig(t, "{}\n"),
			"--schema.source=database",
			"--database.database=shop",
			"--database.password_file=" + pwFile,
		})
		require.NoError(t, err)
		assert.Equal(t, "s3cret", cfg.Database.Password)
	})

	t.Run("dsn file", func(t *testing.T) {
		cfg, _, err := Load([]string{
			"-c", writeConfig(t, "{}\n"),
			"--schema.source=database",
			"--database.dsn_file=" + dsnFile,
		})
		require.NoError(t, err)
		assert.Equal(t, "app:pw@tcp(db:3306)/shop", cfg.Database.ConnectionString)
		name, err := cfg.Database.EffectiveDatabaseName()
		require.NoError(t, err)
		assert.Equal(t, "shop", name)
	})

	t.Run("prompt", func(t *testing.T) {
		prev := passwordPrompt
		t.Cleanup(func() { passwordPrompt = prev })
		passwordPrompt = func() (string, error) { return "typed", nil }

		cfg, _, err := Load([]string{
			"-c", writeConfig(t, "{}\n"),
			"--schema.source=database",
			"--database.password_prompt",
		})
		require.NoError(t, err)
		assert.Equal(t, "typed", cfg.Database.Password)
	})

	t.Run("prompt failure", func(t *testing.T) {
		prev := passwordPrompt
		t.Cleanup(func() { passwordPrompt = prev })
		passwordPrompt = func() (string, error) { return "", errors.New("not a terminal") }

		_, _, err := Load([]string{
			"-c", writeConfig(t, "{}\n"),
			"--schema.source=database",
			"--database.password_prompt",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read password")
	})
}

func TestValidateSingleStdinFileSource(t *testing.T) {
	v := viper.New()
	v.Set("database.dsn_file", "@-")
	v.Set("database.password_file", "/tmp/password")
	require.NoError(t, validateSingleStdinFileSource(v))

	v.Set("database.password_file", " @- ")
	err := validateSingleStdinFileSource(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.dsn_file")
	assert.Contains(t, err.Error(), "database.password_file")
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 3307, User: "app", Password: "pw", Database: "shop"}
	dsn, err := d.DSN()
	require.NoError(t, err)
	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "app", parsed.User)
	assert.Equal(t, "pw", parsed.Passwd)
	assert.Equal(t, "db:3307", parsed.Addr)
	assert.Equal(t, "shop", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, time.UTC, parsed.Loc)

	d = DatabaseConfig{ConnectionString: "u:p@tcp(other:3306)/inventory?loc=Local"}
	dsn, err = d.DSN()
	require.NoError(t, err)
	parsed, err = mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "other:3306", parsed.Addr)
	assert.Equal(t, "inventory", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, time.UTC, parsed.Loc)

	d = DatabaseConfig{ConnectionString: "not a dsn"}
	_, err = d.DSN()
	assert.Error(t, err)
}

func TestEffectiveDatabaseName(t *testing.T) {
	tests := []struct {
		name    string
		db      DatabaseConfig
		want    string
		wantErr string
	}{
		{name: "explicit", db: DatabaseConfig{Database: "shop"}, want: "shop"},
		{name: "from dsn", db: DatabaseConfig{ConnectionString: "u:p@tcp(h:1)/shop"}, want: "shop"},
		{name: "matching", db: DatabaseConfig{Database: "shop", ConnectionString: "u:p@tcp(h:1)/shop"}, want: "shop"},
		{name: "mismatch", db: DatabaseConfig{Database: "shop", ConnectionString: "u:p@tcp(h:1)/blog"}, wantErr: "mismatch"},
		{name: "missing", db: DatabaseConfig{}, wantErr: "no effective database name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.db.EffectiveDatabaseName()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func validConfig() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		Schema: SchemaConfig{Source: SourceFile, ModelFile: "model.yaml", DataFile: "data.yaml"},
		Database: DatabaseConfig{
			Host: "localhost", Port: 3306, Database: "shop",
			ConnectionTimeout: time.Minute, ConnectionRetryInterval: time.Second,
		},
		Observability: ObservabilityConfig{
			TraceSampleRatio: 1,
			Logging:          LoggingConfig{Level: "info", Format: "json"},
			OTLP:             OTLPConfig{Endpoint: "localhost:4317", Protocol: "grpc", Compression: "gzip"},
		},
	}
}

func fields(errs []ValidationError) []string {
	var out []string
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errors []string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, errors: []string{"server.port"}},
		{name: "negative limits", mutate: func(c *Config) {
			c.Server.DefaultLimit = -1
			c.Server.MaxLimit = -1
		}, errors: []string{"server.default_limit", "server.max_limit"}},
		{name: "default above max", mutate: func(c *Config) {
			c.Server.DefaultLimit = 50
			c.Server.MaxLimit = 20
		}, errors: []string{"server.default_limit"}},
		{name: "unknown source", mutate: func(c *Config) { c.Schema.Source = "graph" }, errors: []string{"schema.source"}},
		{name: "file without model", mutate: func(c *Config) { c.Schema.ModelFile = " " }, errors: []string{"schema.model_file"}},
		{name: "database ignored for file source", mutate: func(c *Config) { c.Database.Port = 0 }},
		{name: "database checked for database source", mutate: func(c *Config) {
			c.Schema.Source = SourceDatabase
			c.Database.Port = 0
			c.Database.Database = ""
		}, errors: []string{"database.port", "database.database"}},
		{name: "retry interval required", mutate: func(c *Config) {
			c.Schema.Source = SourceDatabase
			c.Database.ConnectionRetryInterval = 0
		}, errors: []string{"database.connection_retry_interval"}},
		{name: "empty naming override", mutate: func(c *Config) {
			c.Naming.PluralOverrides = map[string]string{"person": ""}
		}, errors: []string{"naming.plural_overrides"}},
		{name: "bad logging", mutate: func(c *Config) {
			c.Observability.Logging = LoggingConfig{Level: "trace", Format: "xml"}
		}, errors: []string{"observability.logging.level", "observability.logging.format"}},
		{name: "bad sample ratio", mutate: func(c *Config) { c.Observability.TraceSampleRatio = 2 }, errors: []string{"observability.trace_sample_ratio"}},
		{name: "bad otlp", mutate: func(c *Config) {
			c.Observability.Traces = &OTLPConfig{Protocol: "http/protobuf", Endpoint: "no port", Compression: "zstd"}
		}, errors: []string{"observability.traces.endpoint", "observability.traces.compression"}},
		{name: "bad filter pattern", mutate: func(c *Config) {
			c.Schema.Filters.DenyTables = []string{"[audit"}
		}, errors: []string{"schema.filters"}},
		{name: "half mtls", mutate: func(c *Config) {
			c.Observability.OTLP.TLSClientCertFile = "client.pem"
		}, errors: []string{"observability.otlp.tls_client_cert_file"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			result := cfg.Validate()
			assert.ElementsMatch(t, tt.errors, fields(result.Errors), result.Error())
		})
	}
}

func TestValidateResolvesDatabaseName(t *testing.T) {
	cfg := validConfig()
	cfg.Schema.Source = SourceDatabase
	cfg.Database.Database = ""
	cfg.Database.ConnectionString = "u:p@tcp(h:3306)/inventory"

	result := cfg.Validate()
	require.False(t, result.HasErrors(), result.Error())
	assert.Equal(t, "inventory", cfg.Database.Database)
}

func TestValidationResultError(t *testing.T) {
	r := &ValidationResult{}
	assert.Empty(t, r.Error())
	r.addError("server.port", "bad", "")
	r.addError("schema.source", "unknown", "use file")
	assert.Equal(t, "server.port: bad; schema.source: unknown (hint: use file)", r.Error())
	assert.True(t, strings.HasPrefix(r.Errors[1].Error(), "schema.source"))
}

func TestObservabilitySignalConfigMerge(t *testing.T) {
	o := ObservabilityConfig{
		OTLP: OTLPConfig{
			Endpoint: "collector:4317", Protocol: "grpc", Insecure: false,
			Headers: map[string]string{"a": "1"}, Timeout: 10 * time.Second,
		},
		Traces: &OTLPConfig{Endpoint: "tempo:4318", Protocol: "http/protobuf", Insecure: true, Headers: map[string]string{"b": "2"}},
	}

	traces := o.GetTracesConfig()
	assert.Equal(t, "tempo:4318", traces.Endpoint)
	assert.Equal(t, "http/protobuf", traces.Protocol)
	assert.True(t, traces.Insecure)
	assert.Equal(t, 10*time.Second, traces.Timeout)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, traces.Headers)
	assert.Equal(t, map[string]string{"a": "1"}, o.OTLP.Headers)

	assert.Equal(t, o.OTLP, o.GetLogsConfig())
}
