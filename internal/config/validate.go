package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"gql-automap/internal/naming"
	"gql-automap/internal/schemafilter"
)

// ValidationError represents a configuration validation error with context.
type ValidationError struct {
	Field   string
	Message string
	Hint    string
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (hint: %s)", e.Field, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Field   string
	Message string
	Hint    string
}

// ValidationResult contains the results of configuration validation.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Error returns a combined error message if there are validation errors.
func (r *ValidationResult) Error() string {
	if !r.HasErrors() {
		return ""
	}
	var msgs []string
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func (r *ValidationResult) addError(field, message, hint string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message, Hint: hint})
}

func (r *ValidationResult) addWarning(field, message, hint string) {
	r.Warnings = append(r.Warnings, ValidationWarning{Field: field, Message: message, Hint: hint})
}

// Validate checks the configuration for errors and returns validation results.
// Database settings are only checked when the schema comes from a database.
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{}

	c.Server.validate(result)
	c.Schema.validate(result)
	if c.Schema.Source == SourceDatabase {
		c.Database.validate(result)
	}
	c.Observability.validate(result)
	validateNamingConfig(result, c.Naming)

	return result
}

func (s *ServerConfig) validate(result *ValidationResult) {
	if s.Port < 1 || s.Port > 65535 {
		result.addError("server.port", fmt.Sprintf("port %d is out of valid range (1-65535)", s.Port), "")
	}
	if s.DefaultLimit < 0 {
		result.addError("server.default_limit", "default_limit cannot be negative", "")
	}
	if s.MaxLimit < 0 {
		result.addError("server.max_limit", "max_limit cannot be negative", "")
	}
	if s.MaxLimit > 0 && s.DefaultLimit > s.MaxLimit {
		result.addError("server.default_limit",
			fmt.Sprintf("default_limit %d exceeds max_limit %d", s.DefaultLimit, s.MaxLimit),
			"raise max_limit or lower default_limit")
	}
	if s.MaxLimit > 0 && s.DefaultLimit == 0 {
		result.addWarning("server.default_limit",
			"max_limit is set but default_limit is 0",
			"requests without a limit return every row; set default_limit to cap them")
	}
	if s.GraphiQLEnabled {
		result.addWarning("server.graphiql_enabled", "GraphiQL UI is enabled", "disable it in production")
	}
}

func (s *SchemaConfig) validate(result *ValidationResult) {
	switch s.Source {
	case SourceFile:
		if strings.TrimSpace(s.ModelFile) == "" {
			result.addError("schema.model_file", "model_file is required when source is file", "")
		}
		if strings.TrimSpace(s.DataFile) == "" {
			result.addWarning("schema.data_file",
				"no data_file configured",
				"every collection resolves to an empty list")
		}
	case SourceDatabase:
		if strings.TrimSpace(s.ModelFile) != "" && s.ModelFile != "model.yaml" {
			result.addWarning("schema.model_file",
				"model_file is ignored when source is database", "")
		}
	default:
		result.addError("schema.source",
			fmt.Sprintf("invalid schema source %q", s.Source),
			"valid values are: file, database")
	}
	if s.ContextName != "" && !strings.Contains(s.ContextName, ".") {
		result.addWarning("schema.context_name",
			fmt.Sprintf("context name %q has no namespace", s.ContextName),
			"use a qualified name such as shop.ShopContext")
	}
	if pattern, err := schemafilter.Validate(s.Filters); err != nil {
		result.addError("schema.filters",
			fmt.Sprintf("invalid pattern %q: %v", pattern, err),
			"patterns use shell glob syntax, e.g. app_* or audit_?")
	}
}

func (d *DatabaseConfig) validate(result *ValidationResult) {
	if d.ConnectionString == "" && (d.Port < 1 || d.Port > 65535) {
		result.addError("database.port", fmt.Sprintf("port %d is out of valid range (1-65535)", d.Port), "")
	}

	if d.Pool.MaxOpen < 0 {
		result.addError("database.pool.max_open", "max_open cannot be negative", "")
	}
	if d.Pool.MaxIdle < 0 {
		result.addError("database.pool.max_idle", "max_idle cannot be negative", "")
	}
	if d.Pool.MaxIdle > d.Pool.MaxOpen && d.Pool.MaxOpen > 0 {
		result.addWarning("database.pool.max_idle",
			"max_idle is greater than max_open",
			"idle connections will be limited to max_open")
	}

	if d.ConnectionTimeout > 0 && d.ConnectionRetryInterval > d.ConnectionTimeout {
		result.addWarning("database.connection_retry_interval",
			"connection_retry_interval is greater than connection_timeout",
			"only one connection attempt will be made")
	}
	if d.ConnectionRetryInterval < 0 {
		result.addError("database.connection_retry_interval", "connection_retry_interval cannot be negative", "")
	}
	if d.ConnectionTimeout > 0 && d.ConnectionRetryInterval == 0 {
		result.addError("database.connection_retry_interval",
			"connection_retry_interval must be greater than 0 when connection_timeout is set",
			"set a retry interval such as 2s, or set connection_timeout to 0 to disable retries")
	}
	if d.ConnectionTimeout < 0 {
		result.addError("database.connection_timeout", "connection_timeout cannot be negative", "")
	}

	effectiveDatabase, err := resolveEffectiveDatabaseName(d.Database, d.ConnectionString)
	if err != nil {
		switch {
		case strings.HasPrefix(err.Error(), "database.dsn"):
			result.addError("database.dsn", err.Error(), "set a valid MySQL DSN in database.dsn/database.dsn_file")
		case strings.Contains(err.Error(), "mismatch"):
			result.addError("database.database", err.Error(), "either remove database.database or set it to match the DSN database")
		default:
			result.addError("database.database", err.Error(), "set database.database or include a /database in database.dsn")
		}
		return
	}

	d.Database = effectiveDatabase
}

func validateNamingConfig(result *ValidationResult, cfg naming.Config) {
	check := func(field string, overrides map[string]string) {
		for from, to := range overrides {
			if strings.TrimSpace(from) == "" {
				result.addError(field, "override key cannot be empty", "")
				continue
			}
			if strings.TrimSpace(to) == "" {
				result.addError(field, fmt.Sprintf("override for %q cannot be empty", from), "")
			}
		}
	}
	check("naming.plural_overrides", cfg.PluralOverrides)
	check("naming.singular_overrides", cfg.SingularOverrides)
}

func (o *ObservabilityConfig) validate(result *ValidationResult) {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[o.Logging.Level] {
		result.addError("observability.logging.level",
			fmt.Sprintf("invalid log level %q", o.Logging.Level),
			"valid values are: debug, info, warn, error")
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[o.Logging.Format] {
		result.addError("observability.logging.format",
			fmt.Sprintf("invalid log format %q", o.Logging.Format),
			"valid values are: json, text")
	}

	if o.TraceSampleRatio < 0 || o.TraceSampleRatio > 1 {
		result.addError("observability.trace_sample_ratio",
			fmt.Sprintf("trace_sample_ratio %v must be between 0 and 1", o.TraceSampleRatio), "")
	}

	o.OTLP.validate("observability.otlp", result)
	if o.Traces != nil {
		o.Traces.validate("observability.traces", result)
	}
	if o.Logs != nil {
		o.Logs.validate("observability.logs", result)
	}
}

func (o *OTLPConfig) validate(prefix string, result *ValidationResult) {
	validProtocols := map[string]bool{"": true, "grpc": true, "http/protobuf": true}
	if !validProtocols[o.Protocol] {
		result.addError(prefix+".protocol",
			fmt.Sprintf("invalid OTLP protocol %q", o.Protocol),
			"valid values are: grpc, http/protobuf")
	}

	if o.Protocol == "http/protobuf" && !validOTLPEndpoint(o.Endpoint) {
		result.addError(prefix+".endpoint",
			fmt.Sprintf("invalid OTLP endpoint %q for http/protobuf", o.Endpoint),
			"use host:port or a full URL")
	}

	validCompressions := map[string]bool{"": true, "none": true, "gzip": true}
	if !validCompressions[o.Compression] {
		result.addError(prefix+".compression",
			fmt.Sprintf("invalid OTLP compression %q", o.Compression),
			"valid values are: none, gzip")
	}

	if o.RetryMaxAttempts < 0 {
		result.addError(prefix+".retry_max_attempts", "retry_max_attempts cannot be negative", "")
	}

	if (o.TLSClientCertFile == "") != (o.TLSClientKeyFile == "") {
		result.addError(prefix+".tls_client_cert_file",
			"both tls_client_cert_file and tls_client_key_file must be specified for mTLS",
			"provide both files, or neither")
	}
}

func validOTLPEndpoint(endpoint string) bool {
	if endpoint == "" {
		return false
	}
	if strings.Contains(endpoint, "://") {
		parsed, err := url.Parse(endpoint)
		if err != nil {
			return false
		}
		return parsed.Host != ""
	}
	_, _, err := net.SplitHostPort(endpoint)
	return err == nil
}
