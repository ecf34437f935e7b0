package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables.
// Unset values fall back to their defaults and the result is validated.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom is Load with a custom lookup function, used by tests to avoid
// touching the process environment.
func LoadFrom(getenv func(string) string) (*Config, error) {
	cfg := &Config{}

	if err := populate(reflect.ValueOf(cfg).Elem(), getenv); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// populate walks the struct and fills every field carrying an env tag.
// Nested structs are walked recursively.
func populate(v reflect.Value, getenv func(string) string) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}

		if sf.Type.Kind() == reflect.Struct {
			if err := populate(fv, getenv); err != nil {
				return err
			}
			continue
		}

		name, value, err := lookup(sf.Tag, getenv)
		if err != nil {
			return err
		}
		if value == "" {
			continue
		}
		if err := assign(fv, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", name, value, err)
		}
	}

	return nil
}

// lookup resolves a field's raw value from its tags: the env variable, then
// envAlt, then default. It reports the primary variable name for errors.
func lookup(tag reflect.StructTag, getenv func(string) string) (string, string, error) {
	name := tag.Get("env")
	if name == "" {
		return "", "", nil
	}

	value := getenv(name)
	if alt := tag.Get("envAlt"); value == "" && alt != "" {
		value = getenv(alt)
	}
	if value != "" {
		return name, value, nil
	}

	if tag.Get("required") == "true" {
		return name, "", fmt.Errorf("required environment variable %s is not set", name)
	}
	return name, tag.Get("default"), nil
}

// assign parses value into the field according to its type.
func assign(fv reflect.Value, value string) error {
	switch {
	case fv.Type() == durationType:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		fv.SetInt(int64(d))

	case fv.Kind() == reflect.String:
		fv.SetString(value)

	case fv.Kind() == reflect.Int || fv.Kind() == reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		fv.SetInt(n)

	case fv.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		fv.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", fv.Kind())
	}

	return nil
}

// maxBatchSize keeps one multi-row INSERT under the 65535 bind parameter
// limit (four parameters per record).
const maxBatchSize = 65535 / 4

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var problems []string
	problems = append(problems, c.Database.problems()...)
	problems = append(problems, c.Server.problems()...)
	problems = append(problems, c.Import.problems()...)
	problems = append(problems, c.Logging.problems()...)

	if len(problems) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

func (d DatabaseConfig) problems() []string {
	var p []string
	switch strings.ToLower(d.Driver) {
	case DriverPostgres, DriverMySQL:
	default:
		p = append(p, fmt.Sprintf("DB_DRIVER (%q) must be one of: postgres, mysql", d.Driver))
	}
	if d.URL == "" {
		p = append(p, "DATABASE_URL is required")
	}
	if d.MaxConns <= 0 {
		p = append(p, "DB_MAX_CONNS must be positive")
	}
	if d.MinConns < 0 {
		p = append(p, "DB_MIN_CONNS must be non-negative")
	}
	if d.MaxConns < d.MinConns {
		p = append(p, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", d.MaxConns, d.MinConns))
	}
	if strings.TrimSpace(d.Table) == "" {
		p = append(p, "DB_TABLE must not be empty")
	}
	return p
}

func (s ServerConfig) problems() []string {
	var p []string
	if s.Port < 1 || s.Port > 65535 {
		p = append(p, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", s.Port))
	}
	if s.ReadTimeout < 0 {
		p = append(p, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if s.ShutdownTimeout <= 0 {
		p = append(p, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	return p
}

func (im ImportConfig) problems() []string {
	var p []string
	if im.BatchSize < 1 || im.BatchSize > maxBatchSize {
		p = append(p, fmt.Sprintf("BATCH_SIZE (%d) must be 1-%d", im.BatchSize, maxBatchSize))
	}
	if im.MaxConcurrent <= 0 {
		p = append(p, "IMPORT_MAX_CONCURRENT must be positive")
	}
	if im.MaxWaitTime <= 0 {
		p = append(p, "IMPORT_MAX_WAIT_TIME must be positive")
	}
	if im.Timeout <= 0 {
		p = append(p, "IMPORT_TIMEOUT must be positive")
	}
	if im.ExportEnabled && strings.TrimSpace(im.ExportDir) == "" {
		p = append(p, "IMPORT_EXPORT_DIR must be set when IMPORT_EXPORT_ENABLED is true")
	}
	return p
}

func (l LoggingConfig) problems() []string {
	var p []string
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		p = append(p, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", l.Level))
	}
	switch strings.ToLower(l.Format) {
	case "text", "json":
	default:
		p = append(p, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", l.Format))
	}
	return p
}

// String returns a representation safe for logs: the database URL is
// masked and the API key is only reported as set or not.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Server: {Host: %q, Port: %d, APIKeySet: %v}, "+
		"Database: {Driver: %q, URL: [MASKED], MaxConns: %d, MinConns: %d, Table: %q}, "+
		"Import: {CSVPath: %q, BatchSize: %d, ExportEnabled: %v, AutoImport: %v, MaxConcurrent: %d}, "+
		"Logging: {Level: %q, Format: %q}}",
		c.Server.Host, c.Server.Port, c.Server.APIKey != "",
		c.Database.Driver, c.Database.MaxConns, c.Database.MinConns, c.Database.Table,
		c.Import.CSVPath, c.Import.BatchSize, c.Import.ExportEnabled, c.Import.AutoImport, c.Import.MaxConcurrent,
		c.Logging.Level, c.Logging.Format)
}
