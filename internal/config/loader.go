package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/heatmap-panel/trace-test-app/internal/telemetry"
)

// EnvPrefix marks the environment variables that override the config.
const EnvPrefix = "TRACE_APP_"

const maxConfigFileSize = 1024 * 1024 // 1MB

// listKeys are split on commas and whitespace when read from the
// environment.
var listKeys = map[string]bool{
	"driver.sub_operations": true,
}

// nested lists the subsections reachable from the environment, keyed by
// section.
var nested = map[string][]string{
	"telemetry": {"batch", "retry"},
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is non-empty) and TRACE_APP_* environment variables, in increasing
// precedence.
//
// Environment variables map to keys by splitting on the first underscore
// after the prefix:
//
//	TRACE_APP_TELEMETRY_ENDPOINT       -> telemetry.endpoint
//	TRACE_APP_DRIVER_FAILURE_RATE      -> driver.failure_rate
//	TRACE_APP_TELEMETRY_BATCH_TIMEOUT  -> telemetry.batch.timeout
//
// List values such as TRACE_APP_DRIVER_SUB_OPERATIONS are separated by
// commas or whitespace. With protocol grpc and no explicit endpoint the
// collector's gRPC port is used.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	// Lists replace the defaults instead of merging element-wise.
	if k.Exists("driver.sub_operations") {
		cfg.Driver.SubOperations = k.Strings("driver.sub_operations")
	}
	if cfg.Telemetry.Protocol == telemetry.ProtocolGRPC && !k.Exists("telemetry.endpoint") {
		cfg.Telemetry.Endpoint = telemetry.DefaultGRPCEndpoint
	}
	cfg.applyService()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("config file %s is not a regular file", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// envValue maps an environment variable to its key and splits list values.
func envValue(name, value string) (string, any) {
	key := envKey(name)
	if listKeys[key] {
		return key, strings.FieldsFunc(value, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})
	}
	return key, value
}

// envKey maps TRACE_APP_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	for _, sub := range nested[section] {
		if rest, found := strings.CutPrefix(field, sub+"_"); found {
			return section + "." + sub + "." + rest
		}
	}
	return section + "." + field
}
