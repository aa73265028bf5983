package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the working directory
const DefaultConfigFile = "providercrawl.yaml"

// EnvPrefix prefixes every environment override
const EnvPrefix = "PROVIDERCRAWL_"

// Load builds the effective configuration: defaults, then the YAML file,
// then environment variables. An explicit path must exist; otherwise a
// missing file just means defaults.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	found := FindConfigFile(path)
	if path != "" && found == "" {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}
	if found != "" {
		if err := LoadConfigFile(found, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigFile searches, in order: the explicit path, ./providercrawl.yaml,
// then config.yaml in the XDG config directory. It returns "" when nothing exists.
func FindConfigFile(path string) string {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	p := filepath.Join(XDGConfigDir(), "config.yaml")
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

// LoadConfigFile decodes a YAML file over cfg. Keys absent from the file
// keep their current values.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// LoadEnvFile loads KEY=value pairs from a .env file into the process
// environment. Variables already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from PROVIDERCRAWL_* variables and CHROME_PATH
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok
	}

	strs := map[string]*string{
		"BASE_URL":       &c.BaseURL,
		"LOCATIONS_FILE": &c.LocationsFile,
		"OUTPUT_FILE":    &c.OutputFile,
		"JOURNAL_FILE":   &c.JournalFile,
		"DISTANCE":       &c.Distance,
		"CHROME_PATH":    &c.ChromePath,
		"USER_AGENT":     &c.UserAgent,
		"LOCALE":         &c.Locale,
		"TIMEZONE":       &c.Timezone,
		"LOG_LEVEL":      &c.LogLevel,
	}
	for name, field := range strs {
		if v, ok := get(name); ok {
			*field = v
		}
	}

	if v, ok := lookup("CHROME_PATH"); ok && c.ChromePath == "" {
		c.ChromePath = strings.TrimSpace(v)
	}

	if v, ok := get("CATEGORIES"); ok {
		c.Categories = splitList(v)
	}

	ints := map[string]*int{
		"LINKS_PER_SEARCH":              &c.LinksPerSearch,
		"NAV_RETRIES":                   &c.NavRetries,
		"READINESS_ATTEMPTS":            &c.ReadinessAttempts,
		"MAX_CONSECUTIVE_PAIR_FAILURES": &c.MaxConsecutivePairFailures,
	}
	for name, field := range ints {
		v, ok := get(name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
		}
		*field = n
	}

	durations := map[string]*time.Duration{
		"NAV_TIMEOUT":   &c.NavTimeout,
		"SETTLE":        &c.Settle,
		"DETAIL_SETTLE": &c.DetailSettle,
		"PACING":        &c.Pacing,
	}
	for name, field := range durations {
		v, ok := get(name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
		}
		*field = d
	}

	if v, ok := get("HEADLESS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sHEADLESS: %w", EnvPrefix, err)
		}
		c.Headless = b
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
