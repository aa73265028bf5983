package config

import "errors"

// Configuration validation errors, returned by Config.Validate.
var (
	ErrNoBaseURL                = errors.New("base_url is required")
	ErrNoLocationsFile          = errors.New("locations_file is required")
	ErrNoOutputFile             = errors.New("output_file is required")
	ErrNoCategories             = errors.New("at least one non-empty category is required")
	ErrInvalidLinksPerSearch    = errors.New("invalid links_per_search: must be non-negative")
	ErrInvalidNavRetries        = errors.New("invalid nav_retries: must be at least 1")
	ErrInvalidTimeout           = errors.New("invalid nav_timeout: must be positive")
	ErrInvalidDelay             = errors.New("invalid delay: settle, pacing and intervals must be non-negative")
	ErrInvalidReadinessAttempts = errors.New("invalid readiness_attempts: must be at least 1")
	ErrInvalidMaxFailures       = errors.New("invalid max_consecutive_pair_failures: must be non-negative")
	ErrInvalidViewport          = errors.New("invalid viewport: width and height must be positive")
)

// ErrConfigNotFound is returned when an explicitly named config file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")
