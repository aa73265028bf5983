package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	AppName = "providercrawl"

	DefaultBaseURL       = "https://www.myagedcare.gov.au/find-a-provider/search/results"
	DefaultLocationsFile = "input/postcodes.json"
	DefaultOutputFile    = "output/output.csv"

	// DefaultDistance is the search radius in km; empty disables the filter.
	DefaultDistance = "250"

	// DefaultLinksPerSearch caps detail pages per search; 0 scrapes all.
	DefaultLinksPerSearch = 2

	DefaultNavRetries = 3
	DefaultNavTimeout = 15 * time.Second

	// DefaultSettle is the pause after a results page loads,
	// DefaultDetailSettle the pause after a detail page loads.
	DefaultSettle       = 2 * time.Second
	DefaultDetailSettle = 3 * time.Second
	DefaultPacing       = 1 * time.Second
	DefaultPopupSettle  = 1500 * time.Millisecond

	DefaultReadinessAttempts = 30
	DefaultReadinessInterval = 500 * time.Millisecond

	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultWidth     = 1400
	DefaultHeight    = 900
	DefaultLocale    = "en-AU"
	DefaultTimezone  = "Australia/Sydney"

	DefaultLogLevel = "info"
)

// DefaultCategories are the directory search types crawled per location
var DefaultCategories = []string{"aged-care-homes", "help-at-home"}

// Config holds everything a crawl run needs. It is built once at startup
// and passed down; nothing reads it globally.
type Config struct {
	BaseURL       string   `yaml:"base_url"`
	LocationsFile string   `yaml:"locations_file"`
	OutputFile    string   `yaml:"output_file"`
	JournalFile   string   `yaml:"journal_file"` // empty disables the journal
	Categories    []string `yaml:"categories"`
	Distance      string   `yaml:"distance"`

	LinksPerSearch int `yaml:"links_per_search"`

	NavRetries   int           `yaml:"nav_retries"`
	NavTimeout   time.Duration `yaml:"nav_timeout"`
	Settle       time.Duration `yaml:"settle"`
	DetailSettle time.Duration `yaml:"detail_settle"`
	Pacing       time.Duration `yaml:"pacing"`
	PopupSettle  time.Duration `yaml:"popup_settle"`

	ReadinessAttempts int           `yaml:"readiness_attempts"`
	ReadinessInterval time.Duration `yaml:"readiness_interval"`

	// MaxConsecutivePairFailures stops the run after that many pairs in a
	// row fail. 0 never stops.
	MaxConsecutivePairFailures int `yaml:"max_consecutive_pair_failures"`

	Headless   bool   `yaml:"headless"`
	ChromePath string `yaml:"chrome_path"`
	UserAgent  string `yaml:"user_agent"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Locale     string `yaml:"locale"`
	Timezone   string `yaml:"timezone"`

	LogLevel string `yaml:"log_level"`
}

// NewConfig creates a Config with default values
func NewConfig() *Config {
	return &Config{
		BaseURL:           DefaultBaseURL,
		LocationsFile:     DefaultLocationsFile,
		OutputFile:        DefaultOutputFile,
		JournalFile:       DefaultJournalFile(),
		Categories:        append([]string(nil), DefaultCategories...),
		Distance:          DefaultDistance,
		LinksPerSearch:    DefaultLinksPerSearch,
		NavRetries:        DefaultNavRetries,
		NavTimeout:        DefaultNavTimeout,
		Settle:            DefaultSettle,
		DetailSettle:      DefaultDetailSettle,
		Pacing:            DefaultPacing,
		PopupSettle:       DefaultPopupSettle,
		ReadinessAttempts: DefaultReadinessAttempts,
		ReadinessInterval: DefaultReadinessInterval,
		UserAgent:         DefaultUserAgent,
		Width:             DefaultWidth,
		Height:            DefaultHeight,
		Locale:            DefaultLocale,
		Timezone:          DefaultTimezone,
		LogLevel:          DefaultLogLevel,
	}
}

// XDGDataDir returns the data directory, e.g. ~/.local/share/providercrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the config directory, e.g. ~/.config/providercrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultJournalFile is where the run journal lives unless configured
func DefaultJournalFile() string {
	return filepath.Join(XDGDataDir(), "journal.db")
}

// Validate returns the first problem found
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return ErrNoBaseURL
	}
	if strings.TrimSpace(c.LocationsFile) == "" {
		return ErrNoLocationsFile
	}
	if strings.TrimSpace(c.OutputFile) == "" {
		return ErrNoOutputFile
	}
	if len(c.Categories) == 0 {
		return ErrNoCategories
	}
	for _, cat := range c.Categories {
		if strings.TrimSpace(cat) == "" {
			return ErrNoCategories
		}
	}
	if c.LinksPerSearch < 0 {
		return ErrInvalidLinksPerSearch
	}
	if c.NavRetries < 1 {
		return ErrInvalidNavRetries
	}
	if c.NavTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Settle < 0 || c.DetailSettle < 0 || c.Pacing < 0 || c.PopupSettle < 0 || c.ReadinessInterval < 0 {
		return ErrInvalidDelay
	}
	if c.ReadinessAttempts < 1 {
		return ErrInvalidReadinessAttempts
	}
	if c.MaxConsecutivePairFailures < 0 {
		return ErrInvalidMaxFailures
	}
	if c.Width <= 0 || c.Height <= 0 {
		return ErrInvalidViewport
	}
	return nil
}
