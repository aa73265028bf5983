package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/go-scripts/providercrawl/internal/browser"
	"github.com/go-scripts/providercrawl/internal/config"
	"github.com/go-scripts/providercrawl/internal/crawler"
	"github.com/go-scripts/providercrawl/internal/identity"
	"github.com/go-scripts/providercrawl/internal/journal"
	"github.com/go-scripts/providercrawl/internal/progress"
	"github.com/go-scripts/providercrawl/internal/report"
	"github.com/go-scripts/providercrawl/internal/writer"
)

const retryBackoff = time.Second

// Globals are shared by every command
type Globals struct {
	Config  string `help:"Path to configuration file" short:"c" type:"path"`
	EnvFile string `help:"Path to .env file" default:".env" type:"path"`
	Debug   bool   `help:"Enable debug logging"`
}

// CLI flags structure
type CLI struct {
	Globals

	Crawl   CrawlCmd   `cmd:"" default:"withargs" help:"Crawl the provider directory for every location"`
	History HistoryCmd `cmd:"" help:"Show recent runs from the journal"`
}

// CrawlCmd overrides config values; zero values leave the config alone
type CrawlCmd struct {
	Locations   string   `help:"Path to locations JSON file" short:"l" type:"path"`
	Output      string   `help:"Path to output CSV file" short:"o" type:"path"`
	Journal     string   `help:"Path to run journal database" type:"path"`
	NoJournal   bool     `help:"Do not record the run in the journal"`
	Categories  []string `help:"Search categories to crawl" sep:","`
	Distance    string   `help:"Search radius in km"`
	Links       int      `help:"Detail pages per search, 0 for all" default:"-1"`
	Headless    bool     `help:"Run the browser headless"`
	ChromePath  string   `help:"Path to the Chrome executable"`
	MaxFailures int      `help:"Stop after this many consecutive failed searches, 0 never stops" default:"-1"`
	NoProgress  bool     `help:"Disable the progress bar"`
}

// HistoryCmd lists runs or the searches of one run
type HistoryCmd struct {
	Limit int    `help:"Number of runs to show" default:"10" short:"n"`
	RunID string `help:"Show the searches of this run" name:"run"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name(config.AppName),
		kong.Description("Crawls the aged care provider directory into a CSV file."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	err := kctx.Run(&cli.Globals)
	kctx.FatalIfErrorf(err)
}

// setup loads the .env file and config, then builds the logger
func (g *Globals) setup() (*config.Config, *log.Logger, error) {
	if err := config.LoadEnvFile(g.EnvFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, nil, err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          config.AppName,
	})
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	if g.Debug {
		level = log.DebugLevel
	}
	logger.SetLevel(level)
	return cfg, logger, nil
}

func (c *CrawlCmd) apply(cfg *config.Config) {
	if c.Locations != "" {
		cfg.LocationsFile = c.Locations
	}
	if c.Output != "" {
		cfg.OutputFile = c.Output
	}
	if c.Journal != "" {
		cfg.JournalFile = c.Journal
	}
	if c.NoJournal {
		cfg.JournalFile = ""
	}
	if len(c.Categories) > 0 {
		cfg.Categories = c.Categories
	}
	if c.Distance != "" {
		cfg.Distance = c.Distance
	}
	if c.Links >= 0 {
		cfg.LinksPerSearch = c.Links
	}
	if c.Headless {
		cfg.Headless = true
	}
	if c.ChromePath != "" {
		cfg.ChromePath = c.ChromePath
	}
	if c.MaxFailures >= 0 {
		cfg.MaxConsecutivePairFailures = c.MaxFailures
	}
}

func (c *CrawlCmd) Run(ctx context.Context, g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	c.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	locations, err := config.LoadLocations(cfg.LocationsFile)
	if err != nil {
		return err
	}
	if len(locations) == 0 {
		return fmt.Errorf("%w in %s", crawler.ErrNoLocations, cfg.LocationsFile)
	}

	store := writer.New(cfg.OutputFile, logger)
	seen := identity.New()
	store.Seed(seen)

	chrome, err := browser.NewChrome(ctx, browser.Options{
		Headless:   cfg.Headless,
		UserAgent:  cfg.UserAgent,
		Width:      cfg.Width,
		Height:     cfg.Height,
		Locale:     cfg.Locale,
		Timezone:   cfg.Timezone,
		ExecPath:   cfg.ChromePath,
		NavTimeout: cfg.NavTimeout,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer chrome.Close()

	cr := crawler.New(crawler.Options{
		BaseURL:                    cfg.BaseURL,
		Categories:                 cfg.Categories,
		Distance:                   cfg.Distance,
		LinksPerSearch:             cfg.LinksPerSearch,
		NavRetries:                 cfg.NavRetries,
		RetryBackoff:               retryBackoff,
		Settle:                     cfg.Settle,
		DetailSettle:               cfg.DetailSettle,
		Pacing:                     cfg.Pacing,
		PopupSettle:                cfg.PopupSettle,
		ReadinessAttempts:          cfg.ReadinessAttempts,
		ReadinessInterval:          cfg.ReadinessInterval,
		MaxConsecutivePairFailures: cfg.MaxConsecutivePairFailures,
	}, chrome, store, seen, logger)

	var (
		runID string
		jrnl  *journal.Journal
	)
	if cfg.JournalFile != "" {
		jrnl, err = journal.Open(cfg.JournalFile, journal.DefaultOptions())
		if err != nil {
			logger.Warn("Journal disabled", "file", cfg.JournalFile, "err", err)
		} else {
			defer jrnl.Close()
			runID, err = jrnl.StartRun(ctx, len(locations), len(cfg.Categories))
			if err != nil {
				logger.Warn("Journal disabled", "err", err)
				jrnl = nil
			} else {
				cr.Recorder = jrnl.Recorder(runID)
				logger.Info("Recording run", "run", runID, "journal", jrnl.Path())
			}
		}
	}

	tracker := progress.New(os.Stderr, !c.NoProgress)
	cr.Progress = tracker

	started := time.Now()
	logger.Debug("Effective config", "output", cfg.OutputFile, "journal", cfg.JournalFile,
		"categories", cfg.Categories, "distance", cfg.Distance, "headless", cfg.Headless)
	summary, runErr := cr.Run(ctx, locations)

	if jrnl != nil {
		if err := jrnl.FinishRun(context.WithoutCancel(ctx), runID, summary.Saved, runErr); err != nil {
			logger.Warn("Could not finish journal run", "run", runID, "err", err)
		}
	}

	fmt.Println(report.Summary(report.Stats{
		Locations:  summary.Locations,
		Pairs:      summary.Pairs,
		Completed:  summary.Completed,
		Skipped:    summary.Skipped,
		Errored:    summary.Errored,
		Saved:      summary.Saved,
		Elapsed:    time.Since(started),
		OutputFile: store.Path(),
		RunID:      runID,
	}))

	if errors.Is(runErr, context.Canceled) {
		logger.Warn("Crawl interrupted", "saved", summary.Saved)
		return nil
	}
	return runErr
}

func (h *HistoryCmd) Run(ctx context.Context, g *Globals) error {
	cfg, _, err := g.setup()
	if err != nil {
		return err
	}
	if cfg.JournalFile == "" {
		return fmt.Errorf("%w: no journal file configured", journal.ErrNotFound)
	}

	jrnl, err := journal.Open(cfg.JournalFile, journal.Options{})
	if err != nil {
		return err
	}
	defer jrnl.Close()

	if h.RunID != "" {
		pairs, err := jrnl.Pairs(ctx, h.RunID)
		if err != nil {
			return err
		}
		fmt.Println(report.Pairs(h.RunID, pairs))
		return nil
	}

	runs, err := jrnl.RecentRuns(ctx, h.Limit)
	if err != nil {
		return err
	}
	fmt.Println(report.Runs(runs))
	return nil
}
