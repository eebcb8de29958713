package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Datasets the desk knows column sets for; "auto" detects from the data.
var Datasets = []string{"auto", "products", "orders", "promotions", "users"}

type Config struct {
	FilePath         string `env:"GROCERYDESK_FILE"`
	UseStdin         bool   `env:"GROCERYDESK_STDIN"`
	Follow           bool   `env:"GROCERYDESK_FOLLOW"`
	MaxBuffer        int    `env:"GROCERYDESK_MAX_BUFFER" envDefault:"100000"`
	BlockSizeMB      int    `env:"GROCERYDESK_BLOCK_SIZE_MB"`
	ThemeName        string `env:"GROCERYDESK_THEME" envDefault:"dark"`
	Dataset          string `env:"GROCERYDESK_DATASET" envDefault:"auto"`
	InputFormat      string `env:"GROCERYDESK_INPUT_FORMAT"`
	SchemaPath       string `env:"GROCERYDESK_SCHEMA"`
	PageSize         int    `env:"GROCERYDESK_PAGE_SIZE" envDefault:"20"`
	IDKey            string `env:"GROCERYDESK_ID_KEY" envDefault:"id"`
	DBPath           string `env:"GROCERYDESK_DB"`
	Offline          bool   `env:"GROCERYDESK_OFFLINE"`
	NoCache          bool   `env:"GROCERYDESK_NO_CACHE"`
	OpenAIModel      string `env:"GROCERYDESK_OPENAI_MODEL" envDefault:"gpt-5-mini"`
	OpenAIBase       string `env:"GROCERYDESK_OPENAI_BASE_URL"`
	OpenAITimeoutSec int    `env:"GROCERYDESK_OPENAI_TIMEOUT_SEC" envDefault:"60"`
	ExportFormat     string `env:"GROCERYDESK_EXPORT"`
	ExportOut        string `env:"GROCERYDESK_OUT"`
	Redact           bool   `env:"GROCERYDESK_REDACT"`
	Headless         bool   `env:"GROCERYDESK_HEADLESS"`
	ShowVersion      bool

	Theme Theme

	// Internal
	IsPipedStdin bool
	openAIKey    string
}

func Load() (*Config, error) {
	fi, _ := os.Stdin.Stat()
	piped := fi != nil && (fi.Mode()&os.ModeCharDevice) == 0
	return Parse(os.Args[1:], piped)
}

// Parse reads GROCERYDESK_* variables first, then flags, which win.
func Parse(args []string, pipedStdin bool) (*Config, error) {
	cfg := &Config{IsPipedStdin: pipedStdin}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.openAIKey = os.Getenv("OPENAI_API_KEY")

	fs := flag.NewFlagSet("grocerydesk", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.FilePath, "file", cfg.FilePath, "path to a data file (NDJSON or CSV)")
	fs.BoolVar(&cfg.Follow, "follow", cfg.Follow, "follow file for appended rows (tail -f)")
	fs.BoolVar(&cfg.UseStdin, "stdin", cfg.UseStdin, "read rows from stdin (default: auto if piped)")
	fs.IntVar(&cfg.MaxBuffer, "max-buffer", cfg.MaxBuffer, "max rows kept in memory (min 1000)")
	fs.IntVar(&cfg.BlockSizeMB, "block-size-mb", cfg.BlockSizeMB, "when reading a file (no follow), read only the last N MB (0=all)")
	fs.StringVar(&cfg.ThemeName, "theme", cfg.ThemeName, "theme: dark|light")
	fs.StringVar(&cfg.Dataset, "dataset", cfg.Dataset, "dataset: "+strings.Join(Datasets, "|"))
	fs.StringVar(&cfg.InputFormat, "format", cfg.InputFormat, "force input format: json|csv")
	fs.StringVar(&cfg.SchemaPath, "schema", cfg.SchemaPath, "YAML column schema; skips detection")
	fs.IntVar(&cfg.PageSize, "page-size", cfg.PageSize, "rows per page")
	fs.StringVar(&cfg.IDKey, "id-key", cfg.IDKey, "field used as row identity")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite row store; enables server-side paging")
	fs.BoolVar(&cfg.Offline, "offline", cfg.Offline, "disable OpenAI and work offline only")
	fs.BoolVar(&cfg.NoCache, "no-cache", cfg.NoCache, "disable schema cache (skip read/write)")
	fs.StringVar(&cfg.OpenAIModel, "openai-model", cfg.OpenAIModel, "OpenAI model override")
	fs.StringVar(&cfg.OpenAIBase, "openai-base-url", cfg.OpenAIBase, "OpenAI base URL override")
	fs.IntVar(&cfg.OpenAITimeoutSec, "openai-timeout-sec", cfg.OpenAITimeoutSec, "OpenAI request timeout in seconds")
	fs.StringVar(&cfg.ExportFormat, "export", cfg.ExportFormat, "export format for the current view: csv|json|ndjson|jsonl")
	fs.StringVar(&cfg.ExportOut, "out", cfg.ExportOut, "output path for export")
	fs.BoolVar(&cfg.Redact, "redact", cfg.Redact, "mask emails and phone numbers in exports")
	fs.BoolVar(&cfg.Headless, "headless", cfg.Headless, "load, store and export without the TUI")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Theme = Theme(strings.ToLower(cfg.ThemeName))
	if cfg.Theme != ThemeDark && cfg.Theme != ThemeLight {
		return nil, fmt.Errorf("unknown theme %q", cfg.ThemeName)
	}
	if !validDataset(cfg.Dataset) {
		return nil, fmt.Errorf("unknown dataset %q", cfg.Dataset)
	}
	switch cfg.InputFormat {
	case "", "json", "csv":
	default:
		return nil, fmt.Errorf("unknown input format %q", cfg.InputFormat)
	}
	cfg.ExportFormat = strings.ToLower(strings.TrimSpace(cfg.ExportFormat))
	switch cfg.ExportFormat {
	case "", "csv", "json", "ndjson", "jsonl":
	default:
		return nil, fmt.Errorf("unknown export format %q", cfg.ExportFormat)
	}
	if cfg.ExportFormat != "" && cfg.ExportOut == "" {
		return nil, errors.New("--export requires --out path")
	}
	if cfg.Headless && cfg.ExportFormat == "" && !cfg.ServerSide() {
		return nil, errors.New("--headless requires --export or --db")
	}

	if cfg.UseStdin || (cfg.IsPipedStdin && cfg.FilePath == "") {
		cfg.UseStdin = true
	}
	if cfg.MaxBuffer < 1000 {
		cfg.MaxBuffer = 1000
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = 1
	}
	if strings.TrimSpace(cfg.IDKey) == "" {
		cfg.IDKey = "id"
	}
	return cfg, nil
}

func validDataset(s string) bool {
	for _, d := range Datasets {
		if d == s {
			return true
		}
	}
	return false
}

// ServerSide reports whether rows come from the SQLite store, paged there.
func (c *Config) ServerSide() bool { return strings.TrimSpace(c.DBPath) != "" }

func (c *Config) OpenAIKey() string { return c.openAIKey }

func (c *Config) String() string {
	return fmt.Sprintf("file=%s stdin=%v follow=%v dataset=%s pageSize=%d db=%s theme=%s offline=%v",
		c.FilePath, c.UseStdin, c.Follow, c.Dataset, c.PageSize, c.DBPath, c.Theme, c.Offline)
}
