// Package config loads runtime settings from an optional .env file and the
// process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Ledger backends.
const (
	LedgerMemory   = "memory"
	LedgerPostgres = "postgres"
)

// Resolver backends.
const (
	ResolverGemini = "gemini"
	ResolverOpenAI = "openai"
	ResolverRules  = "rules"
)

// Config holds every tunable of the assistant.
type Config struct {
	Port     string
	LogLevel string

	// CORSOrigins limits browser origins. Empty allows any origin.
	CORSOrigins []string

	LedgerBackend string
	DatabaseURL   string
	SeedDemo      bool

	// SnapshotURI is a file path or gs://bucket/object. Empty disables snapshots.
	SnapshotURI      string
	SnapshotSchedule string

	ResolverBackend   string
	ResolverTimeout   time.Duration
	GeminiModel       string
	OpenAIBaseURL     string
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIContentPath string

	// TranscriptDir holds one markdown file per day. Empty keeps turns in memory.
	TranscriptDir   string
	TranscriptLimit int

	AlertWorkers    int
	AlertQueueSize  int
	AlertTimeout    time.Duration
	AlertMaxRetries int

	GoalCheckSchedule  string
	DailyCheckSchedule string

	NotionToken     string
	CredentialsFile string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:               "8080",
		LogLevel:           "info",
		LedgerBackend:      LedgerMemory,
		SeedDemo:           true,
		SnapshotSchedule:   "@every 5m",
		ResolverBackend:    ResolverRules,
		ResolverTimeout:    8 * time.Second,
		GeminiModel:        "gemini-2.5-flash",
		OpenAIBaseURL:      "https://api.openai.com/v1",
		OpenAIModel:        "gpt-4o-mini",
		OpenAIContentPath:  "$.choices[0].message.content",
		TranscriptLimit:    20,
		AlertWorkers:       4,
		AlertQueueSize:     100,
		AlertTimeout:       5 * time.Second,
		AlertMaxRetries:    1,
		GoalCheckSchedule:  "@daily",
		DailyCheckSchedule: "@daily",
	}
}

// Load reads envFile (if it exists) into the environment and builds a Config.
// A missing envFile is not an error.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("Load: reading %s: %w", envFile, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an environment lookup function.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	c := Default()
	p := parser{lookup: lookup}

	p.str("PORT", &c.Port)
	p.str("LOG_LEVEL", &c.LogLevel)
	p.list("CORS_ORIGINS", &c.CORSOrigins)
	p.str("LEDGER_BACKEND", &c.LedgerBackend)
	p.str("DATABASE_URL", &c.DatabaseURL)
	p.boolean("SEED_DEMO", &c.SeedDemo)
	p.str("SNAPSHOT_URI", &c.SnapshotURI)
	p.str("SNAPSHOT_SCHEDULE", &c.SnapshotSchedule)
	p.str("RESOLVER_BACKEND", &c.ResolverBackend)
	p.duration("RESOLVER_TIMEOUT", &c.ResolverTimeout)
	p.str("GEMINI_MODEL", &c.GeminiModel)
	p.str("OPENAI_BASE_URL", &c.OpenAIBaseURL)
	p.str("OPENAI_API_KEY", &c.OpenAIAPIKey)
	p.str("OPENAI_MODEL", &c.OpenAIModel)
	p.str("OPENAI_CONTENT_PATH", &c.OpenAIContentPath)
	p.str("TRANSCRIPT_DIR", &c.TranscriptDir)
	p.integer("TRANSCRIPT_LIMIT", &c.TranscriptLimit)
	p.integer("ALERT_WORKERS", &c.AlertWorkers)
	p.integer("ALERT_QUEUE_SIZE", &c.AlertQueueSize)
	p.duration("ALERT_TIMEOUT", &c.AlertTimeout)
	p.integer("ALERT_MAX_RETRIES", &c.AlertMaxRetries)
	p.str("GOAL_CHECK_SCHEDULE", &c.GoalCheckSchedule)
	p.str("DAILY_CHECK_SCHEDULE", &c.DailyCheckSchedule)
	p.str("NOTION_TOKEN", &c.NotionToken)
	p.str("GOOGLE_APPLICATION_CREDENTIALS", &c.CredentialsFile)

	if p.err != nil {
		return Config{}, p.err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.LedgerBackend {
	case LedgerMemory:
	case LedgerPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("Validate: DATABASE_URL is required for the postgres ledger")
		}
	default:
		return fmt.Errorf("Validate: unknown LEDGER_BACKEND %q", c.LedgerBackend)
	}
	switch c.ResolverBackend {
	case ResolverGemini, ResolverRules:
	case ResolverOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("Validate: OPENAI_API_KEY is required for the openai resolver")
		}
	default:
		return fmt.Errorf("Validate: unknown RESOLVER_BACKEND %q", c.ResolverBackend)
	}
	if c.AlertWorkers < 1 {
		return fmt.Errorf("Validate: ALERT_WORKERS must be at least 1")
	}
	if c.AlertQueueSize < 1 {
		return fmt.Errorf("Validate: ALERT_QUEUE_SIZE must be at least 1")
	}
	if c.ResolverTimeout <= 0 {
		return fmt.Errorf("Validate: RESOLVER_TIMEOUT must be positive")
	}
	return nil
}

type parser struct {
	lookup func(string) (string, bool)
	err    error
}

func (p *parser) get(key string) (string, bool) {
	v, ok := p.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (p *parser) str(key string, dst *string) {
	if v, ok := p.get(key); ok {
		*dst = v
	}
}

func (p *parser) list(key string, dst *[]string) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func (p *parser) integer(key string, dst *int) {
	v, ok := p.get(key)
	if !ok || p.err != nil {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.err = fmt.Errorf("config: %s: invalid integer %q", key, v)
		return
	}
	*dst = n
}

func (p *parser) duration(key string, dst *time.Duration) {
	v, ok := p.get(key)
	if !ok || p.err != nil {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.err = fmt.Errorf("config: %s: invalid duration %q", key, v)
		return
	}
	*dst = d
}

func (p *parser) boolean(key string, dst *bool) {
	v, ok := p.get(key)
	if !ok || p.err != nil {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.err = fmt.Errorf("config: %s: invalid boolean %q", key, v)
		return
	}
	*dst = b
}
