package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingConfig marks a required identifier that was not supplied. The
// pipelines that need the value check for it before any network call is made.
var ErrMissingConfig = errors.New("missing required configuration")

type Config struct {
	DataDir string

	// GA4 analytics pipeline
	GAPropertyID       string
	GAAccessToken      string
	GALookbackDays     int
	GATopN             int
	GAAuthorDimensions []string
	GAKeepNotSetAuthor bool

	// WordPress topics pipeline
	WPBaseURL      string
	WPPerPage      int
	WPMaxPages     int // -1 to fetch all pages
	WPLookbackDays int
	WPListKey      string // explicit list key tried before the fallback order

	// Sheets pipeline
	SheetID     string
	SheetRange  string
	SheetAPIKey string

	Timeout  time.Duration
	Schedule string
	HTTPAddr string

	// Optional sinks; empty URI disables the sink.
	MongoURI         string
	MongoDBName      string
	RabbitURI        string
	RabbitExchange   string
	RabbitRoutingKey string
}

const (
	DataDir             = "DATA_DIR"
	GAPropertyID        = "GA_PROPERTY_ID"
	GAAccessToken       = "GA_ACCESS_TOKEN"
	GALookbackDays      = "GA_LOOKBACK_DAYS"
	GATopN              = "GA_TOP_N"
	GAAuthorDimensions  = "GA_AUTHOR_DIMENSIONS"
	GAKeepNotSetAuthor  = "GA_KEEP_NOT_SET_AUTHOR"
	WPBaseURL           = "WP_BASE_URL"
	WPPerPage           = "WP_PER_PAGE"
	WPMaxPages          = "WP_MAX_PAGES"
	WPLookbackDays      = "WP_LOOKBACK_DAYS"
	WPListKey           = "WP_LIST_KEY"
	SheetID             = "SHEET_ID"
	SheetRange          = "SHEET_RANGE"
	SheetAPIKey         = "SHEET_API_KEY"
	Timeout             = "TIMEOUT"
	Schedule            = "SCHEDULE"
	HTTPAddr            = "HTTP_ADDR"
	MongoURIEnv         = "MONGO_URI"
	MongoDBNameEnv      = "MONGO_DB_NAME"
	RabbitURIEnv        = "RABBIT_URI"
	RabbitExchangeEnv   = "RABBIT_EXCHANGE"
	RabbitRoutingKeyEnv = "RABBIT_ROUTING_KEY"
)

// DefaultAuthorDimensions is the probe order for the account-specific author
// dimension; the first name whose report returns a non-empty value wins.
var DefaultAuthorDimensions = []string{
	"customEvent:author",
	"customEvent:post_author",
	"unifiedScreenName",
}

func FromEnv() (Config, error) {
	// .env is a convenience for local runs; absence is not an error.
	_ = godotenv.Load()

	var cfg Config

	cfg.DataDir = getEnv(DataDir, "data")
	cfg.GAPropertyID = getEnv(GAPropertyID, "")
	cfg.GAAccessToken = getEnv(GAAccessToken, "")
	cfg.GAAuthorDimensions = getEnvList(GAAuthorDimensions, DefaultAuthorDimensions)
	cfg.WPBaseURL = getEnv(WPBaseURL, "")
	cfg.WPListKey = getEnv(WPListKey, "")
	cfg.SheetID = getEnv(SheetID, "")
	cfg.SheetRange = getEnv(SheetRange, "Sheet1!A:Z")
	cfg.SheetAPIKey = getEnv(SheetAPIKey, "")
	cfg.Schedule = getEnv(Schedule, "@hourly")
	cfg.HTTPAddr = getEnv(HTTPAddr, ":8080")
	cfg.MongoURI = getEnv(MongoURIEnv, "")
	cfg.MongoDBName = getEnv(MongoDBNameEnv, "datasync")
	cfg.RabbitURI = getEnv(RabbitURIEnv, "")
	cfg.RabbitExchange = getEnv(RabbitExchangeEnv, "site.data")
	cfg.RabbitRoutingKey = getEnv(RabbitRoutingKeyEnv, "dataset.updated")

	var err error
	if cfg.GALookbackDays, err = getEnvInt(GALookbackDays, 7); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", GALookbackDays, err)
	}
	if cfg.GATopN, err = getEnvInt(GATopN, 5); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", GATopN, err)
	}
	if cfg.GAKeepNotSetAuthor, err = getEnvBool(GAKeepNotSetAuthor, false); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", GAKeepNotSetAuthor, err)
	}
	if cfg.WPPerPage, err = getEnvInt(WPPerPage, 50); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", WPPerPage, err)
	}
	if cfg.WPMaxPages, err = getEnvInt(WPMaxPages, -1); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", WPMaxPages, err)
	}
	if cfg.WPLookbackDays, err = getEnvInt(WPLookbackDays, 30); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", WPLookbackDays, err)
	}
	timeoutStr := getEnv(Timeout, "10s")
	if cfg.Timeout, err = time.ParseDuration(timeoutStr); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", Timeout, err)
	}

	return cfg, nil
}

// ValidateAnalytics reports whether the GA4 pipeline can run at all.
func (c Config) ValidateAnalytics() error {
	if c.GAPropertyID == "" {
		return fmt.Errorf("%w: %s", ErrMissingConfig, GAPropertyID)
	}
	if c.GAAccessToken == "" {
		return fmt.Errorf("%w: %s", ErrMissingConfig, GAAccessToken)
	}
	return nil
}

func (c Config) ValidateTopics() error {
	if c.WPBaseURL == "" {
		return fmt.Errorf("%w: %s", ErrMissingConfig, WPBaseURL)
	}
	return nil
}

func (c Config) ValidateSheet() error {
	if c.SheetID == "" {
		return fmt.Errorf("%w: %s", ErrMissingConfig, SheetID)
	}
	if c.SheetAPIKey == "" {
		return fmt.Errorf("%w: %s", ErrMissingConfig, SheetAPIKey)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	return i, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, err
	}
	return b, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
