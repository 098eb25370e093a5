package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration parameters
type Config struct {
	SkipURLPrefixes     []string
	IncludeURLPrefixes  []string
	SkipScriptDomains   []string
	MaxPages            int
	OutputDir           string
	ScriptsDir          string
	NavigationTimeoutMs int
	DNSTimeoutMs        int
	SafeBrowsingKey     string
	DBPath              string
	RespectRobots       bool
	UserAgent           string
}

// defaultSkipScriptDomains covers common analytics/CDN hosts whose bundles
// are irrelevant to the scanned site's own code
var defaultSkipScriptDomains = []string{
	"google-analytics.com",
	"googletagmanager.com",
	"doubleclick.net",
	"connect.facebook.net",
	"googleapis.com",
	"gstatic.com",
	"cdnjs.cloudflare.com",
	"cdn.jsdelivr.net",
	"unpkg.com",
	"hotjar.com",
	"newrelic.com",
}

// Load reads configuration from the environment, honoring a .env file when
// one is present in the working directory.
func Load() (*Config, error) {
	// Best effort; a missing .env file is not an error
	_ = godotenv.Load()

	cfg := &Config{
		SkipURLPrefixes:     parseList(os.Getenv("SKIP_URL_PREFIXES")),
		IncludeURLPrefixes:  parseList(os.Getenv("INCLUDE_URL_PREFIXES")),
		SkipScriptDomains:   parseList(os.Getenv("SKIP_SCRIPT_DOMAINS")),
		MaxPages:            getEnvInt("MAX_PAGES", 0),
		OutputDir:           os.Getenv("OUTPUT_DIR"),
		ScriptsDir:          os.Getenv("SCRIPTS_DIR"),
		NavigationTimeoutMs: getEnvInt("NAVIGATION_TIMEOUT_MS", 0),
		DNSTimeoutMs:        getEnvInt("DNS_TIMEOUT_MS", 0),
		SafeBrowsingKey:     os.Getenv("GOOGLE_SAFE_BROWSING_KEY"),
		DBPath:              os.Getenv("DB_PATH"),
		RespectRobots:       getEnvBool("RESPECT_ROBOTS", false),
		UserAgent:           os.Getenv("USER_AGENT"),
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyDefaults sets default values for unspecified fields
func applyDefaults(cfg *Config) {
	if len(cfg.SkipScriptDomains) == 0 {
		cfg.SkipScriptDomains = defaultSkipScriptDomains
	}
	if cfg.MaxPages == 0 {
		cfg.MaxPages = 100
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "scan-output"
	}
	if cfg.ScriptsDir == "" {
		cfg.ScriptsDir = "downloaded-scripts"
	}
	if cfg.NavigationTimeoutMs == 0 {
		cfg.NavigationTimeoutMs = 30000
	}
	if cfg.DNSTimeoutMs == 0 {
		cfg.DNSTimeoutMs = 5000
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "scanner.db"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "website-security-scanner/1.0"
	}
}

// validate checks that values are sensible
func validate(cfg *Config) error {
	if cfg.MaxPages < 1 {
		return fmt.Errorf("MAX_PAGES must be >= 1")
	}
	if cfg.NavigationTimeoutMs < 1000 {
		return fmt.Errorf("NAVIGATION_TIMEOUT_MS must be >= 1000")
	}
	if cfg.DNSTimeoutMs < 100 {
		return fmt.Errorf("DNS_TIMEOUT_MS must be >= 100")
	}
	return nil
}

// parseList splits a comma-separated env value into trimmed, non-empty items
func parseList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var items []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			items = append(items, part)
		}
	}
	return items
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}
