// Package config provides configuration loading from environment variables.
package config

import (
	"crypto/tls"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/usestring/xui-mcp/pkg/client"
	"github.com/usestring/xui-mcp/pkg/jsoncompact"
)

// Tool defaults
const (
	DefaultTrafficFetchWorkers = 8
	DefaultQueryMaxResults     = 100
)

// Config holds all configuration for the MCP server.
type Config struct {
	PanelURL               string        // XUI_PANEL_URL, e.g. "https://panel.example.com:2053/path/"
	Username               string        // XUI_USERNAME
	Password               string        // XUI_PASSWORD
	InsecureSkipVerify     bool          // XUI_INSECURE_SKIP_VERIFY, default false
	HTTPClientTimeout      time.Duration // HTTP_CLIENT_TIMEOUT_MS, default 10000ms (10s)
	SessionLeeway          time.Duration // XUI_SESSION_LEEWAY_MS, default 60000ms (1m)
	SessionExpiredStatus   []int         // XUI_SESSION_EXPIRED_STATUSES, comma separated, 401 always implied
	CacheTTL               time.Duration // CACHE_TTL_MS, default 5000ms
	CacheMaxItems          int           // CACHE_MAX_ITEMS, default 256
	TrafficFetchWorkers    int           // TRAFFIC_FETCH_WORKERS, default 8
	QueryMaxResultsDefault int           // QUERY_MAX_RESULTS_DEFAULT, default 100

	// Compaction defaults for tool output
	CompactMaxArrayItems int // COMPACT_MAX_ARRAY_ITEMS
	CompactMaxStringLen  int // COMPACT_MAX_STRING_LEN
	CompactMaxDepth      int // COMPACT_MAX_DEPTH

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFormat     string // LOG_FORMAT, "text" or "json", default "text"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		PanelURL:               getEnvString("XUI_PANEL_URL", ""),
		Username:               getEnvString("XUI_USERNAME", ""),
		Password:               getEnvString("XUI_PASSWORD", ""),
		InsecureSkipVerify:     getEnvBool("XUI_INSECURE_SKIP_VERIFY", false),
		HTTPClientTimeout:      getEnvDurationMs("HTTP_CLIENT_TIMEOUT_MS", 10000),
		SessionLeeway:          getEnvDurationMs("XUI_SESSION_LEEWAY_MS", 60000),
		SessionExpiredStatus:   getEnvIntList("XUI_SESSION_EXPIRED_STATUSES"),
		CacheTTL:               getEnvDurationMs("CACHE_TTL_MS", 5000),
		CacheMaxItems:          getEnvInt("CACHE_MAX_ITEMS", 256),
		TrafficFetchWorkers:    getEnvInt("TRAFFIC_FETCH_WORKERS", DefaultTrafficFetchWorkers),
		QueryMaxResultsDefault: getEnvInt("QUERY_MAX_RESULTS_DEFAULT", DefaultQueryMaxResults),

		// Compaction defaults (from jsoncompact package)
		CompactMaxArrayItems: getEnvInt("COMPACT_MAX_ARRAY_ITEMS", jsoncompact.DefaultMaxArrayItems),
		CompactMaxStringLen:  getEnvInt("COMPACT_MAX_STRING_LEN", jsoncompact.DefaultMaxStringLen),
		CompactMaxDepth:      getEnvInt("COMPACT_MAX_DEPTH", jsoncompact.DefaultMaxDepth),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFormat:     getEnvString("LOG_FORMAT", "text"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

// HTTPClient builds the HTTP client used to talk to the panel.
// Panels commonly run with self-signed certificates, hence the opt-in skip.
func (c *Config) HTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if c.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via XUI_INSECURE_SKIP_VERIFY
	}
	return &http.Client{
		Timeout:   c.HTTPClientTimeout,
		Transport: transport,
	}
}

// ClientOptions returns the panel client options implied by the config.
func (c *Config) ClientOptions() []client.Option {
	return []client.Option{
		client.WithHTTPClient(c.HTTPClient()),
		client.WithSessionLeeway(c.SessionLeeway),
		client.WithSessionExpiredStatus(c.SessionExpiredStatus...),
	}
}

// CompactOptions returns the configured compaction settings.
func (c *Config) CompactOptions() *jsoncompact.Options {
	return &jsoncompact.Options{
		MaxArrayItems: c.CompactMaxArrayItems,
		MaxStringLen:  c.CompactMaxStringLen,
		MaxDepth:      c.CompactMaxDepth,
	}
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvIntList parses a comma separated list of integers, skipping
// malformed items.
func getEnvIntList(key string) []int {
	var out []int
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if i, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			out = append(out, i)
		}
	}
	return out
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	ms := getEnvInt(key, defaultMs)
	return time.Duration(ms) * time.Millisecond
}
