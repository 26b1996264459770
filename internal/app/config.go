package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (STORE_ prefix), flags, or YAML config files.
type Config struct {
	Addr      string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Sheets    SheetsConfig
	Catalog   CatalogConfig
	CartDir   string `default:"" usage:"Directory for cart snapshots (empty = in-memory only)" flag:"cart-dir"`
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// SheetsConfig holds credentials for the spreadsheet backend.
type SheetsConfig struct {
	SpreadsheetID string `usage:"Backing spreadsheet document ID (STORE_SHEETS_SPREADSHEET_ID)" flag:"spreadsheet-id"`
	APIKey        string `usage:"API key for read-only access (STORE_SHEETS_API_KEY)" flag:"sheets-api-key"`
	WriteToken    string `usage:"OAuth bearer token for stock writes, optional (STORE_SHEETS_WRITE_TOKEN)" flag:"sheets-write-token"`
}

// CatalogConfig selects the ranges the catalog is read from.
type CatalogConfig struct {
	ProductRange     string `default:"Katalog!A:J"   usage:"Range holding product rows" flag:"product-range"`
	TestimonialRange string `default:"Testimoni!A:E" usage:"Range holding testimonial rows" flag:"testimonial-range"`
}

// RateLimitConfig controls the per-client token bucket rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STORE",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.Sheets.SpreadsheetID == "" {
		return nil, errors.New("spreadsheet ID is required: set STORE_SHEETS_SPREADSHEET_ID")
	}
	if cfg.Sheets.APIKey == "" {
		return nil, errors.New("sheets API key is required: set STORE_SHEETS_API_KEY")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like PORT to the application's
// STORE_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
