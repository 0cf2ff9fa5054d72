package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	Port     string
	LogLevel string

	// Ledger
	SeedDefaults bool

	// Backup archive, empty disables it
	SQLiteDBPath string

	// AMQP, empty URL disables events and ticks
	AMQPURL         string
	AMQPExchange    string
	AMQPEventsQueue string
	AMQPTicksQueue  string

	// Recurring worker
	RecurringInterval time.Duration

	// Google Sheets report sink, empty ID disables it
	GoogleSpreadsheetID     string
	GoogleReportSheet       string
	GoogleTransactionsSheet string

	// Aggregation cache
	CacheTTL  time.Duration
	CacheSize int
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		SeedDefaults: getEnvBool("SEED_DEFAULTS", true),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", ""),

		AMQPURL:         getEnv("AMQP_URL", ""),
		AMQPExchange:    getEnv("AMQP_EXCHANGE", "ledger"),
		AMQPEventsQueue: getEnv("AMQP_EVENTS_QUEUE", "ledger_events"),
		AMQPTicksQueue:  getEnv("AMQP_TICKS_QUEUE", "recurring_ticks"),

		RecurringInterval: getEnvDuration("RECURRING_INTERVAL", time.Hour),

		GoogleSpreadsheetID:     getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleReportSheet:       getEnv("GOOGLE_REPORT_SHEET", "Report"),
		GoogleTransactionsSheet: getEnv("GOOGLE_TRANSACTIONS_SHEET", "Transactions"),

		CacheTTL:  getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheSize: getEnvInt("CACHE_SIZE", 256),
	}
}

// AMQPEnabled reports whether an AMQP broker is configured.
func (c *Config) AMQPEnabled() bool { return c.AMQPURL != "" }

// SheetsEnabled reports whether a report spreadsheet is configured.
func (c *Config) SheetsEnabled() bool { return c.GoogleSpreadsheetID != "" }

// ArchiveEnabled reports whether the SQLite backup archive is configured.
func (c *Config) ArchiveEnabled() bool { return c.SQLiteDBPath != "" }

// SlogLevel maps LogLevel to a slog level. Unknown names map to info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		problems = append(problems, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if c.AMQPEnabled() {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPEventsQueue == "" {
			problems = append(problems, "AMQP events queue cannot be empty when AMQP URL is provided")
		}
		if c.AMQPTicksQueue == "" {
			problems = append(problems, "AMQP ticks queue cannot be empty when AMQP URL is provided")
		}
	}

	if c.SheetsEnabled() {
		if strings.TrimSpace(c.GoogleReportSheet) == "" {
			problems = append(problems, "Google report sheet name is required when a spreadsheet ID is set")
		}
		if strings.TrimSpace(c.GoogleTransactionsSheet) == "" {
			problems = append(problems, "Google transactions sheet name is required when a spreadsheet ID is set")
		}
		if c.GoogleReportSheet != "" && c.GoogleReportSheet == c.GoogleTransactionsSheet {
			problems = append(problems, "Google report and transactions sheets must differ")
		}
	}

	if c.RecurringInterval < time.Second {
		problems = append(problems, fmt.Sprintf("invalid recurring interval %v: must be at least 1 second", c.RecurringInterval))
	} else if c.RecurringInterval > 24*time.Hour {
		problems = append(problems, fmt.Sprintf("invalid recurring interval %v: must be at most 24 hours", c.RecurringInterval))
	}

	if c.CacheTTL < 0 {
		problems = append(problems, fmt.Sprintf("invalid cache TTL %v: cannot be negative", c.CacheTTL))
	}
	if c.CacheSize < 1 {
		problems = append(problems, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
