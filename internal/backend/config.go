package backend

import (
	"fmt"

	"budget/internal/config"
)

// SinkType selects where report syncs are written.
type SinkType string

const (
	NoSink     SinkType = "none"
	GoogleSink SinkType = "google"
	MemorySink SinkType = "memory"
)

func (s SinkType) String() string {
	return string(s)
}

func (s SinkType) IsValid() bool {
	switch s {
	case NoSink, GoogleSink, MemorySink:
		return true
	default:
		return false
	}
}

// Config holds what the factory needs to build a runtime.
type Config struct {
	SeedDefaults bool

	// Empty disables the archive.
	SQLiteDBPath string

	// Empty URL disables events.
	AMQPURL      string
	AMQPExchange string

	Sink                SinkType
	GoogleSpreadsheetID string
	ReportSheet         string
	TransactionsSheet   string
}

// FromAppConfig converts the application config. The Google sink is chosen
// when a spreadsheet ID is set.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	sink := NoSink
	if appConfig.SheetsEnabled() {
		sink = GoogleSink
	}
	return Config{
		SeedDefaults:        appConfig.SeedDefaults,
		SQLiteDBPath:        appConfig.SQLiteDBPath,
		AMQPURL:             appConfig.AMQPURL,
		AMQPExchange:        appConfig.AMQPExchange,
		Sink:                sink,
		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		ReportSheet:         appConfig.GoogleReportSheet,
		TransactionsSheet:   appConfig.GoogleTransactionsSheet,
	}, nil
}

func (c Config) Validate() error {
	if !c.Sink.IsValid() {
		return fmt.Errorf("invalid report sink: %q", c.Sink)
	}
	if c.AMQPURL != "" && c.AMQPExchange == "" {
		return fmt.Errorf("AMQP exchange is required when AMQP is enabled")
	}
	switch c.Sink {
	case GoogleSink:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for the google sink")
		}
		fallthrough
	case MemorySink:
		if c.ReportSheet == "" {
			return fmt.Errorf("report sheet name is required for the %s sink", c.Sink)
		}
	}
	return nil
}
