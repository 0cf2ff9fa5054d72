package sheets

import (
	"context"

	"budget/internal/report"
)

// Ports for outbound adapters.
type (
	// ReportWriter replaces the contents of a named sheet with a table.
	ReportWriter interface {
		WriteReport(ctx context.Context, sheet string, t report.Table) (ref string, err error)
	}
)
