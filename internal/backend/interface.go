package backend

import (
	"context"
	"errors"

	"budget/internal/amqp"
	"budget/internal/ledger"
	"budget/internal/services"
	"budget/internal/storage"
)

// CleanupFunc releases a resource opened by the factory.
type CleanupFunc func() error

// Components is a wired ledger runtime. Optional integrations are nil when
// their configuration is empty.
type Components struct {
	Store     *ledger.Store
	Ledger    *services.LedgerService
	Processor *services.RecurringProcessor

	Events  *amqp.Client
	Archive *storage.SQLiteRepository
	Reports *services.ReportSync

	cleanups []CleanupFunc
}

// Close runs the cleanups in reverse order of creation.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.cleanups) - 1; i >= 0; i-- {
		if err := c.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.cleanups = nil
	return errors.Join(errs...)
}

func (c *Components) onClose(f CleanupFunc) {
	c.cleanups = append(c.cleanups, f)
}

// Factory creates ledger runtimes from configuration.
type Factory interface {
	Create(ctx context.Context, config Config) (*Components, error)
}
