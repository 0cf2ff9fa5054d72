package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"budget/internal/core"
)

// RecurringProcessor materializes due recurring entries into transactions.
// It has no timer of its own; an external trigger calls ProcessDue.
type RecurringProcessor struct {
	ledger *LedgerService
}

func NewRecurringProcessor(ledger *LedgerService) *RecurringProcessor {
	return &RecurringProcessor{ledger: ledger}
}

// ProcessDue creates one transaction, dated at NextDue, for every active
// entry with NextDue at or before asOf, then advances the entry past asOf.
// An occurrence already covered by LastExecuted is not booked again.
// Entries that fail are logged and skipped. It returns how many were
// processed.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, asOf time.Time) (int, error) {
	if p.ledger == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	entries := p.ledger.Store().ListRecurring()
	slog.InfoContext(ctx, "Processing recurring transactions",
		"total", len(entries),
		"as_of", asOf.Format(time.RFC3339))

	processed := 0
	for _, r := range entries {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		if !r.IsActive || r.NextDue.After(asOf) {
			continue
		}
		if Booked(r) {
			slog.WarnContext(ctx, "Skipping already booked occurrence",
				"recurring_id", r.ID,
				"next_due", r.NextDue.Format(time.RFC3339))
			continue
		}

		tx, err := p.ledger.CreateTransaction(ctx, core.Transaction{
			Description: r.Description,
			Amount:      r.Amount,
			Type:        r.Type,
			CategoryID:  r.CategoryID,
			Date:        r.NextDue,
			Notes:       r.Notes,
		})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to create transaction from recurring entry",
				"recurring_id", r.ID,
				"description", r.Description,
				"error", err)
			continue
		}

		next, err := p.ledger.saveSchedule(ctx, r, asOf)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to advance recurring entry",
				"recurring_id", r.ID,
				"error", err)
			// the transaction is already recorded
			continue
		}

		processed++
		slog.InfoContext(ctx, "Created transaction from recurring entry",
			"recurring_id", r.ID,
			"transaction_id", tx.ID,
			"amount", r.Amount.String(),
			"frequency", r.Frequency,
			"next_due", next.NextDue.Format(time.RFC3339),
			"active", next.IsActive)
	}

	slog.InfoContext(ctx, "Recurring processing complete",
		"processed", processed,
		"total_checked", len(entries))
	return processed, nil
}
