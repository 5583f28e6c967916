// internal/service/compensate.go
package service

import (
	"context"
	"log/slog"
)

// compensator collects undo actions for a multi-step mutation that spans
// external collaborators and therefore cannot run in a single transaction.
// Each committed step pushes its reversal; on failure the reversals run in
// reverse order. An undo that itself fails is logged and skipped so the
// remaining undos still run and the original error stays the one reported.
type compensator struct {
	undos []undo
}

type undo struct {
	label string
	fn    func(context.Context) error
}

func (c *compensator) push(label string, fn func(context.Context) error) {
	c.undos = append(c.undos, undo{label: label, fn: fn})
}

func (c *compensator) run(ctx context.Context) {
	for i := len(c.undos) - 1; i >= 0; i-- {
		u := c.undos[i]
		if err := u.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "compensation step failed", "step", u.label, "error", err)
		}
	}
	c.undos = nil
}
