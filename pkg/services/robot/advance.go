package robot

import (
	"context"
	"fmt"

	"orderbot/pkg/retry"

	"go.uber.org/zap"
)

// OrderAnother resets the shop for the next order. Failing here leaves the
// page in an unknown state, so the error is meant to end the run.
func (r *Robot) OrderAnother(ctx context.Context) error {
	if err := r.reveal(ctx, AnotherBtn, r.timing.AdvanceWait); err != nil {
		r.log.Error("Order another button not found", zap.Error(err))
		r.diagnose(ctx, "order_another_not_found.png")
		return fmt.Errorf("order another: %w", err)
	}

	budget := retry.Budget{
		Attempts: MaxAdvanceAttempts,
		Delay:    retry.Constant(r.timing.AdvanceBackoff),
	}
	res := budget.Run(ctx, func(ctx context.Context, attempt int) error {
		if err := r.page.Click(ctx, AnotherBtn); err != nil {
			r.log.Warn("Failed to click order another", zap.Int("attempt", attempt), zap.Error(err))
			r.diagnose(ctx, fmt.Sprintf("order_another_error_attempt_%d.png", attempt))
			return err
		}
		r.log.Info("Order another clicked", zap.Int("attempt", attempt))
		return nil
	})
	if res.Err != nil {
		return fmt.Errorf("order another after %d attempts: %w", res.Attempts, res.Err)
	}
	return sleep(ctx, r.timing.AdvanceSettle)
}
