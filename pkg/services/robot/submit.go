package robot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orderbot/pkg/retry"
	"orderbot/pkg/services/browser"

	"go.uber.org/zap"
)

// SubmitState tracks where the submitter is in its retry loop.
type SubmitState int

const (
	Attempting SubmitState = iota
	CheckingForError
	Success
	ExhaustedRetries
)

func (s SubmitState) String() string {
	switch s {
	case Attempting:
		return "attempting"
	case CheckingForError:
		return "checking_for_error"
	case Success:
		return "success"
	case ExhaustedRetries:
		return "exhausted_retries"
	default:
		return "unknown"
	}
}

// Submission is the final state of one Submit call.
type Submission struct {
	State    SubmitState
	Attempts int
	Reloads  int
}

var errServerError = errors.New("server error after submit")

// Submit clicks the order button until the shop accepts the order.
//
// A click that fails is retried after SubmitBackoff and is fatal on the last
// attempt. A known server error after the click reloads the page, closes the
// dialog again and retries. The form is not refilled after the reload. When
// server errors persist through every attempt Submit gives up without an
// error and reports ExhaustedRetries.
func (r *Robot) Submit(ctx context.Context, orderNumber string) (Submission, error) {
	log := r.log.With(zap.String("order", orderNumber))
	sub := Submission{State: Attempting}

	budget := retry.Budget{
		Attempts: MaxSubmitAttempts,
		Delay: func(_ int, err error) time.Duration {
			if errors.Is(err, errServerError) {
				return 0
			}
			return r.timing.SubmitBackoff
		},
	}

	res := budget.Run(ctx, func(ctx context.Context, attempt int) error {
		sub.State = Attempting
		if err := r.clickSubmit(ctx); err != nil {
			log.Warn("Failed to click submit", zap.Int("attempt", attempt), zap.Error(err))
			r.diagnose(ctx, fmt.Sprintf("submit_error_%s_attempt_%d.png", orderNumber, attempt))
			return err
		}
		log.Info("Submit clicked", zap.Int("attempt", attempt))

		sub.State = CheckingForError
		if err := sleep(ctx, r.timing.SubmitSettle); err != nil {
			return retry.Stop(err)
		}
		fragment, found := r.serverError(ctx)
		if !found {
			sub.State = Success
			return nil
		}
		log.Warn("Server error after submit", zap.String("fragment", fragment), zap.Int("attempt", attempt))

		if attempt < MaxSubmitAttempts {
			if err := r.page.Reload(ctx); err != nil {
				log.Warn("Failed to reload after server error", zap.Error(err))
				r.diagnose(ctx, fmt.Sprintf("submit_error_%s_attempt_%d.png", orderNumber, attempt))
				return err
			}
			sub.Reloads++
			r.DismissDialog(ctx)
		}
		return fmt.Errorf("%w: %s", errServerError, fragment)
	})
	sub.Attempts = res.Attempts

	switch {
	case res.Err == nil:
		log.Info("Order submitted", zap.Int("attempts", sub.Attempts))
		return sub, nil
	case res.Exhausted && errors.Is(res.Err, errServerError):
		sub.State = ExhaustedRetries
		log.Warn("Giving up on submit, server errors persisted",
			zap.Int("attempts", sub.Attempts),
			zap.Int("reloads", sub.Reloads))
		return sub, nil
	default:
		log.Error("Submit failed", zap.Int("attempts", sub.Attempts), zap.Error(res.Err))
		r.diagnose(ctx, fmt.Sprintf("submit_error_%s_final.png", orderNumber))
		return sub, fmt.Errorf("submit order %s: %w", orderNumber, res.Err)
	}
}

func (r *Robot) clickSubmit(ctx context.Context) error {
	if err := r.reveal(ctx, OrderBtn, r.timing.FieldWait); err != nil {
		return err
	}
	return r.page.Click(ctx, OrderBtn)
}

// serverError reports the first known error fragment visible on the page.
func (r *Robot) serverError(ctx context.Context) (string, bool) {
	for _, fragment := range ServerErrors {
		if r.page.Visible(ctx, browser.WithText(ErrorBox, fragment)) {
			return fragment, true
		}
	}
	return "", false
}
