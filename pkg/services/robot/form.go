package robot

import (
	"context"
	"fmt"
	"strconv"

	"orderbot/pkg/models"
	"orderbot/pkg/services/browser"

	"go.uber.org/zap"
)

type formStep struct {
	name   string
	target browser.Target
	apply  func(ctx context.Context, t browser.Target) error
}

// Fill populates the order form for o. Fields are filled in page order; the
// first failure leaves a screenshot and is returned.
func (r *Robot) Fill(ctx context.Context, o models.Order) error {
	steps := []formStep{
		{"head", HeadSelect, func(ctx context.Context, t browser.Target) error {
			return r.page.SelectValue(ctx, t, o.Head)
		}},
		{"body", BodyOption(o.Body), r.page.Click},
		{"legs", LegsInput, func(ctx context.Context, t browser.Target) error {
			return r.page.Input(ctx, t, strconv.Itoa(o.Legs))
		}},
		{"address", AddressInput, func(ctx context.Context, t browser.Target) error {
			return r.page.Input(ctx, t, o.Address)
		}},
	}

	for _, step := range steps {
		err := r.reveal(ctx, step.target, r.timing.FieldWait)
		if err == nil {
			err = step.apply(ctx, step.target)
		}
		if err != nil {
			r.log.Error("Failed to fill form", zap.String("order", o.Number), zap.String("field", step.name), zap.Error(err))
			r.diagnose(ctx, fmt.Sprintf("fill_form_error_%s.png", o.Number))
			return fmt.Errorf("fill %s for order %s: %w", step.name, o.Number, err)
		}
	}

	r.log.Info("Form filled", zap.String("order", o.Number))
	return nil
}

// Preview shows the robot preview for the filled form.
func (r *Robot) Preview(ctx context.Context) error {
	if err := r.reveal(ctx, PreviewBtn, r.timing.FieldWait); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	if err := r.page.Click(ctx, PreviewBtn); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	return nil
}
