// Package robot drives the order form: it dismisses the interstitial dialog,
// fills and submits each order, and moves on to the next one. Every wait is
// bounded and every failure path leaves a screenshot in the output directory.
package robot

import (
	"context"
	"path/filepath"
	"time"

	"orderbot/pkg/services/browser"

	"go.uber.org/zap"
)

// Selectors of the order page.
var (
	Dialog       = browser.CSS(`div[class*="modal"]`)
	HeadSelect   = browser.CSS("#head")
	LegsInput    = browser.CSS("input.form-control") // first form-control on the page is the legs field
	AddressInput = browser.CSS("#address")
	PreviewBtn   = browser.CSS("#preview")
	OrderBtn     = browser.CSS("#order")
	AnotherBtn   = browser.CSS("#order-another")
	// ErrorBox matches the shop's alert boxes; server errors are looked up
	// by text inside them rather than anywhere on the page.
	ErrorBox = `div[role="alert"]`
)

// BodyOption is the radio button for one body style.
func BodyOption(value string) browser.Target {
	return browser.CSS(`input[name="body"][value="` + value + `"]`)
}

// DismissLabels are the dialog buttons tried in order.
var DismissLabels = []string{"OK", "Yep", "I guess so...", "No way!"}

// ServerErrors are the fragments the shop shows when a submit fails transiently.
var ServerErrors = []string{
	"External Server Error",
	"Who Came Up With These Annoying Errors?!",
	"Server Out Of Ink Error",
	"Guess what? A server Error!",
}

const (
	MaxSubmitAttempts  = 5
	MaxAdvanceAttempts = 3
)

// Timing groups every wait and pause the robot uses.
type Timing struct {
	DialogWait     time.Duration
	ButtonWait     time.Duration
	DismissSettle  time.Duration
	FieldWait      time.Duration
	SubmitSettle   time.Duration
	SubmitBackoff  time.Duration
	AdvanceWait    time.Duration
	AdvanceBackoff time.Duration
	AdvanceSettle  time.Duration
}

// DefaultTiming returns the pacing tuned for the live shop.
func DefaultTiming() Timing {
	return Timing{
		DialogWait:     10 * time.Second,
		ButtonWait:     3 * time.Second,
		DismissSettle:  2 * time.Second,
		FieldWait:      5 * time.Second,
		SubmitSettle:   5 * time.Second,
		SubmitBackoff:  3 * time.Second,
		AdvanceWait:    15 * time.Second,
		AdvanceBackoff: 2 * time.Second,
		AdvanceSettle:  2 * time.Second,
	}
}

// Robot performs the per-order interactions against one page.
type Robot struct {
	page   browser.Page
	timing Timing
	outDir string
	log    *zap.Logger
}

// New creates a robot that writes diagnostic screenshots to outDir.
func New(page browser.Page, outDir string, timing Timing, logger *zap.Logger) *Robot {
	return &Robot{
		page:   page,
		timing: timing,
		outDir: outDir,
		log:    logger.Named("robot"),
	}
}

// diagnose captures a screenshot for post-mortem. Failing to capture is only logged.
func (r *Robot) diagnose(ctx context.Context, name string) {
	path := filepath.Join(r.outDir, name)
	if err := r.page.Screenshot(ctx, path); err != nil {
		r.log.Warn("Failed to capture diagnostic screenshot", zap.String("path", path), zap.Error(err))
		return
	}
	r.log.Info("Diagnostic screenshot saved", zap.String("path", path))
}

// reveal scrolls t into view and waits for it to become visible.
func (r *Robot) reveal(ctx context.Context, t browser.Target, timeout time.Duration) error {
	if err := r.page.ScrollIntoView(ctx, t); err != nil {
		return err
	}
	return r.page.WaitVisible(ctx, t, timeout)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
