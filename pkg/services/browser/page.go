package browser

import (
	"context"
	"fmt"
	"time"
)

// Target locates one element on the page: the first element matching
// Selector, narrowed to elements whose text contains Text when set.
type Target struct {
	Selector string
	Text     string
}

// CSS is shorthand for a Target without a text filter.
func CSS(selector string) Target {
	return Target{Selector: selector}
}

// WithText narrows selector to elements containing text.
func WithText(selector, text string) Target {
	return Target{Selector: selector, Text: text}
}

func (t Target) String() string {
	if t.Text == "" {
		return t.Selector
	}
	return fmt.Sprintf("%s:contains(%q)", t.Selector, t.Text)
}

// Page is the part of a browser tab the robot drives. Session implements it
// on top of Chrome; tests substitute a scripted fake.
type Page interface {
	// WaitVisible blocks until t is visible or timeout passes.
	WaitVisible(ctx context.Context, t Target, timeout time.Duration) error
	ScrollIntoView(ctx context.Context, t Target) error
	Click(ctx context.Context, t Target) error
	// SelectValue picks the option with the given value in a select element.
	SelectValue(ctx context.Context, t Target, value string) error
	// Input replaces the text of an input element.
	Input(ctx context.Context, t Target, text string) error
	// Visible reports, without waiting, whether t is present and visible.
	Visible(ctx context.Context, t Target) bool
	Reload(ctx context.Context) error
	// HTML returns the current page markup.
	HTML(ctx context.Context) (string, error)
	// Screenshot writes a full-page PNG to path.
	Screenshot(ctx context.Context, path string) error
	// RenderPDF prints markup to PDF without touching the current page.
	RenderPDF(ctx context.Context, markup string) ([]byte, error)
}
