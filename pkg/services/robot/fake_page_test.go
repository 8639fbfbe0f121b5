package robot

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"slices"
	"time"

	"orderbot/pkg/services/browser"

	"github.com/disintegration/imaging"
)

var errNotThere = errors.New("element not there")

// fakePage scripts the order shop. The dialog starts open, reopens on reload
// and after order-another, and closes when any dialog button is clicked.
type fakePage struct {
	dialogUp bool
	// buttons lists the dialog labels that can be found; nil means all of them.
	buttons []string
	// missing targets never become visible.
	missing map[browser.Target]bool
	// clickFailures makes the next n clicks on a target fail.
	clickFailures map[browser.Target]int
	// serverErrors is how many submit clicks, counted from the first, are
	// followed by a server error.
	serverErrors int
	// orderBreaksAfter makes every order click fail once that many went through.
	orderBreaksAfter int

	clicks      []browser.Target
	selected    map[string]string
	inputs      map[string]string
	screenshots []string
	submits     int
	reloads     int

	markup string
	pdf    []byte
}

func newFakePage() *fakePage {
	return &fakePage{
		dialogUp:      true,
		missing:       map[browser.Target]bool{},
		clickFailures: map[browser.Target]int{},
		selected:      map[string]string{},
		inputs:        map[string]string{},
		markup:        `<div id="receipt"><h3>Receipt</h3><img src="x.png"><p>Thanks 🤖</p></div>`,
	}
}

func (f *fakePage) isDialogButton(t browser.Target) bool {
	return t.Selector == "button" && slices.Contains(DismissLabels, t.Text)
}

func (f *fakePage) WaitVisible(_ context.Context, t browser.Target, _ time.Duration) error {
	switch {
	case t == Dialog:
		if !f.dialogUp {
			return errNotThere
		}
		return nil
	case f.isDialogButton(t):
		if !f.dialogUp || (f.buttons != nil && !slices.Contains(f.buttons, t.Text)) {
			return errNotThere
		}
		return nil
	case f.missing[t]:
		return errNotThere
	}
	return nil
}

func (f *fakePage) ScrollIntoView(_ context.Context, t browser.Target) error {
	if f.missing[t] {
		return errNotThere
	}
	return nil
}

func (f *fakePage) Click(_ context.Context, t browser.Target) error {
	f.clicks = append(f.clicks, t)
	if t == OrderBtn && f.orderBreaksAfter > 0 && f.submits >= f.orderBreaksAfter {
		return errors.New("element not interactable")
	}
	if f.clickFailures[t] > 0 {
		f.clickFailures[t]--
		return errors.New("element not interactable")
	}
	switch {
	case f.isDialogButton(t):
		f.dialogUp = false
	case t == OrderBtn:
		f.submits++
	case t == AnotherBtn:
		f.dialogUp = true
	}
	return nil
}

func (f *fakePage) SelectValue(_ context.Context, t browser.Target, value string) error {
	f.selected[t.Selector] = value
	return nil
}

func (f *fakePage) Input(_ context.Context, t browser.Target, text string) error {
	f.inputs[t.Selector] = text
	return nil
}

func (f *fakePage) Visible(_ context.Context, t browser.Target) bool {
	if t.Selector != ErrorBox || f.submits == 0 || f.submits > f.serverErrors {
		return false
	}
	return t.Text == ServerErrors[(f.submits-1)%len(ServerErrors)]
}

func (f *fakePage) Reload(context.Context) error {
	f.reloads++
	f.dialogUp = true
	return nil
}

func (f *fakePage) HTML(context.Context) (string, error) {
	return f.markup, nil
}

func (f *fakePage) Screenshot(_ context.Context, path string) error {
	f.screenshots = append(f.screenshots, filepath.Base(path))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return imaging.Save(imaging.New(40, 30, color.White), path)
}

func (f *fakePage) RenderPDF(context.Context, string) ([]byte, error) {
	return f.pdf, nil
}

// clicksOn counts clicks on t.
func (f *fakePage) clicksOn(t browser.Target) int {
	n := 0
	for _, c := range f.clicks {
		if c == t {
			n++
		}
	}
	return n
}

// dialogClicks lists the dialog buttons clicked, in order.
func (f *fakePage) dialogClicks() []string {
	var out []string
	for _, c := range f.clicks {
		if f.isDialogButton(c) {
			out = append(out, c.Text)
		}
	}
	return out
}
