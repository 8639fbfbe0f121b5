package robot

import (
	"context"

	"orderbot/pkg/services/browser"

	"go.uber.org/zap"
)

// Dismissal is the outcome of trying to close the interstitial dialog.
type Dismissal int

const (
	// DialogAbsent means the dialog never showed up; nothing was clicked.
	DialogAbsent Dismissal = iota
	// DialogDismissed means one of the candidate buttons was clicked.
	DialogDismissed
	// DialogStuck means the dialog is up but no candidate button worked.
	DialogStuck
)

func (d Dismissal) String() string {
	switch d {
	case DialogAbsent:
		return "absent"
	case DialogDismissed:
		return "dismissed"
	case DialogStuck:
		return "stuck"
	default:
		return "unknown"
	}
}

// DismissResult reports what DismissDialog did. Button is set only when
// the dialog was dismissed.
type DismissResult struct {
	Outcome Dismissal
	Button  string
}

// DismissDialog closes the interstitial dialog if it appears. It never fails:
// a missing dialog or one that cannot be closed is logged and the caller
// carries on.
func (r *Robot) DismissDialog(ctx context.Context) DismissResult {
	if err := r.page.WaitVisible(ctx, Dialog, r.timing.DialogWait); err != nil {
		r.log.Info("Dialog did not appear", zap.Error(err))
		return DismissResult{Outcome: DialogAbsent}
	}

	for _, label := range DismissLabels {
		button := browser.WithText("button", label)
		if err := r.page.WaitVisible(ctx, button, r.timing.ButtonWait); err != nil {
			r.log.Debug("Dialog button not available", zap.String("button", label), zap.Error(err))
			continue
		}
		if err := r.page.Click(ctx, button); err != nil {
			r.log.Debug("Dialog button not clickable", zap.String("button", label), zap.Error(err))
			continue
		}
		r.log.Info("Dialog dismissed", zap.String("button", label))
		_ = sleep(ctx, r.timing.DismissSettle)
		return DismissResult{Outcome: DialogDismissed, Button: label}
	}

	r.log.Warn("No dialog button could be clicked")
	r.diagnose(ctx, "modal_not_dismissed.png")
	return DismissResult{Outcome: DialogStuck}
}
