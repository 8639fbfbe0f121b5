package robot

import (
	"testing"

	"orderbot/pkg/models"
	"orderbot/pkg/services/browser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newRobot(t *testing.T, page *fakePage) *Robot {
	t.Helper()
	return New(page, t.TempDir(), Timing{}, zaptest.NewLogger(t))
}

func TestDismissDialogAbsent(t *testing.T) {
	page := newFakePage()
	page.dialogUp = false

	res := newRobot(t, page).DismissDialog(testContext(t))

	assert.Equal(t, DismissResult{Outcome: DialogAbsent}, res)
	assert.Empty(t, page.clicks)
	assert.Empty(t, page.screenshots)
}

func TestDismissDialogClicksOnlyAvailableButton(t *testing.T) {
	page := newFakePage()
	page.buttons = []string{"Yep"}

	res := newRobot(t, page).DismissDialog(testContext(t))

	assert.Equal(t, DismissResult{Outcome: DialogDismissed, Button: "Yep"}, res)
	assert.Equal(t, []browser.Target{browser.WithText("button", "Yep")}, page.clicks)
}

func TestDismissDialogFirstLabelWins(t *testing.T) {
	page := newFakePage()

	res := newRobot(t, page).DismissDialog(testContext(t))

	assert.Equal(t, "OK", res.Button)
	assert.Equal(t, []string{"OK"}, page.dialogClicks())
}

func TestDismissDialogSkipsUnclickableButton(t *testing.T) {
	page := newFakePage()
	page.clickFailures[browser.WithText("button", "OK")] = 1

	res := newRobot(t, page).DismissDialog(testContext(t))

	assert.Equal(t, DismissResult{Outcome: DialogDismissed, Button: "Yep"}, res)
	assert.Equal(t, []string{"OK", "Yep"}, page.dialogClicks())
}

func TestDismissDialogStuck(t *testing.T) {
	page := newFakePage()
	page.buttons = []string{}

	res := newRobot(t, page).DismissDialog(testContext(t))

	assert.Equal(t, DialogStuck, res.Outcome)
	assert.Empty(t, page.clicks)
	assert.Equal(t, []string{"modal_not_dismissed.png"}, page.screenshots)
}

func TestFill(t *testing.T) {
	page := newFakePage()
	order := models.Order{Number: "12", Head: "3", Body: "5", Legs: 2, Address: "Main St 1"}

	require.NoError(t, newRobot(t, page).Fill(testContext(t), order))

	assert.Equal(t, map[string]string{"#head": "3"}, page.selected)
	assert.Equal(t, []browser.Target{BodyOption("5")}, page.clicks)
	assert.Equal(t, map[string]string{"input.form-control": "2", "#address": "Main St 1"}, page.inputs)
	assert.Empty(t, page.screenshots)
}

func TestFillFailureStopsAndCaptures(t *testing.T) {
	page := newFakePage()
	page.missing[LegsInput] = true
	order := models.Order{Number: "12", Head: "3", Body: "5", Legs: 2, Address: "Main St 1"}

	err := newRobot(t, page).Fill(testContext(t), order)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fill legs for order 12")
	assert.NotContains(t, page.inputs, "#address")
	assert.Equal(t, []string{"fill_form_error_12.png"}, page.screenshots)
}

func TestPreview(t *testing.T) {
	page := newFakePage()
	require.NoError(t, newRobot(t, page).Preview(testContext(t)))
	assert.Equal(t, 1, page.clicksOn(PreviewBtn))

	page.missing[PreviewBtn] = true
	assert.Error(t, newRobot(t, page).Preview(testContext(t)))
}

func TestOrderAnotherRetriesClick(t *testing.T) {
	page := newFakePage()
	page.dialogUp = false
	page.clickFailures[AnotherBtn] = 2

	require.NoError(t, newRobot(t, page).OrderAnother(testContext(t)))

	assert.Equal(t, 3, page.clicksOn(AnotherBtn))
	assert.Equal(t, []string{"order_another_error_attempt_1.png", "order_another_error_attempt_2.png"}, page.screenshots)
	assert.True(t, page.dialogUp)
}

func TestOrderAnotherExhausted(t *testing.T) {
	page := newFakePage()
	page.clickFailures[AnotherBtn] = MaxAdvanceAttempts

	err := newRobot(t, page).OrderAnother(testContext(t))

	require.Error(t, err)
	assert.Equal(t, MaxAdvanceAttempts, page.clicksOn(AnotherBtn))
	assert.Len(t, page.screenshots, MaxAdvanceAttempts)
}

func TestOrderAnotherMissing(t *testing.T) {
	page := newFakePage()
	page.missing[AnotherBtn] = true

	err := newRobot(t, page).OrderAnother(testContext(t))

	require.Error(t, err)
	assert.Zero(t, page.clicksOn(AnotherBtn))
	assert.Equal(t, []string{"order_another_not_found.png"}, page.screenshots)
}
