package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTargetString(t *testing.T) {
	assert.Equal(t, "#order", CSS("#order").String())
	assert.Equal(t, `button:contains("Yep")`, WithText("button", "Yep").String())
}

func TestSessionNotOpen(t *testing.T) {
	s := &Session{cfg: DefaultConfig()}

	assert.ErrorIs(t, s.Click(testContext(t), CSS("#order")), ErrNotOpen)
	assert.False(t, s.Visible(testContext(t), CSS("#order")))

	_, err := s.RenderPDF(testContext(t), "<p>x</p>")
	assert.ErrorIs(t, err, ErrNotOpen)
}
