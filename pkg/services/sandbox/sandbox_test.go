package sandbox

import (
	"bytes"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"orderbot/pkg/models"
	"orderbot/pkg/services/orders"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestOrdersTableRoundTrips(t *testing.T) {
	want := []models.Order{
		{Number: "1", Head: "2", Body: "3", Legs: 4, Address: "Street 1, Flat \"A\""},
		{Number: "2", Head: "6", Body: "1", Legs: 1, Address: "Elm"},
	}
	r, err := NewRouter(Config{Orders: want}, zaptest.NewLogger(t))
	require.NoError(t, err)

	rec := get(t, r, "/orders.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")

	got, err := orders.Parse(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDefaultOrdersAreValid(t *testing.T) {
	r, err := NewRouter(Config{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	got, err := orders.Parse(get(t, r, "/orders.csv").Body)
	require.NoError(t, err)
	assert.Equal(t, DefaultOrders(), got)
	for _, o := range got {
		assert.GreaterOrEqual(t, o.Legs, 1)
		assert.LessOrEqual(t, o.Legs, 6)
	}
}

func TestOrderPageHasRobotSelectors(t *testing.T) {
	r, err := NewRouter(Config{ErrorRate: 0.25}, zaptest.NewLogger(t))
	require.NoError(t, err)

	rec := get(t, r, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	for _, want := range []string{
		`class="modal"`, `id="head"`, `name="body" value="6"`, `class="form-control" type="number"`,
		`id="address"`, `id="preview"`, `id="order"`, `id="order-another"`,
		">OK<", ">Yep<", ">I guess so...<", ">No way!<",
		"Server Out Of Ink Error",
		`id="server-error" class="alert alert-danger hidden" role="alert"`,
	} {
		assert.Contains(t, body, want)
	}
	assert.Regexp(t, `var errorRate =\s+0\.25\s*;`, body)
}

func TestPartImage(t *testing.T) {
	r, err := NewRouter(Config{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	rec := get(t, r, "/parts/heads/3.png")
	require.Equal(t, http.StatusOK, rec.Code)
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())

	for _, path := range []string{"/parts/heads/9.png", "/parts/arms/1.png", "/parts/heads/1.jpg"} {
		assert.Equal(t, http.StatusNotFound, get(t, r, path).Code, path)
	}
}

func TestErrorRateValidated(t *testing.T) {
	_, err := NewRouter(Config{ErrorRate: 1.5}, zaptest.NewLogger(t))
	assert.Error(t, err)
}
