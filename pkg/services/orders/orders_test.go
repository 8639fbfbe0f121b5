package orders

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"orderbot/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const table = `Order number,Head,Body,Legs,Address
1,1,2,3,Address 123
2,3,4,5,"Road 9, Flat 2"
`

func TestParse(t *testing.T) {
	got, err := Parse(strings.NewReader(table))
	require.NoError(t, err)
	assert.Equal(t, []models.Order{
		{Number: "1", Head: "1", Body: "2", Legs: 3, Address: "Address 123"},
		{Number: "2", Head: "3", Body: "4", Legs: 5, Address: "Road 9, Flat 2"},
	}, got)
}

func TestParseColumnsByName(t *testing.T) {
	got, err := Parse(strings.NewReader("Address,Legs,Body,Head,Order number,Extra\nSomewhere,2,1,4,17,x\n"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.Order{Number: "17", Head: "4", Body: "1", Legs: 2, Address: "Somewhere"}, got[0])
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"missing column", "Order number,Head,Body,Legs\n1,1,1,1\n"},
		{"ragged row", "Order number,Head,Body,Legs,Address\n1,1,1,1\n"},
		{"non numeric legs", "Order number,Head,Body,Legs,Address\n1,1,1,four,Street\n"},
		{"empty order number", "Order number,Head,Body,Legs,Address\n,1,1,1,Street\n"},
		{"order number with slash", "Order number,Head,Body,Legs,Address\nsub/7,1,1,1,Street\n"},
		{"order number with backslash", "Order number,Head,Body,Legs,Address\nsub\\7,1,1,1,Street\n"},
		{"order number climbing out", "Order number,Head,Body,Legs,Address\n..,1,1,1,Street\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestParseHeaderOnly(t *testing.T) {
	got, err := Parse(strings.NewReader("Order number,Head,Body,Legs,Address\n"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetchOverwritesLocalCopy(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(table))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(dest, []byte("stale"), 0o644))

	f := NewFetcher(ts.Client(), ts.URL+"/orders.csv", dest, zaptest.NewLogger(t))
	got, err := f.Fetch(testContext(t))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, table, string(data))
}

func TestFetchBadStatus(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	f := NewFetcher(ts.Client(), ts.URL, filepath.Join(t.TempDir(), "orders.csv"), zaptest.NewLogger(t))
	_, err := f.Fetch(testContext(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
}
