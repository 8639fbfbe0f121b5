package orders

import (
	"context"
	"testing"
)

// testContext stands in for t.Context (Go 1.24+): it returns a context that
// is canceled when the test finishes.
func testContext(t testing.TB) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
