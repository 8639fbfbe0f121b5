package receipt

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

var (
	markupPolicyOnce sync.Once
	markupPolicy     *bluemonday.Policy
)

// receiptPolicy keeps text structure and drops images, scripts, styles and
// form controls so the printed receipt does not depend on network assets.
func receiptPolicy() *bluemonday.Policy {
	markupPolicyOnce.Do(func() {
		policy := bluemonday.NewPolicy()
		policy.AllowElements(
			"div", "span", "p", "h1", "h2", "h3", "h4", "h5", "h6",
			"b", "strong", "i", "em", "small", "br", "hr", "pre", "code",
			"section", "article", "header", "footer", "main", "label",
		)
		policy.AllowLists()
		policy.AllowTables()
		policy.AllowAttrs("id", "class").Globally()
		policy.SkipElementsContent("title", "noscript", "button", "select", "textarea")
		markupPolicy = policy
	})
	return markupPolicy
}

var nonASCII = runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII }))

// Sanitize strips images and every non-ASCII character from captured page
// markup. The result is an HTML fragment.
func Sanitize(markup string) string {
	cleaned := receiptPolicy().Sanitize(markup)
	ascii, _, _ := transform.String(nonASCII, cleaned)
	return strings.TrimSpace(ascii)
}

const documentShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Receipt</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 12px; margin: 24px; }
h3 { margin-top: 0; }
</style>
</head>
<body>
%s
</body>
</html>
`

// Document wraps a sanitized fragment in the fixed page used for printing.
func Document(fragment string) string {
	return fmt.Sprintf(documentShell, fragment)
}
