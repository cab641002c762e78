package evals

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Supported assertion types.
const (
	AssertEquals   = "equals"
	AssertContains = "contains"
	AssertRegexp   = "regexp"
	// AssertHTMLText strips markup from the output before matching, for
	// prompts whose output is HTML-bearing.
	AssertHTMLText = "html_text"
)

// checkAssertion returns nil when the output satisfies the assertion, or an
// error describing the failure.
func checkAssertion(a Assertion, output string) error {
	switch a.Type {
	case AssertEquals:
		if strings.TrimSpace(output) != a.Value {
			return fmt.Errorf("equals: output %q != %q", snippet(output), a.Value)
		}
	case AssertContains:
		if !strings.Contains(output, a.Value) {
			return fmt.Errorf("contains: output %q missing %q", snippet(output), a.Value)
		}
	case AssertRegexp:
		re, err := regexp.Compile(a.Value)
		if err != nil {
			return fmt.Errorf("regexp: invalid pattern %q: %w", a.Value, err)
		}
		if !re.MatchString(output) {
			return fmt.Errorf("regexp: output %q does not match %q", snippet(output), a.Value)
		}
	case AssertHTMLText:
		text, err := htmlText(output)
		if err != nil {
			return fmt.Errorf("html_text: parse output: %w", err)
		}
		if !strings.Contains(text, a.Value) {
			return fmt.Errorf("html_text: text %q missing %q", snippet(text), a.Value)
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// htmlText extracts the collapsed text content of an HTML fragment.
func htmlText(output string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(output))
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}

func snippet(s string) string {
	const maxLen = 120
	s = strings.TrimSpace(s)
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
