package evals

import (
	"strings"
	"testing"
)

func TestCheckAssertionEquals(t *testing.T) {
	a := Assertion{Type: AssertEquals, Value: "hello world"}
	if err := checkAssertion(a, "hello world"); err != nil {
		t.Fatalf("exact match failed: %v", err)
	}
	if err := checkAssertion(a, "  hello world\n"); err != nil {
		t.Fatalf("surrounding whitespace should be ignored: %v", err)
	}
	if err := checkAssertion(a, "hello"); err == nil {
		t.Fatalf("expected mismatch")
	}
}

func TestCheckAssertionContains(t *testing.T) {
	a := Assertion{Type: AssertContains, Value: "42"}
	if err := checkAssertion(a, "the answer is 42, obviously"); err != nil {
		t.Fatalf("contains failed: %v", err)
	}
	if err := checkAssertion(a, "no answer here"); err == nil {
		t.Fatalf("expected failure")
	}
}

func TestCheckAssertionRegexp(t *testing.T) {
	a := Assertion{Type: AssertRegexp, Value: `(?i)^answer:\s+\d+$`}
	if err := checkAssertion(a, "Answer: 7"); err != nil {
		t.Fatalf("regexp failed: %v", err)
	}
	if err := checkAssertion(a, "Answer: seven"); err == nil {
		t.Fatalf("expected failure")
	}
}

func TestCheckAssertionHTMLText(t *testing.T) {
	a := Assertion{Type: AssertHTMLText, Value: "two items"}
	output := `<div><p>There are
	<strong>two   items</strong> in the cart.</p></div>`
	if err := checkAssertion(a, output); err != nil {
		t.Fatalf("html_text failed: %v", err)
	}

	if err := checkAssertion(Assertion{Type: AssertHTMLText, Value: "strong"}, output); err == nil {
		t.Fatalf("markup should be stripped before matching")
	}
}

func TestCheckAssertionUnknownType(t *testing.T) {
	if err := checkAssertion(Assertion{Type: "vibes"}, "x"); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestSnippetTruncatesLongOutput(t *testing.T) {
	err := checkAssertion(Assertion{Type: AssertContains, Value: "needle"}, strings.Repeat("hay", 200))
	if err == nil {
		t.Fatalf("expected failure")
	}
	if len(err.Error()) > 220 {
		t.Fatalf("failure message too long: %d chars", len(err.Error()))
	}
}
