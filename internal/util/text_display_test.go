package util

import "testing"

func TestDisplaySnippetCollapsesWhitespace(t *testing.T) {
	got := DisplaySnippet("a  b\n\nc\t d", 0)
	if got != "a b c d" {
		t.Fatalf("unexpected collapse: %q", got)
	}
}

func TestDisplaySnippetTruncates(t *testing.T) {
	got := DisplaySnippet("abcdefghij", 5)
	if got != "abcde..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

func TestDisplaySnippetShortInputUnchanged(t *testing.T) {
	if got := DisplaySnippet("short", 10); got != "short" {
		t.Fatalf("unexpected result: %q", got)
	}
}
