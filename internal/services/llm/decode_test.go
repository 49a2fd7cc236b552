package llm

import (
	"strings"
	"testing"
)

func TestStripCodeFence(t *testing.T) {
	cases := map[string]string{
		"```json\n[1]\n```": "[1]",
		"```JSON [2] ```":   "[2]",
		"```\nplain\n```":   "plain",
		"no fence":          "no fence",
	}
	for in, want := range cases {
		if got := StripCodeFence(in); got != want {
			t.Fatalf("StripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSummarizePayloadSnippet(t *testing.T) {
	if got := summarizePayloadSnippet("  \n "); got != "<empty>" {
		t.Fatalf("expected <empty>, got %q", got)
	}
	if got := summarizePayloadSnippet("a\n\tb   c"); got != "a b c" {
		t.Fatalf("expected collapsed whitespace, got %q", got)
	}
	long := strings.Repeat("x", 400)
	if got := summarizePayloadSnippet(long); len(got) != 163 || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected truncated snippet, got %d chars", len(got))
	}
}
