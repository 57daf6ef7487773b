package ui

import (
	"os"
	"testing"
)

func TestMarkdownTable(t *testing.T) {
	got := MarkdownTable(
		[]string{"Release", "Issues"},
		[][]string{{"1.0", "3"}, {"a|b", "1"}},
	)
	want := "| Release | Issues |\n" +
		"| --- | --- |\n" +
		"| 1.0 | 3 |\n" +
		"| a\\|b | 1 |\n"
	if got != want {
		t.Errorf("MarkdownTable() =\n%s\nwant\n%s", got, want)
	}
}

func TestMarkdownTableShortRow(t *testing.T) {
	got := MarkdownTable([]string{"A", "B"}, [][]string{{"x"}})
	want := "| A | B |\n| --- | --- |\n| x |  |\n"
	if got != want {
		t.Errorf("MarkdownTable() = %q, want %q", got, want)
	}
}

func TestRenderMarkdownPlainWithoutColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	in := "# Summary\n\nplain"
	if got := RenderMarkdown(in); got != in {
		t.Errorf("RenderMarkdown() = %q, want input unchanged", got)
	}
}

func unsetenv(t *testing.T, key string) {
	t.Helper()
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unsetenv %s: %v", key, err)
	}
}
