package extract

import (
	"strings"
	"testing"
)

func TestStripHTML_DenyList(t *testing.T) {
	input := `
		<table class="infobox"><tr><td>Born: 1912</td></tr></table>
		<div class="hatnote">For other uses, see Turing (disambiguation).</div>
		<p>Alan Turing was a mathematician<sup class="reference">[1]</sup> and
		<a href="/wiki/Cryptanalysis">codebreaker</a>.</p>
		<div class="thumb"><div class="thumbcaption">Turing in 1936</div></div>
		<div class="reflist">1. Hodges, Andrew.</div>
		<img src="turing.jpg"/>
	`
	got := Normalize(input)

	if strings.Contains(got, "Born") {
		t.Errorf("infobox content leaked: %q", got)
	}
	if strings.Contains(got, "other uses") {
		t.Errorf("hatnote content leaked: %q", got)
	}
	if strings.Contains(got, "Turing in 1936") {
		t.Errorf("caption leaked: %q", got)
	}
	if strings.Contains(got, "Hodges") {
		t.Errorf("reflist leaked: %q", got)
	}
	if !strings.Contains(got, "codebreaker") {
		t.Errorf("hyperlink text lost: %q", got)
	}
	if strings.Contains(got, "[1]") {
		t.Errorf("citation marker survived: %q", got)
	}
}

func TestCleanText_Passes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"edit marker", "History [edit] began", "History began"},
		{"numeric citation", "Earth[12] is round[3].", "Earth is round."},
		{"lettered citation", "disputed[a] claim", "disputed claim"},
		{"wiki link remnant", "see [[File:Sun.jpg]] here", "see here"},
		{"external link", "archived [https://example.org/x page] copy", "archived copy"},
		{"whitespace collapse", "a\n\n  b\t c", "a b c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.input); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanText_Idempotent(t *testing.T) {
	inputs := []string{
		"The Sun[1] is a star [edit] at the centre.  It formed 4.6 billion years ago.",
		"plain text with no markup",
		"",
	}
	for _, in := range inputs {
		once := CleanText(in)
		twice := CleanText(once)
		if once != twice {
			t.Errorf("CleanText not a fixed point: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestNormalize_MalformedHTML(t *testing.T) {
	// Unclosed tags and stray brackets must degrade, not fail.
	got := Normalize(`<p>unclosed <b>bold <div class="navbox">nav`)
	if !strings.Contains(got, "unclosed bold") {
		t.Errorf("Normalize() = %q", got)
	}
	if strings.Contains(got, "nav") {
		t.Errorf("navbox content leaked: %q", got)
	}
}

func TestNormalize_EmptyAfterStrip(t *testing.T) {
	got := Normalize(`<div class="navbox"><p>only chrome</p></div>`)
	if got != "" {
		t.Errorf("Normalize() = %q, want empty", got)
	}
	if b := SplitSentences(got); len(b) != 0 {
		t.Errorf("bucket from empty text has %d entries", len(b))
	}
}
