package htmlsanitize_test

import (
	"testing"

	"github.com/meeralabs/portal/internal/app/system/htmlsanitize"
)

func TestPlainText_Empty(t *testing.T) {
	if got := htmlsanitize.PlainText(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestPlainText_Unchanged(t *testing.T) {
	in := "Talked to Priya about Q3"
	if got := htmlsanitize.PlainText(in); got != in {
		t.Errorf("expected plain text unchanged, got %q", got)
	}
}

func TestPlainText_StripsMarkup(t *testing.T) {
	got := htmlsanitize.PlainText("<b>Standup</b> notes<script>alert('x')</script>")
	if got != "Standup notes" {
		t.Errorf("expected markup stripped, got %q", got)
	}
}

func TestPlainText_KeepsAmpersand(t *testing.T) {
	// Output must not be double-escaped once html/template escapes it.
	if got := htmlsanitize.PlainText("R&D sync"); got != "R&D sync" {
		t.Errorf("got %q, want %q", got, "R&D sync")
	}
}

func TestInitial(t *testing.T) {
	cases := map[string]string{
		"ada@example.com": "A",
		"":                "",
		"  ":              "",
		"élodie@x.fr":     "É",
	}
	for in, want := range cases {
		if got := htmlsanitize.Initial(in); got != want {
			t.Errorf("Initial(%q) = %q, want %q", in, got, want)
		}
	}
}
