package textutil

import (
	"strings"
	"testing"
)

func TestCleanHTMLStripsChrome(t *testing.T) {
	html := `<html><head><script>var x = 1;</script><style>.a{}</style></head>
<body><nav>menu</nav><p>First paragraph.</p><p>Second paragraph.</p><footer>foot</footer></body></html>`

	got := CleanHTML(html)
	if strings.Contains(got, "var x") || strings.Contains(got, ".a{}") {
		t.Errorf("script/style content leaked into text: %q", got)
	}
	if strings.Contains(got, "menu") || strings.Contains(got, "foot") {
		t.Errorf("nav/footer content leaked into text: %q", got)
	}
	if !strings.Contains(got, "First paragraph.") || !strings.Contains(got, "Second paragraph.") {
		t.Errorf("paragraph text missing: %q", got)
	}
}

func TestCleanHTMLBlockBoundaries(t *testing.T) {
	got := CleanHTML("<div><p>one</p><p>two</p></div>")
	if !strings.Contains(got, "one") || !strings.Contains(got, "two") {
		t.Fatalf("unexpected text: %q", got)
	}
	if strings.Contains(got, "onetwo") {
		t.Errorf("block elements merged without separator: %q", got)
	}
}

func TestCleanHTMLEmptyInput(t *testing.T) {
	if got := CleanHTML("   \n\t"); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
}

func TestNormalizeText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"trims lines", "  hello  \n  world  ", "hello\nworld"},
		{"splits double spaces", "alpha  beta", "alpha\nbeta"},
		{"collapses newline runs", "a\n\n\n\n\nb", "a\n\nb"},
		{"drops empties", "\n\n  \n\na\n", "a"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeText(tc.in); got != tc.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestExtractMainContent(t *testing.T) {
	html := `<html><body><div class="sidebar">ads</div><div class="article-content"><p>Drug approved.</p></div></body></html>`

	fragment, text := ExtractMainContent(html, []string{"div.article-content", "article"})
	if !strings.Contains(fragment, "article-content") {
		t.Errorf("fragment should contain the matched element, got %q", fragment)
	}
	if !strings.Contains(text, "Drug approved.") {
		t.Errorf("cleaned text missing body: %q", text)
	}
	if strings.Contains(text, "ads") {
		t.Errorf("cleaned text includes content outside the selector: %q", text)
	}
}

func TestExtractMainContentFallback(t *testing.T) {
	html := `<html><body><p>Whole document body.</p></body></html>`

	fragment, text := ExtractMainContent(html, []string{"div.never-matches"})
	if fragment != "" {
		t.Errorf("fallback should return empty fragment, got %q", fragment)
	}
	if !strings.Contains(text, "Whole document body.") {
		t.Errorf("fallback text missing body: %q", text)
	}
}

func TestCanonicalHashIgnoresSurroundingWhitespace(t *testing.T) {
	a := CanonicalHash("some article text")
	b := CanonicalHash("  some article text \n\n")
	if a != b {
		t.Errorf("hashes differ for whitespace-only variation: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
	if c := CanonicalHash("some other text"); c == a {
		t.Error("different text produced the same hash")
	}
}

func TestSanitizeHTMLRemovesScripts(t *testing.T) {
	got := SanitizeHTML(`<p>ok</p><script>alert(1)</script>`)
	if strings.Contains(got, "script") {
		t.Errorf("script survived sanitization: %q", got)
	}
	if !strings.Contains(got, "ok") {
		t.Errorf("benign markup lost: %q", got)
	}
}
