package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/timmy/pharmanews/internal/config"
)

func TestTranslateHTMLRewritesOnlyTextNodes(t *testing.T) {
	fragment := `<div class="rich_media">
<p>第一段内容。</p>
<p>第二段带<b>加粗</b>和<a href="https://example.com">链接</a>。</p>
<script>var untouched = 1;</script>
<style>.x { color: red }</style>
</div>`

	var seen []string
	out, err := translateHTMLText(fragment, func(text string) (string, error) {
		seen = append(seen, text)
		return "T:" + text, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		`<div class="rich_media">`,
		"<p>T:第一段内容。</p>",
		"<b>T:加粗</b>",
		`<a href="https://example.com">T:链接</a>`,
		"var untouched = 1;",
		".x { color: red }",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "T:var untouched") || strings.Contains(out, "T:.x") {
		t.Error("script or style content was translated")
	}
	for _, text := range seen {
		if strings.TrimSpace(text) == "" {
			t.Error("blank text node passed to the translator")
		}
	}
}

func TestTranslateHTMLPropagatesTranslatorError(t *testing.T) {
	boom := errors.New("boom")
	_, err := translateHTMLText("<p>正文</p>", func(string) (string, error) {
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want the translator error", err)
	}
}

func TestTranslateHTMLRequiresAPIKey(t *testing.T) {
	svc := NewAIService(&config.AIConfig{})
	if _, err := svc.TranslateHTML(context.Background(), "<p>正文</p>", "en"); !errors.Is(err, ErrAINotConfigured) {
		t.Fatalf("got %v, want ErrAINotConfigured", err)
	}
}
