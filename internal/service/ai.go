package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"

	"github.com/timmy/pharmanews/internal/config"
)

// ErrAINotConfigured is returned when AI features are used without an API key.
var ErrAINotConfigured = errors.New("ai service is not configured")

// AIService calls an OpenAI-compatible chat completion endpoint for article
// summarization, translation, and chat answers.
type AIService struct {
	client *resty.Client
	model  string
}

type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string                  `json:"model"`
	Messages    []chatCompletionMessage `json:"messages"`
	Temperature float64                 `json:"temperature,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewAIService creates the AI client. Returns a disabled service when no API
// key is configured; calls then fail with ErrAINotConfigured.
func NewAIService(cfg *config.AIConfig) *AIService {
	if cfg.APIKey == "" {
		return &AIService{}
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(60 * time.Second).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json")
	return &AIService{client: client, model: cfg.ChatModel}
}

// Enabled reports whether an API key was configured.
func (s *AIService) Enabled() bool {
	return s.client != nil
}

// Complete sends one chat completion request and returns the assistant text.
func (s *AIService) Complete(ctx context.Context, system, user string) (string, error) {
	if s.client == nil {
		return "", ErrAINotConfigured
	}

	req := chatCompletionRequest{
		Model:       s.model,
		Temperature: 0.3,
		Messages: []chatCompletionMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	var out chatCompletionResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	if resp.IsError() {
		if out.Error != nil {
			return "", fmt.Errorf("chat completion error: %s", out.Error.Message)
		}
		return "", fmt.Errorf("chat completion error: status %d", resp.StatusCode())
	}
	if len(out.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

// Summarize produces a short Chinese summary of an article body.
func (s *AIService) Summarize(ctx context.Context, title, author, text string) (string, error) {
	const system = "你是一名医药行业资讯编辑。请用中文为文章生成一段不超过200字的摘要,突出药物、适应症、研发阶段和商业要点。只输出摘要正文。"
	user := fmt.Sprintf("标题:%s\n作者:%s\n\n正文:\n%s", title, author, truncateRunes(text, 6000))
	return s.Complete(ctx, system, user)
}

// Translate renders article text into the target language ("en" or "zh").
func (s *AIService) Translate(ctx context.Context, text, targetLang string) (string, error) {
	lang := "English"
	if targetLang == "zh" {
		lang = "Simplified Chinese"
	}
	system := fmt.Sprintf("You are a professional pharmaceutical translator. Translate the user's text into %s. Preserve paragraph breaks. Output only the translation.", lang)
	return s.Complete(ctx, system, truncateRunes(text, 6000))
}

// TranslateHTML translates an HTML fragment into the target language while
// keeping the tag structure intact: only text nodes are rewritten, so links,
// images, and formatting survive.
func (s *AIService) TranslateHTML(ctx context.Context, fragment, targetLang string) (string, error) {
	if s.client == nil {
		return "", ErrAINotConfigured
	}
	return translateHTMLText(fragment, func(text string) (string, error) {
		return s.Translate(ctx, text, targetLang)
	})
}

// translateHTMLText walks the fragment's nodes and rewrites each non-blank
// text node via translate. script and style subtrees are left untouched.
func translateHTMLText(fragment string, translate func(string) (string, error)) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("failed to parse html fragment: %w", err)
	}

	var walk func(n *html.Node) error
	walk = func(n *html.Node) error {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return nil
		}
		if n.Type == html.TextNode {
			if strings.TrimSpace(n.Data) == "" {
				return nil
			}
			translated, err := translate(n.Data)
			if err != nil {
				return err
			}
			n.Data = translated
			return nil
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}

	body := doc.Find("body")
	for _, n := range body.Nodes {
		if err := walk(n); err != nil {
			return "", err
		}
	}
	return body.Html()
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
