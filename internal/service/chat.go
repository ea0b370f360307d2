package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/timmy/pharmanews/internal/domain"
	"github.com/timmy/pharmanews/internal/logger"
	"github.com/timmy/pharmanews/internal/repository"
)

const chatContextArticles = 5

// ChatService answers questions about ingested news. Retrieval is keyword
// matching over active articles; the matched bodies are fed to the model as
// context together with the session history.
type ChatService struct {
	chats    *repository.ChatRepository
	articles *repository.ArticleRepository
	ai       *AIService
}

// NewChatService creates the chat service.
func NewChatService(chats *repository.ChatRepository, articles *repository.ArticleRepository, ai *AIService) *ChatService {
	return &ChatService{chats: chats, articles: articles, ai: ai}
}

// CreateSession starts a new conversation for a user.
func (s *ChatService) CreateSession(ctx context.Context, userID string) (*domain.ChatSession, error) {
	session := &domain.ChatSession{
		ID:     uuid.NewString(),
		UserID: userID,
	}
	if err := s.chats.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// History returns a session's messages in order.
func (s *ChatService) History(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	if _, err := s.chats.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.chats.ListMessages(ctx, sessionID, 0)
}

// Ask records the user question, retrieves matching articles, asks the model,
// and records the answer with its source article titles.
func (s *ChatService) Ask(ctx context.Context, sessionID, question string) (*domain.ChatMessage, error) {
	if _, err := s.chats.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	userMsg := &domain.ChatMessage{
		SessionID: sessionID,
		Role:      "user",
		Content:   question,
	}
	if err := s.chats.AddMessage(ctx, userMsg); err != nil {
		return nil, err
	}

	matches, err := s.articles.SearchByKeywords(ctx, extractKeywords(question), chatContextArticles)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("chat retrieval failed")
		matches = nil
	}

	started := time.Now()
	answer, err := s.ai.Complete(ctx, chatSystemPrompt(matches), question)
	if err != nil {
		return nil, err
	}
	latency := int(time.Since(started).Milliseconds())

	sources := make(domain.StringArray, 0, len(matches))
	for _, a := range matches {
		sources = append(sources, a.Title)
	}

	assistantMsg := &domain.ChatMessage{
		SessionID: sessionID,
		Role:      "assistant",
		Content:   answer,
		Sources:   sources,
		LatencyMs: latency,
	}
	if err := s.chats.AddMessage(ctx, assistantMsg); err != nil {
		return nil, err
	}
	if err := s.chats.TouchSession(ctx, sessionID); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("failed to touch chat session")
	}
	return assistantMsg, nil
}

func chatSystemPrompt(articles []domain.Article) string {
	var b strings.Builder
	b.WriteString("你是一名医药资讯助手,根据提供的新闻资料回答用户问题。资料不足时如实说明,不要编造。\n\n")
	if len(articles) > 0 {
		b.WriteString("参考资料:\n")
		for i, a := range articles {
			body := a.ContentText
			if len([]rune(body)) > 1500 {
				body = string([]rune(body)[:1500])
			}
			fmt.Fprintf(&b, "[%d] %s(%s)\n%s\n\n", i+1, a.Title, a.PublishedAt.Format("2006-01-02"), body)
		}
	}
	return b.String()
}

// extractKeywords splits a question into coarse search terms. Whitespace
// separates terms; CJK questions usually arrive as one term and match via
// substring search.
func extractKeywords(question string) []string {
	fields := strings.Fields(question)
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) >= 2 {
			keywords = append(keywords, f)
		}
	}
	if len(keywords) == 0 && strings.TrimSpace(question) != "" {
		keywords = append(keywords, strings.TrimSpace(question))
	}
	return keywords
}
