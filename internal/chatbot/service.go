package chatbot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/launchkit/launchkit/internal/ai"
)

const systemPrompt = `You are a helpful marketing assistant for a small business using LaunchKit.
You help with websites, email campaigns, lead management, and analytics questions.
Keep answers short, concrete, and actionable. If asked about data you cannot see, say so.`

// Reply is the chatbot's answer plus suggested follow-up questions
type Reply struct {
	SessionID   string    `json:"session_id"`
	Message     string    `json:"message"`
	Suggestions []string  `json:"suggestions,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Service answers chat messages using the configured text providers and a
// shared session store for conversation history.
type Service struct {
	generator ai.TextGenerator
	sessions  SessionStore
	maxTurns  int
}

// NewService creates a chatbot service. maxTurns bounds how much history is
// replayed to the model per request.
func NewService(generator ai.TextGenerator, sessions SessionStore, maxTurns int) *Service {
	if maxTurns <= 0 {
		maxTurns = 20
	}
	return &Service{generator: generator, sessions: sessions, maxTurns: maxTurns}
}

// Respond loads the session history, asks the model, and appends both turns
// to the store.
func (s *Service) Respond(ctx context.Context, sessionID, userMessage string) (*Reply, error) {
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return nil, fmt.Errorf("message is required")
	}

	history, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		// A dead session store degrades to a single-turn conversation
		log.Printf("Chatbot: failed to load session %s: %v", sessionID, err)
		history = nil
	}
	if len(history) > s.maxTurns {
		history = history[len(history)-s.maxTurns:]
	}

	messages := make([]ai.Message, 0, len(history))
	for _, turn := range history {
		messages = append(messages, ai.Message{Role: turn.Role, Content: turn.Content})
	}

	answer, err := s.generator.Generate(ctx, ai.Request{
		System:      systemPrompt,
		Prompt:      userMessage,
		History:     messages,
		MaxTokens:   1000,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("chatbot generation failed: %w", err)
	}

	now := time.Now().UTC()
	if err := s.sessions.Append(ctx, sessionID, Turn{Role: "user", Content: userMessage, Timestamp: now}); err != nil {
		log.Printf("Chatbot: failed to persist user turn: %v", err)
	}
	if err := s.sessions.Append(ctx, sessionID, Turn{Role: "assistant", Content: answer, Timestamp: now}); err != nil {
		log.Printf("Chatbot: failed to persist assistant turn: %v", err)
	}

	return &Reply{
		SessionID:   sessionID,
		Message:     answer,
		Suggestions: suggestFollowUps(userMessage),
		GeneratedAt: now,
	}, nil
}

// Clear drops a session's history
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	return s.sessions.Clear(ctx, sessionID)
}

// suggestFollowUps proposes next questions from keywords in the user's
// message
func suggestFollowUps(message string) []string {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "campaign") || strings.Contains(lower, "email"):
		return []string{
			"Generate subject line ideas for my next campaign",
			"What time should I send campaigns?",
			"Show my campaign performance",
		}
	case strings.Contains(lower, "website") || strings.Contains(lower, "site"):
		return []string{
			"Generate a new landing page",
			"How do I connect a custom domain?",
		}
	case strings.Contains(lower, "lead") || strings.Contains(lower, "contact"):
		return []string{
			"Which leads are most engaged?",
			"How is the engagement score calculated?",
		}
	case strings.Contains(lower, "report") || strings.Contains(lower, "analytic"):
		return []string{
			"Generate this month's analytics report",
			"Which campaigns drove the most clicks?",
		}
	default:
		return []string{
			"Help me write a marketing campaign",
			"Generate a website for my business",
			"Show my most engaged leads",
		}
	}
}
