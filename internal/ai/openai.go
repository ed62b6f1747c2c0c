package ai

import (
	"context"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAIClient wraps the OpenAI chat completions API. It is the fallback
// text provider behind Anthropic and the primary image provider.
type OpenAIClient struct {
	client *goopenai.Client
	model  string
}

// NewOpenAIClient returns a chat completion client, or nil if no API key is
// configured.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = goopenai.GPT4o
	}
	return &OpenAIClient{
		client: goopenai.NewClient(apiKey),
		model:  model,
	}
}

// Name implements TextGenerator.
func (c *OpenAIClient) Name() string { return "openai" }

// Generate implements TextGenerator.
func (c *OpenAIClient) Generate(ctx context.Context, genReq Request) (string, error) {
	maxTokens := genReq.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2000
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, len(genReq.History)+2)
	if genReq.System != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: genReq.System,
		})
	}
	for _, m := range genReq.History {
		role := goopenai.ChatMessageRoleUser
		if m.Role == "assistant" {
			role = goopenai.ChatMessageRoleAssistant
		}
		messages = append(messages, goopenai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: genReq.Prompt,
	})

	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(genReq.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}

	return resp.Choices[0].Message.Content, nil
}
