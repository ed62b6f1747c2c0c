package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// BedrockClient invokes Claude through AWS Bedrock. Used by deployments that
// must keep all traffic inside AWS instead of calling the Anthropic API
// directly.
type BedrockClient struct {
	client  *bedrockruntime.Client
	modelID string
}

type bedrockMessage struct {
	Role    string                `json:"role"`
	Content []bedrockContentBlock `json:"content"`
}

type bedrockContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Messages         []bedrockMessage `json:"messages"`
	Temperature      float64          `json:"temperature,omitempty"`
}

type bedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// NewBedrockClient wraps an already configured bedrockruntime client.
func NewBedrockClient(client *bedrockruntime.Client, modelID string) *BedrockClient {
	if client == nil {
		return nil
	}
	if modelID == "" {
		modelID = "anthropic.claude-3-5-sonnet-20241022-v2:0"
	}
	return &BedrockClient{client: client, modelID: modelID}
}

// Name implements TextGenerator.
func (c *BedrockClient) Name() string { return "bedrock" }

// Generate implements TextGenerator.
func (c *BedrockClient) Generate(ctx context.Context, genReq Request) (string, error) {
	maxTokens := genReq.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2000
	}

	messages := make([]bedrockMessage, 0, len(genReq.History)+1)
	for _, m := range genReq.History {
		messages = append(messages, bedrockMessage{
			Role:    m.Role,
			Content: []bedrockContentBlock{{Type: "text", Text: m.Content}},
		})
	}
	messages = append(messages, bedrockMessage{
		Role:    "user",
		Content: []bedrockContentBlock{{Type: "text", Text: genReq.Prompt}},
	})

	requestBody, err := json.Marshal(bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        maxTokens,
		System:           genReq.System,
		Messages:         messages,
		Temperature:      genReq.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	output, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        requestBody,
	})
	if err != nil {
		return "", fmt.Errorf("Bedrock invoke failed: %w", err)
	}

	var resp bedrockResponse
	if err := json.Unmarshal(output.Body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse Bedrock response: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("no content in Bedrock response")
	}

	return resp.Content[0].Text, nil
}
