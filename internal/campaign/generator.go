package campaign

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/launchkit/launchkit/internal/ai"
)

// Generator produces campaign documents, subject-line variants, and CTA
// lists from the configured text providers.
type Generator struct {
	generator ai.TextGenerator
}

// NewGenerator creates a campaign generator
func NewGenerator(generator ai.TextGenerator) *Generator {
	return &Generator{generator: generator}
}

// Generate builds a full campaign document. The second return reports
// whether the fallback was substituted for an unrecoverable reply; the
// fallback keeps the raw model text as the plain-text body so nothing is
// silently discarded.
func (g *Generator) Generate(ctx context.Context, req BriefRequest) (*Document, bool, error) {
	if req.Product == "" {
		return nil, false, fmt.Errorf("product is required")
	}

	raw, err := g.generator.Generate(ctx, ai.Request{
		System:      "You are an expert email marketing copywriter. Always respond with valid JSON.",
		Prompt:      buildCampaignPrompt(req),
		MaxTokens:   3000,
		Temperature: 0.8,
	})
	if err != nil {
		return nil, false, fmt.Errorf("campaign generation failed: %w", err)
	}

	res := ai.Recover(raw, fallbackCampaign(raw))
	if res.Fallback {
		log.Printf("Campaign: unrecoverable model reply for %q, using fallback (raw: %.120s)",
			req.Product, res.RawText)
	}

	var doc Document
	if err := ai.Decode(res, &doc); err != nil {
		return nil, false, fmt.Errorf("failed to decode campaign document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		if res.Fallback {
			return nil, false, fmt.Errorf("fallback document invalid: %w", err)
		}
		return nil, false, fmt.Errorf("model reply missing required fields: %w", err)
	}

	return &doc, res.Fallback, nil
}

// GenerateSubjects returns count subject-line variants, falling back to a
// static set when no provider answers usably.
func (g *Generator) GenerateSubjects(ctx context.Context, product, audience string, count int) ([]SubjectSuggestion, error) {
	if count <= 0 || count > 10 {
		count = 5
	}

	prompt := fmt.Sprintf(`Generate %d email subject lines for this campaign:

Product: %s
Audience: %s

Vary the tone (professional, casual, urgent, curious).

Respond with ONLY valid JSON in this exact format:
{"suggestions": [{"subject": "...", "tone": "...", "reasoning": "..."}]}`, count, product, audience)

	raw, err := g.generator.Generate(ctx, ai.Request{
		System:      "You are an expert email marketing copywriter. Always respond with valid JSON.",
		Prompt:      prompt,
		MaxTokens:   2000,
		Temperature: 0.8,
	})
	if err != nil {
		log.Printf("Campaign: subject generation failed, using static suggestions: %v", err)
		return fallbackSubjects(count), nil
	}

	res := ai.Recover(raw, map[string]interface{}{})
	var parsed struct {
		Suggestions []SubjectSuggestion `json:"suggestions"`
	}
	if err := ai.Decode(res, &parsed); err != nil || len(parsed.Suggestions) == 0 {
		log.Printf("Campaign: no usable subject suggestions in reply, using static set")
		return fallbackSubjects(count), nil
	}

	if len(parsed.Suggestions) > count {
		parsed.Suggestions = parsed.Suggestions[:count]
	}
	return parsed.Suggestions, nil
}

// GenerateCTAs returns count call-to-action phrases for a product
func (g *Generator) GenerateCTAs(ctx context.Context, product string, count int) ([]string, error) {
	if count <= 0 || count > 10 {
		count = 5
	}

	prompt := fmt.Sprintf(`Generate %d short call-to-action button texts for: %s

Each must be under 5 words.

Respond with ONLY valid JSON in this exact format:
{"ctas": ["...", "..."]}`, count, product)

	raw, err := g.generator.Generate(ctx, ai.Request{
		System:      "You are an expert email marketing copywriter. Always respond with valid JSON.",
		Prompt:      prompt,
		MaxTokens:   500,
		Temperature: 0.8,
	})
	if err != nil {
		log.Printf("Campaign: CTA generation failed, using static set: %v", err)
		return fallbackCTAs(count), nil
	}

	res := ai.Recover(raw, map[string]interface{}{})
	var parsed struct {
		CTAs []string `json:"ctas"`
	}
	if err := ai.Decode(res, &parsed); err != nil || len(parsed.CTAs) == 0 {
		return fallbackCTAs(count), nil
	}

	if len(parsed.CTAs) > count {
		parsed.CTAs = parsed.CTAs[:count]
	}
	return parsed.CTAs, nil
}

func buildCampaignPrompt(req BriefRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a marketing email campaign:\n\n")
	fmt.Fprintf(&b, "Product: %s\n", req.Product)
	if req.Audience != "" {
		fmt.Fprintf(&b, "Audience: %s\n", req.Audience)
	}
	if req.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", req.Tone)
	}
	if req.Goal != "" {
		fmt.Fprintf(&b, "Goal: %s\n", req.Goal)
	}
	if len(req.Points) > 0 {
		fmt.Fprintf(&b, "Key points: %s\n", strings.Join(req.Points, "; "))
	}

	b.WriteString(`
Respond with ONLY valid JSON in this exact format:
{
  "subject": "...",
  "preview_text": "...",
  "html": "<html>...</html>",
  "text": "...",
  "ctas": ["...", "..."]
}`)
	return b.String()
}

// fallbackCampaign carries the raw model text forward as the plain-text
// body so the caller can still see what came back
func fallbackCampaign(raw string) map[string]interface{} {
	doc := Document{
		Subject:     "AI-Generated Campaign",
		PreviewText: "News from our team",
		HTML:        "<html><body><p>We have an update to share with you.</p></body></html>",
		Text:        raw,
		CTAs:        []string{"Learn More"},
	}
	data, _ := json.Marshal(doc)
	var m map[string]interface{}
	_ = json.Unmarshal(data, &m)
	return m
}

func fallbackSubjects(count int) []SubjectSuggestion {
	suggestions := []SubjectSuggestion{
		{Subject: "Check out what's new", Tone: "professional", Reasoning: "Clear curiosity hook"},
		{Subject: "Don't miss this exclusive offer", Tone: "urgent", Reasoning: "Creates urgency and exclusivity"},
		{Subject: "Quick update for you", Tone: "casual", Reasoning: "Casual tone works well for engagement"},
		{Subject: "Is this what you're looking for?", Tone: "curious", Reasoning: "Question format drives opens"},
		{Subject: "Your weekly digest is here", Tone: "professional", Reasoning: "Straightforward for regular updates"},
	}
	if count < len(suggestions) {
		return suggestions[:count]
	}
	return suggestions
}

func fallbackCTAs(count int) []string {
	ctas := []string{"Learn More", "Get Started", "Shop Now", "Claim Your Offer", "Book a Demo"}
	if count < len(ctas) {
		return ctas[:count]
	}
	return ctas
}
