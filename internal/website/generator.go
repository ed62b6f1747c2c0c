package website

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/launchkit/launchkit/internal/ai"
)

// Generator produces website documents from a business brief using the
// configured text providers.
type Generator struct {
	generator ai.TextGenerator
}

// NewGenerator creates a website generator
func NewGenerator(generator ai.TextGenerator) *Generator {
	return &Generator{generator: generator}
}

// Generate builds the prompt, calls the model, and recovers a validated
// Document. The second return reports whether the fallback document was
// substituted for an unrecoverable reply.
func (g *Generator) Generate(ctx context.Context, req BriefRequest) (*Document, bool, error) {
	if req.BusinessName == "" {
		return nil, false, fmt.Errorf("business name is required")
	}

	raw, err := g.generator.Generate(ctx, ai.Request{
		System:      "You are an expert web designer and copywriter. Always respond with valid JSON.",
		Prompt:      buildSitePrompt(req),
		MaxTokens:   3000,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, false, fmt.Errorf("website generation failed: %w", err)
	}

	fallback := fallbackDocument(req)
	res := ai.Recover(raw, toObject(fallback))
	if res.Fallback {
		log.Printf("Website: unrecoverable model reply for %q, using fallback (raw: %.120s)",
			req.BusinessName, res.RawText)
	}

	var doc Document
	if err := ai.Decode(res, &doc); err != nil {
		return nil, false, fmt.Errorf("failed to decode website document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		if res.Fallback {
			return nil, false, fmt.Errorf("fallback document invalid: %w", err)
		}
		return nil, false, fmt.Errorf("model reply missing required fields: %w", err)
	}

	return &doc, res.Fallback, nil
}

func buildSitePrompt(req BriefRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a single-page website for this business:\n\n")
	fmt.Fprintf(&b, "Business: %s\n", req.BusinessName)
	if req.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s\n", req.Industry)
	}
	if req.Description != "" {
		fmt.Fprintf(&b, "About: %s\n", req.Description)
	}
	if req.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", req.Tone)
	}
	if len(req.Goals) > 0 {
		fmt.Fprintf(&b, "Goals: %s\n", strings.Join(req.Goals, ", "))
	}

	b.WriteString(`
Include a hero section, an about section, a services or features section, and a contact section.

Respond with ONLY valid JSON in this exact format:
{
  "title": "...",
  "tagline": "...",
  "sections": [
    {"id": "hero", "heading": "...", "body": "...", "cta": "..."}
  ],
  "palette": {"primary": "#1a73e8", "secondary": "#fbbc04", "background": "#ffffff", "text": "#202124"},
  "seo": {"title": "...", "description": "...", "keywords": ["..."]}
}`)
	return b.String()
}

// fallbackDocument is the deterministic site used when the model reply
// cannot be recovered
func fallbackDocument(req BriefRequest) Document {
	return Document{
		Title:   req.BusinessName,
		Tagline: "Welcome to " + req.BusinessName,
		Sections: []Section{
			{ID: "hero", Heading: req.BusinessName, Body: req.Description, CTA: "Contact Us"},
			{ID: "about", Heading: "About Us", Body: "We are " + req.BusinessName + ", serving customers in " + orDefault(req.Industry, "our industry") + "."},
			{ID: "contact", Heading: "Get in Touch", Body: "Reach out and we'll get back to you within one business day.", CTA: "Contact Us"},
		},
		Palette: Palette{Primary: "#1a73e8", Secondary: "#fbbc04", Background: "#ffffff", Text: "#202124"},
		SEO: SEO{
			Title:       req.BusinessName,
			Description: "Official website of " + req.BusinessName,
		},
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// toObject converts a typed fallback into the generic shape the recovery
// layer works with
func toObject(v interface{}) map[string]interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]interface{}{}
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]interface{}{}
	}
	return m
}
