package website

import (
	"context"
	"strings"
	"testing"

	"github.com/launchkit/launchkit/internal/ai"
)

type fakeGenerator struct {
	reply string
	err   error
}

func (f *fakeGenerator) Name() string { return "fake" }
func (f *fakeGenerator) Generate(ctx context.Context, req ai.Request) (string, error) {
	return f.reply, f.err
}

func TestGenerateParsesFencedReply(t *testing.T) {
	gen := NewGenerator(&fakeGenerator{reply: "```json\n" + `{
		"title": "Blue Bottle Bakery",
		"tagline": "Fresh bread daily",
		"sections": [
			{"id": "hero", "heading": "Blue Bottle Bakery", "body": "Artisan bread.", "cta": "Order Now"}
		],
		"palette": {"primary": "#112233", "secondary": "#445566", "background": "#ffffff", "text": "#000000"},
		"seo": {"title": "Blue Bottle Bakery", "description": "Artisan bakery"}
	}` + "\n```"})

	doc, fromFallback, err := gen.Generate(context.Background(), BriefRequest{BusinessName: "Blue Bottle Bakery"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if fromFallback {
		t.Error("Generate() reported fallback for a valid reply")
	}
	if doc.Title != "Blue Bottle Bakery" {
		t.Errorf("title = %q", doc.Title)
	}
	if len(doc.Sections) != 1 || doc.Sections[0].CTA != "Order Now" {
		t.Errorf("sections = %+v", doc.Sections)
	}
}

func TestGenerateFallsBackOnGarbage(t *testing.T) {
	gen := NewGenerator(&fakeGenerator{reply: "I'm sorry, I can't produce that right now."})

	doc, fromFallback, err := gen.Generate(context.Background(), BriefRequest{
		BusinessName: "Acme Plumbing",
		Industry:     "plumbing",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !fromFallback {
		t.Error("Generate() should report fallback for unparseable reply")
	}
	if doc.Title != "Acme Plumbing" {
		t.Errorf("fallback title = %q, want business name", doc.Title)
	}
	if len(doc.Sections) == 0 {
		t.Error("fallback document has no sections")
	}
}

func TestGenerateRejectsStructurallyEmptyReply(t *testing.T) {
	// Parseable JSON missing required fields fails validation instead of
	// silently rendering an empty page
	gen := NewGenerator(&fakeGenerator{reply: `{"tagline": "no title or sections"}`})

	_, _, err := gen.Generate(context.Background(), BriefRequest{BusinessName: "Acme"})
	if err == nil {
		t.Fatal("Generate() expected validation error")
	}
	if !strings.Contains(err.Error(), "missing required fields") {
		t.Errorf("error = %v, want missing required fields", err)
	}
}

func TestGenerateRequiresBusinessName(t *testing.T) {
	gen := NewGenerator(&fakeGenerator{reply: "{}"})
	if _, _, err := gen.Generate(context.Background(), BriefRequest{}); err == nil {
		t.Fatal("Generate() expected error for empty business name")
	}
}

func TestDocumentValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     Document
		wantErr bool
	}{
		{
			name: "valid",
			doc: Document{
				Title:    "x",
				Sections: []Section{{ID: "hero", Heading: "h", Body: "b"}},
			},
		},
		{name: "no title", doc: Document{Sections: []Section{{Heading: "h"}}}, wantErr: true},
		{name: "no sections", doc: Document{Title: "x"}, wantErr: true},
		{
			name:    "empty section",
			doc:     Document{Title: "x", Sections: []Section{{ID: "hero"}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
