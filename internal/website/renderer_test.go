package website

import (
	"strings"
	"testing"
)

func testDocument() *Document {
	return &Document{
		Title:   "Blue Bottle Bakery",
		Tagline: "Fresh bread daily",
		Sections: []Section{
			{ID: "hero", Heading: "Welcome", Body: "Artisan bread & pastry.", CTA: "Order Now"},
			{ID: "about", Heading: "About", Body: "Family owned since 1998."},
		},
		Palette: Palette{Primary: "#112233", Secondary: "#445566", Background: "#ffffff", Text: "#000000"},
		SEO:     SEO{Title: "Blue Bottle Bakery", Description: "Artisan bakery"},
	}
}

func TestRender(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render(testDocument())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	for _, want := range []string{
		"<title>Blue Bottle Bakery</title>",
		"Fresh bread daily",
		`<section id="hero">`,
		"Order Now",
		"Family owned since 1998.",
		"background: #ffffff",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered page missing %q", want)
		}
	}
}

func TestRenderEscapesContent(t *testing.T) {
	r := NewRenderer()
	doc := testDocument()
	doc.Sections[0].Body = `<script>alert("x")</script>`

	out, err := r.Render(doc)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(out, "<script>alert") {
		t.Error("section body not escaped")
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Error("escaped body not present")
	}
}

func TestRenderSectionWithoutCTA(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render(testDocument())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	// The about section has no CTA; only one cta link should render
	if got := strings.Count(out, `class="cta"`); got != 1 {
		t.Errorf("cta link count = %d, want 1", got)
	}
}

func TestRenderTemplateCaching(t *testing.T) {
	r := NewRenderer()
	doc := testDocument()

	first, err := r.RenderTemplate("{{ title }}", doc)
	if err != nil {
		t.Fatalf("RenderTemplate() error = %v", err)
	}
	second, err := r.RenderTemplate("{{ title }}", doc)
	if err != nil {
		t.Fatalf("RenderTemplate() second call error = %v", err)
	}
	if first != second || first != "Blue Bottle Bakery" {
		t.Errorf("cached render = %q / %q", first, second)
	}
}

func TestRenderCustomFilters(t *testing.T) {
	r := NewRenderer()
	doc := testDocument()
	doc.Tagline = ""

	out, err := r.RenderTemplate(`{{ tagline | default: "A fine business" }}`, doc)
	if err != nil {
		t.Fatalf("RenderTemplate() error = %v", err)
	}
	if out != "A fine business" {
		t.Errorf("default filter output = %q", out)
	}

	out, err = r.RenderTemplate(`{{ title | truncate: 8 }}`, doc)
	if err != nil {
		t.Fatalf("RenderTemplate() error = %v", err)
	}
	if out != "Blue ..." {
		t.Errorf("truncate filter output = %q", out)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Blue Bottle Bakery", "blue-bottle-bakery"},
		{"  acme  plumbing  ", "acme-plumbing"},
		{"Already-Slugged", "already-slugged"},
		{"weird!!chars##here", "weird-chars-here"},
	}

	for _, tt := range tests {
		if got := slugify(tt.in); got != tt.want {
			t.Errorf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
