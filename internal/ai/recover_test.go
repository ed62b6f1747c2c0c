package ai

import (
	"context"
	"fmt"
	"reflect"
	"testing"
)

func TestRecoverFencedJSON(t *testing.T) {
	fb := map[string]interface{}{"subject": "default"}

	tests := []struct {
		name string
		raw  string
		want map[string]interface{}
	}{
		{
			name: "json fence",
			raw:  "```json\n{\"a\":1}\n```",
			want: map[string]interface{}{"a": float64(1)},
		},
		{
			name: "bare fence",
			raw:  "```\n{\"a\":1}\n```",
			want: map[string]interface{}{"a": float64(1)},
		},
		{
			name: "no fence",
			raw:  `{"a":1}`,
			want: map[string]interface{}{"a": float64(1)},
		},
		{
			name: "fence with surrounding whitespace",
			raw:  "  \n```json\n{\"title\":\"Home\",\"n\":2}\n```\n  ",
			want: map[string]interface{}{"title": "Home", "n": float64(2)},
		},
		{
			name: "nested object",
			raw:  "```json\n{\"seo\":{\"title\":\"x\"},\"sections\":[{\"id\":\"hero\"}]}\n```",
			want: map[string]interface{}{
				"seo":      map[string]interface{}{"title": "x"},
				"sections": []interface{}{map[string]interface{}{"id": "hero"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Recover(tt.raw, fb)
			if res.Fallback {
				t.Fatalf("Recover(%q) returned fallback, want parsed", tt.raw)
			}
			if !reflect.DeepEqual(res.Value, tt.want) {
				t.Errorf("Recover(%q) = %v, want %v", tt.raw, res.Value, tt.want)
			}
		})
	}
}

func TestRecoverProseAroundJSON(t *testing.T) {
	fb := map[string]interface{}{"x": true}

	raw := "Sure! Here's your data: {\"a\":1} Hope that helps!"
	res := Recover(raw, fb)
	if res.Fallback {
		t.Fatalf("Recover(%q) returned fallback, want parsed", raw)
	}
	want := map[string]interface{}{"a": float64(1)}
	if !reflect.DeepEqual(res.Value, want) {
		t.Errorf("Recover(%q) = %v, want %v", raw, res.Value, want)
	}
}

func TestRecoverFallback(t *testing.T) {
	fb := map[string]interface{}{"subject": "AI-Generated Campaign"}

	tests := []struct {
		name string
		raw  string
	}{
		{"no braces", "not json at all"},
		{"empty input", ""},
		{"whitespace only", "   \n\t  "},
		{"open brace only", "here it comes {\"a\":"},
		{"close brace before open", "} nothing {"},
		{"unparseable candidate", "{this is not json}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Recover(tt.raw, fb)
			if !res.Fallback {
				t.Fatalf("Recover(%q) = %v, want fallback", tt.raw, res.Value)
			}
			if !reflect.DeepEqual(res.Value, fb) {
				t.Errorf("fallback value = %v, want %v", res.Value, fb)
			}
			if res.RawText != tt.raw {
				t.Errorf("raw text = %q, want %q", res.RawText, tt.raw)
			}
		})
	}
}

func TestRecoverControlCharacterCleanup(t *testing.T) {
	fb := map[string]interface{}{}

	// A literal control character inside a string fails strict parsing; the
	// cleanup pass removes it and the retry succeeds.
	raw := "{\"a\":\"hi\x01there\"}"
	res := Recover(raw, fb)
	if res.Fallback {
		t.Fatalf("Recover with control char returned fallback")
	}
	if res.Value["a"] != "hithere" {
		t.Errorf("cleaned value = %q, want %q", res.Value["a"], "hithere")
	}
}

func TestRecoverOuterBraceSpan(t *testing.T) {
	fb := map[string]interface{}{"d": true}

	// Two objects: the span from the first '{' to the last '}' is taken as
	// one candidate, which does not parse, so the fallback wins. Documented
	// behavior of the greedy outer match.
	raw := `{"a":1} and also {"b":2}`
	res := Recover(raw, fb)
	if !res.Fallback {
		t.Fatalf("Recover(%q) = %v, want fallback from over-captured span", raw, res.Value)
	}
}

func TestRecoverNeverPanics(t *testing.T) {
	inputs := []string{
		"", "{", "}", "{}", "```json```", "```{```}```",
		"\x00\x01\x02", "{\"a\":}", "prose { more prose } end",
	}
	for _, in := range inputs {
		res := Recover(in, nil)
		_ = res
	}
}

func TestDecode(t *testing.T) {
	type subject struct {
		Subject string `json:"subject"`
		Tone    string `json:"tone"`
	}

	res := Recover("```json\n{\"subject\":\"Hello\",\"tone\":\"casual\"}\n```", nil)
	var s subject
	if err := Decode(res, &s); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if s.Subject != "Hello" || s.Tone != "casual" {
		t.Errorf("Decode() = %+v, want subject=Hello tone=casual", s)
	}
}

type stubGenerator struct {
	name string
	out  string
	err  error
}

func (s *stubGenerator) Name() string { return s.name }
func (s *stubGenerator) Generate(ctx context.Context, req Request) (string, error) {
	return s.out, s.err
}

func TestChainFallsThroughProviders(t *testing.T) {
	chain := NewChain(
		&stubGenerator{name: "a", err: fmt.Errorf("rate limited")},
		&stubGenerator{name: "b", out: "from b"},
	)

	out, err := chain.Generate(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out != "from b" {
		t.Errorf("Generate() = %q, want %q", out, "from b")
	}
}

func TestChainAllFail(t *testing.T) {
	chain := NewChain(
		&stubGenerator{name: "a", err: fmt.Errorf("boom")},
		nil,
	)

	if _, err := chain.Generate(context.Background(), Request{Prompt: "hi"}); err == nil {
		t.Fatal("Generate() expected error when all providers fail")
	}
}

func TestChainEmpty(t *testing.T) {
	chain := NewChain(nil, nil)
	if _, err := chain.Generate(context.Background(), Request{Prompt: "hi"}); err == nil {
		t.Fatal("Generate() expected error with no providers")
	}
}
