package website

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"strings"
	"sync"

	"github.com/osteele/liquid"
)

// defaultTemplate renders a Document as a standalone HTML page
const defaultTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{ seo.title | default: title | escape }}</title>
<meta name="description" content="{{ seo.description | escape }}">
<style>
body { margin: 0; font-family: system-ui, sans-serif; background: {{ palette.background }}; color: {{ palette.text }}; }
header { background: {{ palette.primary }}; color: #fff; padding: 4rem 2rem; text-align: center; }
section { max-width: 720px; margin: 0 auto; padding: 3rem 2rem; }
.cta { display: inline-block; margin-top: 1rem; padding: 0.75rem 1.5rem; background: {{ palette.secondary }}; color: {{ palette.text }}; text-decoration: none; border-radius: 4px; }
</style>
</head>
<body>
<header>
<h1>{{ title | escape }}</h1>
<p>{{ tagline | escape }}</p>
</header>
{% for section in sections %}
<section id="{{ section.id }}">
<h2>{{ section.heading | escape }}</h2>
<p>{{ section.body | escape }}</p>
{% if section.cta %}<a class="cta" href="#contact">{{ section.cta | escape }}</a>{% endif %}
</section>
{% endfor %}
</body>
</html>`

// Renderer renders site documents to HTML through Liquid templates with
// custom filters and a parsed-template cache.
type Renderer struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template keyed by template MD5
}

// NewRenderer creates a renderer with the domain filters registered
func NewRenderer() *Renderer {
	r := &Renderer{engine: liquid.NewEngine()}
	r.registerFilters()
	return r
}

func (r *Renderer) registerFilters() {
	// Default value filter: {{ title | default: "Untitled" }}
	r.engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		strVal := fmt.Sprintf("%v", value)
		if strVal == "" || strVal == "<nil>" {
			return defaultVal
		}
		return value
	})

	// Truncate with ellipsis: {{ body | truncate: 160 }}
	r.engine.RegisterFilter("truncate", func(s string, length int) string {
		if len(s) <= length {
			return s
		}
		if length <= 3 {
			return s[:length]
		}
		return s[:length-3] + "..."
	})

	// HTML escape (safety): {{ heading | escape }}
	r.engine.RegisterFilter("escape", func(s string) string {
		return html.EscapeString(s)
	})

	// URL encode: {{ query | urlencode }}
	r.engine.RegisterFilter("urlencode", func(s string) string {
		return url.QueryEscape(s)
	})

	// Capitalize first letter: {{ word | capitalize }}
	r.engine.RegisterFilter("capitalize", func(s string) string {
		if len(s) == 0 {
			return s
		}
		return strings.ToUpper(string(s[0])) + strings.ToLower(s[1:])
	})
}

// Render renders a document with the default page template
func (r *Renderer) Render(doc *Document) (string, error) {
	return r.RenderTemplate(defaultTemplate, doc)
}

// RenderTemplate renders a document with a caller-supplied Liquid template
func (r *Renderer) RenderTemplate(source string, doc *Document) (string, error) {
	tmpl, err := r.parse(source)
	if err != nil {
		return "", fmt.Errorf("template parse failed: %w", err)
	}

	bindings, err := docBindings(doc)
	if err != nil {
		return "", err
	}

	out, err := tmpl.Render(bindings)
	if err != nil {
		return "", fmt.Errorf("template render failed: %w", err)
	}
	return string(out), nil
}

func (r *Renderer) parse(source string) (*liquid.Template, error) {
	key := fmt.Sprintf("%x", md5.Sum([]byte(source)))
	if cached, ok := r.cache.Load(key); ok {
		return cached.(*liquid.Template), nil
	}

	tmpl, err := r.engine.ParseTemplate([]byte(source))
	if err != nil {
		return nil, err
	}
	r.cache.Store(key, tmpl)
	return tmpl, nil
}

// docBindings flattens the document into Liquid bindings
func docBindings(doc *Document) (map[string]interface{}, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var bindings map[string]interface{}
	if err := json.Unmarshal(data, &bindings); err != nil {
		return nil, err
	}
	return bindings, nil
}
