// Package plugins ships ready-made content-block types with one-line
// registration helpers. They cover the common cases — cleansed rich text,
// trusted raw HTML, template snippets, Markdown — and double as examples for
// application-defined plugin types.
package plugins

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"

	"github.com/goliatone/go-blockrender/pkg/cleanse"
	"github.com/goliatone/go-blockrender/pkg/render"
)

// RichText is editor-produced HTML, expected to be cleansed on save (see
// pkg/cleanse). It renders verbatim.
type RichText struct {
	Text string
}

// HTML is trusted raw markup, rendered verbatim. Meant for administrators
// embedding widgets or analytics snippets, not for end-user content.
type HTML struct {
	HTML string
}

// Snippet renders a template chosen per instance through its TemplateName
// field. The template shares the ambient context of the enclosing render and
// sees the instance as "plugin".
type Snippet struct {
	TemplateName string
}

// Markdown is CommonMark source converted to HTML at render time and passed
// through the default cleansing policy.
type Markdown struct {
	Source string
}

// RegisterRichText wires the RichText string strategy into r.
func RegisterRichText(r *render.Registry) error {
	return r.RegisterStringRenderer(RichText{}, func(plugin any) (string, error) {
		p, err := instance[RichText](plugin)
		if err != nil {
			return "", err
		}
		return p.Text, nil
	})
}

// RegisterHTML wires the HTML string strategy into r.
func RegisterHTML(r *render.Registry) error {
	return r.RegisterStringRenderer(HTML{}, func(plugin any) (string, error) {
		p, err := instance[HTML](plugin)
		if err != nil {
			return "", err
		}
		return p.HTML, nil
	})
}

// RegisterSnippet wires the Snippet template strategy into r. The template
// name is read from the instance when it renders, not when it registers.
func RegisterSnippet(r *render.Registry) error {
	return r.RegisterTemplateRenderer(Snippet{}, func(plugin any) (any, error) {
		p, err := instance[Snippet](plugin)
		if err != nil {
			return nil, err
		}
		return p.TemplateName, nil
	}, nil)
}

// RegisterMarkdown wires the Markdown string strategy into r.
func RegisterMarkdown(r *render.Registry) error {
	return r.RegisterStringRenderer(Markdown{}, func(plugin any) (string, error) {
		p, err := instance[Markdown](plugin)
		if err != nil {
			return "", err
		}

		var buf bytes.Buffer
		if err := goldmark.New().Convert([]byte(p.Source), &buf); err != nil {
			return "", fmt.Errorf("plugins: convert markdown: %w", err)
		}
		return cleanse.HTML(buf.String()), nil
	})
}

// RegisterAll wires every plugin type in this package into r.
func RegisterAll(r *render.Registry) error {
	for _, register := range []func(*render.Registry) error{
		RegisterRichText,
		RegisterHTML,
		RegisterSnippet,
		RegisterMarkdown,
	} {
		if err := register(r); err != nil {
			return err
		}
	}
	return nil
}

// instance unwraps the plugin value handed to a strategy, accepting both T
// and *T since the registry keys them identically.
func instance[T any](plugin any) (T, error) {
	switch v := plugin.(type) {
	case T:
		return v, nil
	case *T:
		if v != nil {
			return *v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("plugins: unexpected plugin instance %T", plugin)
}
