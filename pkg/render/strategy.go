package render

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-blockrender/pkg/render/template"
)

// StringRenderFunc produces final markup from a plugin instance alone. No
// template engine or ambient context is involved; the returned string is
// expected to be trusted, pre-escaped markup.
type StringRenderFunc func(plugin any) (string, error)

// ContextBuilder returns the local variables overlaid onto the ambient
// context while a plugin's template renders. It receives the live context so
// builders can read ambient state (the page, the request) when assembling
// their variables.
type ContextBuilder func(plugin any, ctx *template.Context) (map[string]any, error)

// DefaultContext is the builder used when none is given: a single variable
// named "plugin" bound to the instance being rendered.
func DefaultContext(plugin any, _ *template.Context) (map[string]any, error) {
	return map[string]any{"plugin": plugin}, nil
}

// templateSourceFunc resolves a plugin instance to a template reference.
// Literal sources are normalized into one of these at registration, so
// dispatch has a single resolve step instead of is-callable branching.
type templateSourceFunc func(plugin any) (any, error)

// strategy is the registered rendering behavior for one plugin type: either
// a string renderer, or a template source plus context builder.
type strategy struct {
	render StringRenderFunc
	source templateSourceFunc
	build  ContextBuilder
}

func (s strategy) isString() bool {
	return s.render != nil
}

// normalizeStringRenderer accepts a StringRenderFunc, a func(any) string, or
// a plain string returned verbatim for every instance.
func normalizeStringRenderer(renderer any) (StringRenderFunc, error) {
	switch v := renderer.(type) {
	case nil:
		return nil, errors.New("render: string renderer is required")
	case StringRenderFunc:
		return v, nil
	case func(plugin any) (string, error):
		return v, nil
	case func(plugin any) string:
		return func(plugin any) (string, error) {
			return v(plugin), nil
		}, nil
	case string:
		return func(any) (string, error) {
			return v, nil
		}, nil
	default:
		return nil, fmt.Errorf("render: unsupported string renderer %T", renderer)
	}
}

// normalizeTemplateSource accepts a literal template reference (a
// template.Name or string, a template.Names or []string list, or a resolved
// template.Template) or a resolver invoked with the plugin instance at
// render time.
func normalizeTemplateSource(source any) (templateSourceFunc, error) {
	switch v := source.(type) {
	case nil:
		return nil, errors.New("render: template source is required")
	case func(plugin any) (any, error):
		return v, nil
	case func(plugin any) any:
		return func(plugin any) (any, error) {
			return v(plugin), nil
		}, nil
	case template.Template, template.Name, template.Names, string, []string:
		return func(any) (any, error) {
			return v, nil
		}, nil
	default:
		return nil, fmt.Errorf("render: unsupported template source %T", source)
	}
}
