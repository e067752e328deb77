// Package blockrender renders heterogeneous content-plugin instances
// attached to a page. Applications register one rendering strategy per
// plugin type — a string function or a template plus context builder — and
// dispatch instances through the registry; template strategies share the
// ambient rendering context of the enclosing template.
package blockrender

import (
	"github.com/goliatone/go-blockrender/pkg/render"
	"github.com/goliatone/go-blockrender/pkg/render/template"
)

// Registry maps plugin types to rendering strategies; alias exported via the
// root package for convenience.
type Registry = render.Registry

// Option configures a Registry during construction.
type Option = render.Option

// ContextBuilder assembles the variables overlaid while a plugin's template
// renders.
type ContextBuilder = render.ContextBuilder

// PluginNotRegisteredError reports dispatch of an unregistered plugin type.
type PluginNotRegisteredError = render.PluginNotRegisteredError

// Context is the scoped ambient rendering state shared between a page
// template and the plugins rendered inside it.
type Context = template.Context

// Engine is the template-engine seam; see pkg/render/template/pongo2 for the
// default adapter.
type Engine = template.Engine

// Template is anything that can render itself against an ambient Context.
type Template = template.Template

// New constructs a plugin renderer registry.
func New(options ...render.Option) *render.Registry {
	return render.New(options...)
}

// WithEngine injects the engine used to resolve template names during
// dispatch.
func WithEngine(engine template.Engine) render.Option {
	return render.WithEngine(engine)
}

// NewContext creates an ambient context seeded with vars, for callers
// rendering plugins outside an enclosing template.
func NewContext(vars map[string]any) *template.Context {
	return template.NewContext(vars)
}

// RenderInContext renders a template reference against ctx, overlaying local
// for the duration of the render only.
func RenderInContext(ctx *template.Context, tpl any, local map[string]any) (string, error) {
	return template.RenderInContext(ctx, tpl, local)
}

// DefaultContext is the context builder used when a template renderer is
// registered without one: a single "plugin" variable bound to the instance.
func DefaultContext(plugin any, ctx *template.Context) (map[string]any, error) {
	return render.DefaultContext(plugin, ctx)
}
