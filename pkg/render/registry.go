// Package render maps content-plugin types to rendering strategies and
// dispatches instances through them. Template strategies render via the
// ambient context of the enclosing template, so plugin templates can read
// page-level variables without the caller re-threading them.
package render

import (
	"errors"
	"reflect"
	"sync"

	"github.com/goliatone/go-blockrender/pkg/render/template"
)

// Registry stores one rendering strategy per plugin type. Registration is an
// atomic replace: registering a type again overwrites its strategy while
// keeping the original position in the registration order.
//
// The map is guarded, but the usual lifecycle is register everything during
// application startup and treat the registry as read-only afterwards.
type Registry struct {
	mu         sync.RWMutex
	engine     template.Engine
	order      []reflect.Type
	strategies map[reflect.Type]strategy
}

// New creates an empty registry.
func New(options ...Option) *Registry {
	r := &Registry{
		strategies: make(map[reflect.Type]strategy),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// RegisterStringRenderer stores a string strategy for prototype's type.
// renderer is a StringRenderFunc, a func(any) string, or a plain string
// returned verbatim. String strategies never touch the ambient context.
func (r *Registry) RegisterStringRenderer(prototype, renderer any) error {
	key := pluginType(prototype)
	if key == nil {
		return errors.New("render: plugin prototype is required")
	}

	fn, err := normalizeStringRenderer(renderer)
	if err != nil {
		return err
	}

	r.store(key, strategy{render: fn})
	return nil
}

// MustRegisterStringRenderer panics on registration failure. Useful for
// init-time wiring.
func (r *Registry) MustRegisterStringRenderer(prototype, renderer any) {
	if err := r.RegisterStringRenderer(prototype, renderer); err != nil {
		panic(err)
	}
}

// RegisterTemplateRenderer stores a template strategy for prototype's type.
//
// source is a template reference (template.Name or string, template.Names or
// []string, or a resolved template.Template), or a resolver receiving the
// plugin instance and returning any of those. Resolvers run at render time,
// so a template choice can depend on per-instance data.
//
// build assembles the variables overlaid onto the ambient context while the
// template renders; nil means DefaultContext, which exposes the instance as
// "plugin".
func (r *Registry) RegisterTemplateRenderer(prototype, source any, build ContextBuilder) error {
	key := pluginType(prototype)
	if key == nil {
		return errors.New("render: plugin prototype is required")
	}

	fn, err := normalizeTemplateSource(source)
	if err != nil {
		return err
	}
	if build == nil {
		build = DefaultContext
	}

	r.store(key, strategy{source: fn, build: build})
	return nil
}

// MustRegisterTemplateRenderer panics on registration failure.
func (r *Registry) MustRegisterTemplateRenderer(prototype, source any, build ContextBuilder) {
	if err := r.RegisterTemplateRenderer(prototype, source, build); err != nil {
		panic(err)
	}
}

// Plugins returns every registered plugin type in registration order,
// typically handed to the content-enumeration side so it knows which types
// are renderable.
func (r *Registry) Plugins() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]reflect.Type, len(r.order))
	copy(out, r.order)
	return out
}

// Has reports whether prototype's type has a registered strategy.
func (r *Registry) Has(prototype any) bool {
	key := pluginType(prototype)
	if key == nil {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.strategies[key]
	return ok
}

// RenderPluginInContext renders one plugin instance. String strategies get
// the instance alone. Template strategies resolve their source and builder
// lazily, then render through template.RenderInContext so the plugin's
// template shares ctx with the enclosing render; ctx comes back with
// identical visible state whether rendering succeeds or fails.
//
// A nil ctx gets a fresh context bound to the registry engine. A caller ctx
// without a bound engine falls back to the registry engine for name
// resolution. Unregistered types fail with *PluginNotRegisteredError.
func (r *Registry) RenderPluginInContext(plugin any, ctx *template.Context) (string, error) {
	key := pluginType(plugin)
	if key == nil {
		return "", errors.New("render: plugin instance is required")
	}

	r.mu.RLock()
	strat, ok := r.strategies[key]
	engine := r.engine
	r.mu.RUnlock()

	if !ok {
		return "", &PluginNotRegisteredError{PluginType: key}
	}

	if strat.isString() {
		return strat.render(plugin)
	}

	if ctx == nil {
		ctx = template.NewContext(nil)
		ctx.BindEngine(engine)
	}

	ref, err := strat.source(plugin)
	if err != nil {
		return "", err
	}
	local, err := strat.build(plugin, ctx)
	if err != nil {
		return "", err
	}

	// The bridge resolves names against the context-bound engine; when the
	// caller's context has none, resolve against the registry engine here
	// instead of mutating the caller's binding.
	if ctx.Engine() == nil && engine != nil {
		resolved, err := template.Resolve(engine, ref)
		if err != nil {
			return "", err
		}
		ref = resolved
	}

	return template.RenderInContext(ctx, ref, local)
}

// pluginType returns the registry key for a plugin value: its runtime type
// with pointers dereferenced, so *T and T share one strategy.
func pluginType(v any) reflect.Type {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

func (r *Registry) store(key reflect.Type, strat strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.strategies[key]; !exists {
		r.order = append(r.order, key)
	}
	r.strategies[key] = strat
}
