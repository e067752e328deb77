package render

import "github.com/goliatone/go-blockrender/pkg/render/template"

// Option configures a Registry during construction.
type Option func(*Registry)

// WithEngine sets the engine used to resolve template names when neither the
// caller's context carries one nor a fresh context is being created. The
// engine is injected here instead of looked up from process-wide state.
func WithEngine(engine template.Engine) Option {
	return func(r *Registry) {
		r.engine = engine
	}
}
