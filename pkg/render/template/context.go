package template

import "maps"

// Context is the ambient rendering state shared between an enclosing page
// template and the plugins rendered inside it. It is a stack of variable
// scopes: lookups walk the stack top-down, writes land in the top scope, and
// Push adds a temporary overlay that the returned pop function removes.
//
// A Context belongs to a single render pass and is not safe for concurrent
// use. It may carry the engine it was rendered with, so nested renders
// resolve template names against the same engine as the enclosing template.
type Context struct {
	engine Engine
	scopes []map[string]any
}

// NewContext returns a context whose base scope holds a copy of vars. A nil
// vars map yields an empty base scope.
func NewContext(vars map[string]any) *Context {
	base := make(map[string]any, len(vars))
	maps.Copy(base, vars)
	return &Context{scopes: []map[string]any{base}}
}

// BindEngine attaches the engine used to resolve template names during
// renders that share this context.
func (c *Context) BindEngine(engine Engine) {
	c.engine = engine
}

// Engine returns the bound engine, or nil.
func (c *Context) Engine() Engine {
	if c == nil {
		return nil
	}
	return c.engine
}

// Push overlays vars as a new scope and returns the function that removes
// it. The caller must invoke pop exactly once, typically via defer, so the
// overlay is gone on every exit path. vars is copied; later mutation of the
// caller's map does not affect the scope.
func (c *Context) Push(vars map[string]any) (pop func()) {
	scope := make(map[string]any, len(vars))
	maps.Copy(scope, vars)
	c.scopes = append(c.scopes, scope)

	depth := len(c.scopes) - 1
	popped := false
	return func() {
		if popped || len(c.scopes) <= depth {
			return
		}
		c.scopes = c.scopes[:depth]
		popped = true
	}
}

// Set stores value under key in the top scope.
func (c *Context) Set(key string, value any) {
	c.scopes[len(c.scopes)-1][key] = value
}

// Get looks key up from the top scope downwards.
func (c *Context) Get(key string) (any, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if value, ok := c.scopes[i][key]; ok {
			return value, true
		}
	}
	return nil, false
}

// Depth reports the number of scopes currently on the stack.
func (c *Context) Depth() int {
	return len(c.scopes)
}

// Flatten merges all scopes into a single map, top scopes shadowing lower
// ones. Engine adapters use it to hand the visible state to engines that
// expect a flat variable map.
func (c *Context) Flatten() map[string]any {
	out := make(map[string]any)
	for _, scope := range c.scopes {
		maps.Copy(out, scope)
	}
	return out
}
