package template

// RenderInContext renders a template reference against the caller's ambient
// context, overlaying local for the duration of the render only. The context
// is borrowed, not copied: the template sees every variable already visible
// to the enclosing render, and the overlay is popped on every exit path, so
// the context comes back with identical visible state whether the render
// succeeded or failed.
//
// A nil ctx gets a fresh empty context. tpl accepts everything Resolve does;
// names are resolved against the context-bound engine. Resolution and
// execution errors propagate unchanged.
func RenderInContext(ctx *Context, tpl any, local map[string]any) (string, error) {
	if ctx == nil {
		ctx = NewContext(nil)
	}

	resolved, err := Resolve(ctx.Engine(), tpl)
	if err != nil {
		return "", err
	}

	pop := ctx.Push(local)
	defer pop()

	return resolved.Render(ctx)
}
