package template

import (
	"errors"
	"fmt"
)

// Template is anything that can render itself against an ambient context.
// Values implementing it are used as-is wherever a template reference is
// expected, which lets callers pre-resolve templates outside this package.
type Template interface {
	Render(ctx *Context) (string, error)
}

// Engine loads named templates. Implementations wrap a concrete template
// engine; see the pongo2 subpackage for the default adapter. Engines are
// injected explicitly, there is no process-wide default.
type Engine interface {
	// GetTemplate returns the template stored under name.
	GetTemplate(name string) (Template, error)
	// SelectTemplate returns the first template in names that exists.
	SelectTemplate(names []string) (Template, error)
}

// Name references a single named template.
type Name string

// Names references an ordered list of candidate templates; the first one the
// engine can load wins.
type Names []string

// ErrNoEngine is returned when a named template reference must be resolved
// but no engine is available.
var ErrNoEngine = errors.New("template: no engine available to resolve template name")

// Resolve turns a template reference into a renderable Template. Accepted
// references are a Template (returned unchanged), a Name or plain string, or
// a Names or []string candidate list. Anything else is an error.
func Resolve(engine Engine, ref any) (Template, error) {
	switch v := ref.(type) {
	case nil:
		return nil, errors.New("template: template reference is nil")
	case Template:
		return v, nil
	case Name:
		return getTemplate(engine, string(v))
	case string:
		return getTemplate(engine, v)
	case Names:
		return selectTemplate(engine, []string(v))
	case []string:
		return selectTemplate(engine, v)
	default:
		return nil, fmt.Errorf("template: unsupported template reference %T", ref)
	}
}

func getTemplate(engine Engine, name string) (Template, error) {
	if engine == nil {
		return nil, ErrNoEngine
	}
	return engine.GetTemplate(name)
}

func selectTemplate(engine Engine, names []string) (Template, error) {
	if engine == nil {
		return nil, ErrNoEngine
	}
	return engine.SelectTemplate(names)
}
