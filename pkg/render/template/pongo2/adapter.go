// Package pongo2 adapts a pongo2 template set to the template.Engine
// contract. Templates are loaded from a base directory, an fs.FS, or both,
// and cached after the first load.
package pongo2

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"
	"sync"

	pongo2lib "github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-blockrender/pkg/render/template"
)

// Option configures the adapter before construction.
type Option func(*config)

type config struct {
	baseDir    string
	templates  fs.FS
	extension  string
	templateFn map[string]any
	globalData map[string]any
}

// WithBaseDir loads templates from a directory on disk.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from an fs.FS, e.g. an embed.FS.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension overrides the extension appended to template names that
// carry none. The default is ".html".
func WithExtension(ext string) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// WithTemplateFunc registers helper functions or filters when the engine
// loads. A pongo2 filter function is registered as a filter; any other
// function becomes a global callable visible to every template.
func WithTemplateFunc(funcs map[string]any) Option {
	return func(cfg *config) {
		if len(funcs) == 0 {
			return
		}
		if cfg.templateFn == nil {
			cfg.templateFn = make(map[string]any, len(funcs))
		}
		for name, fn := range funcs {
			cfg.templateFn[strings.TrimSpace(name)] = fn
		}
	}
}

// WithGlobalData seeds values visible to every template rendered by this
// engine, below any ambient context variables.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globalData[strings.TrimSpace(key)] = value
		}
	}
}

// Engine satisfies template.Engine using a pongo2 template set.
type Engine struct {
	mu sync.RWMutex

	templateSet *pongo2lib.TemplateSet
	templates   map[string]*pongo2lib.Template
	tplExt      string
}

var _ template.Engine = (*Engine)(nil)

// New constructs an Engine from the provided options. At least one template
// source (base dir or fs.FS) is required.
func New(options ...Option) (*Engine, error) {
	cfg := &config{
		extension: ".html",
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	if cfg.baseDir == "" && cfg.templates == nil {
		return nil, errors.New("pongo2: need to provide either base dir or fs.FS")
	}

	var loaders []pongo2lib.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2lib.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("pongo2: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2lib.NewFSLoader(cfg.templates))
	}

	engine := &Engine{
		templateSet: pongo2lib.NewSet("blockrender", loaders...),
		templates:   make(map[string]*pongo2lib.Template),
		tplExt:      cfg.extension,
	}

	if len(cfg.globalData) > 0 {
		if engine.templateSet.Globals == nil {
			engine.templateSet.Globals = make(pongo2lib.Context)
		}
		engine.templateSet.Globals.Update(pongo2lib.Context(cfg.globalData))
	}
	for name, fn := range cfg.templateFn {
		if err := engine.registerTemplateFunc(name, fn); err != nil {
			return nil, fmt.Errorf("pongo2: register template func %q: %w", name, err)
		}
	}

	return engine, nil
}

func (e *Engine) registerTemplateFunc(name string, fn any) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || fn == nil {
		return nil
	}

	if filter, ok := fn.(pongo2lib.FilterFunction); ok {
		// Filters are process-wide in pongo2; an existing name stays as-is.
		if pongo2lib.FilterExists(trimmed) {
			return nil
		}
		return pongo2lib.RegisterFilter(trimmed, filter)
	}

	if !isCallable(fn) {
		return fmt.Errorf("pongo2: template func %q is not callable", trimmed)
	}

	if e.templateSet.Globals == nil {
		e.templateSet.Globals = make(pongo2lib.Context)
	}
	e.templateSet.Globals[trimmed] = fn
	return nil
}

func isCallable(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.IsValid() && rv.Kind() == reflect.Func
}

// GetTemplate returns the template stored under name. Names without an
// extension get the configured one appended.
func (e *Engine) GetTemplate(name string) (template.Template, error) {
	if e == nil || e.templateSet == nil {
		return nil, errors.New("pongo2: engine is nil")
	}
	return e.getTemplate(e.templatePath(name))
}

// SelectTemplate returns the first candidate that loads. pongo2 does not
// distinguish a missing template from a broken one, so a candidate that
// exists but fails to parse is skipped like a missing file; when no
// candidate loads, the error reports every attempt.
func (e *Engine) SelectTemplate(names []string) (template.Template, error) {
	if e == nil || e.templateSet == nil {
		return nil, errors.New("pongo2: engine is nil")
	}
	if len(names) == 0 {
		return nil, errors.New("pongo2: no template candidates given")
	}

	var errs []error
	for _, name := range names {
		tmpl, err := e.getTemplate(e.templatePath(name))
		if err == nil {
			return tmpl, nil
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("pongo2: none of the candidate templates %q could be loaded: %w", names, errors.Join(errs...))
}

// FromString parses a literal template source, bypassing the loaders.
func (e *Engine) FromString(source string) (template.Template, error) {
	if e == nil || e.templateSet == nil {
		return nil, errors.New("pongo2: engine is nil")
	}

	tmpl, err := e.templateSet.FromString(source)
	if err != nil {
		return nil, fmt.Errorf("pongo2: parse template string: %w", err)
	}
	return &boundTemplate{name: "<string>", tmpl: tmpl}, nil
}

func (e *Engine) templatePath(name string) string {
	if !strings.HasSuffix(name, e.tplExt) {
		return name + e.tplExt
	}
	return name
}

func (e *Engine) getTemplate(path string) (template.Template, error) {
	e.mu.RLock()
	if tmpl, ok := e.templates[path]; ok {
		e.mu.RUnlock()
		return &boundTemplate{name: path, tmpl: tmpl}, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.templates[path]; ok {
		return &boundTemplate{name: path, tmpl: tmpl}, nil
	}

	tmpl, err := e.templateSet.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("pongo2: load template %q: %w", path, err)
	}

	e.templates[path] = tmpl
	return &boundTemplate{name: path, tmpl: tmpl}, nil
}

// boundTemplate renders a parsed pongo2 template against the flattened
// visible state of the ambient context.
type boundTemplate struct {
	name string
	tmpl *pongo2lib.Template
}

var _ template.Template = (*boundTemplate)(nil)

func (t *boundTemplate) Render(ctx *template.Context) (string, error) {
	var vars map[string]any
	if ctx != nil {
		vars = ctx.Flatten()
	}

	out, err := t.tmpl.Execute(pongo2lib.Context(vars))
	if err != nil {
		return "", fmt.Errorf("pongo2: execute template %q: %w", t.name, err)
	}
	return out, nil
}
