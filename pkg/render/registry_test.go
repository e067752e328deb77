package render

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-blockrender/pkg/render/template"
)

type richText struct {
	Text string
}

type snippet struct {
	TemplateName string
}

type team struct {
	Name string
}

type gallery struct{}

// stubTemplate renders "<name>|<plugin>" from the visible variables, or
// fails on demand.
type stubTemplate struct {
	name string
	fail error

	renders int
}

func (s *stubTemplate) Render(ctx *template.Context) (string, error) {
	s.renders++
	if s.fail != nil {
		return "", s.fail
	}
	plugin, _ := ctx.Get("plugin")
	return fmt.Sprintf("%s|%v", s.name, plugin), nil
}

type stubEngine struct {
	templates map[string]*stubTemplate
	gets      []string
	selects   [][]string
}

func newStubEngine(names ...string) *stubEngine {
	e := &stubEngine{templates: make(map[string]*stubTemplate)}
	for _, name := range names {
		e.templates[name] = &stubTemplate{name: name}
	}
	return e
}

func (e *stubEngine) GetTemplate(name string) (template.Template, error) {
	e.gets = append(e.gets, name)
	tmpl, ok := e.templates[name]
	if !ok {
		return nil, fmt.Errorf("stub: template %q does not exist", name)
	}
	return tmpl, nil
}

func (e *stubEngine) SelectTemplate(names []string) (template.Template, error) {
	e.selects = append(e.selects, names)
	for _, name := range names {
		if tmpl, ok := e.templates[name]; ok {
			return tmpl, nil
		}
	}
	return nil, fmt.Errorf("stub: none of %q exist", names)
}

func (e *stubEngine) touched() bool {
	return len(e.gets) > 0 || len(e.selects) > 0
}

func TestStringRendererVerbatim(t *testing.T) {
	registry := New()
	if err := registry.RegisterStringRenderer(richText{}, func(plugin any) (string, error) {
		return plugin.(richText).Text, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	out, err := registry.RenderPluginInContext(richText{Text: "<p>hi</p>"}, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "<p>hi</p>" {
		t.Fatalf("expected verbatim output, got %q", out)
	}
}

func TestPerInstanceTemplateSelection(t *testing.T) {
	engine := newStubEngine("snippets/box.html")
	registry := New(WithEngine(engine))

	err := registry.RegisterTemplateRenderer(snippet{}, func(plugin any) any {
		return plugin.(snippet).TemplateName
	}, nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	out, err := registry.RenderPluginInContext(snippet{TemplateName: "snippets/box.html"}, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "snippets/box.html|{snippets/box.html}"; out != want {
		t.Fatalf("expected %q, got %q", want, out)
	}
}

func TestCustomContextBuilder(t *testing.T) {
	engine := newStubEngine("team.html")
	registry := New(WithEngine(engine))

	var builderCtx *template.Context
	err := registry.RegisterTemplateRenderer(team{}, "team.html",
		func(plugin any, ctx *template.Context) (map[string]any, error) {
			builderCtx = ctx
			return map[string]any{"persons": []string{"p1", "p2", "p3"}}, nil
		})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := registry.RenderPluginInContext(team{Name: "core"}, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if builderCtx == nil {
		t.Fatalf("builder must always receive a real context object")
	}
}

func TestUnregisteredPluginFails(t *testing.T) {
	engine := newStubEngine()
	registry := New(WithEngine(engine))

	_, err := registry.RenderPluginInContext(gallery{}, nil)

	var notRegistered *PluginNotRegisteredError
	if !errors.As(err, &notRegistered) {
		t.Fatalf("expected PluginNotRegisteredError, got %v", err)
	}
	if notRegistered.PluginType != reflect.TypeOf(gallery{}) {
		t.Fatalf("error should carry the plugin type, got %v", notRegistered.PluginType)
	}
	if !strings.Contains(err.Error(), "gallery") {
		t.Fatalf("expected error to name the type, got %q", err.Error())
	}
	if engine.touched() {
		t.Fatalf("engine must not be consulted for unregistered plugins")
	}
}

func TestLastRegistrationWins(t *testing.T) {
	registry := New()
	registry.MustRegisterStringRenderer(richText{}, "first")
	registry.MustRegisterStringRenderer(richText{}, "second")

	out, err := registry.RenderPluginInContext(richText{}, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "second" {
		t.Fatalf("expected last registration to win, got %q", out)
	}
}

func TestReRegistrationSwitchesStrategyKind(t *testing.T) {
	engine := newStubEngine("rich.html")
	registry := New(WithEngine(engine))

	registry.MustRegisterTemplateRenderer(richText{}, "rich.html", nil)
	registry.MustRegisterStringRenderer(richText{}, func(plugin any) (string, error) {
		return plugin.(richText).Text, nil
	})

	out, err := registry.RenderPluginInContext(richText{Text: "plain"}, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "plain" {
		t.Fatalf("expected the string strategy only, got %q", out)
	}
	if engine.touched() {
		t.Fatalf("replaced template strategy still reached the engine")
	}
}

func TestPluginsReturnsRegistrationOrder(t *testing.T) {
	registry := New()
	registry.MustRegisterStringRenderer(richText{}, "a")
	registry.MustRegisterTemplateRenderer(snippet{}, "s.html", nil)
	registry.MustRegisterStringRenderer(team{}, "b")
	// Re-registration keeps the original position.
	registry.MustRegisterStringRenderer(richText{}, "c")

	want := []reflect.Type{
		reflect.TypeOf(richText{}),
		reflect.TypeOf(snippet{}),
		reflect.TypeOf(team{}),
	}
	if got := registry.Plugins(); !reflect.DeepEqual(want, got) {
		t.Fatalf("plugins order mismatch: want %v, got %v", want, got)
	}
}

func TestStringStrategyPurity(t *testing.T) {
	engine := newStubEngine()
	registry := New(WithEngine(engine))

	var seen any
	registry.MustRegisterStringRenderer(richText{}, func(plugin any) (string, error) {
		seen = plugin
		return "ok", nil
	})

	ctx := template.NewContext(map[string]any{"page": "home"})
	instance := richText{Text: "t"}
	if _, err := registry.RenderPluginInContext(instance, ctx); err != nil {
		t.Fatalf("render: %v", err)
	}

	if seen != instance {
		t.Fatalf("renderer must receive exactly the plugin instance, got %v", seen)
	}
	if ctx.Depth() != 1 {
		t.Fatalf("string strategy touched the ambient context, depth %d", ctx.Depth())
	}
	if engine.touched() {
		t.Fatalf("string strategy reached the template engine")
	}
}

func TestContextNonLeakage(t *testing.T) {
	for _, tc := range []struct {
		name string
		fail error
	}{
		{name: "success"},
		{name: "template failure", fail: errors.New("boom")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			engine := newStubEngine()
			engine.templates["a.html"] = &stubTemplate{name: "a.html", fail: tc.fail}
			registry := New(WithEngine(engine))
			registry.MustRegisterTemplateRenderer(richText{}, "a.html", nil)

			ctx := template.NewContext(map[string]any{"page": "home"})
			ctx.BindEngine(engine)
			before := ctx.Flatten()

			_, err := registry.RenderPluginInContext(richText{}, ctx)
			if tc.fail != nil && !errors.Is(err, tc.fail) {
				t.Fatalf("expected template error to propagate, got %v", err)
			}
			if tc.fail == nil && err != nil {
				t.Fatalf("render: %v", err)
			}

			if ctx.Depth() != 1 {
				t.Fatalf("scope depth changed: %d", ctx.Depth())
			}
			if diff := cmp.Diff(before, ctx.Flatten()); diff != "" {
				t.Fatalf("visible state changed (-before +after):\n%s", diff)
			}
		})
	}
}

func TestLazyTemplateResolution(t *testing.T) {
	engine := newStubEngine("old.html", "new.html")
	registry := New(WithEngine(engine))

	registry.MustRegisterTemplateRenderer(snippet{}, func(plugin any) any {
		return plugin.(*snippet).TemplateName
	}, nil)

	instance := &snippet{TemplateName: "old.html"}
	instance.TemplateName = "new.html"

	out, err := registry.RenderPluginInContext(instance, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(out, "new.html|") {
		t.Fatalf("template resolved at registration time, got %q", out)
	}
	if len(engine.gets) != 1 || engine.gets[0] != "new.html" {
		t.Fatalf("expected a single lookup of new.html, got %v", engine.gets)
	}
}

func TestDefaultContextBuilder(t *testing.T) {
	recorded := &varsRecordingTemplate{}
	registry := New(WithEngine(recordingEngine{recorded}))
	registry.MustRegisterTemplateRenderer(richText{}, "r.html", nil)

	instance := richText{Text: "t"}
	if _, err := registry.RenderPluginInContext(instance, nil); err != nil {
		t.Fatalf("render: %v", err)
	}

	want := map[string]any{"plugin": instance}
	if diff := cmp.Diff(want, recorded.vars); diff != "" {
		t.Fatalf("default context mismatch (-want +got):\n%s", diff)
	}
}

// varsRecordingTemplate captures exactly the variables visible at render time.
type varsRecordingTemplate struct {
	vars map[string]any
}

func (v *varsRecordingTemplate) Render(ctx *template.Context) (string, error) {
	v.vars = ctx.Flatten()
	return "", nil
}

type recordingEngine struct {
	tmpl *varsRecordingTemplate
}

func (e recordingEngine) GetTemplate(string) (template.Template, error) {
	return e.tmpl, nil
}

func (e recordingEngine) SelectTemplate([]string) (template.Template, error) {
	return e.tmpl, nil
}

func TestRegistryEngineFallback(t *testing.T) {
	engine := newStubEngine("a.html")
	registry := New(WithEngine(engine))
	registry.MustRegisterTemplateRenderer(richText{}, "a.html", nil)

	// Caller context without a bound engine: the registry engine resolves.
	ctx := template.NewContext(nil)
	if _, err := registry.RenderPluginInContext(richText{}, ctx); err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(engine.gets) != 1 {
		t.Fatalf("expected registry engine to resolve the name, gets=%v", engine.gets)
	}
	if ctx.Engine() != nil {
		t.Fatalf("dispatch must not bind an engine onto the caller's context")
	}
}

func TestRenderWithoutAnyEngine(t *testing.T) {
	registry := New()
	registry.MustRegisterTemplateRenderer(richText{}, "a.html", nil)

	_, err := registry.RenderPluginInContext(richText{}, nil)
	if !errors.Is(err, template.ErrNoEngine) {
		t.Fatalf("expected ErrNoEngine, got %v", err)
	}
}

func TestResolverAndBuilderErrorsPropagate(t *testing.T) {
	resolverErr := errors.New("resolver broke")
	builderErr := errors.New("builder broke")
	engine := newStubEngine("a.html")

	registry := New(WithEngine(engine))
	registry.MustRegisterTemplateRenderer(richText{}, func(any) (any, error) {
		return nil, resolverErr
	}, nil)
	registry.MustRegisterTemplateRenderer(snippet{}, "a.html",
		func(any, *template.Context) (map[string]any, error) {
			return nil, builderErr
		})

	if _, err := registry.RenderPluginInContext(richText{}, nil); !errors.Is(err, resolverErr) {
		t.Fatalf("expected resolver error unchanged, got %v", err)
	}
	if _, err := registry.RenderPluginInContext(snippet{}, nil); !errors.Is(err, builderErr) {
		t.Fatalf("expected builder error unchanged, got %v", err)
	}
}

func TestPointerAndValueShareStrategy(t *testing.T) {
	registry := New()
	registry.MustRegisterStringRenderer(richText{}, func(plugin any) (string, error) {
		switch v := plugin.(type) {
		case richText:
			return v.Text, nil
		case *richText:
			return v.Text, nil
		}
		return "", fmt.Errorf("unexpected instance %T", plugin)
	})

	if out, err := registry.RenderPluginInContext(&richText{Text: "ptr"}, nil); err != nil || out != "ptr" {
		t.Fatalf("pointer instance: out=%q err=%v", out, err)
	}
	if !registry.Has(&richText{}) || !registry.Has(richText{}) {
		t.Fatalf("Has should accept pointer and value prototypes")
	}
}

func TestRegisterValidation(t *testing.T) {
	registry := New()

	if err := registry.RegisterStringRenderer(nil, "x"); err == nil {
		t.Fatalf("expected error for nil prototype")
	}
	if err := registry.RegisterStringRenderer(richText{}, 42); err == nil {
		t.Fatalf("expected error for unsupported renderer type")
	}
	if err := registry.RegisterTemplateRenderer(richText{}, nil, nil); err == nil {
		t.Fatalf("expected error for nil template source")
	}
	if err := registry.RegisterTemplateRenderer(richText{}, 42, nil); err == nil {
		t.Fatalf("expected error for unsupported template source")
	}
	if _, err := registry.RenderPluginInContext(nil, nil); err == nil {
		t.Fatalf("expected error for nil plugin instance")
	}
}

func TestLiteralStringRenderer(t *testing.T) {
	registry := New()
	registry.MustRegisterStringRenderer(richText{}, "<hr>")

	out, err := registry.RenderPluginInContext(richText{}, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "<hr>" {
		t.Fatalf("expected literal markup, got %q", out)
	}
}
