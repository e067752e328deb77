package render

import (
	"errors"
	"fmt"
	"io"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-blockrender/pkg/render/template"
)

// Manifest repoints the templates of already-registered plugin types, so a
// deployment can swap template files without recompiling. It only affects
// template strategies; the context builders stay as registered.
type Manifest struct {
	Plugins []ManifestEntry `yaml:"plugins"`
}

// ManifestEntry overrides the template source for one plugin type,
// identified by its Go type name ("plugins.RichText" or just "RichText").
// Exactly one of Template or Candidates must be set.
type ManifestEntry struct {
	Type       string   `yaml:"type"`
	Template   string   `yaml:"template,omitempty"`
	Candidates []string `yaml:"candidates,omitempty"`
}

// LoadManifest decodes and validates a YAML manifest.
func LoadManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("render: decode manifest: %w", err)
	}
	for i, entry := range m.Plugins {
		if entry.Type == "" {
			return nil, fmt.Errorf("render: manifest entry %d: type is required", i)
		}
		if (entry.Template == "") == (len(entry.Candidates) == 0) {
			return nil, fmt.Errorf("render: manifest entry %q: exactly one of template or candidates is required", entry.Type)
		}
	}
	return &m, nil
}

// ApplyManifest replaces the template source of each named type. Entries
// naming unknown types, or types registered with a string strategy, are
// errors: a silently ignored override would leave stale templates in use.
func (r *Registry) ApplyManifest(m *Manifest) error {
	if m == nil {
		return errors.New("render: manifest is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range m.Plugins {
		key, err := r.findTypeLocked(entry.Type)
		if err != nil {
			return err
		}

		strat := r.strategies[key]
		if strat.isString() {
			return fmt.Errorf("render: plugin type %q uses a string renderer, its template cannot be overridden", entry.Type)
		}

		var ref any
		if entry.Template != "" {
			ref = template.Name(entry.Template)
		} else {
			ref = template.Names(entry.Candidates)
		}
		source, err := normalizeTemplateSource(ref)
		if err != nil {
			return err
		}
		strat.source = source
		r.strategies[key] = strat
	}
	return nil
}

// findTypeLocked matches a manifest type name against registered types,
// accepting either the package-qualified form ("plugins.RichText") or the
// bare type name when only one registered type carries it.
func (r *Registry) findTypeLocked(name string) (reflect.Type, error) {
	for _, t := range r.order {
		if t.String() == name {
			return t, nil
		}
	}

	var match reflect.Type
	for _, t := range r.order {
		if t.Name() != name {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("render: ambiguous plugin type name %q, use the package-qualified form", name)
		}
		match = t
	}
	if match == nil {
		return nil, fmt.Errorf("render: manifest references unregistered plugin type %q", name)
	}
	return match, nil
}
