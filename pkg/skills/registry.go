package skills

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/emberline/skillbus/pkg/protocol"
)

const logPrefix = "skills:registry"

// Registry is the read-only skill catalog, keyed by name. Built once at
// startup; lookups never mutate state, so concurrent reads need no locking.
type Registry struct {
	defs  map[string]*Definition
	order []string
}

// NewRegistry builds a Registry from definitions, validating each entry:
// unique non-empty name, a channel, a handler, and a parseable semver
// version.
func NewRegistry(defs []*Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]*Definition, len(defs))}
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("%s - skill with empty name", logPrefix)
		}
		if _, exists := r.defs[def.Name]; exists {
			return nil, fmt.Errorf("%s - duplicate skill %q", logPrefix, def.Name)
		}
		if def.Channel == "" {
			return nil, fmt.Errorf("%s - skill %q has no channel", logPrefix, def.Name)
		}
		if def.Handler == nil {
			return nil, fmt.Errorf("%s - skill %q has no handler", logPrefix, def.Name)
		}
		if _, err := semver.NewVersion(def.Version); err != nil {
			return nil, fmt.Errorf("%s - skill %q has invalid version %q: %w", logPrefix, def.Name, def.Version, err)
		}
		if def.Tier != TierPublic && def.Tier != TierInternal {
			return nil, fmt.Errorf("%s - skill %q has unknown tier %q", logPrefix, def.Name, def.Tier)
		}
		r.defs[def.Name] = def
		r.order = append(r.order, def.Name)
	}
	return r, nil
}

// Get returns the definition for a skill name.
func (r *Registry) Get(name string) (*Definition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// Has reports whether a skill name is registered. Shaped to plug directly
// into protocol.Validate.
func (r *Registry) Has(name string) bool {
	_, ok := r.defs[name]
	return ok
}

// List returns all definitions in catalog order.
func (r *Registry) List() []*Definition {
	out := make([]*Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defs[name])
	}
	return out
}

// ChannelFor returns the channel for a skill name, or empty if unregistered.
func (r *Registry) ChannelFor(name string) string {
	if def, ok := r.defs[name]; ok {
		return def.Channel
	}
	return ""
}

// Manifest renders the full catalog for a discovery broadcast.
func (r *Registry) Manifest() []protocol.ManifestEntry {
	entries := make([]protocol.ManifestEntry, 0, len(r.order))
	for _, name := range r.order {
		entries = append(entries, r.defs[name].ManifestEntry())
	}
	return entries
}
