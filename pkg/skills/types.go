// Package skills holds the static skill catalog: definitions, the read-only
// registry, the emotion vocabulary, response templates, and the handlers.
package skills

import (
	"context"

	"github.com/emberline/skillbus/pkg/protocol"
)

// Tier restricts who may invoke a skill.
type Tier string

const (
	// TierPublic skills run for any caller.
	TierPublic Tier = "public"
	// TierInternal skills run only for callers classified as local.
	TierInternal Tier = "internal"
)

// Handler executes a skill. Handlers return their output map or an error;
// the dispatch layer converts errors (and panics) to SKILL_ERROR.
type Handler func(ctx context.Context, input protocol.Input) (map[string]interface{}, error)

// Definition is one entry in the catalog. Immutable after registry
// construction.
type Definition struct {
	Name           string
	Channel        string
	Tier           Tier
	Version        string
	Description    string
	InputContract  map[string]interface{}
	OutputContract map[string]interface{}
	// Synthesize marks a skill whose own response stands as a chain's
	// synthesized value when it runs last.
	Synthesize bool
	Handler    Handler
}

// ManifestEntry renders the definition for a discovery broadcast. The handler
// itself never crosses the wire.
func (d *Definition) ManifestEntry() protocol.ManifestEntry {
	return protocol.ManifestEntry{
		Name:           d.Name,
		Channel:        d.Channel,
		Tier:           string(d.Tier),
		Version:        d.Version,
		Description:    d.Description,
		InputContract:  d.InputContract,
		OutputContract: d.OutputContract,
	}
}
