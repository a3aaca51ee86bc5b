package skills

import (
	"github.com/emberline/skillbus/pkg/commsutil"
	"github.com/emberline/skillbus/pkg/llm"
)

// CatalogParams configures the built-in catalog.
type CatalogParams struct {
	// Prefix is the channel subject prefix (commsutil.DefaultPrefix if empty).
	Prefix string
	// LLM is the optional phrasing bridge handed to handlers.
	LLM llm.Completer
}

var textOnlyContract = map[string]interface{}{
	"type":       "object",
	"properties": map[string]interface{}{"text": map[string]interface{}{"type": "string"}},
	"required":   []interface{}{"text"},
}

func responseContract(extra map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"ok":       map[string]interface{}{"type": "boolean"},
		"response": map[string]interface{}{"type": "string"},
	}
	for k, v := range extra {
		props[k] = v
	}
	return map[string]interface{}{"type": "object", "properties": props}
}

// BuildCatalog assembles the built-in skill definitions: the listening set,
// the internal calibration skill, and the reflect meta skill that fans into
// every other public skill. Handlers read the process-wide emotion
// vocabulary, which ExtendVocabulary may only grow during startup; catalogs
// built in the same process share it.
func BuildCatalog(p CatalogParams) []*Definition {
	deps := HandlerDeps{LLM: p.LLM}

	hear := &Definition{
		Name:        "hear",
		Channel:     commsutil.SkillSubject(p.Prefix, "hear"),
		Tier:        TierPublic,
		Version:     "1.4.0",
		Description: "Active listening: reflects back what the speaker seems to be feeling.",
		InputContract: textOnlyContract,
		OutputContract: responseContract(map[string]interface{}{
			"emotion": map[string]interface{}{"type": "string"},
			"matches": map[string]interface{}{"type": "array"},
		}),
		Handler: hearHandler(deps),
	}

	view := &Definition{
		Name:        "view",
		Channel:     commsutil.SkillSubject(p.Prefix, "view"),
		Tier:        TierPublic,
		Version:     "1.3.0",
		Description: "Perspective: offers a reframed reading of what was said.",
		InputContract: textOnlyContract,
		OutputContract: responseContract(map[string]interface{}{
			"emotion": map[string]interface{}{"type": "string"},
		}),
		Synthesize: true,
		Handler:    viewHandler(deps),
	}

	emotionScan := &Definition{
		Name:        "emotion-scan",
		Channel:     commsutil.SkillSubject(p.Prefix, "emotion-scan"),
		Tier:        TierPublic,
		Version:     "2.0.1",
		Description: "Scans text against the emotion vocabulary and scores matches.",
		InputContract: textOnlyContract,
		OutputContract: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"ok":       map[string]interface{}{"type": "boolean"},
				"matches":  map[string]interface{}{"type": "array"},
				"dominant": map[string]interface{}{"type": "string"},
			},
		},
		Handler: emotionScanHandler(),
	}

	ground := &Definition{
		Name:        "ground",
		Channel:     commsutil.SkillSubject(p.Prefix, "ground"),
		Tier:        TierPublic,
		Version:     "1.1.0",
		Description: "Grounding: suggests small concrete next steps.",
		InputContract: textOnlyContract,
		OutputContract: responseContract(map[string]interface{}{
			"suggestions": map[string]interface{}{"type": "array"},
		}),
		Handler: groundHandler(),
	}

	attune := &Definition{
		Name:        "attune",
		Channel:     commsutil.SkillSubject(p.Prefix, "attune"),
		Tier:        TierInternal,
		Version:     "0.3.0",
		Description: "Calibrates the node's response tone. Local callers only.",
		InputContract: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"text":    map[string]interface{}{"type": "string"},
				"context": map[string]interface{}{"type": "object"},
			},
		},
		OutputContract: responseContract(map[string]interface{}{
			"tone": map[string]interface{}{"type": "string"},
		}),
		Handler: attuneHandler(),
	}

	base := []*Definition{hear, view, emotionScan, ground, attune}

	var publicBase []*Definition
	for _, def := range base {
		if def.Tier == TierPublic {
			publicBase = append(publicBase, def)
		}
	}

	reflect := &Definition{
		Name:        "reflect",
		Channel:     commsutil.SkillSubject(p.Prefix, "reflect"),
		Tier:        TierPublic,
		Version:     "1.0.0",
		Description: "Meta skill: runs the full public set and aggregates their responses.",
		InputContract: textOnlyContract,
		OutputContract: responseContract(map[string]interface{}{
			"skills": map[string]interface{}{"type": "array"},
		}),
		Synthesize: true,
		Handler:    reflectHandler(deps, publicBase),
	}

	return append(base, reflect)
}
