package skills

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/emberline/skillbus/pkg/llm"
	"github.com/emberline/skillbus/pkg/protocol"
)

const handlerLogPrefix = "skills:handlers"

// HandlerDeps carries the external collaborators handlers may use. LLM is
// optional; nil means template responses only.
type HandlerDeps struct {
	LLM llm.Completer
}

// phrase optionally rewords a template response through the LLM bridge. Any
// bridge failure falls back to the template; a skill never fails because the
// LLM is down.
func phrase(ctx context.Context, deps HandlerDeps, system, template, text string) string {
	if deps.LLM == nil {
		return template
	}
	prompt := fmt.Sprintf("The speaker said: %q.\nReword this response in your own voice, one or two sentences: %q", text, template)
	out, err := deps.LLM.Complete(ctx, system, prompt)
	if err != nil || strings.TrimSpace(out) == "" {
		slog.Debug(fmt.Sprintf("%s - llm phrasing unavailable, using template: %v", handlerLogPrefix, err))
		return template
	}
	return strings.TrimSpace(out)
}

// emotionScanHandler scans the text against the emotion vocabulary and
// returns the scored match list.
func emotionScanHandler() Handler {
	return func(_ context.Context, input protocol.Input) (map[string]interface{}, error) {
		matches := scan(input.Text)
		return map[string]interface{}{
			"ok":       true,
			"matches":  matches,
			"dominant": dominant(matches),
		}, nil
	}
}

// hearHandler reflects back what the speaker seems to be feeling.
func hearHandler(deps HandlerDeps) Handler {
	return func(ctx context.Context, input protocol.Input) (map[string]interface{}, error) {
		matches := scan(input.Text)
		emo := dominant(matches)
		response := phrase(ctx, deps,
			"You are a careful, warm listener. Never give advice here, only reflect.",
			reflectionFor(emo), input.Text)
		return map[string]interface{}{
			"ok":       true,
			"emotion":  emo,
			"matches":  matches,
			"response": response,
		}, nil
	}
}

// viewHandler offers a reframed perspective. When an earlier chain step's
// output is present in the context it builds on that reading instead of
// scanning from scratch.
func viewHandler(deps HandlerDeps) Handler {
	return func(ctx context.Context, input protocol.Input) (map[string]interface{}, error) {
		emo := emotionFromContext(input.Context)
		if emo == "" {
			emo = dominant(scan(input.Text))
		}
		response := phrase(ctx, deps,
			"You offer a kind change of perspective in one or two sentences.",
			reframeFor(emo), input.Text)
		return map[string]interface{}{
			"ok":       true,
			"emotion":  emo,
			"response": response,
		}, nil
	}
}

// groundHandler suggests small concrete next steps for the dominant emotion.
func groundHandler() Handler {
	return func(_ context.Context, input protocol.Input) (map[string]interface{}, error) {
		emo := emotionFromContext(input.Context)
		if emo == "" {
			emo = dominant(scan(input.Text))
		}
		suggestions := groundingFor(emo)
		return map[string]interface{}{
			"ok":          true,
			"emotion":     emo,
			"suggestions": suggestions,
			"response":    "One thing to try: " + suggestions[0],
		}, nil
	}
}

// attuneHandler is the internal-tier calibration skill: it selects the
// response tone for the node. Exposed only to local callers.
func attuneHandler() Handler {
	return func(_ context.Context, input protocol.Input) (map[string]interface{}, error) {
		tone := defaultTone
		if input.Context != nil {
			if v, ok := input.Context["tone"].(string); ok && v != "" {
				tone = v
			}
		}
		desc, ok := knownTones[tone]
		if !ok {
			return nil, fmt.Errorf("unknown tone %q", tone)
		}
		return map[string]interface{}{
			"ok":       true,
			"tone":     tone,
			"response": desc,
		}, nil
	}
}

// reflectHandler is the meta skill: it runs every other public skill in
// catalog order, feeding each step the accumulated outputs, and aggregates
// their responses. A failing step is skipped, not fatal.
func reflectHandler(deps HandlerDeps, others []*Definition) Handler {
	return func(ctx context.Context, input protocol.Input) (map[string]interface{}, error) {
		acc := make(map[string]interface{}, len(input.Context)+len(others))
		for k, v := range input.Context {
			acc[k] = v
		}

		var ran []string
		var responses []string
		for _, def := range others {
			stepInput := protocol.Input{Text: input.Text, Context: acc}
			out, err := def.Handler(ctx, stepInput)
			if err != nil {
				slog.Warn(fmt.Sprintf("%s - reflect step %s failed: %v", handlerLogPrefix, def.Name, err))
				continue
			}
			acc[def.Name] = out
			ran = append(ran, def.Name)
			if resp, ok := out["response"].(string); ok && resp != "" {
				responses = append(responses, resp)
			}
		}

		return map[string]interface{}{
			"ok":       true,
			"skills":   ran,
			"response": strings.Join(responses, " "),
		}, nil
	}
}

// emotionFromContext pulls a prior step's dominant emotion out of an
// accumulated chain context, preferring the most specific sources first.
func emotionFromContext(ctx map[string]interface{}) string {
	if ctx == nil {
		return ""
	}
	for _, source := range []string{"hear", "emotion-scan"} {
		step, ok := ctx[source].(map[string]interface{})
		if !ok {
			continue
		}
		for _, key := range []string{"emotion", "dominant"} {
			if v, ok := step[key].(string); ok && v != "" {
				return v
			}
		}
	}
	return ""
}
