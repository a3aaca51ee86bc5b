// Package dispatcher executes validated CALL and CHAIN messages: rate
// limiting, access control, handler invocation, and error containment.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/emberline/skillbus/pkg/access"
	"github.com/emberline/skillbus/pkg/protocol"
	"github.com/emberline/skillbus/pkg/ratelimit"
	"github.com/emberline/skillbus/pkg/skills"
)

const logPrefix = "dispatcher:dispatch"

// Aggregator combines a chain's step results with the original text into the
// synthesized response. The default joins step responses; callers may inject
// their own synthesis strategy.
type Aggregator func(originalText string, results []protocol.StepResult) string

// DefaultAggregator joins every successful step's response in order, falling
// back to a neutral acknowledgement when no step produced one.
func DefaultAggregator(originalText string, results []protocol.StepResult) string {
	var parts []string
	for _, step := range results {
		if step.Err != "" || step.Output == nil {
			continue
		}
		if resp, ok := step.Output["response"].(string); ok && resp != "" {
			parts = append(parts, resp)
		}
	}
	if len(parts) == 0 {
		return "Heard: " + originalText
	}
	return strings.Join(parts, " ")
}

// Dispatcher owns the shared mutable dispatch state (rate windows, metrics)
// for one node. Both transport bindings feed it.
type Dispatcher struct {
	registry  *skills.Registry
	limiter   *ratelimit.Limiter
	access    *access.Classifier
	metrics   *Metrics
	aggregate Aggregator
}

// Params configures a Dispatcher.
type Params struct {
	Registry *skills.Registry
	Limiter  *ratelimit.Limiter
	Access   *access.Classifier
	// Aggregate is optional; DefaultAggregator when nil.
	Aggregate Aggregator
}

// New creates a Dispatcher.
func New(p Params) *Dispatcher {
	agg := p.Aggregate
	if agg == nil {
		agg = DefaultAggregator
	}
	return &Dispatcher{
		registry:  p.Registry,
		limiter:   p.Limiter,
		access:    p.Access,
		metrics:   NewMetrics(),
		aggregate: agg,
	}
}

// Metrics exposes the dispatcher's counters for the metrics route.
func (d *Dispatcher) Metrics() Snapshot {
	return d.metrics.Snapshot()
}

// Registry exposes the catalog for transports that answer DESCRIBE and
// manifest requests.
func (d *Dispatcher) Registry() *skills.Registry {
	return d.registry
}

// HandleCall executes a single CALL. Order: validate, rate-limit, resolve,
// access check (internal tier only), invoke. A returned error is always a
// *protocol.Fault; handler errors and panics become SKILL_ERROR and never
// reach the transport layer uncoded.
func (d *Dispatcher) HandleCall(ctx context.Context, msg *protocol.CallMessage, callerID string) (map[string]interface{}, error) {
	d.metrics.recordCall()

	if fault := protocol.ValidateCall(msg, d.registry.Has); fault != nil {
		d.metrics.recordError()
		return nil, fault
	}

	if !d.limiter.Allow(callerID) {
		d.metrics.recordError()
		return nil, protocol.NewFault(protocol.CodeRateLimited, fmt.Sprintf("caller %q is over quota", callerID))
	}

	def, _ := d.registry.Get(msg.Skill)

	if def.Tier == skills.TierInternal && !d.access.IsLocal(callerID) {
		d.metrics.recordError()
		return nil, protocol.NewFault(protocol.CodeAccessDenied, fmt.Sprintf("skill %q is internal", msg.Skill))
	}

	output, err := d.invoke(ctx, def, msg.Input)
	if err != nil {
		d.metrics.recordError()
		slog.Warn(fmt.Sprintf("%s - skill %s failed: %v", logPrefix, def.Name, err))
		return nil, protocol.FaultFrom(err)
	}

	d.metrics.recordSkill(def.Name)
	return output, nil
}

// ChainOutcome is a completed chain: the ordered step results and the
// synthesized response.
type ChainOutcome struct {
	Results     []protocol.StepResult
	Synthesized string
}

// HandleChain executes a CHAIN. Each step is rate-limited before it runs;
// hitting the quota mid-chain aborts the whole chain with RATE_LIMITED naming
// the failing step. A failing handler does NOT abort the chain: the step is
// recorded with its error and later steps still run with the partial context.
func (d *Dispatcher) HandleChain(ctx context.Context, msg *protocol.ChainMessage, callerID string) (*ChainOutcome, error) {
	d.metrics.recordChain()

	if fault := protocol.ValidateChain(msg, d.registry.Has); fault != nil {
		d.metrics.recordError()
		return nil, fault
	}

	acc := make(map[string]interface{}, len(msg.Input.Context)+len(msg.Skills))
	for k, v := range msg.Input.Context {
		acc[k] = v
	}

	results := make([]protocol.StepResult, 0, len(msg.Skills))
	for i, name := range msg.Skills {
		if !d.limiter.Allow(callerID) {
			d.metrics.recordError()
			return nil, protocol.NewFault(protocol.CodeRateLimited,
				fmt.Sprintf("caller %q over quota at step %d (%s)", callerID, i+1, name))
		}

		def, _ := d.registry.Get(name)
		step := protocol.StepResult{Skill: name}

		if def.Tier == skills.TierInternal && !d.access.IsLocal(callerID) {
			step.Err = protocol.CodeAccessDenied + ": skill is internal"
			results = append(results, step)
			continue
		}

		stepInput := protocol.Input{Text: msg.Input.Text, Context: acc}
		output, err := d.invoke(ctx, def, stepInput)
		if err != nil {
			step.Err = protocol.FaultFrom(err).Error()
			slog.Warn(fmt.Sprintf("%s - chain step %d (%s) failed: %v", logPrefix, i+1, name, err))
			results = append(results, step)
			continue
		}

		step.Output = output
		acc[name] = output
		d.metrics.recordSkill(name)
		results = append(results, step)
	}

	return &ChainOutcome{
		Results:     results,
		Synthesized: d.synthesize(msg, results),
	}, nil
}

// synthesize picks the chain's synthesized value: when the final step is a
// designated synthesis skill and succeeded, its own response stands;
// otherwise the aggregator combines everything with the original text.
func (d *Dispatcher) synthesize(msg *protocol.ChainMessage, results []protocol.StepResult) string {
	last := results[len(results)-1]
	if def, ok := d.registry.Get(last.Skill); ok && def.Synthesize && last.Err == "" {
		if resp, ok := last.Output["response"].(string); ok && resp != "" {
			return resp
		}
	}
	return d.aggregate(msg.Input.Text, results)
}

// HandleDescribe answers a single-skill catalog lookup.
func (d *Dispatcher) HandleDescribe(name string) (*protocol.ManifestEntry, error) {
	def, ok := d.registry.Get(name)
	if !ok {
		return nil, protocol.NewFault(protocol.CodeInvalidCall, fmt.Sprintf("unknown skill %q", name))
	}
	entry := def.ManifestEntry()
	return &entry, nil
}

// invoke runs a handler with panic containment. A panicking handler must
// never take down the listener process.
func (d *Dispatcher) invoke(ctx context.Context, def *skills.Definition, input protocol.Input) (output map[string]interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			output = nil
			err = protocol.NewFault(protocol.CodeSkillError, fmt.Sprintf("skill %s panicked: %v", def.Name, r))
		}
	}()
	return def.Handler(ctx, input)
}
