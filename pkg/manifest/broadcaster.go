package manifest

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/emberline/skillbus/pkg/commsutil"
	"github.com/emberline/skillbus/pkg/protocol"
	"github.com/emberline/skillbus/pkg/skills"
)

const logPrefix = "manifest:broadcaster"

// DefaultInterval between manifest broadcasts.
const DefaultInterval = 5 * time.Minute

// Build renders the full catalog as a MANIFEST message for the given node.
func Build(node string, reg *skills.Registry) *protocol.ManifestMessage {
	return protocol.NewManifestMessage(node, reg.Manifest())
}

// Broadcaster publishes the catalog on the discovery channel at startup and
// then on a fixed interval. Stateless between publishes.
type Broadcaster struct {
	pub      Publisher
	registry *skills.Registry
	subject  string
	node     string
	interval time.Duration
	stopCh   chan struct{}
	stopped  sync.Once
}

// Params configures a Broadcaster.
type Params struct {
	Publisher Publisher
	Registry  *skills.Registry
	// Subject defaults to the discovery subject under the default prefix.
	Subject string
	Node    string
	// Interval defaults to DefaultInterval.
	Interval time.Duration
}

// New creates a Broadcaster.
func New(p Params) *Broadcaster {
	subject := p.Subject
	if subject == "" {
		subject = commsutil.DiscoverySubject("")
	}
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Broadcaster{
		pub:      p.Publisher,
		registry: p.Registry,
		subject:  subject,
		node:     p.Node,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start publishes once immediately, then launches the periodic loop. Call
// Stop to terminate it.
func (b *Broadcaster) Start() {
	b.PublishOnce()
	go func() {
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				b.PublishOnce()
			case <-b.stopCh:
				return
			}
		}
	}()
}

// PublishOnce broadcasts the current catalog a single time.
func (b *Broadcaster) PublishOnce() {
	msg := Build(b.node, b.registry)
	data, err := commsutil.EncodePayload(msg)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode manifest: %v", logPrefix, err))
		return
	}
	if err := b.pub.Publish(b.subject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish manifest to %s: %v", logPrefix, b.subject, err))
		return
	}
	slog.Debug(fmt.Sprintf("%s - Published manifest (%d skills) to %s", logPrefix, len(msg.Skills), b.subject))
}

// Stop terminates the periodic loop. Safe to call more than once.
func (b *Broadcaster) Stop() {
	b.stopped.Do(func() { close(b.stopCh) })
}
