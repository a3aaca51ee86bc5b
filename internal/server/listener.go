package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/emberline/skillbus/pkg/commsutil"
	"github.com/emberline/skillbus/pkg/dispatcher"
	"github.com/emberline/skillbus/pkg/protocol"
)

const listenerLogPrefix = "server:listener"

// Listener binds the dispatcher to the channel network. It holds one
// subscription per distinct skill channel plus the discovery channel, filters
// out non-protocol and self-originated traffic, and publishes replies on the
// subject each request arrived on.
type Listener struct {
	nc   *comms.Conn
	disp *dispatcher.Dispatcher
	node string
	subs []*comms.Subscription
}

// NewListener creates a Listener. Start must be called before it receives
// anything.
func NewListener(nc *comms.Conn, disp *dispatcher.Dispatcher, node string) *Listener {
	return &Listener{nc: nc, disp: disp, node: node}
}

// Start subscribes to every distinct skill channel in the registry and to the
// discovery channel. Returns on the first subscription failure with already
// established subscriptions torn down.
func (l *Listener) Start(ctx context.Context, prefix string) error {
	seen := make(map[string]bool)
	for _, def := range l.disp.Registry().List() {
		if seen[def.Channel] {
			continue
		}
		seen[def.Channel] = true
		subject := def.Channel
		sub, err := l.nc.Subscribe(subject, func(msg *comms.Msg) {
			l.handleInbound(ctx, msg.Subject, msg.Data)
		})
		if err != nil {
			l.Stop()
			return fmt.Errorf("%s - failed to subscribe to %s: %w", listenerLogPrefix, subject, err)
		}
		l.subs = append(l.subs, sub)
	}

	// The discovery channel carries manifest broadcasts and also answers
	// DESCRIBE requests, so it routes through the same inbound dispatch as
	// the skill channels.
	discovery := commsutil.DiscoverySubject(prefix)
	sub, err := l.nc.Subscribe(discovery, func(msg *comms.Msg) {
		l.handleInbound(ctx, msg.Subject, msg.Data)
	})
	if err != nil {
		l.Stop()
		return fmt.Errorf("%s - failed to subscribe to %s: %w", listenerLogPrefix, discovery, err)
	}
	l.subs = append(l.subs, sub)

	slog.Info(fmt.Sprintf("%s - Listening on %d skill channels plus %s", listenerLogPrefix, len(seen), discovery))
	return nil
}

// Stop drops all subscriptions. In-flight handlers finish and may still
// publish replies until the connection drains.
func (l *Listener) Stop() {
	for _, sub := range l.subs {
		sub.Unsubscribe()
	}
	l.subs = nil
}

// envelopeHead is the minimal decode used to route an inbound payload before
// committing to a full message shape.
type envelopeHead struct {
	Type   string `json:"type"`
	From   string `json:"from"`
	CallID string `json:"callId"`
}

// handleInbound routes one payload from a skill or discovery channel. Non-JSON
// and non-protocol traffic is ignored without logging noise; the channels are
// shared and carry plenty of unrelated chatter. A protocol request that fails
// schema validation draws an ERROR reply.
func (l *Listener) handleInbound(ctx context.Context, subject string, data []byte) {
	if !protocol.IsProtocolMessage(data) {
		return
	}

	var head envelopeHead
	if err := commsutil.DecodePayload(data, &head); err != nil {
		return
	}
	if head.From == l.node {
		// Own requests and replies echo back on the shared channel.
		return
	}

	switch head.Type {
	case protocol.TypeCall, protocol.TypeChain, protocol.TypeDescribe:
		if fault := protocol.Validate(data, l.disp.Registry().Has); fault != nil {
			l.reply(subject, protocol.NewErrorMessage(l.node, head.CallID, fault))
			return
		}
	}

	switch head.Type {
	case protocol.TypeCall:
		var msg protocol.CallMessage
		if err := commsutil.DecodePayload(data, &msg); err != nil {
			return
		}
		go l.serveCall(ctx, subject, &msg)
	case protocol.TypeChain:
		var msg protocol.ChainMessage
		if err := commsutil.DecodePayload(data, &msg); err != nil {
			return
		}
		go l.serveChain(ctx, subject, &msg)
	case protocol.TypeDescribe:
		var msg protocol.DescribeMessage
		if err := commsutil.DecodePayload(data, &msg); err != nil {
			return
		}
		go l.serveDescribe(subject, &msg)
	case protocol.TypeManifest:
		l.observeManifest(data)
	default:
		// RESULT, ERROR, and CHAIN_RESULT are replies addressed to other
		// listeners.
	}
}

func (l *Listener) serveCall(ctx context.Context, subject string, msg *protocol.CallMessage) {
	output, err := l.disp.HandleCall(ctx, msg, msg.From)
	if err != nil {
		l.reply(subject, protocol.NewErrorMessage(l.node, msg.CallID, protocol.FaultFrom(err)))
		return
	}
	l.reply(subject, protocol.NewResultMessage(l.node, msg.CallID, msg.Skill, output))
}

func (l *Listener) serveChain(ctx context.Context, subject string, msg *protocol.ChainMessage) {
	outcome, err := l.disp.HandleChain(ctx, msg, msg.From)
	if err != nil {
		l.reply(subject, protocol.NewErrorMessage(l.node, msg.CallID, protocol.FaultFrom(err)))
		return
	}
	l.reply(subject, protocol.NewChainResultMessage(l.node, msg.CallID, outcome.Results, outcome.Synthesized))
}

func (l *Listener) serveDescribe(subject string, msg *protocol.DescribeMessage) {
	entry, err := l.disp.HandleDescribe(msg.Skill)
	if err != nil {
		l.reply(subject, protocol.NewErrorMessage(l.node, msg.CallID, protocol.FaultFrom(err)))
		return
	}
	l.reply(subject, protocol.NewResultMessage(l.node, msg.CallID, msg.Skill, map[string]interface{}{
		"ok":    true,
		"skill": entry,
	}))
}

// reply publishes a response on the subject the request arrived on. The
// caller correlates it by callId and skips it by from.
func (l *Listener) reply(subject string, v interface{}) {
	data, err := commsutil.EncodePayload(v)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode reply: %v", listenerLogPrefix, err))
		return
	}
	if err := l.nc.Publish(subject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish reply on %s: %v", listenerLogPrefix, subject, err))
	}
}

// observeManifest records manifest broadcasts from other nodes. The node
// does not maintain a remote catalog; sightings are logged for operators.
func (l *Listener) observeManifest(data []byte) {
	var msg protocol.ManifestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if msg.Type != protocol.TypeManifest || msg.Node == l.node {
		return
	}
	slog.Debug(fmt.Sprintf("%s - Manifest from node %s with %d skills", listenerLogPrefix, msg.Node, len(msg.Skills)))
}
