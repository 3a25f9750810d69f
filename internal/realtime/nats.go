package realtime

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// subjectPrefix roots all relay traffic under one NATS namespace.
const subjectPrefix = "pulse.events."

// envelope is the wire form a relayed event travels in. Origin identifies the
// publishing instance so it can ignore its own messages on the way back.
type envelope struct {
	Origin string `json:"origin"`
	Topic  string `json:"topic"`
	Event  Event  `json:"event"`
}

// Relay extends a local Hub across instances via NATS. Local publishes are
// delivered to local subscribers immediately and mirrored onto
// pulse.events.<topic>; envelopes arriving from other instances are injected
// into the local hub. Relay publish failures are logged and swallowed: by the
// time fan-out runs the originating mutation is already committed, so a lost
// relay message only costs a missed live update.
type Relay struct {
	hub    *Hub
	nc     *nats.Conn
	sub    *nats.Subscription
	origin string
}

// NewRelay wires the hub to a NATS connection and starts consuming remote
// envelopes. The caller owns the connection's lifecycle; Close only drains
// the relay's subscription.
func NewRelay(nc *nats.Conn, hub *Hub) (*Relay, error) {
	r := &Relay{
		hub:    hub,
		nc:     nc,
		origin: uuid.NewString(),
	}
	sub, err := nc.Subscribe(subjectPrefix+">", r.onRemote)
	if err != nil {
		return nil, err
	}
	r.sub = sub
	return r, nil
}

// Publish delivers evt locally and mirrors it to the other instances.
func (r *Relay) Publish(topic string, evt Event) {
	r.hub.Publish(topic, evt)

	data, err := json.Marshal(envelope{Origin: r.origin, Topic: topic, Event: evt})
	if err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("relay: marshal failed")
		return
	}
	if err := r.nc.Publish(subjectPrefix+natsToken(topic), data); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("relay: publish failed")
	}
}

// onRemote injects envelopes from other instances into the local hub.
func (r *Relay) onRemote(msg *nats.Msg) {
	var env envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		log.Warn().Err(err).Str("subject", msg.Subject).Msg("relay: bad envelope")
		return
	}
	if env.Origin == r.origin {
		return
	}
	r.hub.Publish(env.Topic, env.Event)
}

// Close drains the relay subscription.
func (r *Relay) Close() error {
	if r.sub == nil {
		return nil
	}
	return r.sub.Drain()
}

// natsToken maps an internal topic onto a single NATS subject token.
// Topics never contain spaces; dots would split tokens, so they are folded.
func natsToken(topic string) string {
	return strings.ReplaceAll(topic, ".", "_")
}
