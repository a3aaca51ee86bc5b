// Package manifest builds and broadcasts the skill catalog on the discovery
// channel.
package manifest

// Publisher is the seam between the broadcaster and the channel network.
// *nats.Conn satisfies it directly.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// PublisherFunc adapts a function to Publisher, mainly for tests.
type PublisherFunc func(subject string, data []byte) error

// Publish calls the function.
func (f PublisherFunc) Publish(subject string, data []byte) error {
	return f(subject, data)
}
