package events

import "time"

// NewNATSPublisherForTest expone el constructor con una conexión falsa y reloj fijo.
func NewNATSPublisherForTest(nc interface {
	Publish(subject string, data []byte) error
	Drain() error
}, prefix string, now time.Time) *NATSPublisher {
	p := newNATSPublisher(nc, prefix)
	p.now = func() time.Time { return now }
	return p
}
