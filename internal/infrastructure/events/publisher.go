// Package events emite los eventos de analítica del onboarding y las invitaciones,
// hacia NATS cuando hay servidor configurado o al log en su defecto.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/jhoicas/okr-api/internal/application/ports"
	"github.com/jhoicas/okr-api/pkg/config"
)

// Envelope mensaje publicado en cada subject.
type Envelope struct {
	Event      string    `json:"event"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// conn subconjunto de *nats.Conn que usa el publicador.
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publica cada evento en "<prefijo>.<evento>".
type NATSPublisher struct {
	nc     conn
	prefix string
	now    func() time.Time
	mu     sync.Mutex
	closed bool
}

var _ ports.EventPublisher = (*NATSPublisher)(nil)

// Connect abre la conexión a NATS con reconexión automática.
func Connect(cfg config.NATSConfig, name string, log zerolog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name(name),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS desconectado")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("NATS reconectado")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("events: conectar a NATS: %w", err)
	}
	return newNATSPublisher(nc, cfg.SubjectPrefix), nil
}

func newNATSPublisher(nc conn, prefix string) *NATSPublisher {
	return &NATSPublisher{nc: nc, prefix: strings.Trim(prefix, "."), now: time.Now}
}

// Subject subject NATS de un evento.
func (p *NATSPublisher) Subject(event string) string {
	if p.prefix == "" {
		return event
	}
	return p.prefix + "." + event
}

// Publish serializa el evento y lo publica. NATS no acepta contexto en Publish,
// así que se comprueba antes de publicar.
func (p *NATSPublisher) Publish(ctx context.Context, event string, payload any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("events: contexto cancelado antes de publicar: %w", err)
	}
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return fmt.Errorf("events: publicador cerrado")
	}
	data, err := json.Marshal(Envelope{Event: event, OccurredAt: p.now().UTC(), Payload: payload})
	if err != nil {
		return fmt.Errorf("events: serializar %s: %w", event, err)
	}
	if err := p.nc.Publish(p.Subject(event), data); err != nil {
		return fmt.Errorf("events: publicar %s: %w", event, err)
	}
	return nil
}

// Close vacía los mensajes pendientes y cierra la conexión. Es idempotente.
func (p *NATSPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.nc.Drain()
}

// LogPublisher escribe los eventos en el log estructurado.
type LogPublisher struct {
	log zerolog.Logger
}

var _ ports.EventPublisher = LogPublisher{}

// NewLogPublisher publicador de respaldo cuando no hay NATS.
func NewLogPublisher(log zerolog.Logger) LogPublisher {
	return LogPublisher{log: log}
}

// Publish registra el evento a nivel info.
func (p LogPublisher) Publish(ctx context.Context, event string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.log.Info().Str("event", event).Interface("payload", payload).Msg("evento de analítica")
	return nil
}
