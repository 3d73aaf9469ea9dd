package broker

import (
	"encoding/json"
	"log"
	"sync"

	"courtside/courtside/config"

	"github.com/nats-io/nats.go"
)

// Producer publishes messages onto the broker. The interface exists so the
// sync pipeline and route handlers can be tested with an in-memory fake.
type Producer interface {
	Publish(subject string, payload interface{}) error
	Close()
}

type natsProducer struct {
	conn *nats.Conn
	mu   sync.Mutex
}

// NewProducer connects to NATS and returns a Producer backed by it.
func NewProducer(cfg config.Config) (Producer, error) {
	conn, err := nats.Connect(cfg.NatsURL,
		nats.Name("courtside-producer"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS at %s", cfg.NatsURL)
	return &natsProducer{conn: conn}, nil
}

func (p *natsProducer) Publish(subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nats.ErrConnectionClosed
	}
	if err := p.conn.Publish(subject, data); err != nil {
		log.Printf("Failed to publish message to %s: %v", subject, err)
		return err
	}
	return nil
}

func (p *natsProducer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		p.conn.Drain()
		p.conn = nil
	}
}
