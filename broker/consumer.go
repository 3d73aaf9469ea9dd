package broker

import (
	"log"

	"courtside/courtside/config"

	"github.com/nats-io/nats.go"
)

// Message is one broker message as delivered to consumers.
type Message struct {
	Subject string
	Data    []byte
}

// Consumer exposes broker messages as a channel.
type Consumer interface {
	GetMessageChannel() <-chan Message
	Close()
}

type natsConsumer struct {
	conn        *nats.Conn
	subs        []*nats.Subscription
	messageChan chan Message
}

// InitConsumer subscribes to the given subjects within a queue group and
// forwards everything onto a buffered channel. A full channel drops the
// message rather than blocking the NATS callback.
func InitConsumer(cfg config.Config, subjects []string, group string) (Consumer, error) {
	conn, err := nats.Connect(cfg.NatsURL,
		nats.Name("courtside-consumer-"+group),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}

	c := &natsConsumer{
		conn:        conn,
		messageChan: make(chan Message, 256),
	}

	for _, subject := range subjects {
		sub, err := conn.QueueSubscribe(subject, group, func(msg *nats.Msg) {
			select {
			case c.messageChan <- Message{Subject: msg.Subject, Data: msg.Data}:
			default:
				log.Printf("Warning: consumer channel full, dropping message on %s", msg.Subject)
			}
		})
		if err != nil {
			conn.Close()
			return nil, err
		}
		c.subs = append(c.subs, sub)
	}

	log.Printf("Broker consumer started, listening to subjects: %v", subjects)
	return c, nil
}

func (c *natsConsumer) GetMessageChannel() <-chan Message {
	return c.messageChan
}

func (c *natsConsumer) Close() {
	for _, sub := range c.subs {
		if err := sub.Unsubscribe(); err != nil {
			log.Printf("Failed to unsubscribe: %v", err)
		}
	}
	c.conn.Close()
	close(c.messageChan)
}
