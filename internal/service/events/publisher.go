package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Publisher emits envelopes under a routing key.
type Publisher interface {
	Publish(ctx context.Context, key string, msg Envelope) error
	Close() error
}

type rmqPublisher struct {
	conn     *amqp.Connection
	exchange string
	log      logrus.FieldLogger
}

// NewAMQP dials url and declares a durable topic exchange.
func NewAMQP(url, exchange string, log logrus.FieldLogger) (Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &rmqPublisher{
		conn:     conn,
		exchange: exchange,
		log:      log,
	}, nil
}

func (r *rmqPublisher) Publish(ctx context.Context, key string, msg Envelope) error {
	pub, err := publishing(msg)
	if err != nil {
		return err
	}

	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.Confirm(false); err != nil {
		return fmt.Errorf("enable confirms: %w", err)
	}

	conf, err := ch.PublishWithDeferredConfirmWithContext(ctx, r.exchange, key, false, false, pub)
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	ok, err := conf.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("await confirm %s: %w", key, err)
	}
	if !ok {
		return fmt.Errorf("publish %s: broker nacked", key)
	}

	r.log.WithFields(logrus.Fields{"key": key, "exchange": r.exchange}).Info("published")
	return nil
}

func (r *rmqPublisher) Close() error {
	return r.conn.Close()
}

func publishing(msg Envelope) (amqp.Publishing, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode envelope: %w", err)
	}

	id := msg.Meta.ID
	if id == "" {
		id = uuid.NewString()
	}
	cid := id
	if msg.Meta.CorrelationID != nil {
		cid = *msg.Meta.CorrelationID
	}

	return amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     id,
		CorrelationId: cid,
		Type:          msg.Meta.Type,
		Timestamp:     time.Now(),
		Body:          body,
	}, nil
}

// Nop drops every envelope. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, Envelope) error { return nil }
func (Nop) Close() error                                    { return nil }
