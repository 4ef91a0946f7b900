package queue

import (
	"context"
	"encoding/json"

	"github.com/oklog/ulid/v2"
	"github.com/quantract/certledger/internal/audit"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQ publishes certificate events to a durable topic exchange. The
// routing key is the event action, e.g. certificate.issued, so consumers can
// bind to certificate.# or to a single action.
type RabbitMQ struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewRabbitMQ(url, exchange string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	// Declare the exchange to ensure it exists before publishing messages
	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	return &RabbitMQ{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
	}, nil
}

func (r *RabbitMQ) Close() error {
	if err := r.channel.Close(); err != nil {
		return err
	}
	if err := r.conn.Close(); err != nil {
		return err
	}
	return nil
}

// Message is the wire form of a published event.
func Message(ev audit.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, err
	}

	return amqp.Publishing{
		// make message persistent even if RabbitMQ restarts or crashes
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    ulid.Make().String(),
		Timestamp:    ev.At,
		Type:         string(ev.Action),
		Body:         body,
	}, nil
}

// Write publishes ev. It satisfies audit.Writer.
func (r *RabbitMQ) Write(ctx context.Context, ev audit.Event) error {
	msg, err := Message(ev)
	if err != nil {
		return err
	}

	return r.channel.PublishWithContext(
		ctx,
		r.exchange,
		string(ev.Action),
		false, // mandatory
		false, // immediate
		msg,
	)
}
