package bus

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"messaging-service/internal/observability"
)

// AMQPBus backs the fan-out with a RabbitMQ topic exchange. Group names are
// the routing keys; every process binds its own exclusive queue, so a publish
// on one process reaches connections registered on any other.
type AMQPBus struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewAMQPBus dials the broker, declares the exchange and starts the consumer
// feeding deliveries back into the local registry.
func NewAMQPBus(url, exchange string, local Broadcaster) (*AMQPBus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	consumeCh, err := conn.Channel()
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	// Exclusive auto-delete queue: live events only, nothing survives this
	// process.
	queue, err := consumeCh.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		consumeCh.Close()
		ch.Close()
		conn.Close()
		return nil, err
	}
	if err := consumeCh.QueueBind(queue.Name, "#", exchange, false, nil); err != nil {
		consumeCh.Close()
		ch.Close()
		conn.Close()
		return nil, err
	}

	deliveries, err := consumeCh.Consume(queue.Name, "", true, true, false, false, nil)
	if err != nil {
		consumeCh.Close()
		ch.Close()
		conn.Close()
		return nil, err
	}

	go func() {
		for d := range deliveries {
			local.Broadcast(d.RoutingKey, d.Body)
		}
	}()

	return &AMQPBus{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish sends the event to the exchange with the group as routing key.
// Local connections receive it through the consumer loop like everyone else.
func (b *AMQPBus) Publish(ctx context.Context, group string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = b.ch.PublishWithContext(ctx, b.exchange, group, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        payload,
	})
	if err != nil {
		log.Printf("amqp publish failed group=%s: %v", group, err)
		observability.IncAMQPPublishError()
	}
	return err
}

// Close tears down the broker connection.
func (b *AMQPBus) Close() error {
	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}
