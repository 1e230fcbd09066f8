package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQ публикует события в topic exchange, routing key = тип события
type RabbitMQ struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	log      Logger
}

// NewRabbitMQ подключается к брокеру и объявляет durable exchange
func NewRabbitMQ(url, exchange string, log Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%w: rabbitmq dial: %v", ErrConnect, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: rabbitmq channel: %v", ErrConnect, err)
	}

	if err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%w: rabbitmq exchange declare: %v", ErrConnect, err)
	}

	return &RabbitMQ{conn: conn, ch: ch, exchange: exchange, log: log}, nil
}

// Publish отправляет событие как persistent сообщение
func (p *RabbitMQ) Publish(ctx context.Context, event Event) error {
	pub, err := buildPublishing(event)
	if err != nil {
		return err
	}

	// amqp.Channel не безопасен для параллельной публикации
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx,
		p.exchange, // exchange
		event.Type, // routing key
		false,      // mandatory
		false,      // immediate
		pub,
	); err != nil {
		p.log.Error("RabbitMQ: publish %s booking=%d failed: %v", event.Type, event.BookingID, err)
		return fmt.Errorf("%w: rabbitmq: %v", ErrPublish, err)
	}
	return nil
}

// Close закрывает канал и соединение
func (p *RabbitMQ) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.ch.Close()
	return p.conn.Close()
}

func buildPublishing(event Event) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         event.Type,
		Timestamp:    event.OccurredAt,
		Body:         body,
	}, nil
}
