package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/segmentio/kafka-go"
)

// Kafka публикует события в один топик, ключ сообщения = ID бронирования
// Все события одного бронирования попадают в одну партицию и сохраняют порядок
type Kafka struct {
	writer *kafka.Writer
	log    Logger
}

// NewKafka создает writer для списка брокеров через запятую
func NewKafka(brokers, topic string, log Logger) *Kafka {
	return &Kafka{
		writer: kafka.NewWriter(kafka.WriterConfig{
			Brokers:  SplitBrokers(brokers),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		}),
		log: log,
	}
}

// Publish отправляет событие синхронно
func (p *Kafka) Publish(ctx context.Context, event Event) error {
	msg, err := buildMessage(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("Kafka: publish %s booking=%d failed: %v", event.Type, event.BookingID, err)
		return fmt.Errorf("%w: kafka: %v", ErrPublish, err)
	}
	return nil
}

// Close сбрасывает буферы и закрывает writer
func (p *Kafka) Close() error {
	return p.writer.Close()
}

func buildMessage(event Event) (kafka.Message, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	return kafka.Message{
		Key:   []byte(strconv.FormatInt(event.BookingID, 10)),
		Value: body,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}, nil
}

// SplitBrokers разбирает список брокеров "host1:9092,host2:9092"
func SplitBrokers(brokers string) []string {
	parts := strings.Split(brokers, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
