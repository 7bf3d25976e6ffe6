package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const DefaultKafkaTopic = "repricer.events"

// messageWriter es el subconjunto de *kafka.Writer que usa el publisher
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publica eventos en un topic; la key es el id del listing
// para que los eventos de un mismo listing queden ordenados en una partición.
type KafkaSink struct {
	writer       messageWriter
	writeTimeout time.Duration
}

// NewKafkaSink crea el writer con balanceo LeastBytes
func NewKafkaSink(brokers []string, topic string, writeTimeout time.Duration) *KafkaSink {
	if topic == "" {
		topic = DefaultKafkaTopic
	}
	return newKafkaSinkWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}, writeTimeout)
}

func newKafkaSinkWithWriter(writer messageWriter, writeTimeout time.Duration) *KafkaSink {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &KafkaSink{writer: writer, writeTimeout: writeTimeout}
}

func (k *KafkaSink) Name() string { return "kafka" }

func (k *KafkaSink) Send(ctx context.Context, event Event) error {
	msg, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, k.writeTimeout)
	defer cancel()

	return k.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(event.Result.ListingID),
		Value: msg,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
}

func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
