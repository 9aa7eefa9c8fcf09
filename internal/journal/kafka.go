package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Decisions are written one at a time; a full batch never forms.
const batchTimeout = 10 * time.Millisecond

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes decisions keyed by symbol.
type KafkaSink struct {
	writer messageWriter
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: batchTimeout,
		},
	}
}

func (k *KafkaSink) Append(ctx context.Context, decision Decision) error {
	payload, err := decision.Marshal()
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}
	if err := k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(decision.Symbol),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("publish decision: %w", err)
	}
	return nil
}

func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
