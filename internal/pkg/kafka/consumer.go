package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Consume reads the topic until ctx is done and hands every message to
// handler. Offsets are committed only after handler succeeds, so a failed
// message is redelivered after a restart.
func Consume(ctx context.Context, brokers []string, topic, groupID string, handler func(ctx context.Context, value []byte) error) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
		StartOffset: kafka.FirstOffset,
	})
	defer reader.Close()

	logrus.Infof("Kafka consumer started, brokers %v, topic %s, group %s", brokers, topic, groupID)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				logrus.Info("Kafka consumer stopped")
				return nil
			}
			logrus.Errorf("Error reading message from Kafka: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		logrus.Debugf("Received message from topic %s [partition %d, offset %d]",
			msg.Topic, msg.Partition, msg.Offset)

		if err := handler(ctx, msg.Value); err != nil {
			logrus.Errorf("Failed to handle message at offset %d: %v", msg.Offset, err)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			logrus.Errorf("Failed to commit offset %d: %v", msg.Offset, err)
		}
	}
}
