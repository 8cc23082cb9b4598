package appServer

import (
	"context"
	"errors"

	"github.com/ds124wfegd/linkhub/config"
	"github.com/ds124wfegd/linkhub/internal/database"
	"github.com/ds124wfegd/linkhub/internal/pkg/kafka"
	"github.com/ds124wfegd/linkhub/internal/pkg/processor"
	"github.com/ds124wfegd/linkhub/internal/pkg/rabbitMQ"
	"github.com/ds124wfegd/linkhub/internal/pkg/storage"
	"github.com/ds124wfegd/linkhub/internal/pkg/uploader"
	"github.com/sirupsen/logrus"
)

// EventProducer is what the app publishes image.replaced events through.
type EventProducer interface {
	SendMessage(ctx context.Context, key string, message interface{}) error
	Close() error
}

// NewEventProducer picks the broker from events.broker. A broker that cannot
// be reached degrades to the mock producer so the API keeps serving; the
// superseded images are then left in place.
func NewEventProducer(cfg *config.Config) EventProducer {
	switch cfg.Events.Broker {
	case "kafka":
		return kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	case "rabbitmq":
		rmq, err := rabbitMQ.NewRabbitMQ(rabbitMQ.RabbitMQConfig{
			URL:       cfg.Rabbit.AMQPURL(),
			QueueName: cfg.Rabbit.QueueName,
			Delay:     cfg.Events.CleanupDelay,
		})
		if err != nil {
			logrus.Warnf("RabbitMQ unavailable, using mock producer: %v", err)
			return kafka.NewMockProducer()
		}
		return rmq
	default:
		return kafka.NewMockProducer()
	}
}

// RunProcessor consumes image.replaced events until ctx is done and deletes
// the images they release.
func RunProcessor(ctx context.Context, cfg *config.Config) error {
	fileStorage := storage.NewFileStorage(cfg.Storage.BasePath)
	imageHost, err := uploader.New(cfg, database.NewAssetRepository(fileStorage))
	if err != nil {
		return err
	}

	switch cfg.Events.Broker {
	case "kafka":
		cleaner := processor.NewAssetCleaner(imageHost, cfg.Events.CleanupDelay)
		logrus.WithField("topic", cfg.Kafka.Topic).Info("asset cleaner consuming from kafka")
		return kafka.Consume(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, cleaner.Handle)
	case "rabbitmq":
		rmq, err := rabbitMQ.NewRabbitMQ(rabbitMQ.RabbitMQConfig{
			URL:       cfg.Rabbit.AMQPURL(),
			QueueName: cfg.Rabbit.QueueName,
			Delay:     cfg.Events.CleanupDelay,
		})
		if err != nil {
			return err
		}
		defer rmq.Close()

		// the delayed queue already held the message back
		cleaner := processor.NewAssetCleaner(imageHost, 0)
		logrus.WithField("queue", cfg.Rabbit.QueueName).Info("asset cleaner consuming from rabbitmq")
		return rmq.Consume(ctx, cleaner.Handle)
	default:
		return errors.New("events.broker is not set, nothing to consume")
	}
}
