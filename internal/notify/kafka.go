package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/sirupsen/logrus"
)

var _ Notifier = (*KafkaNotifier)(nil)

// KafkaNotifier produces publish events onto a kafka topic consumed by the
// notification service.
type KafkaNotifier struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaNotifier(brokers, topic string) (*KafkaNotifier, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
	})
	if err != nil {
		return nil, err
	}

	return &KafkaNotifier{
		producer: producer,
		topic:    topic,
	}, nil
}

func (k *KafkaNotifier) PostPublished(ctx context.Context, event *PublishedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	delivery := make(chan kafka.Event, 1)
	err = k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &k.topic, Partition: kafka.PartitionAny},
		Key:            []byte(event.PostID),
		Value:          payload,
	}, delivery)
	if err != nil {
		return err
	}

	select {
	case e := <-delivery:
		msg, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event: %v", e)
		}
		if msg.TopicPartition.Error != nil {
			return msg.TopicPartition.Error
		}
		logrus.Infof("publish event delivered for post %s", event.PostID)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (k *KafkaNotifier) Close() {
	k.producer.Flush(5000)
	k.producer.Close()
}
