package stream

import (
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

type KafkaStream struct {
	kafkaServers string
	producer     *kafka.Producer
	logger       *slog.Logger
}

func New(kafkaServers string, logger *slog.Logger) (*KafkaStream, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{"bootstrap.servers": kafkaServers})
	if err != nil {
		return nil, err
	}

	return &KafkaStream{
		kafkaServers: kafkaServers,
		producer:     producer,
		logger:       logger,
	}, nil
}

func (st *KafkaStream) ProduceMessage(topic, message string) error {
	err := st.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          []byte(message),
	}, nil)

	if err != nil {
		st.logger.Error("failed to produce message", "topic", topic, "error", err)
		return err
	}

	return nil
}

func (st *KafkaStream) Close() {
	st.producer.Flush(5000)
	st.producer.Close()
}

type StreamConsumer struct {
	GroupId string
	Topic   string
}

func (st *KafkaStream) CreateConsumer(consumerStruct *StreamConsumer) (*kafka.Consumer, error) {
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers": st.kafkaServers,
		"group.id":          consumerStruct.GroupId,
		"auto.offset.reset": "earliest",
	})
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(consumerStruct.Topic, nil); err != nil {
		return nil, err
	}

	return consumer, nil
}
