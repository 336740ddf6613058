// Package kafka publishes experiment lifecycle events.
package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Topics for experiment lifecycle events
const (
	TopicExperimentEvents = "experiment-events"
)

// Event types carried on TopicExperimentEvents
const (
	EventExperimentStarted   = "experiment.started"
	EventExperimentProgress  = "experiment.progress"
	EventExperimentCompleted = "experiment.completed"
	EventExperimentFailed    = "experiment.failed"
)

// ExperimentEvent is the payload published for each lifecycle change
type ExperimentEvent struct {
	Type         string    `json:"type"`
	ExperimentID int       `json:"experiment_id"`
	Progress     int       `json:"progress,omitempty"`
	Error        string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Producer handles producing messages to Kafka topics
type Producer struct {
	mu       sync.Mutex
	writers  map[string]*kafka.Writer
	brokers  []string
	clientID string
	logger   *zap.Logger
}

// Message represents a Kafka message to be sent
type Message struct {
	Key     string
	Value   interface{}
	Headers []kafka.Header
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, clientID string, logger *zap.Logger) *Producer {
	return &Producer{
		writers:  make(map[string]*kafka.Writer),
		brokers:  brokers,
		clientID: clientID,
		logger:   logger,
	}
}

// getWriter returns a Kafka writer for the specified topic
func (p *Producer) getWriter(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if writer, exists := p.writers[topic]; exists {
		return writer
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		Transport: &kafka.Transport{
			ClientID: p.clientID,
		},
	}

	p.writers[topic] = writer
	return writer
}

// Publish sends a message to a Kafka topic
func (p *Producer) Publish(ctx context.Context, topic string, msg Message) error {
	writer := p.getWriter(topic)

	jsonValue, err := json.Marshal(msg.Value)
	if err != nil {
		p.logger.Error("Failed to marshal message",
			zap.String("topic", topic),
			zap.Error(err))
		return err
	}

	kafkaMsg := kafka.Message{
		Key:     []byte(msg.Key),
		Value:   jsonValue,
		Headers: msg.Headers,
		Time:    time.Now(),
	}

	err = writer.WriteMessages(ctx, kafkaMsg)
	if err != nil {
		p.logger.Error("Failed to publish message",
			zap.String("topic", topic),
			zap.String("key", msg.Key),
			zap.Error(err))
		return err
	}

	p.logger.Debug("Message published",
		zap.String("topic", topic),
		zap.String("key", msg.Key))

	return nil
}

// PublishExperimentEvent publishes one experiment lifecycle event, keyed
// by experiment ID so a consumer sees events for one experiment in order.
func (p *Producer) PublishExperimentEvent(ctx context.Context, event ExperimentEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return p.Publish(ctx, TopicExperimentEvents, Message{
		Key:   strconv.Itoa(event.ExperimentID),
		Value: event,
	})
}

// Close closes all Kafka writers
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil {
			p.logger.Error("Failed to close Kafka writer",
				zap.String("topic", topic),
				zap.Error(err))
		}
	}
	return nil
}
