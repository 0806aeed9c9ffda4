// Package producers publishes activity events to Kafka.
package producers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

const defaultNetworkTimeout = 30 * time.Second

// MessageSender is the part of sarama.SyncProducer used here.
type MessageSender interface {
	SendMessage(msg *sarama.ProducerMessage) (partition int32, offset int64, err error)
	Close() error
}

// SaramaProducer sends each activity event synchronously. Events are keyed by user id,
// so one user's cart and favorites history lands on one partition in order.
type SaramaProducer struct {
	producer MessageSender
	log      *zap.Logger
}

func producerConfig(networkTimeout time.Duration) *sarama.Config {
	if networkTimeout <= 0 {
		networkTimeout = defaultNetworkTimeout
	}
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Retry.Backoff = 100 * time.Millisecond
	cfg.Producer.Return.Successes = true
	cfg.Net.DialTimeout = networkTimeout
	cfg.Net.ReadTimeout = networkTimeout
	cfg.Net.WriteTimeout = networkTimeout
	return cfg
}

// NewSaramaProducer connects to a comma-separated broker list.
func NewSaramaProducer(brokers string, networkTimeout time.Duration, logger *zap.Logger) (*SaramaProducer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var brokerList []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokerList = append(brokerList, b)
		}
	}
	if len(brokerList) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}

	producer, err := sarama.NewSyncProducer(brokerList, producerConfig(networkTimeout))
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	logger.Info("kafka producer ready", zap.Strings("brokers", brokerList))
	return &SaramaProducer{producer: producer, log: logger}, nil
}

// NewSaramaProducerWithSender wraps an existing sender, such as a sarama mock.
func NewSaramaProducerWithSender(sender MessageSender, logger *zap.Logger) *SaramaProducer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaramaProducer{producer: sender, log: logger}
}

// routing is what the producer reads from an event before sending it.
type routing struct {
	UserID    string `json:"userId"`
	EventType string `json:"eventType"`
}

func (s *SaramaProducer) WriteMessage(topic string, msg []byte) error {
	if s.producer == nil {
		return fmt.Errorf("kafka producer is not initialized")
	}

	pm := &sarama.ProducerMessage{Topic: topic, Value: sarama.ByteEncoder(msg)}
	var r routing
	if json.Unmarshal(msg, &r) == nil {
		if r.UserID != "" {
			pm.Key = sarama.StringEncoder(r.UserID)
		}
		if r.EventType != "" {
			pm.Headers = []sarama.RecordHeader{{Key: []byte("event_type"), Value: []byte(r.EventType)}}
		}
	}

	partition, offset, err := s.producer.SendMessage(pm)
	if err != nil {
		s.log.Warn("kafka send failed", zap.String("topic", topic), zap.Error(err))
		return fmt.Errorf("send to %s: %w", topic, err)
	}
	s.log.Debug("event published",
		zap.String("topic", topic),
		zap.String("event_type", r.EventType),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

func (s *SaramaProducer) Close() error {
	if s.producer == nil {
		return nil
	}
	return s.producer.Close()
}
