package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	id "odontoforense/pkg/domain"
)

// KafkaStore appends audit events to a Kafka topic. The topic is the
// long-term source of truth for the audit trail; queries go through the
// materialized postgres table, so ListByCase is not served from here.
type KafkaStore struct {
	client *kgo.Client
	topic  string
}

// kafkaPayload is the JSON structure published to the audit topic. Field
// names are stable; downstream consumers deserialize by name.
type kafkaPayload struct {
	ID        string `json:"ID"`
	Timestamp string `json:"Timestamp"`
	ActorID   string `json:"ActorID,omitempty"`
	ActorRole string `json:"ActorRole,omitempty"`
	Action    string `json:"Action"`
	CaseID    string `json:"CaseID,omitempty"`
	Subject   string `json:"Subject,omitempty"`
	Decision  string `json:"Decision,omitempty"`
	Reason    string `json:"Reason,omitempty"`
	RequestID string `json:"RequestID,omitempty"`
	ClientIP  string `json:"ClientIP,omitempty"`
	UserAgent string `json:"UserAgent,omitempty"`
}

// NewKafkaStore connects to the brokers and ensures the audit topic exists.
func NewKafkaStore(ctx context.Context, brokers []string, topic string) (*KafkaStore, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	admin := kadm.NewClient(client)
	// CreateTopic is idempotent for our purposes: an "already exists" response
	// means a previous boot created it.
	if _, err := admin.CreateTopic(ctx, 1, 1, nil, topic); err != nil && !isTopicExists(err) {
		client.Close()
		return nil, fmt.Errorf("ensure audit topic: %w", err)
	}

	return &KafkaStore{client: client, topic: topic}, nil
}

func isTopicExists(err error) bool {
	// kadm surfaces broker errors with their kafka error text.
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "already exists")
}

// Append publishes one event, keyed by case so per-case ordering holds.
func (s *KafkaStore) Append(ctx context.Context, event Event) error {
	payload := kafkaPayload{
		ID:        uuid.NewString(),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		Action:    string(event.Action),
		Subject:   event.Subject,
		Decision:  event.Decision,
		Reason:    event.Reason,
		RequestID: event.RequestID,
		ClientIP:  event.ClientIP,
		UserAgent: event.UserAgent,
	}
	if !event.ActorID.IsNil() {
		payload.ActorID = event.ActorID.String()
		payload.ActorRole = event.ActorRole.String()
	}
	if !event.CaseID.IsNil() {
		payload.CaseID = event.CaseID.String()
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(payload.CaseID),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// ListByCase is not served from Kafka; query the materialized store instead.
func (s *KafkaStore) ListByCase(context.Context, id.CaseID) ([]Event, error) {
	return nil, fmt.Errorf("kafka audit store is write-only")
}

// Close flushes pending records and releases the client.
func (s *KafkaStore) Close() {
	s.client.Close()
}
