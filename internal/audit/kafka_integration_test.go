//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"odontoforense/internal/audit"
	id "odontoforense/pkg/domain"
	"odontoforense/pkg/testutil/containers"
)

// Publishes through the Kafka store against a real broker and reads the
// records back, checking the payload shape and the per-case partition key.
func TestKafkaStorePublishesEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	redpanda := containers.GetManager().GetRedpanda(t)
	topic := "audit-events-" + uuid.NewString()

	store, err := audit.NewKafkaStore(ctx, redpanda.Brokers, topic)
	require.NoError(t, err)
	defer store.Close()

	caseID := id.CaseID(uuid.New())
	actorID := id.UserID(uuid.New())
	events := []audit.Event{
		{
			Timestamp: time.Now().UTC(),
			ActorID:   actorID,
			ActorRole: id.RoleAdmin,
			Action:    audit.ActionCaseCreated,
			CaseID:    caseID,
			Decision:  "applied",
			RequestID: "req-kafka-1",
			ClientIP:  "203.0.113.9",
		},
		{
			Timestamp: time.Now().UTC(),
			ActorID:   actorID,
			ActorRole: id.RoleAdmin,
			Action:    audit.ActionVictimCreated,
			CaseID:    caseID,
			Subject:   "V-001",
			Decision:  "applied",
			RequestID: "req-kafka-2",
		},
	}
	for _, event := range events {
		require.NoError(t, store.Append(ctx, event))
	}

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	var records []*kgo.Record
	deadline := time.Now().Add(15 * time.Second)
	for len(records) < len(events) && time.Now().Before(deadline) {
		pollCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		fetches := consumer.PollFetches(pollCtx)
		cancel()
		fetches.EachRecord(func(r *kgo.Record) {
			records = append(records, r)
		})
	}
	require.Len(t, records, len(events))

	for i, record := range records {
		require.Equal(t, caseID.String(), string(record.Key))

		var payload map[string]any
		require.NoError(t, json.Unmarshal(record.Value, &payload))
		require.Equal(t, string(events[i].Action), payload["Action"])
		require.Equal(t, actorID.String(), payload["ActorID"])
		require.Equal(t, "admin", payload["ActorRole"])
		require.Equal(t, "applied", payload["Decision"])
		require.NotEmpty(t, payload["ID"])
		require.NotEmpty(t, payload["Timestamp"])
	}
}

// A second store on the same topic must tolerate the topic already existing.
func TestKafkaStoreTopicEnsureIsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	redpanda := containers.GetManager().GetRedpanda(t)
	topic := "audit-events-" + uuid.NewString()

	first, err := audit.NewKafkaStore(ctx, redpanda.Brokers, topic)
	require.NoError(t, err)
	defer first.Close()

	second, err := audit.NewKafkaStore(ctx, redpanda.Brokers, topic)
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, second.Append(ctx, audit.Event{
		Timestamp: time.Now().UTC(),
		Action:    audit.ActionLoginSucceeded,
		Decision:  "applied",
	}))
}
