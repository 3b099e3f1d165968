package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "odontoforense/pkg/domain"
)

func TestPublisher_EmitStampsTimestamp(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)

	caseID := id.CaseID(uuid.New())
	require.NoError(t, pub.Emit(context.Background(), Event{
		Action: ActionCaseCreated,
		CaseID: caseID,
	}))

	events, err := pub.List(context.Background(), caseID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, ActionCaseCreated, events[0].Action)
}

func TestPublisher_PreservesExplicitTimestamp(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)

	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	caseID := id.CaseID(uuid.New())
	require.NoError(t, pub.Emit(context.Background(), Event{
		Timestamp: at,
		Action:    ActionMemberAdded,
		CaseID:    caseID,
	}))

	events, err := store.ListByCase(context.Background(), caseID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, at, events[0].Timestamp)
}

func TestInMemoryStore_ListFiltersByCase(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	caseA := id.CaseID(uuid.New())
	caseB := id.CaseID(uuid.New())
	require.NoError(t, store.Append(ctx, Event{Action: ActionCaseCreated, CaseID: caseA}))
	require.NoError(t, store.Append(ctx, Event{Action: ActionCaseDeleted, CaseID: caseB}))
	require.NoError(t, store.Append(ctx, Event{Action: ActionVictimCreated, CaseID: caseA}))

	events, err := store.ListByCase(ctx, caseA)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionCaseCreated, events[0].Action)
	assert.Equal(t, ActionVictimCreated, events[1].Action)
}

func TestWorker_DrainsInboxToAllSinks(t *testing.T) {
	inbox := make(chan Event, 4)
	sinkA := NewInMemoryStore()
	sinkB := NewInMemoryStore()
	worker := NewWorker(inbox, testLogger(), sinkA, sinkB)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	caseID := id.CaseID(uuid.New())
	channel := NewChannelStore(inbox)
	require.NoError(t, channel.Append(ctx, Event{Action: ActionToothUpdated, CaseID: caseID}))

	assert.Eventually(t, func() bool {
		return len(sinkA.All()) == 1 && len(sinkB.All()) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestChannelStore_ListByCaseIsRefused(t *testing.T) {
	channel := NewChannelStore(make(chan Event, 1))

	events, err := channel.ListByCase(context.Background(), id.CaseID(uuid.New()))
	require.Error(t, err)
	assert.Nil(t, events)
}
