package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSubscriber is a mock subscriber for testing.
type mockSubscriber struct {
	mu     sync.Mutex
	events []Event
	closed bool
	err    error
}

func (m *mockSubscriber) Send(event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockSubscriber) snapshot() ([]Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...), m.closed
}

func startBroker(t *testing.T) (*Broker, context.CancelFunc) {
	t.Helper()
	logger := zerolog.Nop()
	b := NewBroker(&logger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return b, cancel
}

func TestBroker_SubscribeBeforeRun(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroker(&logger)
	sub := &mockSubscriber{}
	b.Subscribe(sub)
	assert.Equal(t, 1, b.SubscriberCount())
}

func TestBroker_PublishFanOut(t *testing.T) {
	b, _ := startBroker(t)
	s1, s2 := &mockSubscriber{}, &mockSubscriber{}
	b.Subscribe(s1)
	b.Subscribe(s2)

	b.Publish(EndpointCreated, map[string]any{"name": "menu"})
	b.Publish(EndpointUpdated, map[string]any{"name": "menu"})

	for _, s := range []*mockSubscriber{s1, s2} {
		require.Eventually(t, func() bool {
			evs, _ := s.snapshot()
			return len(evs) == 2
		}, time.Second, 5*time.Millisecond)

		evs, _ := s.snapshot()
		assert.Equal(t, EndpointCreated, evs[0].Type)
		assert.Equal(t, EndpointUpdated, evs[1].Type)
		assert.Less(t, evs[0].ID, evs[1].ID)
		assert.False(t, evs[0].Timestamp.IsZero())
	}
}

func TestBroker_SubscriberErrorDoesNotStopOthers(t *testing.T) {
	b, _ := startBroker(t)
	bad := &mockSubscriber{err: errors.New("gone")}
	good := &mockSubscriber{}
	b.Subscribe(bad)
	b.Subscribe(good)

	b.Publish(EndpointCreated, nil)

	require.Eventually(t, func() bool {
		evs, _ := good.snapshot()
		return len(evs) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestBroker_Unsubscribe(t *testing.T) {
	b, _ := startBroker(t)
	sub := &mockSubscriber{}
	b.Subscribe(sub)
	b.Unsubscribe(sub)

	assert.Equal(t, 0, b.SubscriberCount())
	_, closed := sub.snapshot()
	assert.True(t, closed)

	b.Unsubscribe(sub) // unknown subscriber is ignored
}

func TestBroker_ShutdownClosesSubscribers(t *testing.T) {
	b, cancel := startBroker(t)
	sub := &mockSubscriber{}
	b.Subscribe(sub)

	cancel()
	require.Eventually(t, func() bool {
		_, closed := sub.snapshot()
		return closed
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestBroker_PublishNeverBlocks(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroker(&logger) // not running, queue fills up

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			b.Publish(EndpointCreated, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with a full queue")
	}
}
