package events

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/roostchat/roost/internal/models"
)

func TestFilter_Matches(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		event  *models.Event
		want   bool
	}{
		{
			name:   "empty filter matches any event",
			filter: Filter{},
			event: &models.Event{
				Type:           models.EventTypeConversationPinned,
				ConversationID: "conv-1",
			},
			want: true,
		},
		{
			name:   "nil event returns false",
			filter: Filter{},
			event:  nil,
			want:   false,
		},
		{
			name: "event type filter matches",
			filter: Filter{
				EventTypes: []models.EventType{models.EventTypeBatchProgress},
			},
			event: &models.Event{Type: models.EventTypeBatchProgress},
			want:  true,
		},
		{
			name: "event type filter rejects non-matching",
			filter: Filter{
				EventTypes: []models.EventType{models.EventTypeBatchProgress},
			},
			event: &models.Event{Type: models.EventTypeBatchComplete},
			want:  false,
		},
		{
			name: "multiple event types - matches any",
			filter: Filter{
				EventTypes: []models.EventType{
					models.EventTypeBatchProgress,
					models.EventTypeBatchComplete,
				},
			},
			event: &models.Event{Type: models.EventTypeBatchComplete},
			want:  true,
		},
		{
			name:   "conversation ID filter matches",
			filter: Filter{ConversationID: "conv-1"},
			event: &models.Event{
				Type:           models.EventTypeConversationUnpinned,
				ConversationID: "conv-1",
			},
			want: true,
		},
		{
			name:   "conversation ID filter rejects non-matching",
			filter: Filter{ConversationID: "conv-1"},
			event: &models.Event{
				Type:           models.EventTypeConversationUnpinned,
				ConversationID: "conv-2",
			},
			want: false,
		},
		{
			name: "combined filters - all must match",
			filter: Filter{
				EventTypes:     []models.EventType{models.EventTypeConversationUnpinned},
				ConversationID: "conv-1",
			},
			event: &models.Event{
				Type:           models.EventTypeConversationUnpinned,
				ConversationID: "conv-1",
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Matches(tt.event)
			if got != tt.want {
				t.Errorf("Filter.Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInMemoryPublisher_Subscribe(t *testing.T) {
	pub := NewInMemoryPublisher()

	handler := func(event *models.Event) {}

	// Subscribe successfully
	err := pub.Subscribe("sub-1", Filter{}, handler)
	if err != nil {
		t.Errorf("Subscribe() error = %v, want nil", err)
	}

	if pub.SubscriberCount() != 1 {
		t.Errorf("SubscriberCount() = %d, want 1", pub.SubscriberCount())
	}

	// Duplicate subscription should fail
	err = pub.Subscribe("sub-1", Filter{}, handler)
	if err != ErrSubscriptionExists {
		t.Errorf("Subscribe() duplicate error = %v, want %v", err, ErrSubscriptionExists)
	}

	// Empty ID should fail
	err = pub.Subscribe("", Filter{}, handler)
	if err != ErrInvalidSubscriptionID {
		t.Errorf("Subscribe() empty ID error = %v, want %v", err, ErrInvalidSubscriptionID)
	}

	// Nil handler should fail
	err = pub.Subscribe("sub-2", Filter{}, nil)
	if err != ErrNilHandler {
		t.Errorf("Subscribe() nil handler error = %v, want %v", err, ErrNilHandler)
	}
}

func TestInMemoryPublisher_Unsubscribe(t *testing.T) {
	pub := NewInMemoryPublisher()

	handler := func(event *models.Event) {}

	_ = pub.Subscribe("sub-1", Filter{}, handler)

	err := pub.Unsubscribe("sub-1")
	if err != nil {
		t.Errorf("Unsubscribe() error = %v, want nil", err)
	}

	if pub.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", pub.SubscriberCount())
	}

	// Unsubscribe non-existent should fail
	err = pub.Unsubscribe("sub-1")
	if err != ErrSubscriptionNotFound {
		t.Errorf("Unsubscribe() non-existent error = %v, want %v", err, ErrSubscriptionNotFound)
	}
}

func TestInMemoryPublisher_Publish(t *testing.T) {
	pub := NewInMemoryPublisher()

	var received []*models.Event
	var mu sync.Mutex

	handler := func(event *models.Event) {
		mu.Lock()
		received = append(received, event)
		mu.Unlock()
	}

	_ = pub.Subscribe("sub-1", Filter{}, handler)

	event := &models.Event{
		Type:           models.EventTypeConversationPinned,
		ConversationID: "conv-1",
	}

	pub.Publish(event)

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("received %d events, want 1", len(received))
	}
	if received[0].ID == "" {
		t.Error("Publish did not assign an event ID")
	}
	if received[0].Timestamp.IsZero() {
		t.Error("Publish did not stamp the event")
	}
}

func TestInMemoryPublisher_PublishWithFilter(t *testing.T) {
	pub := NewInMemoryPublisher()

	var pinEvents, batchEvents int
	var mu sync.Mutex

	_ = pub.Subscribe("pin-sub", Filter{
		EventTypes: []models.EventType{models.EventTypeConversationPinned},
	}, func(event *models.Event) {
		mu.Lock()
		pinEvents++
		mu.Unlock()
	})

	_ = pub.Subscribe("batch-sub", Filter{
		EventTypes: []models.EventType{models.EventTypeBatchComplete},
	}, func(event *models.Event) {
		mu.Lock()
		batchEvents++
		mu.Unlock()
	})

	pub.Publish(&models.Event{Type: models.EventTypeConversationPinned, ConversationID: "conv-1"})
	pub.Publish(&models.Event{Type: models.EventTypeBatchComplete})

	mu.Lock()
	defer mu.Unlock()
	if pinEvents != 1 {
		t.Errorf("pinEvents = %d, want 1", pinEvents)
	}
	if batchEvents != 1 {
		t.Errorf("batchEvents = %d, want 1", batchEvents)
	}
}

func TestInMemoryPublisher_PublishNilEvent(t *testing.T) {
	pub := NewInMemoryPublisher()

	called := false
	_ = pub.Subscribe("sub-1", Filter{}, func(event *models.Event) {
		called = true
	})

	pub.Publish(nil)

	if called {
		t.Error("handler was called for nil event")
	}
}

func TestInMemoryPublisher_Emit(t *testing.T) {
	pub := NewInMemoryPublisher()

	var received *models.Event
	_ = pub.Subscribe("sub-1", Filter{}, func(event *models.Event) {
		received = event
	})

	pub.Emit(models.EventTypeBatchComplete, "", models.BatchCompletePayload{
		Action: models.ActionArchive,
		Count:  42,
	})

	if received == nil {
		t.Fatal("expected event")
	}
	var payload models.BatchCompletePayload
	if err := json.Unmarshal(received.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Action != models.ActionArchive || payload.Count != 42 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestInMemoryPublisher_Close(t *testing.T) {
	pub := NewInMemoryPublisher()

	_ = pub.Subscribe("sub-1", Filter{}, func(event *models.Event) {})
	_ = pub.Subscribe("sub-2", Filter{}, func(event *models.Event) {})

	if pub.SubscriberCount() != 2 {
		t.Errorf("SubscriberCount() before Close = %d, want 2", pub.SubscriberCount())
	}

	pub.Close()

	if pub.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() after Close = %d, want 0", pub.SubscriberCount())
	}
}

func TestInMemoryPublisher_ConcurrentAccess(t *testing.T) {
	pub := NewInMemoryPublisher()

	var wg sync.WaitGroup
	var count int64

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			subID := "sub-" + string(rune('a'+id))
			_ = pub.Subscribe(subID, Filter{}, func(event *models.Event) {
				atomic.AddInt64(&count, 1)
			})
		}(i)
	}

	wg.Wait()

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pub.Publish(&models.Event{
				Type:           models.EventTypeConversationsUpdated,
				ConversationID: "conv-1",
			})
		}()
	}

	wg.Wait()

	expected := int64(10 * 100)
	if atomic.LoadInt64(&count) != expected {
		t.Errorf("count = %d, want %d", count, expected)
	}
}
