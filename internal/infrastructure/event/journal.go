package event

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/erp/invengine/internal/domain/shared"
)

// JournalEntry is one line of an event journal
type JournalEntry struct {
	EventID     string          `json:"event_id"`
	EventType   string          `json:"event_type"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// JournalHandler is a wildcard handler that appends every event to w as
// JSON lines
type JournalHandler struct {
	mu         sync.Mutex
	w          io.Writer
	serializer *EventSerializer
	written    int
}

// NewJournalHandler creates a journal writing to w
func NewJournalHandler(w io.Writer, serializer *EventSerializer) *JournalHandler {
	if serializer == nil {
		serializer = NewEngineSerializer()
	}
	return &JournalHandler{w: w, serializer: serializer}
}

// EventTypes returns nil so the handler receives all events
func (h *JournalHandler) EventTypes() []string {
	return nil
}

// Handle writes the event as one journal line
func (h *JournalHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := h.serializer.Serialize(event)
	if err != nil {
		return err
	}
	line, err := json.Marshal(JournalEntry{
		EventID:     event.EventID().String(),
		EventType:   event.EventType(),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt(),
		Payload:     payload,
	})
	if err != nil {
		return fmt.Errorf("failed to encode journal entry: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write journal entry: %w", err)
	}
	h.written++
	return nil
}

// Written returns the number of entries written
func (h *JournalHandler) Written() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.written
}

// ReadJournal decodes a journal back into events. Unregistered event types fail.
func ReadJournal(r io.Reader, serializer *EventSerializer) ([]shared.DomainEvent, error) {
	if serializer == nil {
		serializer = NewEngineSerializer()
	}

	events := make([]shared.DomainEvent, 0)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var entry JournalEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("journal line %d: %w", line, err)
		}
		event, err := serializer.Deserialize(entry.EventType, entry.Payload)
		if err != nil {
			return nil, fmt.Errorf("journal line %d: %w", line, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return events, nil
}

var _ shared.EventHandler = (*JournalHandler)(nil)
