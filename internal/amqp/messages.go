package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType says what happened to a ledger entry.
type EventType string

// EntryKind says which collection the entry belongs to.
type EntryKind string

const (
	EntryCreated EventType = "created"
	EntryDeleted EventType = "deleted"

	KindExpense EntryKind = "expense"
	KindIncome  EntryKind = "income"
)

// EntryEvent announces a ledger change. It carries identifiers only; the
// consumer reads the entry itself from storage.
type EntryEvent struct {
	Type      EventType `json:"type"`
	Kind      EntryKind `json:"kind"`
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntryEvent(typ EventType, kind EntryKind, id, owner string) EntryEvent {
	return EntryEvent{
		Type:      typ,
		Kind:      kind,
		ID:        id,
		OwnerID:   owner,
		Timestamp: time.Now().UTC(),
	}
}

func (e EntryEvent) Validate() error {
	switch e.Type {
	case EntryCreated, EntryDeleted:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	switch e.Kind {
	case KindExpense, KindIncome:
	default:
		return fmt.Errorf("unknown entry kind %q", e.Kind)
	}
	if e.ID == "" || e.OwnerID == "" {
		return fmt.Errorf("event is missing id or owner")
	}
	return nil
}

func (e EntryEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EntryEventFromJSON decodes and validates an event body.
func EntryEventFromJSON(data []byte) (EntryEvent, error) {
	var e EntryEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return EntryEvent{}, err
	}
	if err := e.Validate(); err != nil {
		return EntryEvent{}, err
	}
	return e, nil
}
