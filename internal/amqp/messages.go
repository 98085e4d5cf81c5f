package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Action is the kind of change an ExpenseEvent reports.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// IsValid reports whether a is a known action.
func (a Action) IsValid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionDeleted:
		return true
	default:
		return false
	}
}

// ExpenseEvent announces a change to one expense. It carries only the id; consumers
// read the current row from the store.
type ExpenseEvent struct {
	EventID   string    `json:"event_id"`
	ID        int64     `json:"id"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseEvent creates an event with a fresh id and the current time.
func NewExpenseEvent(id int64, action Action) *ExpenseEvent {
	return &ExpenseEvent{
		EventID:   uuid.NewString(),
		ID:        id,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExpenseEventFromJSON decodes and checks an event.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var ev ExpenseEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if ev.ID <= 0 {
		return nil, fmt.Errorf("invalid expense id %d", ev.ID)
	}
	if !ev.Action.IsValid() {
		return nil, fmt.Errorf("unknown action %q", ev.Action)
	}
	return &ev, nil
}
