package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"finassist/internal/core"
)

// Record kinds carried by a RecordEvent.
const (
	KindIncome  = "income"
	KindExpense = "expense"
	KindBudget  = "budget"
)

// Actions carried by a RecordEvent.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// RecordEvent announces that one user's records for a month changed. It
// carries no record data; consumers re-read the store.
type RecordEvent struct {
	Kind      string     `json:"kind"`
	Action    string     `json:"action"`
	UserID    string     `json:"user_id"`
	Month     core.Month `json:"month"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewRecordEvent creates an event stamped with the current time.
func NewRecordEvent(kind, action, userID string, month core.Month) *RecordEvent {
	return &RecordEvent{
		Kind:      kind,
		Action:    action,
		UserID:    userID,
		Month:     month,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordEventFromJSON decodes and validates an event.
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var e RecordEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.UserID == "" {
		return nil, errors.New("record event without user_id")
	}
	if e.Month.IsZero() {
		return nil, errors.New("record event without month")
	}
	return &e, nil
}
