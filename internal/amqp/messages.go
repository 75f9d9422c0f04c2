package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Action is the kind of expense mutation an activity event records.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

func (a Action) Valid() bool {
	return a == ActionCreated || a == ActionUpdated || a == ActionDeleted
}

// ActivityMessage announces that a user changed an expense through the
// frontend. It carries no expense data; consumers ask the API if they need it.
type ActivityMessage struct {
	Action    Action    `json:"action"`
	ExpenseID int64     `json:"expenseId"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

func NewActivityMessage(action Action, expenseID int64, username string) *ActivityMessage {
	return &ActivityMessage{
		Action:    action,
		ExpenseID: expenseID,
		Username:  username,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ActivityMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ActivityMessageFromJSON decodes and checks a message body.
func ActivityMessageFromJSON(data []byte) (*ActivityMessage, error) {
	var msg ActivityMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Action.Valid() {
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
	if msg.ExpenseID <= 0 {
		return nil, fmt.Errorf("invalid expense id %d", msg.ExpenseID)
	}
	return &msg, nil
}
