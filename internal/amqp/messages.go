package amqp

import (
	"encoding/json"
	"time"
)

// RecurringProcessMessage is a lightweight work item for materializing one
// due recurring transaction. It carries only identifiers; the worker fetches
// the current row and re-checks dueness before processing.
type RecurringProcessMessage struct {
	TransactionID string    `json:"transactionId"`
	UserID        string    `json:"userId"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewRecurringProcessMessage creates a work item for the given template.
func NewRecurringProcessMessage(transactionID, userID string) *RecurringProcessMessage {
	return &RecurringProcessMessage{
		TransactionID: transactionID,
		UserID:        userID,
		Timestamp:     time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecurringProcessMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecurringProcessMessageFromJSON creates a message from JSON bytes
func RecurringProcessMessageFromJSON(data []byte) (*RecurringProcessMessage, error) {
	var msg RecurringProcessMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
