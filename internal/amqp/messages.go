package amqp

import (
	"encoding/json"
	"time"
)

// Event actions carried on the records queue.
const (
	ActionCreated  = "created"
	ActionDeleted  = "deleted"
	ActionReloaded = "reloaded"
)

// RecordEventMessage is a lightweight notification that the record collection
// changed. It carries only the action and record id; the index worker fetches
// the full record from the blob store.
type RecordEventMessage struct {
	Action    string    `json:"action"`
	RecordID  string    `json:"recordId"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordEventMessage(action, recordID string) *RecordEventMessage {
	return &RecordEventMessage{
		Action:    action,
		RecordID:  recordID,
		Timestamp: time.Now(),
	}
}

func (m *RecordEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecordEventMessageFromJSON(data []byte) (*RecordEventMessage, error) {
	var msg RecordEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
