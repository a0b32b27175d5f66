package amqp

import (
	"encoding/json"
	"time"
)

// ReceiptSyncMessage asks the export worker to push one receipt to the
// spreadsheet. It carries only the ID and version; the worker fetches the
// full receipt from the database.
type ReceiptSyncMessage struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReceiptSyncMessage(id string, version int64) *ReceiptSyncMessage {
	return &ReceiptSyncMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *ReceiptSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReceiptSyncMessageFromJSON(data []byte) (*ReceiptSyncMessage, error) {
	var msg ReceiptSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
