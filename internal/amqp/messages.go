package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"boutique/internal/core"

	"github.com/google/uuid"
)

// Sync operations carried by RecordSyncMessage.
const (
	OpCreate = "create"
	OpUpdate = "update"
)

// RecordSyncMessage asks the worker to mirror one record. It carries only
// the reference; the worker reads the current record from the repository.
type RecordSyncMessage struct {
	MessageID  string          `json:"messageId"`
	Collection core.Collection `json:"collection"`
	ID         string          `json:"id"`
	Op         string          `json:"op"`
	Timestamp  time.Time       `json:"timestamp"`
}

func NewRecordSyncMessage(collection core.Collection, id, op string) *RecordSyncMessage {
	return &RecordSyncMessage{
		MessageID:  uuid.NewString(),
		Collection: collection,
		ID:         id,
		Op:         op,
		Timestamp:  time.Now().UTC(),
	}
}

func (m *RecordSyncMessage) Validate() error {
	if !m.Collection.IsValid() {
		return fmt.Errorf("unknown collection %q", m.Collection)
	}
	if m.ID == "" {
		return fmt.Errorf("missing record id")
	}
	if m.Op != OpCreate && m.Op != OpUpdate {
		return fmt.Errorf("unknown op %q", m.Op)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *RecordSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordSyncMessageFromJSON decodes and validates a message body.
func RecordSyncMessageFromJSON(data []byte) (*RecordSyncMessage, error) {
	var msg RecordSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
