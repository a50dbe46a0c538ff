package amqp

import (
	"encoding/json"
	"time"
)

// BackupRequestMessage asks the backup worker to export the store and upload it to Drive.
// It carries no data; the worker reads the current snapshot itself.
type BackupRequestMessage struct {
	RequestedAt time.Time `json:"requestedAt"`
	Reason      string    `json:"reason"`
}

// Reasons recorded on backup requests.
const (
	ReasonManual    = "manual"
	ReasonScheduled = "scheduled"
	ReasonImport    = "pre-import"
)

func NewBackupRequestMessage(reason string) *BackupRequestMessage {
	return &BackupRequestMessage{
		RequestedAt: time.Now().UTC(),
		Reason:      reason,
	}
}

// ToJSON converts the message to JSON bytes
func (m *BackupRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BackupRequestMessageFromJSON parses a message body.
func BackupRequestMessageFromJSON(data []byte) (*BackupRequestMessage, error) {
	var msg BackupRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
