package amqp

import (
	"encoding/json"
	"time"
)

// WagePostedMessage announces a persisted wage entry. It carries only
// identifiers; the worker fetches the full entry from the store.
type WagePostedMessage struct {
	EntryID   string    `json:"entry_id"`
	LabourID  string    `json:"labour_id"`
	Org       string    `json:"org"`
	Timestamp time.Time `json:"timestamp"`
}

func NewWagePostedMessage(entryID, labourID, org string) *WagePostedMessage {
	return &WagePostedMessage{
		EntryID:   entryID,
		LabourID:  labourID,
		Org:       org,
		Timestamp: time.Now(),
	}
}

func (m *WagePostedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func WagePostedMessageFromJSON(data []byte) (*WagePostedMessage, error) {
	var msg WagePostedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
