package amqp

import (
	"encoding/json"
	"time"
)

// GenerationCompletedMessage announces that one expansion run finished.
// The export worker fetches fresh data from the database, so the message
// only carries the run identity and its counters.
type GenerationCompletedMessage struct {
	RunID               string    `json:"run_id"`
	AsOf                string    `json:"as_of"`
	RulesProcessed      int       `json:"rules_processed"`
	TransactionsCreated int       `json:"transactions_created"`
	RulesSkipped        int       `json:"rules_skipped"`
	Failures            int       `json:"failures"`
	Timestamp           time.Time `json:"timestamp"`
}

func NewGenerationCompletedMessage(runID, asOf string, processed, created, skipped, failures int) *GenerationCompletedMessage {
	return &GenerationCompletedMessage{
		RunID:               runID,
		AsOf:                asOf,
		RulesProcessed:      processed,
		TransactionsCreated: created,
		RulesSkipped:        skipped,
		Failures:            failures,
		Timestamp:           time.Now(),
	}
}

func (m *GenerationCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func GenerationCompletedMessageFromJSON(data []byte) (*GenerationCompletedMessage, error) {
	var msg GenerationCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
