package audit

import (
	"encoding/json"
	"log"
	"time"
)

type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	EventType   string    `json:"event_type"`
	ReferenceID string    `json:"reference_id"`
	AccountID   string    `json:"account_id"`
	Amount      int64     `json:"amount"`
	Status      string    `json:"status"`
	Details     any       `json:"details"`
}

type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

func (a *Logger) LogReview(referenceID, accountID, reviewerID string, amount int64, outcome string) {
	event := Event{
		Timestamp:   time.Now(),
		EventType:   "PAYMENT_REVIEW",
		ReferenceID: referenceID,
		AccountID:   accountID,
		Amount:      amount,
		Status:      outcome,
		Details: map[string]string{
			"reviewer_id": reviewerID,
		},
	}
	a.log(event)
}

func (a *Logger) LogLedgerChange(referenceID, accountID, reason string, amount, balanceAfter int64) {
	event := Event{
		Timestamp:   time.Now(),
		EventType:   "LEDGER_CHANGE",
		ReferenceID: referenceID,
		AccountID:   accountID,
		Amount:      amount,
		Status:      "SUCCESS",
		Details: map[string]any{
			"reason":        reason,
			"balance_after": balanceAfter,
		},
	}
	a.log(event)
}

func (a *Logger) LogError(referenceID, accountID string, err error) {
	event := Event{
		Timestamp:   time.Now(),
		EventType:   "ERROR",
		ReferenceID: referenceID,
		AccountID:   accountID,
		Status:      "FAILED",
		Details:     map[string]string{"error": err.Error()},
	}
	a.log(event)
}

func (a *Logger) log(event Event) {
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))
}
