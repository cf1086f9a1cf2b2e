package model

import "time"

// StatusChange is published after a billing event changed an account's
// subscription state.
type StatusChange struct {
	AccountID  string             `json:"account_id"`
	EventID    string             `json:"event_id"`
	EventType  string             `json:"event_type"`
	Status     SubscriptionStatus `json:"status"`
	OccurredAt time.Time          `json:"occurred_at"`
}
