// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the audit consumer.
package queue

// AccountRegisteredEvent is published when a new account has been created.
// It contains enough information for downstream consumers to log, notify, or
// trigger onboarding without querying the primary database.  It never
// carries the password hash.
type AccountRegisteredEvent struct {
	AccountID    string   `json:"account_id"`
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	Roles        []string `json:"roles"`
	RegisteredAt string   `json:"registered_at"` // RFC 3339, UTC
}
