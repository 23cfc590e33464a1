package domain

import "time"

// Query outcome statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// QueryCompleted is emitted after every page fetch, successful or not.
type QueryCompleted struct {
	EventID        string    `json:"eventId"`
	Source         string    `json:"source"`
	RequestHandler string    `json:"requestHandler"`
	Page           int       `json:"page,omitempty"`
	MediaCount     int       `json:"mediaCount"`
	Status         string    `json:"status"`
	Error          string    `json:"error,omitempty"`
	DurationMS     int64     `json:"durationMs"`
	OccurredAt     time.Time `json:"occurredAt"`
}
