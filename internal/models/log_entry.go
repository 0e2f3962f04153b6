package models

import "time"

// LogEntry stores structured error logs for later querying.
type LogEntry struct {
	ID        string         `bson:"_id" json:"id"`
	Timestamp time.Time      `bson:"timestamp" json:"timestamp"`
	Level     string         `bson:"level" json:"level"`
	Message   string         `bson:"message" json:"message"`
	TraceID   string         `bson:"trace_id,omitempty" json:"trace_id"`
	UserID    *string        `bson:"user_id,omitempty" json:"user_id"`
	Error     string         `bson:"error,omitempty" json:"error"`
	Extra     map[string]any `bson:"extra,omitempty" json:"extra"`
}
