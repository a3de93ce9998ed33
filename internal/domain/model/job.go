package model

import "time"

// Refresh triggers.
const (
	TriggerStartup  = "startup"
	TriggerPeriodic = "periodic"
	TriggerManual   = "manual"
)

// RefreshJob asks the service to re-fetch records from the source.
type RefreshJob struct {
	ID          string    // request id, echoed to the caller
	Trigger     string    // what asked for the refresh
	Force       bool      // bypass the record cache
	RequestedAt time.Time // when the job was enqueued
}
