package logging

// Standardized attribute keys used across the daemon and mixer so log
// consumers can filter consistently.
const (
	FieldComponent = "component"
	FieldSessionID = "session_id"
	FieldJobID     = "job_id"
	FieldLane      = "lane"
	FieldClipID    = "clip_id"
	FieldEventType = "event_type"
)
