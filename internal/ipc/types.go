package ipc

import "time"

// StartRequest asks the daemon to begin processing.
type StartRequest struct{}

// StartResponse reports the outcome of a start request.
type StartResponse struct {
	Started bool
	Message string
}

// StopRequest asks the daemon to stop processing.
type StopRequest struct{}

// StopResponse reports the outcome of a stop request.
type StopResponse struct {
	Stopped bool
}

// StatusRequest asks for daemon runtime information.
type StatusRequest struct{}

// StatusResponse carries daemon runtime information.
type StatusResponse struct {
	Running       bool
	WorkerRunning bool
	SessionDBPath string
	LockPath      string
	JobStats      map[string]int
}

// SessionListRequest asks for all saved sessions.
type SessionListRequest struct{}

// SessionSummary is one saved session in list output.
type SessionSummary struct {
	ID        int64
	Name      string
	Clips     int
	Duration  float64
	UpdatedAt time.Time
}

// SessionListResponse carries the saved sessions.
type SessionListResponse struct {
	Sessions []SessionSummary
}

// SessionDescribeRequest asks for one session's detail.
type SessionDescribeRequest struct {
	ID int64
}

// LaneSummary is per-lane detail in session describe output.
type LaneSummary struct {
	Lane      string
	Clips     int
	Muted     bool
	Collapsed bool
}

// SessionDescribeResponse carries one session's detail.
type SessionDescribeResponse struct {
	ID        int64
	Name      string
	Duration  float64
	Lanes     []LaneSummary
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionDeleteRequest removes a saved session.
type SessionDeleteRequest struct {
	ID int64
}

// SessionDeleteResponse reports the outcome of a delete.
type SessionDeleteResponse struct {
	Deleted bool
}

// RenderStartRequest queues an offline mixdown of a saved session.
type RenderStartRequest struct {
	SessionID  int64
	SampleRate int
	Channels   int
	SoloLanes  []string
}

// RenderJob is one render queue entry in RPC responses.
type RenderJob struct {
	ID              string
	SessionID       int64
	Status          string
	ProgressPercent int
	ProgressMessage string
	OutputPath      string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RenderStartResponse carries the queued job.
type RenderStartResponse struct {
	Job RenderJob
}

// RenderListRequest asks for render jobs, optionally filtered by status.
type RenderListRequest struct {
	Statuses []string
}

// RenderListResponse carries the matching jobs.
type RenderListResponse struct {
	Jobs []RenderJob
}

// RenderDescribeRequest asks for one render job.
type RenderDescribeRequest struct {
	ID string
}

// RenderDescribeResponse carries one render job.
type RenderDescribeResponse struct {
	Job RenderJob
}
