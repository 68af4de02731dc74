package session

import (
	"time"

	"soundlab/internal/timeline"
)

// Session is one saved timeline snapshot.
type Session struct {
	ID             int64
	Name           string
	State          *timeline.State
	CollapsedLanes []timeline.Lane
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// JobStatus represents the lifecycle of a render job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRendering JobStatus = "rendering"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

var allJobStatuses = []JobStatus{JobPending, JobRendering, JobCompleted, JobFailed}

// ValidJobStatus reports whether the status is known.
func ValidJobStatus(status JobStatus) bool {
	for _, known := range allJobStatuses {
		if status == known {
			return true
		}
	}
	return false
}

// WorkerStopReason is the error message set on jobs failed during daemon
// shutdown.
const WorkerStopReason = "Daemon stopped"

// RenderJob is one queued offline mixdown.
type RenderJob struct {
	ID              string
	SessionID       int64
	Status          JobStatus
	SampleRate      int
	Channels        int
	SoloLanes       []timeline.Lane
	ProgressPercent int
	ProgressMessage string
	OutputPath      string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Terminal reports whether the job has finished, successfully or not.
func (j *RenderJob) Terminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}
