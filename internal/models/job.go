package models

import "time"

// JobStatus represents the state of a scheduled job
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type transition struct {
	from JobStatus
	to   JobStatus
}

var validTransitions = []transition{
	{from: StatusPending, to: StatusCompleted},
	{from: StatusPending, to: StatusFailed},
}

// CanTransition reports whether a job may move from one status to another
func CanTransition(from, to JobStatus) bool {
	for _, t := range validTransitions {
		if t.from == from && t.to == to {
			return true
		}
	}
	return false
}

// Job represents one scheduled generate-and-publish unit of work
type Job struct {
	ID            string    `json:"id"`
	Prompt        string    `json:"prompt"`
	Caption       string    `json:"caption"`
	ScheduledTime time.Time `json:"scheduledTime"`
	Status        JobStatus `json:"status"`
	Error         string    `json:"error,omitempty"`
	PostID        string    `json:"postId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ScheduleRequest represents a request to schedule a post
type ScheduleRequest struct {
	Prompt        string `json:"prompt"`
	Caption       string `json:"caption"`
	ScheduledTime string `json:"scheduledTime"`
}

// ScheduleResponse is returned after a job was accepted
type ScheduleResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Post    *Job   `json:"post"`
}

// JobListResponse wraps the scheduled job listing
type JobListResponse struct {
	Posts []Job `json:"posts"`
}

// JobResponse wraps a single scheduled job
type JobResponse struct {
	Post *Job `json:"post"`
}
