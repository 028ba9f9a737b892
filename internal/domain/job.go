package domain

import "time"

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

const DefaultJobMaxAttempts = 3

// Job - отложенная запись подкаста в хранилище.
// Жизненный цикл: pending -> processing -> completed, либо обратно в pending
// пока attempts < maxAttempts, потом failed. failed и completed - терминальные.
type Job struct {
	ID            int64
	TrackID       int64
	TrackName     string
	Payload       PodcastSnapshot
	Status        JobStatus
	Attempts      int
	MaxAttempts   int
	Error         string
	LastAttemptAt *time.Time
	CompletedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (j *Job) Terminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}

func (j *Job) CanRetry() bool {
	return j.Status == JobPending && j.Attempts < j.MaxAttempts
}

type JobStats struct {
	Pending    int
	Processing int
	Completed  int
	Failed     int
	Total      int
}
