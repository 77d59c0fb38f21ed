package services

import (
	"time"

	"github.com/google/uuid"
)

// Generation events are published as pointers on the event bus.

type RunStarted struct {
	RunID      uuid.UUID
	FiscalYear string
	Source     string
	Regions    []string
	Candidates int
	StartedAt  time.Time
}

type ReportWritten struct {
	RunID    uuid.UUID
	Artifact Artifact
}

type ReportSkipped struct {
	RunID  uuid.UUID
	Label  string
	Region string
}

type ReportFailed struct {
	RunID   uuid.UUID
	Failure ReportFailure
}

type RunFinished struct {
	RunID      uuid.UUID
	Result     *Result
	Duration   time.Duration
	FinishedAt time.Time
	Err        error
}
