package draft

import (
	"time"

	"github.com/rpupo63/verbavista-backend/models"
)

// Trigger names what started a persistence attempt.
type Trigger string

const (
	TriggerQuiescence Trigger = "quiescence"
	TriggerHeartbeat  Trigger = "heartbeat"
	TriggerSaveDraft  Trigger = "save-draft"
	TriggerPublish    Trigger = "publish"
)

// Autosave reports whether the attempt was started by a timer.
func (t Trigger) Autosave() bool {
	return t == TriggerQuiescence || t == TriggerHeartbeat
}

type Outcome string

const (
	OutcomeCreated  Outcome = "created"
	OutcomeUpdated  Outcome = "updated"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeRejected Outcome = "rejected"
	OutcomeFailed   Outcome = "failed"
)

// Report describes one persistence attempt.
type Report struct {
	Trigger Trigger
	Outcome Outcome
	Status  models.PostStatus
	PostID  string
	Err     error
	At      time.Time
}

// SaveResult is returned by manual saves.
type SaveResult struct {
	ID      string
	Created bool
	Skipped bool
}
