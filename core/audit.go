package core

import (
	"context"
	"time"
)

// Audit actions
const (
	AuditLessonCreated = "LESSON_CREATED"
	AuditLessonUpdated = "LESSON_UPDATED"
	AuditLessonDeleted = "LESSON_DELETED"
	AuditExamCreated   = "EXAM_CREATED"
	AuditExamStarted   = "EXAM_STARTED"
	AuditExamSubmitted = "EXAM_SUBMITTED"
	AuditEnrolled      = "ENROLLED"
)

type (
	AuditEvent struct {
		ID         string    `json:"id"`
		Action     string    `json:"action"`
		ActorID    string    `json:"actor_id"`
		TargetType string    `json:"target_type"`
		TargetID   string    `json:"target_id"`
		Details    string    `json:"details"`
		CreatedAt  time.Time `json:"created_at"` // UTC
	}

	// AuditRecorder persists audit events. Recording is fire-and-forget from
	// the caller's perspective; implementations must never fail the calling
	// operation.
	AuditRecorder interface {
		Record(ctx context.Context, evt AuditEvent)
	}

	AuditRepository interface {
		CreateAuditEvent(ctx context.Context, evt AuditEvent) (AuditEvent, error)
	}
)
