package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Ismat-Samadov/educy/core"
)

type dbAuditEvent struct {
	ID         string    `db:"id"`
	Action     string    `db:"action"`
	ActorID    string    `db:"actor_id"`
	TargetType string    `db:"target_type"`
	TargetID   string    `db:"target_id"`
	Details    string    `db:"details"`
	CreatedAt  time.Time `db:"created_at"`
}

type auditRepository struct {
	db *sqlx.DB
}

var _ core.AuditRepository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(db *sqlx.DB) *auditRepository {
	return &auditRepository{db: db}
}

func (repo auditRepository) CreateAuditEvent(ctx context.Context, evt core.AuditEvent) (core.AuditEvent, error) {
	var row dbAuditEvent
	err := repo.db.GetContext(ctx, &row,
		`INSERT INTO audit_event (action, actor_id, target_type, target_id, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, action, actor_id, target_type, target_id, details, created_at`,
		evt.Action, evt.ActorID, evt.TargetType, evt.TargetID, evt.Details, evt.CreatedAt,
	)
	if err != nil {
		return core.AuditEvent{}, errors.Wrap(err, "creating audit event")
	}

	evt.ID = row.ID
	evt.CreatedAt = row.CreatedAt.UTC()
	return evt, nil
}
