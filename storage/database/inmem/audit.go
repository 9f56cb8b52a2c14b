package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/Ismat-Samadov/educy/core"
)

type auditRepository struct {
	db *DB
}

var _ core.AuditRepository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(db *DB) *auditRepository {
	return &auditRepository{db: db}
}

func (repo *auditRepository) CreateAuditEvent(ctx context.Context, evt core.AuditEvent) (core.AuditEvent, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	evt.ID = uuid.New().String()
	repo.db.auditEvents = append(repo.db.auditEvents, evt)
	return evt, nil
}

// AuditEvents returns a snapshot of the recorded events. For tests.
func (db *DB) AuditEvents() []core.AuditEvent {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	events := make([]core.AuditEvent, len(db.auditEvents))
	copy(events, db.auditEvents)
	return events
}
