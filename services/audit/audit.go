// Package auditsvc records audit events without ever failing the calling
// operation; storage errors are logged and dropped.
package auditsvc

import (
	"context"

	"github.com/Ismat-Samadov/educy/core"
)

type service struct {
	repo   core.AuditRepository
	clock  core.Clock
	logger core.Logger
	sync   bool
}

var _ core.AuditRecorder = (*service)(nil)

func NewService(repo core.AuditRepository, clock core.Clock, logger core.Logger) core.AuditRecorder {
	return &service{repo: repo, clock: clock, logger: logger}
}

// NewServiceMock records synchronously so tests can assert on stored events.
func NewServiceMock(repo core.AuditRepository, clock core.Clock, logger core.Logger) core.AuditRecorder {
	return &service{repo: repo, clock: clock, logger: logger, sync: true}
}

func (svc *service) Record(ctx context.Context, evt core.AuditEvent) {
	evt.CreatedAt = svc.clock.Now()
	if svc.sync {
		svc.record(evt)
		return
	}
	go svc.record(evt)
}

// record runs detached from the request; the caller's ctx may be long gone.
func (svc *service) record(evt core.AuditEvent) {
	if _, err := svc.repo.CreateAuditEvent(context.Background(), evt); err != nil {
		svc.logger.Error("recording audit event: "+err.Error(), err)
	}
}
