package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/swiftloan/backend/internal/domain/application"
)

const ActionStatusChanged = "application_status_changed"

type ApplicationStore interface {
	Get(ctx context.Context, id string) (*application.Application, error)
	UpdateStatus(ctx context.Context, id string, status string) (*application.Application, error)
}

type AuditRepository interface {
	Log(ctx context.Context, in AuditLogInput) error
}

type AuditLogInput struct {
	Actor      string
	Action     string
	TargetType string
	TargetID   string
	Payload    []byte
}

type Service struct {
	apps      ApplicationStore
	auditRepo AuditRepository
	logger    *slog.Logger
}

func NewService(apps ApplicationStore, auditRepo AuditRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{apps: apps, auditRepo: auditRepo, logger: logger}
}

// UpdateApplicationStatus moves an application to a new status and records
// the change. A failed audit write does not undo the status change.
func (s *Service) UpdateApplicationStatus(ctx context.Context, actor, id, status string) (*application.Application, error) {
	before, err := s.apps.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.apps.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	actor = strings.TrimSpace(actor)
	if actor == "" {
		actor = "back-office"
	}
	payload, _ := json.Marshal(map[string]any{
		"application_number": updated.ApplicationNumber,
		"from":               before.Status,
		"to":                 updated.Status,
	})
	if err := s.auditRepo.Log(ctx, AuditLogInput{
		Actor:      actor,
		Action:     ActionStatusChanged,
		TargetType: "loan_application",
		TargetID:   updated.ID,
		Payload:    payload,
	}); err != nil {
		s.logger.Error("audit log write failed", "application_id", updated.ID, "err", err)
	}
	return updated, nil
}
