package unit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	admindomain "github.com/swiftloan/backend/internal/domain/admin"
	appdomain "github.com/swiftloan/backend/internal/domain/application"
	"github.com/swiftloan/backend/internal/repository/memory"
)

type failingAudit struct{}

func (failingAudit) Log(context.Context, admindomain.AuditLogInput) error {
	return errors.New("audit store down")
}

func seedApplication(t *testing.T, repo *memory.ApplicationRepository) *appdomain.Application {
	t.Helper()
	created, err := appdomain.NewService(repo).Submit(context.Background(), validSubmitInput())
	if err != nil {
		t.Fatalf("seed application: %v", err)
	}
	return created
}

func TestAdminStatusChangeWritesAudit(t *testing.T) {
	repo := memory.NewApplicationRepository()
	audit := memory.NewAuditRepository()
	svc := admindomain.NewService(appdomain.NewService(repo), audit, nil)
	app := seedApplication(t, repo)

	updated, err := svc.UpdateApplicationStatus(context.Background(), "", app.ID, "Approved")
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != appdomain.StatusApproved {
		t.Fatalf("expected approved, got %s", updated.Status)
	}

	entries := audit.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(entries))
	}
	if entries[0].Actor != "back-office" || entries[0].Action != admindomain.ActionStatusChanged {
		t.Fatalf("unexpected audit entry: %+v", entries[0])
	}
	var payload map[string]string
	if err := json.Unmarshal(entries[0].Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["from"] != "pending" || payload["to"] != "approved" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestAdminStatusChangeRejectsUnknownStatus(t *testing.T) {
	repo := memory.NewApplicationRepository()
	audit := memory.NewAuditRepository()
	svc := admindomain.NewService(appdomain.NewService(repo), audit, nil)
	app := seedApplication(t, repo)

	if _, err := svc.UpdateApplicationStatus(context.Background(), "ops", app.ID, "archived"); !errors.Is(err, appdomain.ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}
	if _, err := svc.UpdateApplicationStatus(context.Background(), "ops", "missing", "approved"); !errors.Is(err, appdomain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(audit.Entries()) != 0 {
		t.Fatalf("expected no audit entries")
	}
}

func TestAdminStatusChangeSurvivesAuditFailure(t *testing.T) {
	repo := memory.NewApplicationRepository()
	svc := admindomain.NewService(appdomain.NewService(repo), failingAudit{}, nil)
	app := seedApplication(t, repo)

	updated, err := svc.UpdateApplicationStatus(context.Background(), "ops", app.ID, "rejected")
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != appdomain.StatusRejected {
		t.Fatalf("expected rejected, got %s", updated.Status)
	}
}
