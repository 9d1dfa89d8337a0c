package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/swiftloan/backend/internal/domain/application"
)

func TestCreateAssignsApplicationNumber(t *testing.T) {
	repo := NewApplicationRepository()
	repo.SetClock(func() time.Time { return time.Date(2024, 12, 30, 9, 0, 0, 0, time.UTC) })

	created, err := repo.Create(context.Background(), application.CreateInput{FullName: "Asha Rao", LoanAmount: decimal.NewFromInt(7500000)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ApplicationNumber != "PL20241230-00001" {
		t.Fatalf("unexpected application number %q", created.ApplicationNumber)
	}
	if created.Status != application.StatusPending {
		t.Fatalf("expected pending status, got %s", created.Status)
	}

	got, err := repo.GetByNumber(context.Background(), "PL20241230-00001")
	if err != nil || got.ID != created.ID {
		t.Fatalf("lookup by number failed: %v", err)
	}
}

func TestUpdateStatusFiresHook(t *testing.T) {
	repo := NewApplicationRepository()
	created, _ := repo.Create(context.Background(), application.CreateInput{FullName: "Asha Rao"})

	var seen []application.Status
	repo.OnUpdate(func(app application.Application) { seen = append(seen, app.Status) })

	if _, err := repo.UpdateStatus(context.Background(), created.ID, application.StatusUnderReview); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(seen) != 1 || seen[0] != application.StatusUnderReview {
		t.Fatalf("expected one under_review notification, got %v", seen)
	}

	if _, err := repo.UpdateStatus(context.Background(), "missing", application.StatusApproved); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
