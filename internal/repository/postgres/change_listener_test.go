package postgres

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNotifyTriggerUsesListenerChannel(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("..", "..", "db", "migrations", "0001_loan_applications.up.sql"))
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if !strings.Contains(string(raw), "pg_notify('"+NotifyChannel+"'") {
		t.Fatalf("notify trigger does not emit on %q", NotifyChannel)
	}
	if got := NewChangeListener(nil, nil).channel; got != NotifyChannel {
		t.Fatalf("listener channel %q, want %q", got, NotifyChannel)
	}
}
