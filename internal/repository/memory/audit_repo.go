package memory

import (
	"context"
	"sync"

	admindomain "github.com/swiftloan/backend/internal/domain/admin"
)

type AuditRepository struct {
	mu      sync.Mutex
	entries []admindomain.AuditLogInput
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Log(_ context.Context, in admindomain.AuditLogInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, in)
	return nil
}

func (r *AuditRepository) Entries() []admindomain.AuditLogInput {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]admindomain.AuditLogInput, len(r.entries))
	copy(out, r.entries)
	return out
}
