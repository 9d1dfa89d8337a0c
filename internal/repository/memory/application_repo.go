// Package memory keeps loan applications in process. It backs local runs
// without a database and the tests of packages that need a real Repository.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/swiftloan/backend/internal/domain/application"
)

type ApplicationRepository struct {
	mu       sync.RWMutex
	byID     map[string]*application.Application
	byNumber map[string]string
	seq      int
	now      func() time.Time
	onUpdate func(application.Application)
}

func NewApplicationRepository() *ApplicationRepository {
	return &ApplicationRepository{
		byID:     map[string]*application.Application{},
		byNumber: map[string]string{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// OnUpdate registers the hook fired after every status change, standing in
// for the database change notification.
func (r *ApplicationRepository) OnUpdate(fn func(application.Application)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onUpdate = fn
}

func (r *ApplicationRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *ApplicationRepository) Create(_ context.Context, in application.CreateInput) (*application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.seq++
	number := fmt.Sprintf("PL%s-%05d", now.Format("20060102"), r.seq%100000)
	app := &application.Application{
		ID:                uuid.NewString(),
		ApplicationNumber: number,
		Status:            application.StatusPending,
		FullName:          in.FullName,
		Email:             in.Email,
		Phone:             in.Phone,
		PropertyType:      in.PropertyType,
		PropertyAddress:   in.PropertyAddress,
		PropertyCity:      in.PropertyCity,
		PropertyState:     in.PropertyState,
		PropertyPincode:   in.PropertyPincode,
		PropertyValue:     in.PropertyValue,
		LoanAmount:        in.LoanAmount,
		LoanTenure:        in.LoanTenure,
		EmploymentType:    in.EmploymentType,
		MonthlyIncome:     in.MonthlyIncome,
		ExistingLoans:     in.ExistingLoans,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	r.byID[app.ID] = app
	r.byNumber[number] = app.ID
	cp := *app
	return &cp, nil
}

// Put stores a fully formed application, keeping its identifiers.
func (r *ApplicationRepository) Put(app application.Application) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := app
	r.byID[app.ID] = &cp
	r.byNumber[app.ApplicationNumber] = app.ID
}

func (r *ApplicationRepository) GetByID(_ context.Context, id string) (*application.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.byID[id]
	if !ok {
		return nil, application.ErrNotFound
	}
	cp := *app
	return &cp, nil
}

func (r *ApplicationRepository) GetByNumber(_ context.Context, applicationNumber string) (*application.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byNumber[applicationNumber]
	if !ok {
		return nil, application.ErrNotFound
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *ApplicationRepository) UpdateStatus(_ context.Context, id string, status application.Status) (*application.Application, error) {
	r.mu.Lock()
	app, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return nil, application.ErrNotFound
	}
	app.Status = status
	app.UpdatedAt = r.now()
	cp := *app
	hook := r.onUpdate
	r.mu.Unlock()

	if hook != nil {
		hook(cp)
	}
	return &cp, nil
}

// Ping satisfies the readiness probe; the in-memory store is always ready.
func (r *ApplicationRepository) Ping(context.Context) error {
	return nil
}
