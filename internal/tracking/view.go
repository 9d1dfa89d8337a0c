package tracking

import (
	"github.com/swiftloan/backend/internal/domain/application"
	"github.com/swiftloan/backend/internal/format"
)

type ProgressView struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// DisplayView carries the pre-formatted strings shown next to the record.
type DisplayView struct {
	LoanAmount    string `json:"loan_amount"`
	PropertyValue string `json:"property_value"`
	StatusLabel   string `json:"status_label"`
	StatusColor   string `json:"status_color"`
	SubmittedOn   string `json:"submitted_on"`
	LastUpdated   string `json:"last_updated"`
}

type View struct {
	State       State                    `json:"state"`
	Application *application.Application `json:"application,omitempty"`
	Stages      []Stage                  `json:"stages,omitempty"`
	Progress    *ProgressView            `json:"progress,omitempty"`
	Display     *DisplayView             `json:"display,omitempty"`
	Message     string                   `json:"message,omitempty"`
}

func NewView(snap Snapshot) View {
	v := View{State: snap.State, Application: snap.Application, Stages: snap.Stages, Message: snap.Message}
	if snap.Application == nil {
		return v
	}
	if v.Stages == nil {
		v.Stages = DeriveStages(snap.Application)
	}
	completed, total := Progress(v.Stages)
	v.Progress = &ProgressView{Completed: completed, Total: total}
	info := snap.Application.Status.Info()
	v.Display = &DisplayView{
		LoanAmount:    format.INR(snap.Application.LoanAmount),
		PropertyValue: format.INR(snap.Application.PropertyValue),
		StatusLabel:   info.Label,
		StatusColor:   info.Color,
		SubmittedOn:   format.Date(snap.Application.CreatedAt),
		LastUpdated:   format.DateTime(snap.Application.UpdatedAt),
	}
	return v
}

// ViewOf builds the tracking view for a record fetched outside a session.
func ViewOf(app *application.Application) View {
	return NewView(Snapshot{State: StateTracking, Application: app})
}
