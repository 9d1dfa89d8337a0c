package tracking

import (
	"github.com/swiftloan/backend/internal/domain/application"
	"github.com/swiftloan/backend/internal/format"
)

type StageState = application.StageState

const (
	StageCompleted = application.StageCompleted
	StageCurrent   = application.StageCurrent
	StagePending   = application.StagePending
)

type Stage struct {
	ID    int        `json:"id"`
	Name  string     `json:"name"`
	State StageState `json:"state"`
	Date  string     `json:"date"`
}

func (s Stage) Glyph() string {
	switch s.State {
	case StageCompleted:
		return "✓"
	case StageCurrent:
		return "●"
	default:
		return "○"
	}
}

func (s Stage) Label() string {
	switch s.State {
	case StageCompleted:
		return "Completed"
	case StageCurrent:
		return "In Progress"
	default:
		return "Pending"
	}
}

var stageNames = [application.StageCount - 1]string{
	"Application Submitted",
	"Under Review",
	"Document Verification",
}

// DeriveStages projects an application onto the four-stage progress view.
// A nil application is treated as pending with no dates.
func DeriveStages(app *application.Application) []Stage {
	status := application.StatusPending
	if app != nil {
		status = app.Status
	}
	info := status.Info()
	states := monotonic(info.Stages)

	out := make([]Stage, 0, application.StageCount)
	for i, state := range states {
		stage := Stage{ID: i + 1, State: state}
		switch i {
		case 0:
			stage.Name = stageNames[0]
			if app != nil {
				stage.Date = format.Date(app.CreatedAt)
			}
		case application.StageCount - 1:
			stage.Name = info.FinalStageName
			stage.Date = stage.Label()
			if state == StageCompleted && app != nil {
				stage.Date = format.Date(app.UpdatedAt)
			}
		default:
			stage.Name = stageNames[i]
			stage.Date = stage.Label()
		}
		out = append(out, stage)
	}
	return out
}

// Progress counts completed stages.
func Progress(stages []Stage) (completed, total int) {
	for _, s := range stages {
		if s.State == StageCompleted {
			completed++
		}
	}
	return completed, len(stages)
}

// CurrentStage is the first stage that is not completed, or the last stage
// when everything is done.
func CurrentStage(stages []Stage) Stage {
	for _, s := range stages {
		if s.State != StageCompleted {
			return s
		}
	}
	if len(stages) == 0 {
		return Stage{}
	}
	return stages[len(stages)-1]
}

// monotonic forces the completed* current? pending* shape onto a template.
func monotonic(in [application.StageCount]StageState) [application.StageCount]StageState {
	out := in
	settled := false
	for i, state := range in {
		if settled {
			out[i] = StagePending
			continue
		}
		switch state {
		case StageCompleted:
		case StageCurrent:
			settled = true
		default:
			out[i] = StagePending
			settled = true
		}
	}
	return out
}
