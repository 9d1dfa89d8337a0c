package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = errors.New("application_not_found")
	ErrInvalidStatus = errors.New("invalid_status")
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
)

type StageState string

const (
	StageCompleted StageState = "completed"
	StageCurrent   StageState = "current"
	StagePending   StageState = "pending"
)

// StageCount is the fixed length of every progress view.
const StageCount = 4

// StatusInfo is the single place status-dependent presentation is decided:
// badge label and colour, the implied progress stage and the stage template.
type StatusInfo struct {
	Label          string                 `json:"label"`
	Color          string                 `json:"color"`
	ImpliedStage   int                    `json:"implied_stage"`
	FinalStageName string                 `json:"final_stage_name"`
	Stages         [StageCount]StageState `json:"stages"`
}

var statusTable = map[Status]StatusInfo{
	StatusPending: {
		Label: "Pending Review", Color: "yellow", ImpliedStage: 1, FinalStageName: "Final Approval",
		Stages: [StageCount]StageState{StageCompleted, StagePending, StagePending, StagePending},
	},
	StatusUnderReview: {
		Label: "Under Review", Color: "blue", ImpliedStage: 2, FinalStageName: "Final Approval",
		Stages: [StageCount]StageState{StageCompleted, StageCurrent, StagePending, StagePending},
	},
	StatusApproved: {
		Label: "Approved", Color: "green", ImpliedStage: 4, FinalStageName: "Final Approval",
		Stages: [StageCount]StageState{StageCompleted, StageCompleted, StageCompleted, StageCompleted},
	},
	StatusRejected: {
		Label: "Rejected", Color: "red", ImpliedStage: 4, FinalStageName: "Application Rejected",
		Stages: [StageCount]StageState{StageCompleted, StageCompleted, StageCompleted, StageCompleted},
	},
}

// Info falls back to the pending entry for empty or unknown statuses.
func (s Status) Info() StatusInfo {
	if info, ok := statusTable[s]; ok {
		return info
	}
	return statusTable[StatusPending]
}

func (s Status) Valid() bool {
	_, ok := statusTable[s]
	return ok
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// DefaultExistingLoans applies when an applicant leaves existing loans blank.
var DefaultExistingLoans = decimal.Zero

type Application struct {
	ID                string          `json:"id"`
	ApplicationNumber string          `json:"application_number"`
	Status            Status          `json:"status"`
	FullName          string          `json:"full_name"`
	Email             string          `json:"email"`
	Phone             string          `json:"phone"`
	PropertyType      string          `json:"property_type"`
	PropertyAddress   string          `json:"property_address"`
	PropertyCity      string          `json:"property_city"`
	PropertyState     string          `json:"property_state"`
	PropertyPincode   string          `json:"property_pincode"`
	PropertyValue     decimal.Decimal `json:"property_value"`
	LoanAmount        decimal.Decimal `json:"loan_amount"`
	LoanTenure        int             `json:"loan_tenure"`
	EmploymentType    string          `json:"employment_type"`
	MonthlyIncome     decimal.Decimal `json:"monthly_income"`
	ExistingLoans     decimal.Decimal `json:"existing_loans"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type CreateInput struct {
	FullName        string
	Email           string
	Phone           string
	PropertyType    string
	PropertyAddress string
	PropertyCity    string
	PropertyState   string
	PropertyPincode string
	PropertyValue   decimal.Decimal
	LoanAmount      decimal.Decimal
	LoanTenure      int
	EmploymentType  string
	MonthlyIncome   decimal.Decimal
	ExistingLoans   decimal.Decimal
}

type Repository interface {
	Create(ctx context.Context, in CreateInput) (*Application, error)
	GetByID(ctx context.Context, id string) (*Application, error)
	GetByNumber(ctx context.Context, applicationNumber string) (*Application, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Application, error)
}

// NormalizeNumber turns user input into the stored application number form.
func NormalizeNumber(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
