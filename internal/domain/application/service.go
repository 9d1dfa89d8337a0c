package application

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type SubmitInput struct {
	FullName        string `json:"full_name" validate:"required,min=2,max=100"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Phone           string `json:"phone" validate:"required,min=10,max=15"`
	PropertyType    string `json:"property_type" validate:"required"`
	PropertyAddress string `json:"property_address" validate:"required,min=5,max=500"`
	PropertyCity    string `json:"property_city" validate:"required,min=2,max=100"`
	PropertyState   string `json:"property_state" validate:"required,min=2,max=100"`
	PropertyPincode string `json:"property_pincode" validate:"required,len=6,numeric"`
	PropertyValue   int64  `json:"property_value" validate:"gte=100000"`
	LoanAmount      int64  `json:"loan_amount" validate:"gte=100000"`
	LoanTenure      int    `json:"loan_tenure" validate:"gte=1,lte=30"`
	EmploymentType  string `json:"employment_type" validate:"required"`
	MonthlyIncome   int64  `json:"monthly_income" validate:"gte=10000"`
	ExistingLoans   *int64 `json:"existing_loans" validate:"omitempty,gte=0"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "validation_failed: " + strings.Join(names, ",")
}

type Service struct {
	repo     Repository
	validate *validator.Validate
}

func NewService(repo Repository) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Service{repo: repo, validate: v}
}

func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Application, error) {
	in = trimInput(in)
	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	existing := DefaultExistingLoans
	if in.ExistingLoans != nil {
		existing = decimal.NewFromInt(*in.ExistingLoans)
	}

	created, err := s.repo.Create(ctx, CreateInput{
		FullName:        in.FullName,
		Email:           strings.ToLower(in.Email),
		Phone:           in.Phone,
		PropertyType:    in.PropertyType,
		PropertyAddress: in.PropertyAddress,
		PropertyCity:    in.PropertyCity,
		PropertyState:   in.PropertyState,
		PropertyPincode: in.PropertyPincode,
		PropertyValue:   decimal.NewFromInt(in.PropertyValue),
		LoanAmount:      decimal.NewFromInt(in.LoanAmount),
		LoanTenure:      in.LoanTenure,
		EmploymentType:  in.EmploymentType,
		MonthlyIncome:   decimal.NewFromInt(in.MonthlyIncome),
		ExistingLoans:   existing,
	})
	if err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	return created, nil
}

// Lookup finds an application by the number the applicant types in.
func (s *Service) Lookup(ctx context.Context, applicationNumber string) (*Application, error) {
	number := NormalizeNumber(applicationNumber)
	if number == "" {
		return nil, ErrNotFound
	}
	return s.repo.GetByNumber(ctx, number)
}

func (s *Service) Get(ctx context.Context, id string) (*Application, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateStatus(ctx context.Context, id string, raw string) (*Application, error) {
	status, err := ParseStatus(raw)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *Service) validateInput(in SubmitInput) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "email":
		return "must be a valid email address"
	case "numeric":
		return "must contain digits only"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return "invalid"
	}
}

func trimInput(in SubmitInput) SubmitInput {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.PropertyType = strings.TrimSpace(in.PropertyType)
	in.PropertyAddress = strings.TrimSpace(in.PropertyAddress)
	in.PropertyCity = strings.TrimSpace(in.PropertyCity)
	in.PropertyState = strings.TrimSpace(in.PropertyState)
	in.PropertyPincode = strings.TrimSpace(in.PropertyPincode)
	in.EmploymentType = strings.TrimSpace(in.EmploymentType)
	return in
}
