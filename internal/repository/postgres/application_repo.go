package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/swiftloan/backend/internal/domain/application"
)

const applicationColumns = `
id, application_number, status, full_name, email, phone,
property_type, property_address, property_city, property_state, property_pincode,
property_value, loan_amount, loan_tenure, employment_type, monthly_income, existing_loans,
created_at, updated_at`

type ApplicationRepository struct {
	pool *pgxpool.Pool
}

func NewApplicationRepository(pool *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{pool: pool}
}

func (r *ApplicationRepository) Create(ctx context.Context, in application.CreateInput) (*application.Application, error) {
	q := `
INSERT INTO loan_applications (
  full_name, email, phone, property_type, property_address, property_city, property_state,
  property_pincode, property_value, loan_amount, loan_tenure, employment_type, monthly_income, existing_loans
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::numeric,$10::numeric,$11,$12,$13::numeric,$14::numeric)
RETURNING` + applicationColumns
	row := r.pool.QueryRow(ctx, q,
		in.FullName, in.Email, in.Phone, in.PropertyType, in.PropertyAddress, in.PropertyCity, in.PropertyState,
		in.PropertyPincode, in.PropertyValue.String(), in.LoanAmount.String(), in.LoanTenure, in.EmploymentType,
		in.MonthlyIncome.String(), in.ExistingLoans.String(),
	)
	return scanApplication(row)
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*application.Application, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, application.ErrNotFound
	}
	q := `SELECT` + applicationColumns + `
FROM loan_applications WHERE id = $1::uuid`
	return scanApplication(r.pool.QueryRow(ctx, q, id))
}

func (r *ApplicationRepository) GetByNumber(ctx context.Context, applicationNumber string) (*application.Application, error) {
	q := `SELECT` + applicationColumns + `
FROM loan_applications WHERE application_number = $1`
	return scanApplication(r.pool.QueryRow(ctx, q, applicationNumber))
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status application.Status) (*application.Application, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, application.ErrNotFound
	}
	q := `
UPDATE loan_applications SET status = $2
WHERE id = $1::uuid
RETURNING` + applicationColumns
	return scanApplication(r.pool.QueryRow(ctx, q, id, string(status)))
}

func scanApplication(row pgx.Row) (*application.Application, error) {
	out := &application.Application{}
	var status string
	err := row.Scan(
		&out.ID, &out.ApplicationNumber, &status, &out.FullName, &out.Email, &out.Phone,
		&out.PropertyType, &out.PropertyAddress, &out.PropertyCity, &out.PropertyState, &out.PropertyPincode,
		&out.PropertyValue, &out.LoanAmount, &out.LoanTenure, &out.EmploymentType, &out.MonthlyIncome, &out.ExistingLoans,
		&out.CreatedAt, &out.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, application.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan loan application: %w", err)
	}
	out.Status = application.Status(status)
	return out, nil
}
