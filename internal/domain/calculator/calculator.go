package calculator

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var ErrInvalidInput = errors.New("invalid_calculator_input")

var hundred = decimal.NewFromInt(100)

type Input struct {
	Principal         decimal.Decimal `json:"principal"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
	TenureYears       int             `json:"tenure_years"`
}

// Result amounts are rounded to whole currency units.
type Result struct {
	EMI           decimal.Decimal `json:"emi"`
	TotalPayment  decimal.Decimal `json:"total_payment"`
	TotalInterest decimal.Decimal `json:"total_interest"`
	Principal     decimal.Decimal `json:"principal"`
	Months        int             `json:"months"`
}

type Installment struct {
	Month     int             `json:"month"`
	Payment   decimal.Decimal `json:"payment"`
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
	Balance   decimal.Decimal `json:"balance"`
}

// Bounds mirrors the ranges offered by the portal's calculator sliders.
type Bounds struct {
	MinPrincipal  int64   `json:"min_principal"`
	MaxPrincipal  int64   `json:"max_principal"`
	PrincipalStep int64   `json:"principal_step"`
	MinTenure     int     `json:"min_tenure_years"`
	MaxTenure     int     `json:"max_tenure_years"`
	MinRate       float64 `json:"min_rate_percent"`
	MaxRate       float64 `json:"max_rate_percent"`
	RateStep      float64 `json:"rate_step"`
}

var DefaultBounds = Bounds{
	MinPrincipal:  500000,
	MaxPrincipal:  50000000,
	PrincipalStep: 100000,
	MinTenure:     1,
	MaxTenure:     30,
	MinRate:       6.5,
	MaxRate:       15,
	RateStep:      0.1,
}

func (in Input) validate() error {
	if !in.Principal.IsPositive() {
		return fmt.Errorf("%w: principal must be positive", ErrInvalidInput)
	}
	if in.AnnualRatePercent.IsNegative() || in.AnnualRatePercent.GreaterThan(hundred) {
		return fmt.Errorf("%w: annual_rate_percent must be within 0..100", ErrInvalidInput)
	}
	if in.TenureYears < DefaultBounds.MinTenure || in.TenureYears > DefaultBounds.MaxTenure {
		return fmt.Errorf("%w: tenure_years must be within %d..%d", ErrInvalidInput, DefaultBounds.MinTenure, DefaultBounds.MaxTenure)
	}
	return nil
}

// Calculate returns the equated monthly installment for a reducing-balance loan.
// A zero rate amortizes the principal flat over the tenure.
func Calculate(in Input) (Result, error) {
	if err := in.validate(); err != nil {
		return Result{}, err
	}
	months := in.TenureYears * 12
	emi := monthlyPayment(in, months)
	totalPayment := emi.Mul(decimal.NewFromInt(int64(months)))
	totalInterest := totalPayment.Sub(in.Principal)

	return Result{
		EMI:           emi.Round(0),
		TotalPayment:  totalPayment.Round(0),
		TotalInterest: totalInterest.Round(0),
		Principal:     in.Principal.Round(0),
		Months:        months,
	}, nil
}

// Schedule splits every installment into principal and interest. The final
// installment absorbs the rounding remainder so the balance closes at zero.
func Schedule(in Input) ([]Installment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	months := in.TenureYears * 12
	emi := monthlyPayment(in, months)
	rate := monthlyRate(in)

	out := make([]Installment, 0, months)
	balance := in.Principal
	for m := 1; m <= months; m++ {
		interest := balance.Mul(rate)
		principal := emi.Sub(interest)
		payment := emi
		if m == months {
			principal = balance
			payment = balance.Add(interest)
		}
		balance = balance.Sub(principal)
		out = append(out, Installment{
			Month:     m,
			Payment:   payment.Round(0),
			Principal: principal.Round(0),
			Interest:  interest.Round(0),
			Balance:   balance.Round(0),
		})
	}
	return out, nil
}

func monthlyRate(in Input) decimal.Decimal {
	return in.AnnualRatePercent.Div(hundred).Div(decimal.NewFromInt(12))
}

func monthlyPayment(in Input, months int) decimal.Decimal {
	if in.AnnualRatePercent.IsZero() {
		return in.Principal.Div(decimal.NewFromInt(int64(months)))
	}
	flat := in.Principal.Div(decimal.NewFromInt(int64(months)))
	r := monthlyRate(in).InexactFloat64()
	growth := math.Pow(1+r, float64(months))
	if growth-1 == 0 {
		return flat
	}
	factor := r * growth / (growth - 1)
	if math.IsInf(factor, 0) || math.IsNaN(factor) {
		// Past float range the payment converges on pure interest.
		return in.Principal.Mul(monthlyRate(in))
	}
	return in.Principal.Mul(decimal.NewFromFloat(factor))
}
