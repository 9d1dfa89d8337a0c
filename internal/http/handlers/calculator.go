package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/swiftloan/backend/internal/domain/calculator"
	"github.com/swiftloan/backend/internal/format"
	"github.com/swiftloan/backend/internal/observability"
)

type CalculatorHandler struct {
	bounds calculator.Bounds
}

func NewCalculatorHandler(bounds calculator.Bounds) *CalculatorHandler {
	return &CalculatorHandler{bounds: bounds}
}

type emiRequest struct {
	Principal         decimal.Decimal `json:"principal"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
	TenureYears       int             `json:"tenure_years"`
	Schedule          bool            `json:"schedule"`
}

func (h *CalculatorHandler) CalculateEMI(c *gin.Context) {
	var req emiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	in := calculator.Input{Principal: req.Principal, AnnualRatePercent: req.AnnualRatePercent, TenureYears: req.TenureYears}
	result, err := calculator.Calculate(in)
	if errors.Is(err, calculator.ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_calculator_input", "detail": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "calculation_failed"})
		return
	}
	observability.EMICalculations.Inc()

	resp := gin.H{
		"result": result,
		"display": gin.H{
			"emi":            format.INR(result.EMI),
			"total_payment":  format.INR(result.TotalPayment),
			"total_interest": format.INR(result.TotalInterest),
			"principal":      format.CompactINR(result.Principal),
		},
	}
	if req.Schedule {
		schedule, err := calculator.Schedule(in)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "calculation_failed"})
			return
		}
		resp["schedule"] = schedule
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CalculatorHandler) GetBounds(c *gin.Context) {
	c.JSON(http.StatusOK, h.bounds)
}
