// Package finance wraps the finance MCP tools with input checks and the
// fallback messages shown when a tool returns no text.
package finance

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/matiasleandrokruk/hellomcp/internal/infra/toolclient"
)

// Fallback texts for absent tool results.
const (
	NoSalaryResult   = "연봉 계산 결과를 받지 못했습니다."
	NoInterestResult = "이자 계산 결과를 받지 못했습니다."
	NoLoanResult     = "대출 상환액 계산 결과를 받지 못했습니다."
)

// ErrInvalidInput is wrapped by every argument validation failure.
var ErrInvalidInput = errors.New("invalid finance input")

// Tools is the subset of the MCP tool client used here.
type Tools interface {
	CalculateAnnualSalary(ctx context.Context, monthlySalary float64, periodMonths int) (toolclient.Result, error)
	CalculateSimpleInterest(ctx context.Context, principal, annualRate, years float64) (toolclient.Result, error)
	CalculateLoanRepayment(ctx context.Context, principal, annualRate float64, months int) (toolclient.Result, error)
}

// Calculator validates finance inputs before calling the tools.
type Calculator struct {
	tools Tools
}

// NewCalculator returns a Calculator backed by tools.
func NewCalculator(tools Tools) *Calculator {
	return &Calculator{tools: tools}
}

// AnnualSalary returns the salary summary for a monthly salary over
// periodMonths (0 means 12).
func (c *Calculator) AnnualSalary(ctx context.Context, monthlySalary float64, periodMonths int) (string, error) {
	if err := checkAmount("monthly salary", monthlySalary); err != nil {
		return "", err
	}
	if periodMonths < 0 {
		return "", fmt.Errorf("%w: period must not be negative", ErrInvalidInput)
	}
	res, err := c.tools.CalculateAnnualSalary(ctx, monthlySalary, periodMonths)
	if err != nil {
		return "", err
	}
	return res.TextOr(NoSalaryResult), nil
}

// SimpleInterest returns the simple interest summary for a deposit.
func (c *Calculator) SimpleInterest(ctx context.Context, principal, annualRate, years float64) (string, error) {
	if err := checkLoanTerms(principal, annualRate); err != nil {
		return "", err
	}
	if math.IsNaN(years) || math.IsInf(years, 0) || years <= 0 {
		return "", fmt.Errorf("%w: years must be a positive finite number", ErrInvalidInput)
	}
	res, err := c.tools.CalculateSimpleInterest(ctx, principal, annualRate, years)
	if err != nil {
		return "", err
	}
	return res.TextOr(NoInterestResult), nil
}

// LoanRepayment returns the monthly repayment summary for a loan.
func (c *Calculator) LoanRepayment(ctx context.Context, principal, annualRate float64, months int) (string, error) {
	if err := checkLoanTerms(principal, annualRate); err != nil {
		return "", err
	}
	if months <= 0 {
		return "", fmt.Errorf("%w: months must be positive", ErrInvalidInput)
	}
	res, err := c.tools.CalculateLoanRepayment(ctx, principal, annualRate, months)
	if err != nil {
		return "", err
	}
	return res.TextOr(NoLoanResult), nil
}

func checkLoanTerms(principal, annualRate float64) error {
	if err := checkAmount("principal", principal); err != nil {
		return err
	}
	return checkAmount("annual rate", annualRate)
}

// checkAmount rejects negative, NaN and infinite values; none of them can be
// encoded as a JSON number.
func checkAmount(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be a finite number", ErrInvalidInput, name)
	}
	if v < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, name)
	}
	return nil
}
