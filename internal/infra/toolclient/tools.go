package toolclient

import "context"

// Tool names exposed by the hello and finance MCP servers.
const (
	ToolSayHello                = "say_hello"
	ToolSayHelloMultiple        = "say_hello_multiple"
	ToolCalculateAnnualSalary   = "calculate_annual_salary"
	ToolCalculateSimpleInterest = "calculate_simple_interest"
	ToolCalculateLoanRepayment  = "calculate_loan_repayment"
)

// DefaultPeriodMonths is the salary period used when none is given.
const DefaultPeriodMonths = 12

// SayHello greets one name.
func (c *Client) SayHello(ctx context.Context, name string) (Result, error) {
	return c.CallTool(ctx, NewRequest(ToolSayHello, map[string]any{"name": name}))
}

// SayHelloMultiple greets several names in one reply.
func (c *Client) SayHelloMultiple(ctx context.Context, names []string) (Result, error) {
	list := make([]string, len(names))
	copy(list, names)
	return c.CallTool(ctx, NewRequest(ToolSayHelloMultiple, map[string]any{"names": list}))
}

// CalculateAnnualSalary computes the annual salary and the expected net
// monthly pay. A periodMonths of zero means DefaultPeriodMonths.
func (c *Client) CalculateAnnualSalary(ctx context.Context, monthlySalary float64, periodMonths int) (Result, error) {
	if periodMonths == 0 {
		periodMonths = DefaultPeriodMonths
	}
	return c.CallTool(ctx, NewRequest(ToolCalculateAnnualSalary, map[string]any{
		"monthly_salary": monthlySalary,
		"period_months":  periodMonths,
	}))
}

// CalculateSimpleInterest computes simple interest on a deposit.
func (c *Client) CalculateSimpleInterest(ctx context.Context, principal, annualRate, years float64) (Result, error) {
	return c.CallTool(ctx, NewRequest(ToolCalculateSimpleInterest, map[string]any{
		"principal":   principal,
		"annual_rate": annualRate,
		"years":       years,
	}))
}

// CalculateLoanRepayment computes the monthly repayment of a loan.
func (c *Client) CalculateLoanRepayment(ctx context.Context, principal, annualRate float64, months int) (Result, error) {
	return c.CallTool(ctx, NewRequest(ToolCalculateLoanRepayment, map[string]any{
		"principal":   principal,
		"annual_rate": annualRate,
		"months":      months,
	}))
}
