package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matiasleandrokruk/hellomcp/internal/domain/finance"
)

func (c *cli) calcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Run the finance tools",
	}

	var months int
	salary := &cobra.Command{
		Use:   "salary <monthly-salary>",
		Short: "Annual salary for a monthly salary",
		Args:  args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			monthly, err := parseFloat("monthly salary", a[0])
			if err != nil {
				return err
			}
			return c.calc(func(calc *finance.Calculator) (string, error) {
				return calc.AnnualSalary(cmdContext(cmd), monthly, months)
			})
		},
	}
	salary.Flags().IntVar(&months, "months", 12, "number of months in the period")

	interest := &cobra.Command{
		Use:   "interest <principal> <annual-rate> <years>",
		Short: "Simple interest on a principal",
		Args:  args(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, a []string) error {
			vals, err := parseFloats([]string{"principal", "annual rate", "years"}, a)
			if err != nil {
				return err
			}
			return c.calc(func(calc *finance.Calculator) (string, error) {
				return calc.SimpleInterest(cmdContext(cmd), vals[0], vals[1], vals[2])
			})
		},
	}

	loan := &cobra.Command{
		Use:   "loan <principal> <annual-rate> <months>",
		Short: "Monthly repayment of an amortised loan",
		Args:  args(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, a []string) error {
			vals, err := parseFloats([]string{"principal", "annual rate"}, a[:2])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(a[2])
			if err != nil {
				return usageError{fmt.Errorf("months: %q is not an integer", a[2])}
			}
			return c.calc(func(calc *finance.Calculator) (string, error) {
				return calc.LoanRepayment(cmdContext(cmd), vals[0], vals[1], n)
			})
		},
	}

	cmd.AddCommand(salary, interest, loan)
	return cmd
}

func (c *cli) calc(fn func(*finance.Calculator) (string, error)) error {
	container, err := c.container()
	if err != nil {
		return err
	}
	defer container.Close()

	out, err := fn(container.Calculator())
	if err != nil {
		return err
	}
	c.printf("%s\n", out)
	return nil
}

func parseFloat(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, usageError{fmt.Errorf("%s: %q is not a number", name, raw)}
	}
	return v, nil
}

func parseFloats(names, raw []string) ([]float64, error) {
	out := make([]float64, len(raw))
	for i := range raw {
		v, err := parseFloat(names[i], raw[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
