package payroll

import (
	"math"
	"sort"
)

// WarningOverAllocation is surfaced alongside a valid breakdown when the
// percentage earnings already meet or exceed the monthly wage, leaving the
// residual component nothing to absorb.
const WarningOverAllocation = "percentage earnings meet or exceed the monthly wage; residual allowance is zero"

type ComponentAmount struct {
	Name   string  `json:"name"`
	Kind   string  `json:"kind"`
	Amount float64 `json:"amount"`
}

type Breakdown struct {
	Components    []ComponentAmount
	OverAllocated bool
}

type Totals struct {
	Gross                 float64 `json:"gross"`
	TotalDeductions       float64 `json:"total_deductions"`
	EmployerContributions float64 `json:"employer_contributions"`
	Net                   float64 `json:"net"`
}

// round2 rounds half away from zero to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeComponents resolves every component of the template to an amount.
// Components are evaluated in position order; the residual component is
// filled last with whatever the other earning components leave of the wage.
func ComputeComponents(t SalaryTemplate) Breakdown {
	components := make([]SalaryComponent, len(t.Components))
	copy(components, t.Components)
	sort.SliceStable(components, func(i, j int) bool {
		return components[i].Position < components[j].Position
	})

	out := make([]ComponentAmount, len(components))
	residualIdx := -1
	earned := 0.0

	for i, c := range components {
		var amount float64
		switch c.CalcType {
		case CalcPercent:
			amount = round2(t.MonthlyWage * c.Value / 100)
		case CalcFixed:
			amount = round2(c.Value)
		case CalcResidual:
			residualIdx = i
		}
		out[i] = ComponentAmount{Name: c.Name, Kind: c.Kind, Amount: amount}
		if c.Kind == KindEarning && c.CalcType != CalcResidual {
			earned += amount
		}
	}

	overAllocated := false
	if residualIdx >= 0 {
		residual := round2(t.MonthlyWage - earned)
		if residual <= 0 {
			residual = 0
			overAllocated = true
		}
		out[residualIdx].Amount = residual
	} else if earned > t.MonthlyWage {
		overAllocated = true
	}

	return Breakdown{Components: out, OverAllocated: overAllocated}
}

// ComputeTotals sums the breakdown. Employer-side contributions are reported
// separately and never reduce the employee's net.
func ComputeTotals(b Breakdown) Totals {
	var totals Totals
	for _, c := range b.Components {
		switch c.Kind {
		case KindEarning:
			totals.Gross += c.Amount
		case KindDeduction:
			totals.TotalDeductions += c.Amount
		case KindEmployer:
			totals.EmployerContributions += c.Amount
		}
	}
	totals.Gross = round2(totals.Gross)
	totals.TotalDeductions = round2(totals.TotalDeductions)
	totals.EmployerContributions = round2(totals.EmployerContributions)
	totals.Net = round2(totals.Gross - totals.TotalDeductions)
	return totals
}
