package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-leave/leave"
)

// =============================================================================
// TAX TABLE - 2023/2024 brackets
// =============================================================================

// Bracket taxes income above Threshold at Rate, on top of Base.
type Bracket struct {
	Threshold decimal.Decimal
	Base      decimal.Decimal
	Rate      decimal.Decimal
}

func bracket(threshold, base int64, rate string) Bracket {
	return Bracket{
		Threshold: decimal.NewFromInt(threshold),
		Base:      decimal.NewFromInt(base),
		Rate:      decimal.RequireFromString(rate),
	}
}

// TaxTable is ordered from the highest threshold down.
var TaxTable = []Bracket{
	bracket(1_817_000, 644_489, "0.45"),
	bracket(857_900, 251_258, "0.41"),
	bracket(673_000, 179_147, "0.39"),
	bracket(512_800, 121_475, "0.36"),
	bracket(370_500, 77_362, "0.31"),
	bracket(237_100, 42_678, "0.26"),
	bracket(0, 0, "0.18"),
}

var (
	uifRate = decimal.RequireFromString("0.01")
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)
)

// CalculateTax returns annual income tax on salary - deductions, less the
// rebate, never below zero.
func CalculateTax(salary, deductions, rebate decimal.Decimal) decimal.Decimal {
	taxable := salary.Sub(deductions)
	if !taxable.IsPositive() {
		return decimal.Zero
	}

	tax := decimal.Zero
	for _, b := range TaxTable {
		if taxable.GreaterThan(b.Threshold) {
			tax = b.Base.Add(taxable.Sub(b.Threshold).Mul(b.Rate))
			break
		}
	}

	tax = tax.Sub(rebate)
	if tax.IsNegative() {
		return decimal.Zero
	}
	return tax
}

// CalculateUIF returns the 1% unemployment insurance contribution, 2 dp.
func CalculateUIF(salary decimal.Decimal) decimal.Decimal {
	return salary.Mul(uifRate).Round(2)
}

// =============================================================================
// PAY - Derived figures for a pay person
// =============================================================================

// Pay holds the derived salary figures, whole currency units except UIF.
type Pay struct {
	AnnualGross  decimal.Decimal
	Tax          decimal.Decimal
	AnnualNet    decimal.Decimal
	MonthlyGross decimal.Decimal
	MonthlyNet   decimal.Decimal
	UIF          decimal.Decimal
}

// CalculatePay derives the pay figures. Rounding is half away from zero.
func CalculatePay(p PayPerson) Pay {
	tax := CalculateTax(p.Salary, p.Deductions, p.Rebate)

	net := p.Salary.Sub(tax)
	if net.IsNegative() {
		net = decimal.Zero
	}
	net = net.Round(0)

	return Pay{
		AnnualGross:  p.Salary,
		Tax:          tax.Round(2),
		AnnualNet:    net,
		MonthlyGross: p.Salary.Round(0).Div(twelve).Round(0),
		MonthlyNet:   net.Div(twelve).Round(0),
		UIF:          CalculateUIF(p.Salary.Div(twelve)),
	}
}

// =============================================================================
// LEAVE PAYOUT
// =============================================================================

// LeavePayout pays out leave days at the calendar-day rate of the given year:
// annualSalary / days-in-year x days, 2 dp.
func LeavePayout(annualSalary decimal.Decimal, days decimal.Decimal, year int) (decimal.Decimal, error) {
	if days.IsNegative() {
		return decimal.Zero, fmt.Errorf("leave days to pay out must not be negative, got %s", days)
	}
	if annualSalary.IsNegative() {
		return decimal.Zero, fmt.Errorf("salary must not be negative, got %s", annualSalary)
	}
	daysInYear := decimal.NewFromInt(int64(leave.DaysInPeriod(leave.YearPeriod(year))))
	return annualSalary.Mul(days).Div(daysInYear).Round(2), nil
}

// Percent formats a rate as a percentage string, e.g. 0.26 -> "26".
func Percent(rate decimal.Decimal) string {
	return rate.Mul(hundred).String()
}
