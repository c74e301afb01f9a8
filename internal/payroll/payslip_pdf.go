package payroll

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

func (s *service) RenderPayslipPDF(ctx context.Context, employeeID string) ([]byte, error) {
	slip, warning, err := s.GetPayslip(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	employeeName := employeeID
	if e, err := s.employees.FindByID(ctx, employeeID); err == nil {
		employeeName = e.FullName
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", employeeName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Monthly Wage: %.2f", slip.MonthlyWage))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(100, 8, "Component")
	pdf.Cell(40, 8, "Kind")
	pdf.CellFormat(40, 8, "Amount", "", 0, "R", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 12)
	for _, c := range slip.Components {
		pdf.Cell(100, 7, c.Name)
		pdf.Cell(40, 7, c.Kind)
		pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", c.Amount), "", 0, "R", false, 0, "")
		pdf.Ln(7)
	}
	pdf.Ln(5)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Gross: %.2f", slip.Gross))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Deductions: %.2f", slip.TotalDeductions))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Employer Contributions: %.2f", slip.EmployerContributions))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Net: %.2f", slip.Net))

	if warning != "" {
		pdf.Ln(10)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.Cell(0, 6, fmt.Sprintf("Note: %s", warning))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
