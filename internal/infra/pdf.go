package infra

// pdf.go: shift close report rendered with go-pdf/fpdf.
// Receipt-width page (80mm) with:
//   - Cashier and shift window
//   - Frozen sales summary
//   - Opening / expected / counted cash and variance
//   - Approval stamp when the shift went through pending_approval

import (
	"fmt"
	"io"

	"posengine/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const pdfTimeLayout = "02/01/2006 15:04"

// WriteShiftReportPDF renders the report for a closed shift into w.
func WriteShiftReportPDF(w io.Writer, shift *model.Shift) error {
	if shift.Status == model.ShiftActive {
		return fmt.Errorf("pdf: shift %s is still active", shift.ID)
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 80, Ht: 150},
	})
	pdf.SetMargins(5, 5, 5)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 10
	labelW := contentW * 0.6
	valueW := contentW - labelW

	row := func(label, value string) {
		pdf.CellFormat(labelW, 5, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 5, value, "", 1, "R", false, 0, "")
	}
	money := func(d decimal.Decimal) string { return "$" + d.StringFixed(2) }
	separator := func() {
		pdf.Ln(1)
		pdf.Line(5, pdf.GetY(), pageW-5, pdf.GetY())
		pdf.Ln(2)
	}

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 7, "Shift Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, shift.ID.String(), "", 1, "C", false, 0, "")
	separator()

	pdf.SetFont("Helvetica", "", 8)
	row("Cashier", shift.UserName)
	row("Start", shift.StartTime.Format(pdfTimeLayout))
	if shift.EndTime != nil {
		row("End", shift.EndTime.Format(pdfTimeLayout))
	}
	row("Status", shift.Status)
	separator()

	// ── Summary ──────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, "Sales", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	row("Transactions", fmt.Sprintf("%d", shift.TransactionCount))
	row("Total sales", money(shift.TotalSales))
	row("Refunds", money(shift.TotalRefunds))
	row("Cash sales", money(shift.CashSales))
	row("EFT sales", money(shift.EFTSales))
	row("Credit issued", money(shift.TotalCreditIssued))
	separator()

	// ── Cash drawer ──────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, "Cash drawer", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	row("Opening", money(shift.OpeningBalance))
	if shift.ExpectedBalance != nil {
		row("Expected", money(*shift.ExpectedBalance))
	}
	if shift.ClosingBalance != nil {
		row("Counted", money(*shift.ClosingBalance))
	}
	if shift.Variance != nil {
		pdf.SetFont("Helvetica", "B", 9)
		row("Variance", money(*shift.Variance))
		pdf.SetFont("Helvetica", "", 8)
	}

	if shift.ApprovedAt != nil {
		separator()
		pdf.SetFont("Helvetica", "I", 7)
		pdf.CellFormat(contentW, 4, "Variance approved "+shift.ApprovedAt.Format(pdfTimeLayout), "", 1, "C", false, 0, "")
	}
	if shift.Notes != nil && *shift.Notes != "" {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "", 7)
		pdf.MultiCell(contentW, 4, "Notes: "+*shift.Notes, "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: render: %w", err)
	}
	return nil
}
