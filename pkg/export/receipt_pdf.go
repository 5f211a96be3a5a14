package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/fqms/fees-queue-api/internal/models"
)

// ReceiptPDF renders payment receipts into a printable A5 document.
type ReceiptPDF struct {
	collegeName string
}

// NewReceiptPDF constructs a receipt renderer stamped with the college name.
func NewReceiptPDF(collegeName string) *ReceiptPDF {
	if collegeName == "" {
		collegeName = "College Fee Office"
	}
	return &ReceiptPDF{collegeName: collegeName}
}

// Render produces the PDF bytes for a completed payment receipt.
func (e *ReceiptPDF) Render(r models.Receipt) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 14, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 15)
	pdf.CellFormat(0, 9, e.collegeName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, "Fee Payment Receipt", "B", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 9)
	rows := [][2]string{
		{"Receipt No.", r.ReceiptNumber},
		{"Token No.", r.TokenNumber},
		{"Student", r.StudentName},
		{"Roll Number", r.RollNumber},
		{"Counter", fmt.Sprintf("%s (No. %d)", r.CounterName, r.CounterNumber)},
		{"Processed By", r.AccountantName},
		{"Fee Type", r.FeeType},
		{"Paid At", r.PaidAt.Format("02 Jan 2006 15:04")},
	}
	if r.Description != "" {
		rows = append(rows, [2]string{"Description", r.Description})
	}
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(40, 7, row[0], "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 7, row[1], "", 1, "", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(40, 9, "Amount Paid", "T", 0, "", false, 0, "")
	pdf.CellFormat(0, 9, fmt.Sprintf("Rs. %.2f", r.Amount), "T", 1, "R", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}
