package certpdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Document carries the rendered values placed onto a certificate page.
type Document struct {
	Title    string
	Issuer   string
	Lines    []string
	Code     string
	IssuedOn string
}

// Renderer produces single-page landscape certificate PDFs.
type Renderer struct{}

// NewRenderer constructs a certificate renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render lays out the document and returns the PDF bytes.
func (r *Renderer) Render(doc Document) ([]byte, error) {
	if doc.Title == "" {
		return nil, fmt.Errorf("certificate requires a title")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(20, 25, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 28)
	pdf.CellFormat(0, 18, doc.Title, "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 14)
	for _, line := range doc.Lines {
		pdf.CellFormat(0, 10, line, "", 1, "C", false, 0, "")
	}

	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 10)
	if doc.Issuer != "" {
		pdf.CellFormat(0, 6, doc.Issuer, "", 1, "C", false, 0, "")
	}
	if doc.IssuedOn != "" {
		pdf.CellFormat(0, 6, doc.IssuedOn, "", 1, "C", false, 0, "")
	}
	if doc.Code != "" {
		pdf.CellFormat(0, 6, fmt.Sprintf("Verification code: %s", doc.Code), "", 1, "C", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}
