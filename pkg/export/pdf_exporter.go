package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidthLandscape = 277.0
	lineHeight         = 5.0
	firstColumnWidth   = 32.0
)

// PDFExporter renders a Dataset as a landscape grid. Cell text may span several
// lines; every row grows to its tallest cell.
type PDFExporter struct{}

// NewPDFExporter constructs a PDFExporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	widths := columnWidths(len(data.Headers))

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 236, 245)
	for i, header := range data.Headers {
		pdf.CellFormat(widths[i], 8, tr(header), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range data.Rows {
		cells := make([]string, len(data.Headers))
		height := lineHeight
		for i, header := range data.Headers {
			cells[i] = tr(row[header])
			lines := len(pdf.SplitLines([]byte(cells[i]), widths[i]-2))
			if h := float64(lines) * lineHeight; h > height {
				height = h
			}
		}

		x, y := pdf.GetXY()
		for i, text := range cells {
			pdf.Rect(x, y, widths[i], height, "D")
			pdf.SetXY(x, y)
			pdf.MultiCell(widths[i], lineHeight, text, "", "L", false)
			x += widths[i]
		}
		pdf.SetXY(10, y+height)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(n int) []float64 {
	widths := make([]float64, n)
	if n == 1 {
		widths[0] = pageWidthLandscape
		return widths
	}
	widths[0] = firstColumnWidth
	rest := (pageWidthLandscape - firstColumnWidth) / float64(n-1)
	for i := 1; i < n; i++ {
		widths[i] = rest
	}
	return widths
}
