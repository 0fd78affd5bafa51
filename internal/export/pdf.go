package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/nikhil7591/slidex/internal/deck"
)

// PDF writes a deck as a printable handout, one page per slide.
func PDF(d *deck.Deck, w io.Writer) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, es := range d.Slides {
		pdf.AddPage()

		pdf.SetFont("Helvetica", "B", 24)
		pdf.MultiCell(0, 12, tr(es.Slide.Title), "", "L", false)
		pdf.Ln(4)

		pdf.SetFont("Helvetica", "", 14)
		for _, bullet := range es.Slide.Bullets {
			pdf.MultiCell(0, 8, tr("• "+bullet), "", "L", false)
			pdf.Ln(1)
		}

		if es.Slide.PresenterNotes != "" {
			pdf.Ln(4)
			pdf.SetFont("Helvetica", "I", 10)
			pdf.SetTextColor(100, 100, 100)
			pdf.MultiCell(0, 5, tr("Notes: "+es.Slide.PresenterNotes), "", "L", false)
			pdf.SetTextColor(0, 0, 0)
		}

		if d.IsDegraded(es.Slide.OutlineIndex) {
			pdf.Ln(4)
			pdf.SetFont("Helvetica", "I", 8)
			pdf.SetTextColor(180, 80, 80)
			pdf.MultiCell(0, 4, tr("This slide was assembled in degraded form."), "", "L", false)
			pdf.SetTextColor(0, 0, 0)
		}

		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("%s  |  %d / %d", tr(d.Metadata.Title), es.Slide.OutlineIndex+1, len(d.Slides)), "", 0, "R", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}
