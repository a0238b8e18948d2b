package exportsvc

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"github.com/trezcool/aula/core/attendance"
)

const (
	pdfFont     = "Arial"
	pdfPieImage = "pie"
	pdfColWidth = 40
	pdfRowH     = 8
)

// WritePDF writes a one page document with the table of rep and the pie of its averages.
func WritePDF(w io.Writer, rep attendance.Report, schoolName string) error {
	wr := rep.Weekly
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(wr.Title), false)
	pdf.AddPage()

	pdf.SetFont(pdfFont, "B", 18)
	pdf.Cell(0, 8, tr(schoolName))
	pdf.Ln(9)
	pdf.SetFont(pdfFont, "", 10)
	pdf.Cell(0, 5, tr(fmt.Sprintf("Semana del %s", wr.WeekStart.Format("02/01/2006"))))
	pdf.Ln(4)
	pdf.SetDrawColor(34, 197, 94)
	pdf.SetLineWidth(0.5)
	pdf.Line(10, pdf.GetY(), 200, pdf.GetY())
	pdf.Ln(8)

	pdf.SetFont(pdfFont, "B", 14)
	pdf.Cell(0, 8, tr(wr.Title))
	pdf.Ln(12)

	// table
	pdf.SetFont(pdfFont, "B", 10)
	pdf.SetFillColor(229, 231, 235)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(pdfColWidth, pdfRowH, tr(dayHeader), "1", 0, "L", true, 0, "")
	for _, m := range attendance.Metrics {
		pdf.CellFormat(pdfColWidth, pdfRowH, tr(m.Title()), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(pdfFont, "", 10)
	for i, label := range wr.Labels {
		pdf.CellFormat(pdfColWidth, pdfRowH, tr(label), "1", 0, "L", false, 0, "")
		for _, m := range attendance.Metrics {
			var v float64
			if i < len(wr.Values[m]) {
				v = wr.Values[m][i]
			}
			pdf.CellFormat(pdfColWidth, pdfRowH, percent(v), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont(pdfFont, "B", 10)
	pdf.CellFormat(pdfColWidth, pdfRowH, averageLabel, "1", 0, "L", true, 0, "")
	for _, m := range attendance.Metrics {
		pdf.CellFormat(pdfColWidth, pdfRowH, percent(wr.Averages[m]), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(14)

	// pie of the averages
	var img bytes.Buffer
	if err := RenderSeries(&img, wr.PieSeries(), FormatPNG); err != nil {
		return err
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(pdfPieImage, opts, &img)
	y := pdf.GetY()
	pdf.ImageOptions(pdfPieImage, 55, y, 100, 0, false, opts, 0, "")

	pdf.SetY(y + 105)
	pdf.SetFont(pdfFont, "B", 12)
	pdf.CellFormat(0, 8, tr("Total: "+rep.CenterLabel), "", 1, "C", false, 0, "")

	if err := pdf.Error(); err != nil {
		return errors.Wrap(err, "building pdf")
	}
	return errors.Wrap(pdf.Output(w), "writing pdf")
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}
