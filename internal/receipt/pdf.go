package receipt

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

// WritePDF lays doc out on a single A4 page. created stamps the document metadata.
func WritePDF(w io.Writer, doc Document, created time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(created)
	pdf.SetTitle(doc.Title, true)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	header := []string{
		"Transacción: " + doc.TransactionID,
		"Fecha: " + doc.Date,
	}
	if doc.User != "" {
		header = append(header, "Usuario: "+doc.User)
	}
	if doc.Agency != "" {
		header = append(header, "Agencia: "+doc.Agency)
	}
	for _, line := range header {
		pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{90, 20, 35, 35}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range []string{"Producto", "Cant.", "FC Unidad", "Subtotal"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, tr(h), "B", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range doc.Rows {
		pdf.CellFormat(widths[0], 7, tr(truncate(row.Name, 45)), "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, fmt.Sprint(row.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, fmt.Sprint(row.UnitPrice), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, fmt.Sprint(row.Subtotal), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 8, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(widths[3], 8, fmt.Sprintf("%d FC", doc.Total), "T", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 8, "Saldo restante", "", 0, "L", false, 0, "")
	pdf.CellFormat(widths[3], 8, fmt.Sprintf("%d FC", doc.Balance), "", 1, "R", false, 0, "")

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, tr(doc.Note), "", "L", false)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
