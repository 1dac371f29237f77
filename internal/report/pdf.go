package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// DefaultResult se imprime mientras el laboratorio no cargue un resultado.
const DefaultResult = "Pending clinician review"

type Data struct {
	BookingID   string
	PatientName string
	TestName    string
	Date        time.Time
	Result      string
	GeneratedAt time.Time
}

// Filename devuelve el nombre de adjunto del reporte.
func Filename(bookingID string) string {
	return fmt.Sprintf("Lab_Report_%s.pdf", bookingID)
}

// Generate renderiza el reporte de laboratorio como PDF en memoria.
func Generate(d Data) ([]byte, error) {
	if d.Result == "" {
		d.Result = DefaultResult
	}
	if d.GeneratedAt.IsZero() {
		d.GeneratedAt = time.Now().UTC()
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Lab Report", true)
	pdf.SetAuthor("MediConnect Lab", true)
	pdf.SetCreationDate(d.GeneratedAt)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Lab Report", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 12)
	rows := [][2]string{
		{"Name", d.PatientName},
		{"Test", d.TestName},
		{"Date", d.Date.UTC().Format("2006-01-02 15:04 MST")},
		{"Result", d.Result},
		{"Booking ID", d.BookingID},
	}
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(35, 8, row[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(0, 8, tr(row[1]), "", 1, "L", false, 0, "")
	}

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "Consult with your healthcare provider for interpretation. Generated "+
		d.GeneratedAt.UTC().Format(time.RFC3339)+".", "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
