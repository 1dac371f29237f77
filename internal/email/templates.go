package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <h1>MediConnect</h1>
  <h2>Your Lab Report is Ready!</h2>
  <p>Dear {{.PatientName}},</p>
  <p>Your lab test results for <strong>{{.TestName}}</strong> are now available.</p>
  <p><strong>Test Name:</strong> {{.TestName}}<br>
  <strong>Booking ID:</strong> {{.BookingID}}<br>
  <strong>Report Date:</strong> {{.ReportDate}}</p>
  <p><strong>Your detailed lab report is attached to this email as a PDF file.</strong></p>
  <ul>
    <li>Please review your results carefully</li>
    <li>Consult with your healthcare provider for interpretation</li>
    <li>Keep this report for your medical records</li>
  </ul>
  <p>Best regards,<br><strong>The MediConnect Team</strong></p>
  <p style="font-size: 12px; color: #666;">This email contains confidential medical information. Please handle with care.</p>
</body>
</html>`))

type ReportEmail struct {
	To          string
	PatientName string
	TestName    string
	BookingID   string
	ReportDate  time.Time
	PDF         []byte
	Filename    string
}

// NewReportMessage arma el correo del reporte con el PDF adjunto.
func NewReportMessage(r ReportEmail) (Message, error) {
	var html bytes.Buffer
	err := reportTemplate.Execute(&html, map[string]string{
		"PatientName": r.PatientName,
		"TestName":    r.TestName,
		"BookingID":   r.BookingID,
		"ReportDate":  r.ReportDate.UTC().Format("2006-01-02"),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      r.To,
		Subject: fmt.Sprintf("Your Lab Report is Ready - %s | MediConnect", r.TestName),
		TextBody: fmt.Sprintf(
			"Dear %s,\n\nYour lab test results for %s (booking %s) are attached.\n\nThe MediConnect Team\n",
			r.PatientName, r.TestName, r.BookingID,
		),
		HTMLBody: html.String(),
		Attachments: []Attachment{
			{Filename: r.Filename, ContentType: "application/pdf", Data: r.PDF},
		},
	}, nil
}
