package email

import (
	"fmt"
	"strings"

	"lmk-backend/config"
	"lmk-backend/models"

	"github.com/apex/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Sender emails generated hazard reports to their requesters
type Sender struct {
	config *config.Config
	client *sendgrid.Client
}

// NewSender creates a new report email sender
func NewSender(cfg *config.Config) *Sender {
	return &Sender{
		config: cfg,
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
	}
}

// SendReport sends a generated hazard report to its requester
func (s *Sender) SendReport(report *models.GeneratedReport) error {
	recipient := report.UserDetails.Email
	log.Infof("Sending hazard report email to %s", recipient)

	from := mail.NewEmail(s.config.SendGridFromName, s.config.SendGridFromEmail)
	to := mail.NewEmail(recipient, recipient)
	subject := "Your lmk hazard report"

	plain := plainTextBody(report)
	message := mail.NewSingleEmail(from, subject, to, plain, htmlBody(report))

	response, err := s.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send report email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error (status %d): %s", response.StatusCode, response.Body)
	}
	return nil
}

func plainTextBody(report *models.GeneratedReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hazard report generated at %s\n", report.UserDetails.GeneratedAt)
	fmt.Fprintf(&b, "Location: %.4f, %.4f\n\n", report.LocationDetails.Latitude, report.LocationDetails.Longitude)
	fmt.Fprintf(&b, "Safety score: %.1f/10 - %s\n\n", report.SafetyScore.Score, report.SafetyScore.Description)
	fmt.Fprintf(&b, "Incidents (%d total, %d urgent):\n", report.Incidents.Total, report.Incidents.UrgentCount)
	for _, incident := range report.Incidents.List {
		fmt.Fprintf(&b, "  - %s\n", incident)
	}
	b.WriteString("\nRecommendations:\n")
	for _, rec := range report.Recommendations {
		fmt.Fprintf(&b, "  - %s\n", rec)
	}
	return b.String()
}

func htmlBody(report *models.GeneratedReport) string {
	var b strings.Builder
	b.WriteString("<h2>Your lmk hazard report</h2>")
	fmt.Fprintf(&b, "<p>Generated at %s for %.4f, %.4f</p>",
		report.UserDetails.GeneratedAt, report.LocationDetails.Latitude, report.LocationDetails.Longitude)
	fmt.Fprintf(&b, "<p><strong>Safety score: %.1f/10</strong> &mdash; %s</p>",
		report.SafetyScore.Score, report.SafetyScore.Description)
	fmt.Fprintf(&b, "<h3>Incidents (%d total, %d urgent)</h3><ul>",
		report.Incidents.Total, report.Incidents.UrgentCount)
	for _, incident := range report.Incidents.List {
		fmt.Fprintf(&b, "<li>%s</li>", incident)
	}
	b.WriteString("</ul><h3>Recommendations</h3><ul>")
	for _, rec := range report.Recommendations {
		fmt.Fprintf(&b, "<li>%s</li>", rec)
	}
	b.WriteString("</ul>")
	return b.String()
}
