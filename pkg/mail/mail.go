package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/nyaysahay/nyaysahay/pkg/db/models"
)

// Sender delivers incident report notifications to the authorities inbox.
// When no credentials are configured, reports are logged instead of sent so
// development environments keep working.
type Sender struct {
	Host            string
	Port            int
	Username        string
	Password        string
	From            string
	AuthoritiesAddr string
}

func (s *Sender) configured() bool {
	return s.Host != "" && s.Username != "" && s.Password != ""
}

// SendIncidentReport sends the notification for a newly filed incident.
func (s *Sender) SendIncidentReport(incident *models.Incident, reporterName, reporterPhone string) error {
	subject := fmt.Sprintf("URGENT: Incident Report - %s - %s", incident.IncidentNumber, incident.Title)

	if !s.configured() {
		log.WithFields(log.Fields{
			"incidentNumber": incident.IncidentNumber,
			"incidentType":   incident.IncidentType,
			"urgency":        incident.Urgency,
			"location":       incident.Location,
			"reporter":       reporterName,
		}).Info("email credentials not configured, logging incident report instead of sending")
		return nil
	}

	body := strings.Join([]string{
		"A new incident has been reported on the NyaySahay platform.",
		"",
		"Incident number: " + incident.IncidentNumber,
		"Title: " + incident.Title,
		"Type: " + incident.IncidentType,
		"Urgency: " + incident.Urgency,
		"Location: " + incident.Location,
		"",
		"Reported by: " + reporterName,
		"Reporter email: " + incident.ReporterEmail,
		"Reporter phone: " + reporterPhone,
		"",
		"Details:",
		incident.IncidentDetails,
	}, "\r\n")

	msg := strings.Join([]string{
		"From: " + s.From,
		"To: " + s.AuthoritiesAddr,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	authentication := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	return smtp.SendMail(addr, authentication, s.From, []string{s.AuthoritiesAddr}, []byte(msg))
}
