package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nyaysahay/nyaysahay/pkg/db/models"
)

func TestSendIncidentReportUnconfigured(t *testing.T) {
	sender := &Sender{}

	// Without credentials the report is logged, never an error.
	err := sender.SendIncidentReport(&models.Incident{
		IncidentNumber: "INC-123456001",
		Title:          "Bribe demanded at registration office",
		IncidentType:   models.IncidentTypeCorruption,
		Urgency:        models.UrgencyHigh,
		Location:       "Pune",
	}, "Asha", "9999999999")
	assert.NoError(t, err)
}

func TestConfigured(t *testing.T) {
	assert.False(t, (&Sender{Host: "smtp.example.com"}).configured())
	assert.False(t, (&Sender{Username: "user", Password: "pass"}).configured())
	assert.True(t, (&Sender{Host: "smtp.example.com", Username: "user", Password: "pass"}).configured())
}
