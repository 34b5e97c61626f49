package server

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/nyaysahay/nyaysahay/pkg/db/models"
)

// maxUploadFormBytes caps a multipart upload form held in memory (32MB).
const maxUploadFormBytes = 32 << 20

var validIncidentTypes = map[string]bool{
	models.IncidentTypeCorruption:           true,
	models.IncidentTypePoliceMisconduct:     true,
	models.IncidentTypeGovernmentNegligence: true,
	models.IncidentTypeFraud:                true,
	models.IncidentTypeOther:                true,
}

var validUrgencies = map[string]bool{
	models.UrgencyLow:      true,
	models.UrgencyMedium:   true,
	models.UrgencyHigh:     true,
	models.UrgencyCritical: true,
}

var validIncidentStatuses = map[string]bool{
	models.IncidentStatusSubmitted:   true,
	models.IncidentStatusUnderReview: true,
	models.IncidentStatusForwarded:   true,
	models.IncidentStatusResolved:    true,
}

func newIncidentNumber() string {
	timestamp := fmt.Sprintf("%d", time.Now().UnixMilli())
	return fmt.Sprintf("INC-%s%03d", timestamp[len(timestamp)-6:], rand.Intn(1000))
}

func evidenceKind(header *multipart.FileHeader) string {
	contentType := header.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "video/"):
		return "video"
	default:
		return "document"
	}
}

func (s *Server) jsonCreateIncident(w http.ResponseWriter, req *http.Request) {
	principal := principalForRequest(req)
	if principal.Role != models.RoleClient {
		failureResponse(w, http.StatusForbidden, "Only clients can report incidents")
		return
	}

	if err := req.ParseMultipartForm(maxUploadFormBytes); err != nil {
		failureResponse(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	title := strings.TrimSpace(req.FormValue("title"))
	details := strings.TrimSpace(req.FormValue("incidentDetails"))
	location := strings.TrimSpace(req.FormValue("location"))
	reporterEmail := strings.TrimSpace(req.FormValue("reporterEmail"))
	incidentType := req.FormValue("incidentType")
	urgency := req.FormValue("urgency")
	if urgency == "" {
		urgency = models.UrgencyMedium
	}

	if title == "" || details == "" || location == "" || reporterEmail == "" {
		failureResponse(w, http.StatusBadRequest, "Title, details, location and reporter email are required")
		return
	}
	if !validIncidentTypes[incidentType] {
		failureResponse(w, http.StatusBadRequest, "Invalid incident type")
		return
	}
	if !validUrgencies[urgency] {
		failureResponse(w, http.StatusBadRequest, "Invalid urgency")
		return
	}

	evidence := []models.EvidenceFile{}
	if req.MultipartForm != nil {
		for _, header := range req.MultipartForm.File["evidence"] {
			file, err := header.Open()
			if err != nil {
				failureResponse(w, http.StatusBadRequest, "Could not read evidence file")
				return
			}

			_, url, err := s.uploads.Upload(req.Context(), "incidents", file, header.Header.Get("Content-Type"))
			file.Close()
			if err != nil {
				log.WithError(err).Error("error uploading evidence file")
				failureResponse(w, http.StatusInternalServerError, "Failed to upload evidence")
				return
			}

			evidence = append(evidence, models.EvidenceFile{
				URL:      url,
				Kind:     evidenceKind(header),
				Filename: header.Filename,
			})
		}
	}

	evidenceJSON, err := json.Marshal(evidence)
	if err != nil {
		log.WithError(err).Error("error marshaling evidence files")
		failureResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	incident := models.Incident{
		IncidentNumber:  newIncidentNumber(),
		Title:           title,
		IncidentDetails: details,
		Location:        location,
		ReporterEmail:   reporterEmail,
		ReportedBy:      principal.ID,
		IncidentType:    incidentType,
		Urgency:         urgency,
		Status:          models.IncidentStatusSubmitted,
		EvidenceFiles:   evidenceJSON,
	}

	if err := s.dbc.DB.WithContext(req.Context()).Create(&incident).Error; err != nil {
		log.WithError(err).Error("error creating incident")
		failureResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	log.WithFields(log.Fields{
		"incident":       incident.ID,
		"incidentNumber": incident.IncidentNumber,
		"urgency":        incident.Urgency,
	}).Info("incident reported")

	// Notify the authorities off the request path; a mail outage must not
	// fail the report.
	go s.notifyAuthorities(incident, principal.Name)

	RespondWithJSON(http.StatusCreated, w, map[string]interface{}{
		"message":  "Incident reported successfully",
		"incident": incident,
	})
}

func (s *Server) notifyAuthorities(incident models.Incident, reporterName string) {
	var client models.Client
	reporterPhone := ""
	if err := s.dbc.DB.First(&client, "id = ?", incident.ReportedBy).Error; err == nil {
		reporterPhone = client.Phone
	}

	if err := s.mailer.SendIncidentReport(&incident, reporterName, reporterPhone); err != nil {
		log.WithError(err).WithField("incidentNumber", incident.IncidentNumber).
			Error("error sending incident report email")
		return
	}

	now := time.Now()
	err := s.dbc.DB.Model(&models.Incident{}).
		Where("id = ?", incident.ID).
		Updates(map[string]interface{}{"email_sent": true, "email_sent_at": &now}).Error
	if err != nil {
		log.WithError(err).Warning("error recording incident email delivery")
	}
}

func (s *Server) jsonListIncidents(w http.ResponseWriter, req *http.Request) {
	principal := principalForRequest(req)

	incidents := []models.Incident{}
	err := s.dbc.DB.WithContext(req.Context()).
		Where("reported_by = ?", principal.ID).
		Order("created_at DESC").
		Find(&incidents).Error
	if err != nil {
		log.WithError(err).Error("error listing incidents")
		failureResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	RespondWithJSON(http.StatusOK, w, map[string]interface{}{
		"message":   "Incidents retrieved successfully",
		"incidents": incidents,
	})
}

func (s *Server) jsonIncidentDetails(w http.ResponseWriter, req *http.Request) {
	principal := principalForRequest(req)

	incidentID, err := uuid.Parse(mux.Vars(req)["id"])
	if err != nil {
		failureResponse(w, http.StatusBadRequest, "Invalid incident ID format")
		return
	}

	var incident models.Incident
	err = s.dbc.DB.WithContext(req.Context()).
		First(&incident, "id = ? AND reported_by = ?", incidentID, principal.ID).Error
	if err != nil {
		failureResponse(w, http.StatusNotFound, "Incident not found or access denied")
		return
	}

	RespondWithJSON(http.StatusOK, w, map[string]interface{}{
		"message":  "Incident details retrieved successfully",
		"incident": incident,
	})
}

type updateIncidentStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) jsonUpdateIncidentStatus(w http.ResponseWriter, req *http.Request) {
	principal := principalForRequest(req)

	incidentID, err := uuid.Parse(mux.Vars(req)["id"])
	if err != nil {
		failureResponse(w, http.StatusBadRequest, "Invalid incident ID format")
		return
	}

	var request updateIncidentStatusRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		failureResponse(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if !validIncidentStatuses[request.Status] {
		failureResponse(w, http.StatusBadRequest, "Invalid status")
		return
	}

	var incident models.Incident
	err = s.dbc.DB.WithContext(req.Context()).
		First(&incident, "id = ? AND reported_by = ?", incidentID, principal.ID).Error
	if err != nil {
		failureResponse(w, http.StatusNotFound, "Incident not found or access denied")
		return
	}

	if err := s.dbc.DB.WithContext(req.Context()).Model(&incident).Update("status", request.Status).Error; err != nil {
		log.WithError(err).Error("error updating incident status")
		failureResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	RespondWithJSON(http.StatusOK, w, map[string]interface{}{
		"message":  "Incident status updated",
		"incident": incident,
	})
}
