package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/nyaysahay/nyaysahay/pkg/db/models"
)

// Consultations rank urgency low through "urgent", unlike incidents which top
// out at "critical".
var validConsultationUrgencies = map[string]bool{
	models.UrgencyLow:    true,
	models.UrgencyMedium: true,
	models.UrgencyHigh:   true,
	"urgent":             true,
}

var validLegalIssues = map[string]bool{
	models.LegalIssueCivil:     true,
	models.LegalIssueCriminal:  true,
	models.LegalIssueCorporate: true,
	models.LegalIssueFamily:    true,
	models.LegalIssueProperty:  true,
	models.LegalIssueLabor:     true,
	models.LegalIssueOther:     true,
}

type createConsultationRequest struct {
	AdvocateID string `json:"advocateId"`
	Message    string `json:"message"`
	LegalIssue string `json:"legalIssue"`
	Urgency    string `json:"urgency"`
}

func (s *Server) jsonCreateConsultation(w http.ResponseWriter, req *http.Request) {
	principal := principalForRequest(req)
	if principal.Role != models.RoleClient {
		failureResponse(w, http.StatusForbidden, "Only clients can request consultations")
		return
	}

	var request createConsultationRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		failureResponse(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	advocateID, err := uuid.Parse(request.AdvocateID)
	if err != nil {
		failureResponse(w, http.StatusBadRequest, "Invalid advocate ID format")
		return
	}
	message := strings.TrimSpace(request.Message)
	if message == "" {
		failureResponse(w, http.StatusBadRequest, "Message is required")
		return
	}
	if !validLegalIssues[request.LegalIssue] {
		failureResponse(w, http.StatusBadRequest, "Invalid legal issue")
		return
	}
	urgency := request.Urgency
	if urgency == "" {
		urgency = models.UrgencyMedium
	}
	if !validConsultationUrgencies[urgency] {
		failureResponse(w, http.StatusBadRequest, "Invalid urgency")
		return
	}

	var advocate models.Advocate
	if err := s.dbc.DB.WithContext(req.Context()).First(&advocate, "id = ?", advocateID).Error; err != nil {
		failureResponse(w, http.StatusNotFound, "Advocate not found")
		return
	}
	if advocate.LawFirm == "" || advocate.BarCouncilNumber == "" {
		failureResponse(w, http.StatusBadRequest, "Advocate profile is incomplete")
		return
	}

	// One open connection per client/advocate pair.
	var existing models.ConsultationRequest
	err = s.dbc.DB.WithContext(req.Context()).
		First(&existing, "client_id = ? AND advocate_id = ? AND status IN ?",
			principal.ID, advocateID,
			[]string{models.ConsultationStatusPending, models.ConsultationStatusAccepted}).Error
	if err == nil {
		if existing.Status == models.ConsultationStatusAccepted {
			failureResponse(w, http.StatusBadRequest, "You are already connected with this advocate")
			return
		}
		failureResponse(w, http.StatusBadRequest, "Consultation request already sent")
		return
	} else if err != gorm.ErrRecordNotFound {
		log.WithError(err).Error("error checking for existing consultation request")
		failureResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	consultation := models.ConsultationRequest{
		ClientID:   principal.ID,
		AdvocateID: advocateID,
		Message:    message,
		LegalIssue: request.LegalIssue,
		Urgency:    urgency,
		Status:     models.ConsultationStatusPending,
	}
	if err := s.dbc.DB.WithContext(req.Context()).Create(&consultation).Error; err != nil {
		log.WithError(err).Error("error creating consultation request")
		failureResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	log.WithFields(log.Fields{
		"client":       principal.ID,
		"advocate":     advocateID,
		"consultation": consultation.ID,
	}).Info("consultation requested")

	RespondWithJSON(http.StatusCreated, w, map[string]interface{}{
		"message":      "Consultation request sent",
		"consultation": consultation,
	})
}

func (s *Server) jsonListConsultations(w http.ResponseWriter, req *http.Request) {
	principal := principalForRequest(req)

	query := s.dbc.DB.WithContext(req.Context()).Order("created_at DESC")
	if principal.Role == models.RoleAdvocate {
		query = query.Where("advocate_id = ?", principal.ID)
	} else {
		query = query.Where("client_id = ?", principal.ID)
	}

	consultations := []models.ConsultationRequest{}
	if err := query.Find(&consultations).Error; err != nil {
		log.WithError(err).Error("error listing consultation requests")
		failureResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	RespondWithJSON(http.StatusOK, w, map[string]interface{}{
		"message":       "Consultation requests retrieved successfully",
		"consultations": consultations,
	})
}

// pendingConsultationForAdvocate loads a consultation addressed to the
// advocate that is still pending, writing the failure response itself when it
// cannot.
func (s *Server) pendingConsultationForAdvocate(w http.ResponseWriter, req *http.Request) *models.ConsultationRequest {
	principal := principalForRequest(req)
	if principal.Role != models.RoleAdvocate {
		failureResponse(w, http.StatusForbidden, "Only advocates can respond to consultation requests")
		return nil
	}

	consultationID, err := uuid.Parse(mux.Vars(req)["id"])
	if err != nil {
		failureResponse(w, http.StatusBadRequest, "Invalid consultation ID format")
		return nil
	}

	var consultation models.ConsultationRequest
	err = s.dbc.DB.WithContext(req.Context()).
		First(&consultation, "id = ? AND advocate_id = ?", consultationID, principal.ID).Error
	if err != nil {
		failureResponse(w, http.StatusNotFound, "Consultation request not found or access denied")
		return nil
	}

	if consultation.Status != models.ConsultationStatusPending {
		failureResponse(w, http.StatusConflict, "Consultation request has already been responded to")
		return nil
	}

	return &consultation
}

func (s *Server) jsonAcceptConsultation(w http.ResponseWriter, req *http.Request) {
	consultation := s.pendingConsultationForAdvocate(w, req)
	if consultation == nil {
		return
	}

	now := time.Now()
	consultation.Status = models.ConsultationStatusAccepted
	consultation.AcceptedAt = &now
	if err := s.dbc.DB.WithContext(req.Context()).Save(consultation).Error; err != nil {
		log.WithError(err).Error("error accepting consultation request")
		failureResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	RespondWithJSON(http.StatusOK, w, map[string]interface{}{
		"message":      "Consultation request accepted",
		"consultation": consultation,
	})
}

type rejectConsultationRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) jsonRejectConsultation(w http.ResponseWriter, req *http.Request) {
	var request rejectConsultationRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		failureResponse(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	reason := strings.TrimSpace(request.Reason)
	if reason == "" {
		failureResponse(w, http.StatusBadRequest, "Rejection reason is required")
		return
	}

	consultation := s.pendingConsultationForAdvocate(w, req)
	if consultation == nil {
		return
	}

	now := time.Now()
	consultation.Status = models.ConsultationStatusRejected
	consultation.RejectionReason = reason
	consultation.RejectedAt = &now
	if err := s.dbc.DB.WithContext(req.Context()).Save(consultation).Error; err != nil {
		log.WithError(err).Error("error rejecting consultation request")
		failureResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	RespondWithJSON(http.StatusOK, w, map[string]interface{}{
		"message":      "Consultation request rejected",
		"consultation": consultation,
	})
}
