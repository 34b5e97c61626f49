package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/nyaysahay/nyaysahay/pkg/db/models"
)

const recommendedAdvocatesLimit = 20

// jsonRecommendedAdvocates lists advocates a client could request a
// consultation with: completed profiles only, excluding advocates the client
// has already contacted, most experienced first.
func (s *Server) jsonRecommendedAdvocates(w http.ResponseWriter, req *http.Request) {
	principal := principalForRequest(req)
	if principal.Role != models.RoleClient {
		failureResponse(w, http.StatusForbidden, "Only clients can view recommended advocates")
		return
	}

	requested := s.dbc.DB.
		Model(&models.ConsultationRequest{}).
		Select("advocate_id").
		Where("client_id = ?", principal.ID)

	advocates := []models.Advocate{}
	err := s.dbc.DB.WithContext(req.Context()).
		Where("law_firm <> '' AND bar_council_number <> ''").
		Where("id NOT IN (?)", requested).
		Order("years_of_practice DESC").
		Limit(recommendedAdvocatesLimit).
		Find(&advocates).Error
	if err != nil {
		log.WithError(err).Error("error listing recommended advocates")
		failureResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	RespondWithJSON(http.StatusOK, w, map[string]interface{}{
		"message":   "Recommended advocates retrieved successfully",
		"advocates": advocates,
	})
}

type connectedAdvocate struct {
	RequestID  uuid.UUID       `json:"request_id"`
	Advocate   models.Advocate `json:"advocate"`
	LegalIssue string          `json:"legal_issue"`
	Urgency    string          `json:"urgency"`
	AcceptedAt *time.Time      `json:"accepted_at"`
}

// jsonMyAdvocates lists the advocates a client is connected with, i.e. the
// counterparts of their accepted consultation requests.
func (s *Server) jsonMyAdvocates(w http.ResponseWriter, req *http.Request) {
	principal := principalForRequest(req)
	if principal.Role != models.RoleClient {
		failureResponse(w, http.StatusForbidden, "Only clients can view their advocates")
		return
	}

	accepted := []models.ConsultationRequest{}
	err := s.dbc.DB.WithContext(req.Context()).
		Where("client_id = ? AND status = ?", principal.ID, models.ConsultationStatusAccepted).
		Order("accepted_at DESC").
		Find(&accepted).Error
	if err != nil {
		log.WithError(err).Error("error listing connected advocates")
		failureResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	advocatesByID, err := s.advocatesByID(req, accepted)
	if err != nil {
		log.WithError(err).Error("error loading advocate profiles")
		failureResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	connections := []connectedAdvocate{}
	for _, request := range accepted {
		connections = append(connections, connectedAdvocate{
			RequestID:  request.ID,
			Advocate:   advocatesByID[request.AdvocateID],
			LegalIssue: request.LegalIssue,
			Urgency:    request.Urgency,
			AcceptedAt: request.AcceptedAt,
		})
	}

	RespondWithJSON(http.StatusOK, w, map[string]interface{}{
		"message":   "Connected advocates retrieved successfully",
		"advocates": connections,
	})
}

func (s *Server) advocatesByID(req *http.Request, requests []models.ConsultationRequest) (map[uuid.UUID]models.Advocate, error) {
	ids := make([]uuid.UUID, 0, len(requests))
	for _, request := range requests {
		ids = append(ids, request.AdvocateID)
	}

	byID := map[uuid.UUID]models.Advocate{}
	if len(ids) == 0 {
		return byID, nil
	}

	advocates := []models.Advocate{}
	if err := s.dbc.DB.WithContext(req.Context()).Find(&advocates, "id IN ?", ids).Error; err != nil {
		return nil, err
	}
	for _, advocate := range advocates {
		byID[advocate.ID] = advocate
	}
	return byID, nil
}

type connectedClient struct {
	RequestID  uuid.UUID     `json:"request_id"`
	Client     models.Client `json:"client"`
	LegalIssue string        `json:"legal_issue"`
	Urgency    string        `json:"urgency"`
	Message    string        `json:"message"`
	AcceptedAt *time.Time    `json:"accepted_at"`
}

// jsonMyClients lists the clients an advocate is connected with.
func (s *Server) jsonMyClients(w http.ResponseWriter, req *http.Request) {
	principal := principalForRequest(req)
	if principal.Role != models.RoleAdvocate {
		failureResponse(w, http.StatusForbidden, "Only advocates can view their clients")
		return
	}

	accepted := []models.ConsultationRequest{}
	err := s.dbc.DB.WithContext(req.Context()).
		Where("advocate_id = ? AND status = ?", principal.ID, models.ConsultationStatusAccepted).
		Order("accepted_at DESC").
		Find(&accepted).Error
	if err != nil {
		log.WithError(err).Error("error listing connected clients")
		failureResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	ids := make([]uuid.UUID, 0, len(accepted))
	for _, request := range accepted {
		ids = append(ids, request.ClientID)
	}

	clientsByID := map[uuid.UUID]models.Client{}
	if len(ids) > 0 {
		clients := []models.Client{}
		if err := s.dbc.DB.WithContext(req.Context()).Find(&clients, "id IN ?", ids).Error; err != nil {
			log.WithError(err).Error("error loading client profiles")
			failureResponse(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		for _, client := range clients {
			clientsByID[client.ID] = client
		}
	}

	connections := []connectedClient{}
	for _, request := range accepted {
		connections = append(connections, connectedClient{
			RequestID:  request.ID,
			Client:     clientsByID[request.ClientID],
			LegalIssue: request.LegalIssue,
			Urgency:    request.Urgency,
			Message:    request.Message,
			AcceptedAt: request.AcceptedAt,
		})
	}

	RespondWithJSON(http.StatusOK, w, map[string]interface{}{
		"message": "Connected clients retrieved successfully",
		"clients": connections,
	})
}
