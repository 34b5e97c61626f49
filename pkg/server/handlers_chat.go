package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type createConversationRequest struct {
	Title string `json:"title"`
}

func (s *Server) jsonCreateConversation(w http.ResponseWriter, req *http.Request) {
	principal := principalForRequest(req)

	var request createConversationRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		failureResponse(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	title := strings.TrimSpace(request.Title)
	if title == "" {
		failureResponse(w, http.StatusBadRequest, "Title is required and cannot be empty")
		return
	}

	conversation, err := s.store.Create(req.Context(), principal.ID, principal.Role, title)
	if err != nil {
		log.WithError(err).Error("error creating conversation")
		failureResponse(w, http.StatusInternalServerError, "Internal server error while creating chat")
		return
	}

	log.WithFields(log.Fields{
		"principal":    principal.ID,
		"conversation": conversation.ID,
	}).Info("conversation created")

	RespondWithJSON(http.StatusCreated, w, map[string]interface{}{
		"message": "Chat created successfully",
		"chat":    conversation,
	})
}

func (s *Server) jsonListConversations(w http.ResponseWriter, req *http.Request) {
	principal := principalForRequest(req)

	conversations, err := s.store.ListByOwner(req.Context(), principal.ID, principal.Role)
	if err != nil {
		log.WithError(err).Error("error listing conversations")
		failureResponse(w, http.StatusInternalServerError, "Internal server error while retrieving chats")
		return
	}

	RespondWithJSON(http.StatusOK, w, map[string]interface{}{
		"message": "Chats retrieved successfully",
		"chats":   conversations,
	})
}

func (s *Server) jsonConversationMessages(w http.ResponseWriter, req *http.Request) {
	principal := principalForRequest(req)

	conversationID, err := uuid.Parse(mux.Vars(req)["id"])
	if err != nil {
		failureResponse(w, http.StatusBadRequest, "Invalid chat ID format")
		return
	}

	if _, err := s.store.Get(req.Context(), conversationID, principal.ID, principal.Role); err != nil {
		failureResponse(w, http.StatusNotFound, "Chat not found or access denied")
		return
	}

	messages, err := s.store.MessagesAsc(req.Context(), conversationID)
	if err != nil {
		log.WithError(err).Error("error retrieving messages")
		failureResponse(w, http.StatusInternalServerError, "Internal server error while retrieving messages")
		return
	}

	RespondWithJSON(http.StatusOK, w, map[string]interface{}{
		"message":  "Messages retrieved successfully",
		"messages": messages,
	})
}

func (s *Server) jsonDeleteConversation(w http.ResponseWriter, req *http.Request) {
	principal := principalForRequest(req)

	conversationID, err := uuid.Parse(mux.Vars(req)["id"])
	if err != nil {
		failureResponse(w, http.StatusBadRequest, "Invalid chat ID format")
		return
	}

	if err := s.store.Delete(req.Context(), conversationID, principal.ID, principal.Role); err != nil {
		if err == gorm.ErrRecordNotFound {
			failureResponse(w, http.StatusNotFound, "Chat not found or access denied")
			return
		}
		log.WithError(err).Error("error deleting conversation")
		failureResponse(w, http.StatusInternalServerError, "Internal server error while deleting chat")
		return
	}

	RespondWithJSON(http.StatusOK, w, map[string]string{"message": "Chat deleted successfully"})
}
