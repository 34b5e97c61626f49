package server

import (
	"encoding/json"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/nyaysahay/nyaysahay/pkg/auth"
	"github.com/nyaysahay/nyaysahay/pkg/db/models"
)

const bcryptCost = 12

type registerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) jsonRegisterClient(w http.ResponseWriter, req *http.Request) {
	var request registerRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		failureResponse(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if request.FullName == "" || request.Email == "" || request.Phone == "" || request.Password == "" {
		failureResponse(w, http.StatusBadRequest, "All fields are required")
		return
	}

	var existing models.Client
	err := s.dbc.DB.WithContext(req.Context()).
		First(&existing, "email = ? OR phone = ?", request.Email, request.Phone).Error
	if err == nil {
		failureResponse(w, http.StatusBadRequest, "User already exists with this email or phone number")
		return
	} else if err != gorm.ErrRecordNotFound {
		log.WithError(err).Error("error checking for existing client")
		failureResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcryptCost)
	if err != nil {
		log.WithError(err).Error("error hashing password")
		failureResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	client := models.Client{
		FullName:     request.FullName,
		Email:        request.Email,
		Phone:        request.Phone,
		PasswordHash: string(hash),
	}
	if err := s.dbc.DB.WithContext(req.Context()).Create(&client).Error; err != nil {
		log.WithError(err).Error("error creating client")
		failureResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if !s.issueToken(w, client.ID.String(), models.RoleClient) {
		return
	}

	log.WithFields(log.Fields{"client": client.ID}).Info("client registered")
	RespondWithJSON(http.StatusCreated, w, map[string]interface{}{
		"message": "Client registered successfully",
		"user":    client,
	})
}

func (s *Server) jsonLoginClient(w http.ResponseWriter, req *http.Request) {
	var request loginRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		failureResponse(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if request.Email == "" || request.Password == "" {
		failureResponse(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	var client models.Client
	if err := s.dbc.DB.WithContext(req.Context()).First(&client, "email = ?", request.Email).Error; err != nil {
		failureResponse(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(client.PasswordHash), []byte(request.Password)); err != nil {
		failureResponse(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	if !s.issueToken(w, client.ID.String(), models.RoleClient) {
		return
	}

	RespondWithJSON(http.StatusOK, w, map[string]interface{}{
		"message": "Login successful",
		"user":    client,
	})
}

func (s *Server) jsonRegisterAdvocate(w http.ResponseWriter, req *http.Request) {
	var request registerRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		failureResponse(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if request.FullName == "" || request.Email == "" || request.Phone == "" || request.Password == "" {
		failureResponse(w, http.StatusBadRequest, "All fields are required")
		return
	}

	var existing models.Advocate
	err := s.dbc.DB.WithContext(req.Context()).
		First(&existing, "email = ? OR phone = ?", request.Email, request.Phone).Error
	if err == nil {
		failureResponse(w, http.StatusBadRequest, "User already exists with this email or phone number")
		return
	} else if err != gorm.ErrRecordNotFound {
		log.WithError(err).Error("error checking for existing advocate")
		failureResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcryptCost)
	if err != nil {
		log.WithError(err).Error("error hashing password")
		failureResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	advocate := models.Advocate{
		FullName:     request.FullName,
		Email:        request.Email,
		Phone:        request.Phone,
		PasswordHash: string(hash),
	}
	if err := s.dbc.DB.WithContext(req.Context()).Create(&advocate).Error; err != nil {
		log.WithError(err).Error("error creating advocate")
		failureResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if !s.issueToken(w, advocate.ID.String(), models.RoleAdvocate) {
		return
	}

	log.WithFields(log.Fields{"advocate": advocate.ID}).Info("advocate registered")
	RespondWithJSON(http.StatusCreated, w, map[string]interface{}{
		"message": "Advocate registered successfully",
		"user":    advocate,
	})
}

func (s *Server) jsonLoginAdvocate(w http.ResponseWriter, req *http.Request) {
	var request loginRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		failureResponse(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if request.Email == "" || request.Password == "" {
		failureResponse(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	var advocate models.Advocate
	if err := s.dbc.DB.WithContext(req.Context()).First(&advocate, "email = ?", request.Email).Error; err != nil {
		failureResponse(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(advocate.PasswordHash), []byte(request.Password)); err != nil {
		failureResponse(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	if !s.issueToken(w, advocate.ID.String(), models.RoleAdvocate) {
		return
	}

	RespondWithJSON(http.StatusOK, w, map[string]interface{}{
		"message": "Login successful",
		"user":    advocate,
	})
}

func (s *Server) jsonLogout(w http.ResponseWriter, _ *http.Request) {
	s.setTokenCookie(w, "", -time.Second)
	RespondWithJSON(http.StatusOK, w, map[string]string{"message": "Logged out"})
}

func (s *Server) jsonMe(w http.ResponseWriter, req *http.Request) {
	RespondWithJSON(http.StatusOK, w, principalForRequest(req))
}

// issueToken signs a credential and sets it as the session cookie. Returns
// false after writing an error response if signing failed.
func (s *Server) issueToken(w http.ResponseWriter, userID, role string) bool {
	token, err := auth.GenerateToken(userID, role, s.secretKey, auth.TokenValidity)
	if err != nil {
		log.WithError(err).Error("error signing token")
		failureResponse(w, http.StatusInternalServerError, "Internal server error")
		return false
	}
	s.setTokenCookie(w, token, auth.TokenValidity)
	return true
}
