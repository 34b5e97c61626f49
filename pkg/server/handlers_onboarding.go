package server

import (
	"net/http"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/nyaysahay/nyaysahay/pkg/db/models"
)

// uploadedFormFile uploads the first file under the given form field and
// returns its public URL, or "" when the field is absent.
func (s *Server) uploadedFormFile(req *http.Request, field, folder string) (string, error) {
	if req.MultipartForm == nil || len(req.MultipartForm.File[field]) == 0 {
		return "", nil
	}

	header := req.MultipartForm.File[field][0]
	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	_, url, err := s.uploads.Upload(req.Context(), folder, file, header.Header.Get("Content-Type"))
	return url, err
}

func (s *Server) jsonOnboardClient(w http.ResponseWriter, req *http.Request) {
	principal := principalForRequest(req)
	if principal.Role != models.RoleClient {
		failureResponse(w, http.StatusForbidden, "Only clients can complete client onboarding")
		return
	}

	if err := req.ParseMultipartForm(maxUploadFormBytes); err != nil {
		failureResponse(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	state := strings.TrimSpace(req.FormValue("state"))
	if state == "" {
		failureResponse(w, http.StatusBadRequest, "State is required")
		return
	}

	updates := map[string]interface{}{
		"state":       state,
		"description": strings.TrimSpace(req.FormValue("description")),
		"address":     strings.TrimSpace(req.FormValue("address")),
	}

	profilePicture, err := s.uploadedFormFile(req, "profilePicture", "profiles")
	if err != nil {
		log.WithError(err).Error("error uploading profile picture")
		failureResponse(w, http.StatusBadRequest, "Failed to upload profile picture")
		return
	}
	if profilePicture != "" {
		updates["profile_picture"] = profilePicture
	}

	idProof, err := s.uploadedFormFile(req, "idProof", "documents")
	if err != nil {
		log.WithError(err).Error("error uploading ID proof")
		failureResponse(w, http.StatusBadRequest, "Failed to upload ID proof")
		return
	}
	if idProof != "" {
		updates["id_proof"] = idProof
	}

	var client models.Client
	err = s.dbc.DB.WithContext(req.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Client{}).Where("id = ?", principal.ID).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&client, "id = ?", principal.ID).Error
	})
	if err != nil {
		log.WithError(err).Error("error updating client profile")
		failureResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	log.WithFields(log.Fields{"client": principal.ID}).Info("client onboarding completed")
	RespondWithJSON(http.StatusOK, w, map[string]interface{}{
		"message": "Onboarding completed successfully",
		"user":    client,
	})
}

func (s *Server) jsonOnboardAdvocate(w http.ResponseWriter, req *http.Request) {
	principal := principalForRequest(req)
	if principal.Role != models.RoleAdvocate {
		failureResponse(w, http.StatusForbidden, "Only advocates can complete advocate onboarding")
		return
	}

	if err := req.ParseMultipartForm(maxUploadFormBytes); err != nil {
		failureResponse(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	lawFirm := strings.TrimSpace(req.FormValue("lawFirm"))
	barCouncilNumber := strings.TrimSpace(req.FormValue("barCouncilNumber"))
	yearsOfPractice := strings.TrimSpace(req.FormValue("yearsOfPractice"))
	specialization := strings.TrimSpace(req.FormValue("specialization"))
	location := strings.TrimSpace(req.FormValue("location"))
	if lawFirm == "" || barCouncilNumber == "" || yearsOfPractice == "" || specialization == "" || location == "" {
		failureResponse(w, http.StatusBadRequest,
			"Law firm, bar council number, years of practice, specialization, and location are required")
		return
	}

	years, err := strconv.Atoi(yearsOfPractice)
	if err != nil || years < 0 {
		failureResponse(w, http.StatusBadRequest, "Years of practice must be a non-negative number")
		return
	}

	// Bar council numbers identify exactly one advocate.
	var existing models.Advocate
	err = s.dbc.DB.WithContext(req.Context()).
		First(&existing, "bar_council_number = ? AND id <> ?", barCouncilNumber, principal.ID).Error
	if err == nil {
		failureResponse(w, http.StatusBadRequest, "Bar council number already exists")
		return
	} else if err != gorm.ErrRecordNotFound {
		log.WithError(err).Error("error checking bar council number")
		failureResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	updates := map[string]interface{}{
		"law_firm":           lawFirm,
		"bar_council_number": barCouncilNumber,
		"years_of_practice":  years,
		"specialization":     specialization,
		"location":           location,
		"bio":                strings.TrimSpace(req.FormValue("bio")),
	}

	profilePicture, err := s.uploadedFormFile(req, "profilePicture", "advocates/profiles")
	if err != nil {
		log.WithError(err).Error("error uploading profile picture")
		failureResponse(w, http.StatusBadRequest, "Failed to upload profile picture")
		return
	}
	if profilePicture != "" {
		updates["profile_picture"] = profilePicture
	}

	barCertificate, err := s.uploadedFormFile(req, "barCertificate", "advocates/certificates")
	if err != nil {
		log.WithError(err).Error("error uploading bar certificate")
		failureResponse(w, http.StatusBadRequest, "Failed to upload bar certificate")
		return
	}
	if barCertificate != "" {
		updates["bar_certificate"] = barCertificate
	}

	var advocate models.Advocate
	err = s.dbc.DB.WithContext(req.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Advocate{}).Where("id = ?", principal.ID).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&advocate, "id = ?", principal.ID).Error
	})
	if err != nil {
		log.WithError(err).Error("error updating advocate profile")
		failureResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	log.WithFields(log.Fields{"advocate": principal.ID}).Info("advocate onboarding completed")
	RespondWithJSON(http.StatusOK, w, map[string]interface{}{
		"message": "Onboarding completed successfully",
		"user":    advocate,
	})
}
