package server

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyaysahay/nyaysahay/pkg/auth"
	"github.com/nyaysahay/nyaysahay/pkg/db/models"
)

func authedRequest(t *testing.T, method, target, role string, body io.Reader, contentType string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	principal := &auth.Principal{ID: uuid.New(), Name: "Asha", Role: role}
	return req.WithContext(context.WithValue(req.Context(), principalContextKey, principal))
}

func multipartForm(t *testing.T, fields map[string]string) (io.Reader, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestOnboardingRoleGates(t *testing.T) {
	s := &Server{}

	tests := []struct {
		name    string
		handler http.HandlerFunc
		role    string
	}{
		{
			name:    "advocate cannot complete client onboarding",
			handler: s.jsonOnboardClient,
			role:    models.RoleAdvocate,
		},
		{
			name:    "client cannot complete advocate onboarding",
			handler: s.jsonOnboardAdvocate,
			role:    models.RoleClient,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body, contentType := multipartForm(t, map[string]string{})
			req := authedRequest(t, http.MethodPut, "/api/auth/onboarding", tc.role, body, contentType)

			recorder := httptest.NewRecorder()
			tc.handler(recorder, req)
			assert.Equal(t, http.StatusForbidden, recorder.Code)
		})
	}
}

func TestOnboardClientRequiresState(t *testing.T) {
	s := &Server{}

	body, contentType := multipartForm(t, map[string]string{"address": "12 MG Road"})
	req := authedRequest(t, http.MethodPut, "/api/auth/client/onboarding", models.RoleClient, body, contentType)

	recorder := httptest.NewRecorder()
	s.jsonOnboardClient(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "State is required")
}

func TestOnboardAdvocateValidation(t *testing.T) {
	s := &Server{}

	tests := []struct {
		name   string
		fields map[string]string
	}{
		{
			name: "missing required fields",
			fields: map[string]string{
				"lawFirm": "Rao & Associates",
			},
		},
		{
			name: "years of practice must be numeric",
			fields: map[string]string{
				"lawFirm":          "Rao & Associates",
				"barCouncilNumber": "MH/123/2010",
				"yearsOfPractice":  "several",
				"specialization":   "criminal",
				"location":         "Mumbai",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body, contentType := multipartForm(t, tc.fields)
			req := authedRequest(t, http.MethodPut, "/api/auth/advocate/onboarding", models.RoleAdvocate, body, contentType)

			recorder := httptest.NewRecorder()
			s.jsonOnboardAdvocate(recorder, req)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		})
	}
}

func TestAdvocateListingRoleGates(t *testing.T) {
	s := &Server{}

	tests := []struct {
		name    string
		handler http.HandlerFunc
		role    string
	}{
		{
			name:    "advocates cannot browse recommended advocates",
			handler: s.jsonRecommendedAdvocates,
			role:    models.RoleAdvocate,
		},
		{
			name:    "advocates cannot list connected advocates",
			handler: s.jsonMyAdvocates,
			role:    models.RoleAdvocate,
		},
		{
			name:    "clients cannot list connected clients",
			handler: s.jsonMyClients,
			role:    models.RoleClient,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := authedRequest(t, http.MethodGet, "/api/advocates", tc.role, nil, "")

			recorder := httptest.NewRecorder()
			tc.handler(recorder, req)
			assert.Equal(t, http.StatusForbidden, recorder.Code)
		})
	}
}

func TestIncidentDetailsRejectsInvalidID(t *testing.T) {
	s := &Server{}

	req := authedRequest(t, http.MethodGet, "/api/incidents/not-a-uuid", models.RoleClient, nil, "")

	recorder := httptest.NewRecorder()
	s.jsonIncidentDetails(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Invalid incident ID format")
}
