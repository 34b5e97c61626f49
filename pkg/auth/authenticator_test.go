package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAuthenticateRequiresCredential(t *testing.T) {
	authenticator := NewAuthenticator(nil, nil, []byte("test-secret"))

	_, err := authenticator.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestAuthenticateRejectsMalformedToken(t *testing.T) {
	authenticator := NewAuthenticator(nil, nil, []byte("test-secret"))

	_, err := authenticator.Authenticate(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestAuthenticateRejectsForgedToken(t *testing.T) {
	forged, err := GenerateToken(uuid.NewString(), "client", []byte("attacker-key"), TokenValidity)
	assert.NoError(t, err)

	authenticator := NewAuthenticator(nil, nil, []byte("test-secret"))
	_, err = authenticator.Authenticate(context.Background(), forged)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestAuthenticateRejectsUnknownRole(t *testing.T) {
	secretKey := []byte("test-secret")
	tokenString, err := GenerateToken(uuid.NewString(), "superuser", secretKey, TokenValidity)
	assert.NoError(t, err)

	authenticator := NewAuthenticator(nil, nil, secretKey)
	_, err = authenticator.Authenticate(context.Background(), tokenString)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestAuthenticateRejectsNonUUIDSubject(t *testing.T) {
	secretKey := []byte("test-secret")
	tokenString, err := GenerateToken("42", "client", secretKey, TokenValidity)
	assert.NoError(t, err)

	authenticator := NewAuthenticator(nil, nil, secretKey)
	_, err = authenticator.Authenticate(context.Background(), tokenString)
	assert.ErrorIs(t, err, ErrAuthentication)
}
