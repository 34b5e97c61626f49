package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/nyaysahay/nyaysahay/pkg/apis/cache"
	"github.com/nyaysahay/nyaysahay/pkg/db"
	"github.com/nyaysahay/nyaysahay/pkg/db/models"
)

var (
	// ErrNoCredential indicates the connection presented no token at all.
	ErrNoCredential = errors.New("no credential provided")

	// ErrAuthentication is the generic failure returned for every other
	// authentication problem. Callers must not learn which check failed.
	ErrAuthentication = errors.New("authentication failed")
)

// principalCacheTTL bounds staleness of cached lookups; a deleted account can
// keep an existing credential working for at most this long.
const principalCacheTTL = 5 * time.Minute

// Principal is the authenticated identity attached to a connection.
// Immutable after construction.
type Principal struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Role string    `json:"role"`
}

// Authenticator resolves a signed credential to a Principal. The cache is
// optional; lookups fall through to the database on any cache miss or error.
type Authenticator struct {
	dbc       *db.DB
	cache     cache.Cache
	secretKey []byte
}

func NewAuthenticator(dbc *db.DB, c cache.Cache, secretKey []byte) *Authenticator {
	return &Authenticator{
		dbc:       dbc,
		cache:     c,
		secretKey: secretKey,
	}
}

// Authenticate validates the raw credential and resolves it to a Principal.
// An absent credential returns ErrNoCredential; every other failure collapses
// to ErrAuthentication with the detail logged server-side only.
func (a *Authenticator) Authenticate(ctx context.Context, rawToken string) (*Principal, error) {
	if rawToken == "" {
		return nil, ErrNoCredential
	}

	claims, err := ParseToken(rawToken, a.secretKey)
	if err != nil {
		log.WithError(err).Debug("credential validation failed")
		return nil, ErrAuthentication
	}

	subjectID, err := uuid.Parse(claims.UserID)
	if err != nil {
		log.WithError(err).Debug("credential subject is not a valid id")
		return nil, ErrAuthentication
	}

	principal, err := a.resolve(ctx, subjectID, claims.Role)
	if err != nil {
		log.WithError(err).WithField("role", claims.Role).Debug("principal resolution failed")
		return nil, ErrAuthentication
	}

	return principal, nil
}

func (a *Authenticator) resolve(ctx context.Context, subjectID uuid.UUID, role string) (*Principal, error) {
	cacheKey := fmt.Sprintf("principal_%s_%s", role, subjectID)
	if a.cache != nil {
		if raw, err := a.cache.Get(cacheKey); err == nil {
			principal := &Principal{}
			if err := json.Unmarshal(raw, principal); err == nil {
				return principal, nil
			}
		}
	}

	principal := &Principal{ID: subjectID, Role: role}
	switch role {
	case models.RoleClient:
		client := models.Client{}
		if err := a.dbc.DB.WithContext(ctx).First(&client, "id = ?", subjectID).Error; err != nil {
			return nil, err
		}
		principal.Name = client.FullName
	case models.RoleAdvocate:
		advocate := models.Advocate{}
		if err := a.dbc.DB.WithContext(ctx).First(&advocate, "id = ?", subjectID).Error; err != nil {
			return nil, err
		}
		principal.Name = advocate.FullName
	default:
		return nil, errors.Errorf("unknown role %q", role)
	}

	if a.cache != nil {
		if raw, err := json.Marshal(principal); err == nil {
			if err := a.cache.Set(cacheKey, raw, principalCacheTTL); err != nil {
				log.WithError(err).Warning("could not cache principal lookup")
			}
		}
	}

	return principal, nil
}
