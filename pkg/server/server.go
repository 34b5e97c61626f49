package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/nyaysahay/nyaysahay/pkg/auth"
	"github.com/nyaysahay/nyaysahay/pkg/chat"
	"github.com/nyaysahay/nyaysahay/pkg/conversations"
	"github.com/nyaysahay/nyaysahay/pkg/db"
	"github.com/nyaysahay/nyaysahay/pkg/mail"
	"github.com/nyaysahay/nyaysahay/pkg/storage"
)

const tokenCookieName = "token"

type Server struct {
	listenAddr string

	dbc           *db.DB
	store         *conversations.Store
	authenticator *auth.Authenticator
	gateway       *chat.Gateway
	uploads       *storage.Store
	mailer        *mail.Sender

	secretKey     []byte
	secureCookies bool

	httpServer *http.Server
}

func NewServer(
	listenAddr string,
	dbc *db.DB,
	store *conversations.Store,
	authenticator *auth.Authenticator,
	gateway *chat.Gateway,
	uploads *storage.Store,
	mailer *mail.Sender,
	secretKey []byte,
	secureCookies bool,
) *Server {
	return &Server{
		listenAddr:    listenAddr,
		dbc:           dbc,
		store:         store,
		authenticator: authenticator,
		gateway:       gateway,
		uploads:       uploads,
		mailer:        mailer,
		secretKey:     secretKey,
		secureCookies: secureCookies,
	}
}

func (s *Server) router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/api/health", s.jsonHealth).Methods(http.MethodGet)

	// Public authentication surface.
	router.HandleFunc("/api/auth/client/register", s.jsonRegisterClient).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/client/login", s.jsonLoginClient).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/advocate/register", s.jsonRegisterAdvocate).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/advocate/login", s.jsonLoginAdvocate).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/logout", s.jsonLogout).Methods(http.MethodPost)

	// The websocket gateway authenticates for itself, before the upgrade.
	router.Handle("/ws", s.gateway)

	// Everything else requires a valid credential cookie.
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(s.requireAuth)
	protected.HandleFunc("/auth/me", s.jsonMe).Methods(http.MethodGet)
	protected.HandleFunc("/auth/client/onboarding", s.jsonOnboardClient).Methods(http.MethodPut)
	protected.HandleFunc("/auth/advocate/onboarding", s.jsonOnboardAdvocate).Methods(http.MethodPut)

	protected.HandleFunc("/advocates/recommended", s.jsonRecommendedAdvocates).Methods(http.MethodGet)
	protected.HandleFunc("/advocates/connected", s.jsonMyAdvocates).Methods(http.MethodGet)
	protected.HandleFunc("/clients/connected", s.jsonMyClients).Methods(http.MethodGet)

	protected.HandleFunc("/chat", s.jsonCreateConversation).Methods(http.MethodPost)
	protected.HandleFunc("/chat", s.jsonListConversations).Methods(http.MethodGet)
	protected.HandleFunc("/chat/{id}/messages", s.jsonConversationMessages).Methods(http.MethodGet)
	protected.HandleFunc("/chat/{id}", s.jsonDeleteConversation).Methods(http.MethodDelete)

	protected.HandleFunc("/incidents", s.jsonCreateIncident).Methods(http.MethodPost)
	protected.HandleFunc("/incidents", s.jsonListIncidents).Methods(http.MethodGet)
	protected.HandleFunc("/incidents/{id}", s.jsonIncidentDetails).Methods(http.MethodGet)
	protected.HandleFunc("/incidents/{id}/status", s.jsonUpdateIncidentStatus).Methods(http.MethodPatch)

	protected.HandleFunc("/consultations", s.jsonCreateConsultation).Methods(http.MethodPost)
	protected.HandleFunc("/consultations", s.jsonListConsultations).Methods(http.MethodGet)
	protected.HandleFunc("/consultations/{id}/accept", s.jsonAcceptConsultation).Methods(http.MethodPost)
	protected.HandleFunc("/consultations/{id}/reject", s.jsonRejectConsultation).Methods(http.MethodPost)

	return router
}

func (s *Server) jsonHealth(w http.ResponseWriter, _ *http.Request) {
	RespondWithJSON(http.StatusOK, w, map[string]string{"status": "ok"})
}

func (s *Server) Serve() error {
	s.httpServer = &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Infof("Serving on %s", s.listenAddr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) setTokenCookie(w http.ResponseWriter, token string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
