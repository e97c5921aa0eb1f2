package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/teris-io/shortid"

	"github.com/commonground-app/commonground/internal/config"
	"github.com/commonground-app/commonground/internal/database"
	"github.com/commonground-app/commonground/internal/server"
	"github.com/commonground-app/commonground/internal/stats"
)

type CommonGroundApp struct {
	log            *log.Logger
	db             database.Repository
	mux            *http.Server
	cs             *server.ChatServer
	stats          stats.StatsProvider
	signingKey     []byte
	allowedOrigins []string
	sid            *shortid.Shortid
}

func NewCommonGroundApp(mux *http.ServeMux, logger *log.Logger, cs *server.ChatServer,
	db database.Repository, su stats.StatsProvider, cfg *config.Config) (*CommonGroundApp, error) {

	sid, err := shortid.New(1, shortid.DefaultABC, 2342)
	if err != nil {
		return nil, fmt.Errorf("shortid: %w", err)
	}

	s := &CommonGroundApp{
		log:            logger,
		db:             db,
		cs:             cs,
		stats:          su,
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,
		sid:            sid,
	}

	mux.HandleFunc("POST /api/users/signup", s.signup)
	mux.HandleFunc("POST /api/users/signin", s.signin)
	mux.Handle("GET /api/users/me", s.authMiddleware(s.getProfile))
	mux.Handle("PUT /api/users/me", s.authMiddleware(s.updateProfile))
	mux.Handle("PUT /api/users/password", s.authMiddleware(s.changePassword))

	mux.Handle("POST /api/channels", s.authMiddleware(s.createChannel))
	mux.Handle("GET /api/channels", s.authMiddleware(s.listChannels))
	mux.Handle("POST /api/channels/{id}/join", s.authMiddleware(s.joinChannel))
	mux.Handle("POST /api/channels/{id}/leave", s.authMiddleware(s.leaveChannel))

	mux.Handle("POST /api/messages", s.authMiddleware(s.createMessage))
	mux.Handle("GET /api/messages", s.authMiddleware(s.getMessages))
	mux.Handle("PUT /api/messages/{id}", s.authMiddleware(s.updateMessage))
	mux.Handle("DELETE /api/messages/{id}", s.authMiddleware(s.deleteMessage))

	mux.Handle("POST /api/posts", s.authMiddleware(s.createPost))
	mux.Handle("GET /api/posts", s.authMiddleware(s.listPosts))
	mux.Handle("POST /api/posts/{id}/like", s.authMiddleware(s.likePost))
	mux.Handle("POST /api/posts/{id}/comment", s.authMiddleware(s.commentPost))

	mux.Handle("POST /api/initiatives", s.authMiddleware(s.createInitiative))
	mux.HandleFunc("GET /api/initiatives", s.listInitiatives)

	mux.Handle("POST /api/actionhub/organizations", s.authMiddleware(s.createOrganization))
	mux.HandleFunc("GET /api/actionhub/organizations", s.listOrganizations)
	mux.Handle("POST /api/actionhub/resources", s.authMiddleware(s.createResource))
	mux.HandleFunc("GET /api/actionhub/resources", s.listResources)
	mux.Handle("POST /api/actionhub/opportunities", s.authMiddleware(s.createOpportunity))
	mux.HandleFunc("GET /api/actionhub/opportunities", s.listOpportunities)

	mux.Handle("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s, nil
}

func (s *CommonGroundApp) generateShortId() (string, error) {
	return s.sid.Generate()
}

func (s *CommonGroundApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *CommonGroundApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
