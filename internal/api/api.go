package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/susu3304/billdividr/internal/config"
	"github.com/susu3304/billdividr/internal/group"
)

type API struct {
	router      *mux.Router
	groups      *group.Service
	config      *config.Config
	log         *zap.Logger
	oauthConfig *oauth2.Config
	jwtSecret   []byte
	server      *http.Server
}

func New(cfg *config.Config, svc *group.Service, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	api := &API{
		router:    mux.NewRouter(),
		groups:    svc,
		config:    cfg,
		log:       logger,
		jwtSecret: []byte(cfg.JWTSecret),
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURI,
			Scopes:       []string{"identify"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://discord.com/api/oauth2/authorize",
				TokenURL: "https://discord.com/api/oauth2/token",
			},
		},
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	// Auth endpoints
	a.router.HandleFunc("/api/auth/login", a.handleLogin).Methods("GET")
	a.router.HandleFunc("/api/auth/callback", a.handleCallback).Methods("GET")
	a.router.HandleFunc("/api/auth/logout", a.handleLogout).Methods("POST")

	// Public endpoints
	a.router.HandleFunc("/healthz", a.handleHealth).Methods("GET")
	a.router.HandleFunc("/api/settle", a.handleSettle).Methods("POST")

	// Protected endpoints
	protected := a.router.PathPrefix("/api").Subrouter()
	protected.Use(a.authMiddleware)

	protected.HandleFunc("/groups", a.handleListGroups).Methods("GET")
	protected.HandleFunc("/groups", a.handleCreateGroup).Methods("POST")
	protected.HandleFunc("/groups/{group_id}", a.handleGetGroup).Methods("GET")
	protected.HandleFunc("/groups/{group_id}", a.handleUpdateGroup).Methods("PUT")
	protected.HandleFunc("/groups/{group_id}", a.handleDeleteGroup).Methods("DELETE")

	protected.HandleFunc("/groups/{group_id}/members", a.handleListMembers).Methods("GET")
	protected.HandleFunc("/groups/{group_id}/members", a.handleAddMember).Methods("POST")
	protected.HandleFunc("/groups/{group_id}/members/{member_id}/archive", a.handleArchiveMember).Methods("POST")
	protected.HandleFunc("/groups/{group_id}/members/{member_id}/expenses", a.handleJoinExpenses).Methods("POST")

	protected.HandleFunc("/groups/{group_id}/expenses", a.handleListExpenses).Methods("GET")
	protected.HandleFunc("/groups/{group_id}/expenses", a.handleAddExpense).Methods("POST")
	protected.HandleFunc("/groups/{group_id}/expenses/{expense_id}", a.handleUpdateExpense).Methods("PUT")
	protected.HandleFunc("/groups/{group_id}/expenses/{expense_id}", a.handleDeleteExpense).Methods("DELETE")

	protected.HandleFunc("/groups/{group_id}/settlements", a.handleListSettlements).Methods("GET")
	protected.HandleFunc("/groups/{group_id}/settlements", a.handleRecordSettlement).Methods("POST")
	protected.HandleFunc("/groups/{group_id}/summary", a.handleSummary).Methods("GET")
}

// Handler returns the router wrapped with CORS.
func (a *API) Handler() http.Handler {
	origins := a.config.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	// Credentials are only allowed with an explicit origin list.
	wildcard := len(origins) == 1 && origins[0] == "*"
	corsOptions := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: !wildcard,
	}
	return cors.New(corsOptions).Handler(a.router)
}

// Start serves until Shutdown is called.
func (a *API) Start() error {
	a.server = &http.Server{
		Addr:              a.config.WebBind,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.log.Info("API server listening", zap.String("addr", "http://"+a.config.WebBind))
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *API) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}
