package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	notionauth "github.com/pysugar/notion-nexus/internal/auth/notion"
	"github.com/pysugar/notion-nexus/internal/config"
	"github.com/pysugar/notion-nexus/internal/db"
	"github.com/pysugar/notion-nexus/internal/handlers"
	"github.com/pysugar/notion-nexus/internal/logging"
	"github.com/pysugar/notion-nexus/internal/middleware"
	"github.com/pysugar/notion-nexus/internal/session"
	"github.com/pysugar/notion-nexus/internal/store"
	"github.com/pysugar/notion-nexus/internal/upstream"
)

func main() {
	configPath := os.Getenv("NEXUS_CONFIG")
	if configPath == "" {
		configPath = "nexus.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	credStore := store.NewService(database)
	mailbox := session.NewStoreMailbox(database)
	sessionState := session.NewState()

	lister := &handlers.StoreLister{
		Store:      credStore,
		APIBaseURL: cfg.Notion.APIBaseURL,
	}

	// Rehydrate connection state from a marker left by a prior run.
	sessionState.CheckConnection(context.Background(), mailbox, lister)

	exchanger := notionauth.NewExchanger(cfg.Notion, credStore, nil)
	llmClient := upstream.NewClient(cfg.LLM, nil)

	// One detector per linking attempt; state is bound per-attempt.
	connectCtrl := handlers.NewConnectController(func() *session.Detector {
		state := randomState()
		authURL := notionauth.AuthCodeURL(cfg.Notion, state)
		return session.NewDetector(cfg.Detector, authURL, session.DefaultOpener(), mailbox, sessionState, lister)
	})

	// Create router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(logging.RequestIDMiddleware)

	// OAuth flow
	r.Get("/auth/notion/callback", notionauth.CallbackHandler(exchanger, mailbox))

	// API routes
	r.Route("/api", func(r chi.Router) {
		if os.Getenv("NEXUS_REQUIRE_API_KEY") != "" {
			r.Use(middleware.APIKeyAuth(database))
		}

		r.Get("/version", handlers.VersionHandler())
		r.Get("/session", handlers.SessionHandler(sessionState))

		// Linking
		r.Post("/notion/connect", notionauth.ConnectHandler(exchanger, mailbox))
		r.Post("/notion/connect/start", connectCtrl.StartHandler())
		r.Get("/notion/connect/state", connectCtrl.StateHandler())

		// Workspace data
		r.Get("/notion/databases", handlers.DatabasesHandler(credStore, cfg.Notion.APIBaseURL, nil))
		r.Get("/notion/databases/search", handlers.SearchDatabasesHandler(credStore, cfg.Notion.APIBaseURL, nil))
		r.Get("/notion/databases/{databaseID}/schema", handlers.DatabaseSchemaHandler(credStore, cfg.Notion.APIBaseURL, nil))

		// Formula generation
		r.Post("/formula/generate", handlers.FormulaGenerateHandler(llmClient))
	})

	addr := cfg.Host + ":" + cfg.Port
	log.Printf("🚀 Notion-Nexus starting on http://%s", addr)
	log.Printf("🔗 Connect: POST http://%s/api/notion/connect/start", addr)
	log.Printf("🧮 Formula API: POST http://%s/api/formula/generate", addr)

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// randomState generates the CSRF state for the authorize URL.
func randomState() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
