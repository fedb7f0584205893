package app

import (
	"fmt"
	"net/http"

	"chatgate/internal/assistant"
	"chatgate/internal/clock"
	"chatgate/internal/crypto"
	"chatgate/internal/domain"
	"chatgate/internal/logger"
	"chatgate/internal/server"
	"chatgate/internal/services/auth"
	"chatgate/internal/services/conversation"
	"chatgate/internal/services/session"
	"chatgate/internal/store"
)

// Wire bundles all stores, services, and clients for the server.
type Wire struct {
	Keys        *store.KeyFileStore
	Auth        *auth.Service
	Sessions    *session.Manager
	Assistant   *assistant.Client
	Turns       *conversation.Service
	Handler     *server.Server
	Fingerprint domain.Fingerprint
	Logger      logger.Logger
	Clock       clock.Clock
}

// NewWire constructs the dependency graph from cfg. A public key that
// cannot be loaded is an error: the server must not start without one.
func NewWire(cfg Config) (*Wire, error) {
	s := cfg.Settings
	if s == nil {
		return nil, fmt.Errorf("app: no settings")
	}

	log := cfg.Logger
	if log == nil {
		l, err := logger.New(logger.Config{Level: s.Log.Level, Format: s.Log.Format})
		if err != nil {
			return nil, err
		}
		log = l
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}

	// Outbound calls to the backend share one client and timeout
	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: s.Backend.Timeout.Duration()}
	}

	keys := store.NewKeyFileStore()
	authSvc, err := auth.New(keys, s.PubKey, clk, log)
	if err != nil {
		return nil, err
	}
	fp, err := crypto.Fingerprint(authSvc.PublicKey())
	if err != nil {
		return nil, err
	}

	sessions := session.NewManager(clk, s.Idle.Policy(), s.Idle.Retain.Duration(), log)

	client := assistant.NewClient(s.Backend.BaseURL, s.Backend.APIKey(), s.AssistantID, httpClient)
	client.Model = s.Model
	turns := conversation.NewService(client, client, log)

	handler := server.New(server.Deps{
		Auth:          authSvc,
		Sessions:      sessions,
		Turns:         turns,
		Logger:        log,
		SecureCookies: s.Server.SecureCookies,
	})

	return &Wire{
		Keys:        keys,
		Auth:        authSvc,
		Sessions:    sessions,
		Assistant:   client,
		Turns:       turns,
		Handler:     handler,
		Fingerprint: fp,
		Logger:      log,
		Clock:       clk,
	}, nil
}
