// Copyright (C) 2026 quillchat.dev <security@quillchat.dev>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package integration embeds the key broker into a host chat server,
// sharing its database and redis handles instead of running standalone.
package integration

import (
	"database/sql"
	"net/http"

	"github.com/gorilla/mux"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/quillchat/keybroker/backend/config"
	"github.com/quillchat/keybroker/backend/handlers"
	"github.com/quillchat/keybroker/backend/middleware"
	"github.com/quillchat/keybroker/backend/service"
	"github.com/quillchat/keybroker/backend/storage/postgres"
	redisstore "github.com/quillchat/keybroker/backend/storage/redis"
)

// KeyBroker is the embeddable broker: storage, service and handlers
// wired together, routes not yet bound.
type KeyBroker struct {
	store      *postgres.Store
	keyHandler *handlers.KeyHandler
	jwtSecret  string
	jwtIssuer  string
}

// Config holds everything the host must provide.
type Config struct {
	DB        *sql.DB
	Redis     *goredis.Client
	JWTSecret string
	JWTIssuer string
	PreKeys   config.PreKeys
	Log       *logrus.Logger
}

// NewKeyBroker wires a broker against the host's handles and runs
// migrations. A nil Redis client disables key-lifecycle events.
func NewKeyBroker(cfg *Config) (*KeyBroker, error) {
	store := postgres.NewStore(cfg.DB)
	if err := store.Migrate(); err != nil {
		return nil, err
	}

	var events service.EventPublisher
	if cfg.Redis != nil {
		events = redisstore.NewEventPublisher(cfg.Redis)
	}

	svc := service.NewKeyService(store, events, cfg.Log, cfg.PreKeys)

	return &KeyBroker{
		store:      store,
		keyHandler: handlers.NewKeyHandler(svc, cfg.Log),
		jwtSecret:  cfg.JWTSecret,
		jwtIssuer:  cfg.JWTIssuer,
	}, nil
}

// RegisterRoutes adds the broker's routes under /api/e2e. If
// authMiddleware is nil the broker's own JWT validation is used.
func (b *KeyBroker) RegisterRoutes(router *mux.Router, authMiddleware func(http.Handler) http.Handler) {
	api := router.PathPrefix("/api/e2e").Subrouter()

	if authMiddleware != nil {
		api.Use(authMiddleware)
	} else {
		api.Use(middleware.NewAuthMiddleware(b.jwtSecret, b.jwtIssuer))
	}

	RegisterKeyRoutes(api, b.keyHandler)
}

// RegisterKeyRoutes binds the broker's handlers to a router. Shared by
// the embedded and standalone deployments.
func RegisterKeyRoutes(api *mux.Router, h *handlers.KeyHandler) {
	api.HandleFunc("/keys", h.RegisterKeys).Methods("POST", "OPTIONS")
	api.HandleFunc("/bundle/{user_id}", h.GetPreKeyBundle).Methods("GET", "OPTIONS")
	api.HandleFunc("/keys/replenish", h.ReplenishPreKeys).Methods("POST", "OPTIONS")
	api.HandleFunc("/keys/count", h.PreKeyCount).Methods("GET", "OPTIONS")
	api.HandleFunc("/keys/signed/rotate", h.RotateSignedPreKey).Methods("POST", "OPTIONS")
	api.HandleFunc("/keys/identity/{key_id}/verify", h.VerifyIdentityKey).Methods("POST", "OPTIONS")
	api.HandleFunc("/keys/identity/{key_id}/revoke", h.RevokeIdentityKey).Methods("POST", "OPTIONS")
	api.HandleFunc("/safety-number/{user_id}", h.SafetyNumber).Methods("GET", "OPTIONS")
}

// Store exposes the underlying key store to the host.
func (b *KeyBroker) Store() *postgres.Store {
	return b.store
}
