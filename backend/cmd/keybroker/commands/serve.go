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

package commands

import (
	"context"
	"database/sql"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/quillchat/keybroker/backend/handlers"
	"github.com/quillchat/keybroker/backend/integration"
	"github.com/quillchat/keybroker/backend/middleware"
	"github.com/quillchat/keybroker/backend/service"
	"github.com/quillchat/keybroker/backend/storage/postgres"
	redisstore "github.com/quillchat/keybroker/backend/storage/redis"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the key broker HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.JWT.Secret == "" {
				return errors.New("jwt.secret is required (set KEYBROKER_JWT_SECRET)")
			}

			db, err := sql.Open("postgres", cfg.Postgres.DSN)
			if err != nil {
				return errors.Wrap(err, "opening postgres")
			}
			defer db.Close()

			if err := db.Ping(); err != nil {
				return errors.Wrap(err, "pinging postgres")
			}

			rdb := goredis.NewClient(&goredis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer rdb.Close()

			store := postgres.NewStore(db)
			if err := store.Migrate(); err != nil {
				return errors.Wrap(err, "running migrations")
			}

			events := redisstore.NewEventPublisher(rdb)
			svc := service.NewKeyService(store, events, log, cfg.PreKeys)
			keyHandler := handlers.NewKeyHandler(svc, log)

			router := mux.NewRouter()
			router.Use(middleware.CORS([]string{"*"}))

			router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("OK"))
			}).Methods("GET")

			api := router.PathPrefix("/api/e2e").Subrouter()
			api.Use(middleware.NewAuthMiddleware(cfg.JWT.Secret, cfg.JWT.Issuer))
			integration.RegisterKeyRoutes(api, keyHandler)

			srv := &http.Server{
				Addr:         ":" + cfg.Server.Port,
				Handler:      router,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
			}()

			log.WithField("port", cfg.Server.Port).Info("key broker listening")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return errors.Wrap(err, "http server")
			}
			return nil
		},
	}
}
