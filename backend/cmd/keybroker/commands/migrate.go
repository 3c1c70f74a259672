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
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/quillchat/keybroker/backend/storage/postgres"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := sql.Open("postgres", cfg.Postgres.DSN)
			if err != nil {
				return errors.Wrap(err, "opening postgres")
			}
			defer db.Close()

			store := postgres.NewStore(db)
			if err := store.Migrate(); err != nil {
				return errors.Wrap(err, "running migrations")
			}

			log.Info("migrations applied")
			return nil
		},
	}
}
