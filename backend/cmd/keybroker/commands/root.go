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
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/quillchat/keybroker/backend/config"
)

var (
	configDir string

	cfg *config.Config
	log *logrus.Logger
)

func Execute() error {
	root := &cobra.Command{
		Use:           "keybroker",
		Short:         "End-to-end encryption key exchange broker",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configDir)
			if err != nil {
				return err
			}

			log = logrus.New()
			level, err := logrus.ParseLevel(cfg.Log.Level)
			if err != nil {
				level = logrus.InfoLevel
			}
			log.SetLevel(level)
			if cfg.Log.JSON {
				log.SetFormatter(&logrus.JSONFormatter{})
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configDir, "config", ".", "directory containing config.yaml")

	root.AddCommand(serveCmd(), migrateCmd())
	return root.Execute()
}
