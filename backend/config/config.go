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

package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   Server
	Postgres Postgres
	Redis    Redis
	JWT      JWT
	PreKeys  PreKeys
	Log      Log
}

type Server struct {
	Port string
}

type Postgres struct {
	DSN string
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type JWT struct {
	Secret string
	Issuer string
}

// PreKeys tunes the one-time prekey pool. MinPool is the remaining count
// below which a low-pool event is published; BatchHint is the upload size
// suggested to clients when they replenish.
type PreKeys struct {
	MinPool   int
	BatchHint int
}

type Log struct {
	Level string
	JSON  bool
}

// Load reads config.yaml from the given directory (if present) and
// applies KEYBROKER_* environment overrides, e.g. KEYBROKER_POSTGRES_DSN.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)

	v.SetEnvPrefix("keybroker")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", "8081")
	v.SetDefault("postgres.dsn", "postgres://localhost/keybroker?sslmode=disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.issuer", "quillchat")
	v.SetDefault("prekeys.minpool", 25)
	v.SetDefault("prekeys.batchhint", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file is optional; env and defaults cover everything.
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
