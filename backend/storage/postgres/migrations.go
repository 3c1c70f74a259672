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

package postgres

func (s *Store) Migrate() error {
	migrations := []string{
		// Identity keys are append-only; revocation and re-keying both
		// leave the old row in place as an audit trail. key_id is NOT
		// unique: a device restored from backup re-submits bytes it held
		// before, which appends a fresh row with the same fingerprint.
		`CREATE TABLE IF NOT EXISTS identity_keys (
			id BIGSERIAL PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			device_id VARCHAR(255) NOT NULL,
			public_key BYTEA NOT NULL,
			key_id VARCHAR(40) NOT NULL,
			verified BOOLEAN NOT NULL DEFAULT FALSE,
			verified_at TIMESTAMPTZ,
			revoked_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_identity_current
		ON identity_keys(user_id, created_at DESC)
		WHERE revoked_at IS NULL`,

		`CREATE INDEX IF NOT EXISTS idx_identity_fingerprint
		ON identity_keys(user_id, key_id)`,

		`CREATE TABLE IF NOT EXISTS signed_pre_keys (
			id BIGSERIAL PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			identity_key_id BIGINT NOT NULL REFERENCES identity_keys(id),
			key_id INTEGER NOT NULL,
			public_key BYTEA NOT NULL,
			signature BYTEA NOT NULL,
			is_current BOOLEAN NOT NULL DEFAULT FALSE,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// The database enforces the one-current-per-user invariant, not
		// just the application.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_current_spk
		ON signed_pre_keys(user_id)
		WHERE is_current`,

		`CREATE TABLE IF NOT EXISTS one_time_pre_keys (
			user_id VARCHAR(255) NOT NULL,
			key_id INTEGER NOT NULL,
			public_key BYTEA NOT NULL,
			used_at TIMESTAMPTZ,
			used_by VARCHAR(255),
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, key_id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_unused_prekeys
		ON one_time_pre_keys(user_id, key_id)
		WHERE used_at IS NULL`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
