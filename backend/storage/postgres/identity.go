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

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/quillchat/keybroker/backend/apperrors"
	"github.com/quillchat/keybroker/backend/models"
)

func (s *Store) CurrentIdentityKey(ctx context.Context, userID string) (*models.IdentityKey, error) {
	ik := &models.IdentityKey{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, device_id, public_key, key_id, verified, verified_at, revoked_at, created_at
		FROM identity_keys
		WHERE user_id = $1 AND revoked_at IS NULL
		ORDER BY created_at DESC, id DESC LIMIT 1`,
		userID).Scan(&ik.ID, &ik.UserID, &ik.DeviceID, &ik.PublicKey, &ik.KeyID,
		&ik.Verified, &ik.VerifiedAt, &ik.RevokedAt, &ik.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNoIdentityKey
	} else if err != nil {
		return nil, apperrors.ErrStorage(errors.Wrap(err, "keystore.CurrentIdentityKey"))
	}
	return ik, nil
}

// GetIdentityKey returns the newest row carrying the fingerprint. A
// fingerprint can appear on several rows when a device re-registers
// bytes it held before; they all describe the same key.
func (s *Store) GetIdentityKey(ctx context.Context, userID, keyID string) (*models.IdentityKey, error) {
	ik := &models.IdentityKey{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, device_id, public_key, key_id, verified, verified_at, revoked_at, created_at
		FROM identity_keys
		WHERE user_id = $1 AND key_id = $2
		ORDER BY created_at DESC, id DESC LIMIT 1`,
		userID, keyID).Scan(&ik.ID, &ik.UserID, &ik.DeviceID, &ik.PublicKey, &ik.KeyID,
		&ik.Verified, &ik.VerifiedAt, &ik.RevokedAt, &ik.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrIdentityKeyNotFound
	} else if err != nil {
		return nil, apperrors.ErrStorage(errors.Wrap(err, "keystore.GetIdentityKey"))
	}
	return ik, nil
}

// MarkIdentityVerified applies to every non-revoked row with the
// fingerprint: the rows hold identical bytes, so trust in one is trust
// in all.
func (s *Store) MarkIdentityVerified(ctx context.Context, userID, keyID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE identity_keys SET verified = TRUE, verified_at = $3
		WHERE user_id = $1 AND key_id = $2 AND revoked_at IS NULL`,
		userID, keyID, time.Now())
	if err != nil {
		return apperrors.ErrStorage(errors.Wrap(err, "keystore.MarkIdentityVerified"))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish a missing key from a revoked one.
		ik, err := s.GetIdentityKey(ctx, userID, keyID)
		if err != nil {
			return err
		}
		if ik.Revoked() {
			return apperrors.ErrKeyRevoked
		}
		return apperrors.ErrIdentityKeyNotFound
	}
	return nil
}

func (s *Store) RevokeIdentityKey(ctx context.Context, userID, keyID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE identity_keys SET revoked_at = $3
		WHERE user_id = $1 AND key_id = $2 AND revoked_at IS NULL`,
		userID, keyID, time.Now())
	if err != nil {
		return apperrors.ErrStorage(errors.Wrap(err, "keystore.RevokeIdentityKey"))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Already revoked is fine; never registered is not.
		if _, err := s.GetIdentityKey(ctx, userID, keyID); err != nil {
			return err
		}
	}
	return nil
}
