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

// RotateSignedPreKey runs the same flip-then-insert as registration, but
// against the user's existing identity key.
func (s *Store) RotateSignedPreKey(ctx context.Context, spk *models.SignedPreKey) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.ErrStorage(errors.Wrap(err, "keystore.RotateSignedPreKey.Begin"))
	}
	defer tx.Rollback()

	var identityRowID int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM identity_keys
		WHERE user_id = $1 AND revoked_at IS NULL
		ORDER BY created_at DESC, id DESC LIMIT 1`,
		spk.UserID).Scan(&identityRowID)
	if err == sql.ErrNoRows {
		return apperrors.ErrNoIdentityKey
	} else if err != nil {
		return apperrors.ErrStorage(errors.Wrap(err, "keystore.RotateSignedPreKey.Identity"))
	}

	if err := insertCurrentSignedPreKey(ctx, tx, identityRowID, spk); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.ErrStorage(errors.Wrap(err, "keystore.RotateSignedPreKey.Commit"))
	}
	return nil
}

func (s *Store) CurrentSignedPreKey(ctx context.Context, userID string) (*models.SignedPreKey, error) {
	spk := &models.SignedPreKey{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, identity_key_id, key_id, public_key, signature, is_current, expires_at, created_at
		FROM signed_pre_keys
		WHERE user_id = $1 AND is_current AND expires_at > $2`,
		userID, time.Now()).Scan(&spk.ID, &spk.UserID, &spk.IdentityKeyID, &spk.KeyID,
		&spk.PublicKey, &spk.Signature, &spk.IsCurrent, &spk.ExpiresAt, &spk.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNoSignedPreKey
	} else if err != nil {
		return nil, apperrors.ErrStorage(errors.Wrap(err, "keystore.CurrentSignedPreKey"))
	}
	return spk, nil
}

func (s *Store) AddOneTimePreKeys(ctx context.Context, userID string, keys []models.OneTimePreKey) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.ErrStorage(errors.Wrap(err, "keystore.AddOneTimePreKeys.Begin"))
	}
	defer tx.Rollback()

	added, err := insertOneTimePreKeys(ctx, tx, userID, keys)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.ErrStorage(errors.Wrap(err, "keystore.AddOneTimePreKeys.Commit"))
	}
	return added, nil
}

func (s *Store) UnusedPreKeyCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM one_time_pre_keys
		WHERE user_id = $1 AND used_at IS NULL`,
		userID).Scan(&count)
	if err != nil {
		return 0, apperrors.ErrStorage(errors.Wrap(err, "keystore.UnusedPreKeyCount"))
	}
	return count, nil
}
