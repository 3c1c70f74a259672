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

// Package postgres implements the key store on PostgreSQL. The two
// multi-step writes (registration, bundle assembly) each run in a single
// transaction; one-time prekey claiming relies on FOR UPDATE SKIP LOCKED
// so concurrent claimants neither collide nor wait on each other.
package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/quillchat/keybroker/backend/apperrors"
	"github.com/quillchat/keybroker/backend/models"
	"github.com/quillchat/keybroker/backend/storage"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) RegisterKeys(ctx context.Context, ik *models.IdentityKey, spk *models.SignedPreKey, otpks []models.OneTimePreKey) (*storage.RegisterOutcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.ErrStorage(errors.Wrap(err, "keystore.RegisterKeys.Begin"))
	}
	defer tx.Rollback()

	outcome := &storage.RegisterOutcome{}

	identityRowID, err := s.upsertIdentityKey(ctx, tx, ik, outcome)
	if err != nil {
		return nil, err
	}

	if err := insertCurrentSignedPreKey(ctx, tx, identityRowID, spk); err != nil {
		return nil, err
	}
	outcome.SignedPreKeyID = spk.KeyID

	added, err := insertOneTimePreKeys(ctx, tx, ik.UserID, otpks)
	if err != nil {
		return nil, err
	}
	outcome.OneTimeAdded = added

	if err := tx.Commit(); err != nil {
		return nil, apperrors.ErrStorage(errors.Wrap(err, "keystore.RegisterKeys.Commit"))
	}
	return outcome, nil
}

// upsertIdentityKey applies the append-only re-key rules: identical bytes
// are a no-op, new bytes append a row and unverify the old one. The
// current row is locked so two concurrent registrations for the same
// device serialize.
func (s *Store) upsertIdentityKey(ctx context.Context, tx *sql.Tx, ik *models.IdentityKey, outcome *storage.RegisterOutcome) (int64, error) {
	var (
		existingID  int64
		existingKey []byte
		existingFP  string
	)
	err := tx.QueryRowContext(ctx, `
		SELECT id, public_key, key_id FROM identity_keys
		WHERE user_id = $1 AND device_id = $2 AND revoked_at IS NULL
		ORDER BY created_at DESC, id DESC LIMIT 1
		FOR UPDATE`,
		ik.UserID, ik.DeviceID).Scan(&existingID, &existingKey, &existingFP)

	switch {
	case err == sql.ErrNoRows:
		// First registration for this device.
	case err != nil:
		return 0, apperrors.ErrStorage(errors.Wrap(err, "keystore.RegisterKeys.SelectIdentity"))
	case bytes.Equal(existingKey, ik.PublicKey):
		outcome.IdentityKeyID = existingFP
		return existingID, nil
	default:
		// Re-key: prior out-of-band trust no longer applies.
		if _, err := tx.ExecContext(ctx, `
			UPDATE identity_keys SET verified = FALSE, verified_at = NULL
			WHERE id = $1`, existingID); err != nil {
			return 0, apperrors.ErrStorage(errors.Wrap(err, "keystore.RegisterKeys.UnverifyOld"))
		}
		outcome.Rekeyed = true
	}

	var rowID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO identity_keys (user_id, device_id, public_key, key_id, verified, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)
		RETURNING id`,
		ik.UserID, ik.DeviceID, ik.PublicKey, ik.KeyID, time.Now()).Scan(&rowID)
	if err != nil {
		return 0, apperrors.ErrStorage(errors.Wrap(err, "keystore.RegisterKeys.InsertIdentity"))
	}
	outcome.IdentityKeyID = ik.KeyID
	return rowID, nil
}

// insertCurrentSignedPreKey is the atomic flip-then-insert shared by
// registration and rotation. Must run inside the caller's transaction.
func insertCurrentSignedPreKey(ctx context.Context, tx *sql.Tx, identityRowID int64, spk *models.SignedPreKey) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE signed_pre_keys SET is_current = FALSE
		WHERE user_id = $1 AND is_current`, spk.UserID); err != nil {
		return apperrors.ErrStorage(errors.Wrap(err, "keystore.SignedPreKey.Demote"))
	}

	spk.IdentityKeyID = identityRowID
	spk.IsCurrent = true
	spk.ExpiresAt = time.Now().Add(models.SignedPreKeyTTL)

	err := tx.QueryRowContext(ctx, `
		INSERT INTO signed_pre_keys (user_id, identity_key_id, key_id, public_key, signature, is_current, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7)
		RETURNING id`,
		spk.UserID, identityRowID, spk.KeyID, spk.PublicKey, spk.Signature,
		spk.ExpiresAt, time.Now()).Scan(&spk.ID)
	if err != nil {
		return apperrors.ErrStorage(errors.Wrap(err, "keystore.SignedPreKey.Insert"))
	}
	return nil
}

func insertOneTimePreKeys(ctx context.Context, tx *sql.Tx, userID string, otpks []models.OneTimePreKey) (int, error) {
	added := 0
	for _, k := range otpks {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO one_time_pre_keys (user_id, key_id, public_key, created_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, key_id) DO NOTHING`,
			userID, k.KeyID, k.PublicKey, time.Now())
		if err != nil {
			return 0, apperrors.ErrStorage(errors.Wrap(err, "keystore.OneTimePreKeys.Insert"))
		}
		if n, err := res.RowsAffected(); err == nil {
			added += int(n)
		}
	}
	return added, nil
}

func (s *Store) GetPreKeyBundle(ctx context.Context, targetUserID, requestedBy string) (*models.PreKeyBundle, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.ErrStorage(errors.Wrap(err, "keystore.GetPreKeyBundle.Begin"))
	}
	defer tx.Rollback()

	bundle := &models.PreKeyBundle{UserID: targetUserID}

	err = tx.QueryRowContext(ctx, `
		SELECT device_id, public_key, key_id FROM identity_keys
		WHERE user_id = $1 AND revoked_at IS NULL
		ORDER BY created_at DESC, id DESC LIMIT 1`,
		targetUserID).Scan(&bundle.DeviceID, &bundle.IdentityKey, &bundle.IdentityKeyID)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNoIdentityKey
	} else if err != nil {
		return nil, apperrors.ErrStorage(errors.Wrap(err, "keystore.GetPreKeyBundle.Identity"))
	}

	err = tx.QueryRowContext(ctx, `
		SELECT key_id, public_key, signature FROM signed_pre_keys
		WHERE user_id = $1 AND is_current AND expires_at > $2`,
		targetUserID, time.Now()).Scan(&bundle.SignedPreKeyID, &bundle.SignedPreKey, &bundle.SignedPreKeySig)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNoSignedPreKey
	} else if err != nil {
		return nil, apperrors.ErrStorage(errors.Wrap(err, "keystore.GetPreKeyBundle.SignedPreKey"))
	}

	// Claim one unused prekey. SKIP LOCKED skips rows a concurrent
	// transaction is claiming, so two callers get distinct keys and
	// neither waits. An exhausted pool is not an error.
	var (
		otpkID  int
		otpkPub []byte
	)
	err = tx.QueryRowContext(ctx, `
		UPDATE one_time_pre_keys SET used_at = $3, used_by = $2
		WHERE user_id = $1 AND key_id = (
			SELECT key_id FROM one_time_pre_keys
			WHERE user_id = $1 AND used_at IS NULL
			ORDER BY key_id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING key_id, public_key`,
		targetUserID, requestedBy, time.Now()).Scan(&otpkID, &otpkPub)
	if err == nil {
		bundle.OneTimePreKey = otpkPub
		bundle.OneTimePreKeyID = &otpkID
	} else if err != sql.ErrNoRows {
		return nil, apperrors.ErrStorage(errors.Wrap(err, "keystore.GetPreKeyBundle.Claim"))
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.ErrStorage(errors.Wrap(err, "keystore.GetPreKeyBundle.Commit"))
	}
	return bundle, nil
}
