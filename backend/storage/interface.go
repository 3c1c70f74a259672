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

package storage

import (
	"context"

	"github.com/quillchat/keybroker/backend/models"
)

// RegisterOutcome reports what the registration transaction actually did
// with the submitted identity key.
type RegisterOutcome struct {
	IdentityKeyID string
	// Rekeyed is true when the submitted bytes replaced a different
	// existing key; the previous row was marked unverified.
	Rekeyed        bool
	OneTimeAdded   int
	SignedPreKeyID int
}

// IdentityKeyStore owns long-term identity key rows. Rows are append-only
// and never physically deleted.
type IdentityKeyStore interface {
	// CurrentIdentityKey returns the newest non-revoked identity key for
	// the user across all devices, or apperrors.ErrNoIdentityKey.
	CurrentIdentityKey(ctx context.Context, userID string) (*models.IdentityKey, error)

	// GetIdentityKey looks up one row by its fingerprint key id, or
	// apperrors.ErrIdentityKeyNotFound.
	GetIdentityKey(ctx context.Context, userID, keyID string) (*models.IdentityKey, error)

	// MarkIdentityVerified records a successful out-of-band safety-number
	// match. Returns apperrors.ErrKeyRevoked for a revoked key.
	MarkIdentityVerified(ctx context.Context, userID, keyID string) error

	// RevokeIdentityKey takes the key out of current-key selection
	// permanently. Idempotent.
	RevokeIdentityKey(ctx context.Context, userID, keyID string) error
}

// SignedPreKeyStore owns medium-term signed prekeys, exactly one current
// per user.
type SignedPreKeyStore interface {
	// RotateSignedPreKey atomically demotes any current row and inserts
	// spk as the new current one.
	RotateSignedPreKey(ctx context.Context, spk *models.SignedPreKey) error

	// CurrentSignedPreKey returns the current unexpired row, or
	// apperrors.ErrNoSignedPreKey.
	CurrentSignedPreKey(ctx context.Context, userID string) (*models.SignedPreKey, error)
}

// OneTimePreKeyStore owns the single-use prekey pool.
type OneTimePreKeyStore interface {
	// AddOneTimePreKeys bulk-inserts, ignoring (user_id, key_id)
	// duplicates, and returns how many rows were actually added.
	AddOneTimePreKeys(ctx context.Context, userID string, keys []models.OneTimePreKey) (int, error)

	// UnusedPreKeyCount is the number of still-claimable keys.
	UnusedPreKeyCount(ctx context.Context, userID string) (int, error)
}

// KeyStore is the full broker store. RegisterKeys and GetPreKeyBundle are
// single transactions: no partial key state is ever visible outside them.
type KeyStore interface {
	IdentityKeyStore
	SignedPreKeyStore
	OneTimePreKeyStore

	// RegisterKeys persists a full registration atomically. An identical
	// identity key is an idempotent no-op; different bytes append a new
	// row and unverify the old one (surfaced via RegisterOutcome).
	RegisterKeys(ctx context.Context, ik *models.IdentityKey, spk *models.SignedPreKey, otpks []models.OneTimePreKey) (*RegisterOutcome, error)

	// GetPreKeyBundle assembles a bundle for target, claiming at most one
	// unused one-time prekey for requestedBy. Concurrent calls never
	// receive the same one-time key and never block each other; an empty
	// pool yields a bundle without one.
	GetPreKeyBundle(ctx context.Context, targetUserID, requestedBy string) (*models.PreKeyBundle, error)
}
