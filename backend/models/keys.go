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

package models

import (
	"time"
)

const (
	// Raw byte lengths for key material crossing the API boundary.
	PublicKeySize = 32
	SignatureSize = 64

	// Signed prekeys are served for at most this long after upload;
	// clients are expected to rotate well before.
	SignedPreKeyTTL = 30 * 24 * time.Hour
)

// IdentityKey is a long-term public signing key for one device. Rows are
// append-only: a re-key inserts a new row and the old one keeps existing
// for audit. The "current" key for a device is the newest non-revoked row.
type IdentityKey struct {
	ID         int64      `json:"-" db:"id"`
	UserID     string     `json:"user_id" db:"user_id"`
	DeviceID   string     `json:"device_id" db:"device_id"`
	PublicKey  []byte     `json:"public_key" db:"public_key"`
	KeyID      string     `json:"key_id" db:"key_id"`
	Verified   bool       `json:"verified" db:"verified"`
	VerifiedAt *time.Time `json:"verified_at,omitempty" db:"verified_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

func (k *IdentityKey) Revoked() bool { return k.RevokedAt != nil }

// SignedPreKey is a medium-term X25519 key authenticated by a signature
// from the owner's identity key. At most one row per user has
// IsCurrent=true at any instant.
type SignedPreKey struct {
	ID            int64     `json:"-" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	IdentityKeyID int64     `json:"-" db:"identity_key_id"`
	KeyID         int       `json:"key_id" db:"key_id"`
	PublicKey     []byte    `json:"public_key" db:"public_key"`
	Signature     []byte    `json:"signature" db:"signature"`
	IsCurrent     bool      `json:"is_current" db:"is_current"`
	ExpiresAt     time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

func (k *SignedPreKey) Expired(now time.Time) bool { return now.After(k.ExpiresAt) }

// OneTimePreKey is a single-use X25519 key. A row is never deleted;
// consumption sets UsedAt/UsedBy exactly once.
type OneTimePreKey struct {
	UserID    string     `json:"user_id" db:"user_id"`
	KeyID     int        `json:"key_id" db:"key_id"`
	PublicKey []byte     `json:"public_key" db:"public_key"`
	UsedAt    *time.Time `json:"used_at,omitempty" db:"used_at"`
	UsedBy    *string    `json:"used_by,omitempty" db:"used_by"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// PreKeyBundle is assembled fresh per request and never persisted. The
// one-time prekey is absent when the target's pool is exhausted.
type PreKeyBundle struct {
	UserID          string `json:"user_id"`
	DeviceID        string `json:"device_id"`
	IdentityKey     []byte `json:"identity_key"`
	IdentityKeyID   string `json:"identity_key_id"`
	SignedPreKeyID  int    `json:"signed_pre_key_id"`
	SignedPreKey    []byte `json:"signed_pre_key"`
	SignedPreKeySig []byte `json:"signed_pre_key_signature"`
	OneTimePreKey   []byte `json:"one_time_pre_key,omitempty"`
	OneTimePreKeyID *int   `json:"one_time_pre_key_id,omitempty"`
}
