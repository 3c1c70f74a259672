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

package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/quillchat/keybroker/backend/apperrors"
	"github.com/quillchat/keybroker/backend/crypto"
	"github.com/quillchat/keybroker/backend/models"
)

// RotateSignedPreKey replaces the user's current signed prekey with a new
// one in a single atomic flip-then-insert. The new key's signature is
// verified against the user's current identity key before anything is
// written.
func (s *KeyService) RotateSignedPreKey(ctx context.Context, userID string, req models.RotateRequest) (int, error) {
	if userID == "" {
		return 0, apperrors.ErrMissingUserID
	}

	ik, err := s.store.CurrentIdentityKey(ctx, userID)
	if err != nil {
		return 0, err
	}

	spk, err := s.validateSignedPreKey(ik.PublicKey, req.SignedPreKey)
	if err != nil {
		return 0, err
	}
	spk.UserID = userID

	if err := s.store.RotateSignedPreKey(ctx, spk); err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{
		"op":      "rotate_signed_prekey",
		"user_id": userID,
		"key_id":  ik.KeyID,
	}).Info("signed prekey rotated")
	return spk.KeyID, nil
}

// VerifyIdentityKey records a successful out-of-band safety-number match
// for the given key. Verifying a revoked key is a conflict, not a no-op.
func (s *KeyService) VerifyIdentityKey(ctx context.Context, userID, keyID string) error {
	if userID == "" {
		return apperrors.ErrMissingUserID
	}

	if err := s.store.MarkIdentityVerified(ctx, userID, keyID); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"op":      "verify_identity",
		"user_id": userID,
		"key_id":  keyID,
	}).Info("identity key verified")
	return nil
}

// RevokeIdentityKey permanently removes the key from current-key
// selection. The row stays in storage as an audit record.
func (s *KeyService) RevokeIdentityKey(ctx context.Context, userID, keyID string) error {
	if userID == "" {
		return apperrors.ErrMissingUserID
	}

	if err := s.store.RevokeIdentityKey(ctx, userID, keyID); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"op":      "revoke_identity",
		"user_id": userID,
		"key_id":  keyID,
	}).Warn("identity key revoked")
	return nil
}

// ComputeSafetyNumber derives the order-independent fingerprint both
// users compare out of band. Either party missing a current identity key
// is a not-found error.
func (s *KeyService) ComputeSafetyNumber(ctx context.Context, userIDA, userIDB string) (*models.SafetyNumber, error) {
	if userIDA == "" || userIDB == "" {
		return nil, apperrors.ErrMissingUserID
	}

	keyA, err := s.store.CurrentIdentityKey(ctx, userIDA)
	if err != nil {
		return nil, err
	}
	keyB, err := s.store.CurrentIdentityKey(ctx, userIDB)
	if err != nil {
		return nil, err
	}

	return &models.SafetyNumber{
		UserID:       userIDA,
		PeerID:       userIDB,
		SafetyNumber: crypto.SafetyNumber(keyA.PublicKey, keyB.PublicKey),
	}, nil
}
