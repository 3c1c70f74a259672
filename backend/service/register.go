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

// RegisterKeys validates and persists a client's full key submission in
// one transaction. No partial key set ever becomes visible: any failure
// rolls back identity, signed and one-time keys together.
func (s *KeyService) RegisterKeys(ctx context.Context, userID string, reg models.KeyRegistration) (*models.RegistrationResult, error) {
	if userID == "" {
		return nil, apperrors.ErrMissingUserID
	}
	if reg.DeviceID == "" {
		return nil, apperrors.ErrMissingDeviceID
	}

	identityPub, err := decodeKey(reg.IdentityKey, models.PublicKeySize)
	if err != nil {
		return nil, invalid(apperrors.ErrInvalidIdentityKey, err)
	}

	spk, err := s.validateSignedPreKey(identityPub, reg.SignedPreKey)
	if err != nil {
		return nil, err
	}
	spk.UserID = userID

	otpks, err := validateOneTimePreKeys(userID, reg.OneTimePreKeys)
	if err != nil {
		return nil, err
	}

	ik := &models.IdentityKey{
		UserID:    userID,
		DeviceID:  reg.DeviceID,
		PublicKey: identityPub,
		KeyID:     crypto.Fingerprint(identityPub),
	}

	outcome, err := s.store.RegisterKeys(ctx, ik, spk, otpks)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"op":      "register_keys",
			"user_id": userID,
			"key_id":  ik.KeyID,
		}).WithError(err).Error("registration transaction failed")
		return nil, err
	}

	if outcome.Rekeyed {
		s.log.WithFields(logrus.Fields{
			"op":      "register_keys",
			"user_id": userID,
			"key_id":  outcome.IdentityKeyID,
		}).Warn("identity re-keyed; prior verification cleared")
		s.notifyRekey(ctx, userID, reg.DeviceID, outcome.IdentityKeyID)
	}

	spkID := outcome.SignedPreKeyID
	return &models.RegistrationResult{
		IdentityKeyID:   outcome.IdentityKeyID,
		SignedPreKeyID:  &spkID,
		OneTimePreKeys:  outcome.OneTimeAdded,
		IdentityRekeyed: outcome.Rekeyed,
	}, nil
}

// ReplenishPreKeys tops up the one-time prekey pool. Resubmitted key ids
// are ignored, so clients can safely retry a whole batch.
func (s *KeyService) ReplenishPreKeys(ctx context.Context, userID string, req models.ReplenishRequest) (*models.ReplenishResult, error) {
	if userID == "" {
		return nil, apperrors.ErrMissingUserID
	}

	otpks, err := validateOneTimePreKeys(userID, req.OneTimePreKeys)
	if err != nil {
		return nil, err
	}
	if len(otpks) == 0 {
		return nil, apperrors.ErrInvalidOneTimePreKey
	}

	added, err := s.store.AddOneTimePreKeys(ctx, userID, otpks)
	if err != nil {
		return nil, err
	}

	remaining, err := s.store.UnusedPreKeyCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.events != nil && remaining >= s.prekeys.MinPool {
		if err := s.events.ClearLowPoolMark(ctx, userID); err != nil {
			s.log.WithField("user_id", userID).WithError(err).Warn("failed to clear low-pool marker")
		}
	}

	return &models.ReplenishResult{
		Added:     added,
		Remaining: remaining,
		BatchHint: s.prekeys.BatchHint,
	}, nil
}

func (s *KeyService) validateSignedPreKey(identityPub []byte, upload models.SignedPreKeyUpload) (*models.SignedPreKey, error) {
	if upload.PublicKey == "" {
		return nil, apperrors.ErrMissingSignedPreKey
	}

	pub, err := decodeKey(upload.PublicKey, models.PublicKeySize)
	if err != nil {
		return nil, invalid(apperrors.ErrInvalidSignedPreKey, err)
	}
	sig, err := decodeKey(upload.Signature, models.SignatureSize)
	if err != nil {
		return nil, invalid(apperrors.ErrInvalidSignature, err)
	}

	if !crypto.VerifyPreKeySignature(identityPub, pub, sig) {
		return nil, apperrors.ErrBadPreKeySignature
	}

	return &models.SignedPreKey{
		KeyID:     upload.KeyID,
		PublicKey: pub,
		Signature: sig,
	}, nil
}

func validateOneTimePreKeys(userID string, uploads []models.OneTimePreKeyUpload) ([]models.OneTimePreKey, error) {
	otpks := make([]models.OneTimePreKey, 0, len(uploads))
	seen := make(map[int]bool, len(uploads))
	for _, k := range uploads {
		if seen[k.KeyID] {
			return nil, apperrors.ErrDuplicatePreKeyID
		}
		seen[k.KeyID] = true

		pub, err := decodeKey(k.PublicKey, models.PublicKeySize)
		if err != nil {
			return nil, invalid(apperrors.ErrInvalidOneTimePreKey, err)
		}
		otpks = append(otpks, models.OneTimePreKey{
			UserID:    userID,
			KeyID:     k.KeyID,
			PublicKey: pub,
		})
	}
	return otpks, nil
}

func (s *KeyService) notifyRekey(ctx context.Context, userID, deviceID, keyID string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishRekey(ctx, userID, deviceID, keyID); err != nil {
		s.log.WithFields(logrus.Fields{
			"user_id": userID,
			"key_id":  keyID,
		}).WithError(err).Warn("failed to publish rekey event")
	}
}
