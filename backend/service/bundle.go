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
	"github.com/quillchat/keybroker/backend/models"
)

// GetPreKeyBundle assembles a fresh bundle for target, consuming at most
// one one-time prekey on requester's behalf. apperrors.ErrNoIdentityKey
// and ErrNoSignedPreKey both mean the target is not currently reachable
// for secure messaging; an exhausted one-time pool does not.
func (s *KeyService) GetPreKeyBundle(ctx context.Context, targetUserID, requesterID string) (*models.PreKeyBundle, error) {
	if targetUserID == "" {
		return nil, apperrors.ErrMissingUserID
	}

	bundle, err := s.store.GetPreKeyBundle(ctx, targetUserID, requesterID)
	if err != nil {
		return nil, err
	}

	fields := logrus.Fields{
		"op":        "get_bundle",
		"target":    targetUserID,
		"requester": requesterID,
		"key_id":    bundle.IdentityKeyID,
	}
	if bundle.OneTimePreKeyID == nil {
		s.log.WithFields(fields).Warn("one-time prekey pool exhausted; bundle served without one")
	} else {
		s.log.WithFields(fields).WithField("one_time_key_id", *bundle.OneTimePreKeyID).Debug("bundle assembled")
		s.checkPoolLevel(ctx, targetUserID)
	}

	return bundle, nil
}

// RemainingPreKeyCount reports the unused pool size, which clients use to
// decide when to upload another batch.
func (s *KeyService) RemainingPreKeyCount(ctx context.Context, userID string) (*models.PreKeyCount, error) {
	if userID == "" {
		return nil, apperrors.ErrMissingUserID
	}

	count, err := s.store.UnusedPreKeyCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.PreKeyCount{Remaining: count, MinPool: s.prekeys.MinPool}, nil
}

// checkPoolLevel emits a low-pool event after a claim drains the pool
// below the threshold. Best effort: a failed count or publish only logs.
func (s *KeyService) checkPoolLevel(ctx context.Context, userID string) {
	if s.events == nil {
		return
	}

	remaining, err := s.store.UnusedPreKeyCount(ctx, userID)
	if err != nil {
		s.log.WithField("user_id", userID).WithError(err).Warn("failed to check prekey pool level")
		return
	}
	if remaining >= s.prekeys.MinPool {
		return
	}

	if err := s.events.PublishLowPool(ctx, userID, remaining); err != nil {
		s.log.WithField("user_id", userID).WithError(err).Warn("failed to publish low-pool event")
	}
}
