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

// Package service implements the broker's operations on top of the key
// store: registration, bundle assembly, lifecycle and safety numbers.
// All key material is validated and decoded here, before it reaches
// storage; all persistence errors surface as apperrors codes.
package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/quillchat/keybroker/backend/apperrors"
	"github.com/quillchat/keybroker/backend/config"
	"github.com/quillchat/keybroker/backend/storage"
)

// EventPublisher receives advisory key-lifecycle notifications. Failures
// are logged and swallowed; events never affect operation outcomes.
type EventPublisher interface {
	PublishRekey(ctx context.Context, userID, deviceID, keyID string) error
	PublishLowPool(ctx context.Context, userID string, remaining int) error
	ClearLowPoolMark(ctx context.Context, userID string) error
}

type KeyService struct {
	store   storage.KeyStore
	events  EventPublisher
	log     *logrus.Logger
	prekeys config.PreKeys
}

// NewKeyService wires the service. events may be nil when the broker runs
// without a notification bus.
func NewKeyService(store storage.KeyStore, events EventPublisher, log *logrus.Logger, prekeys config.PreKeys) *KeyService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &KeyService{store: store, events: events, log: log, prekeys: prekeys}
}

// decodeKey decodes standard base64 and enforces the exact raw length.
func decodeKey(b64 string, expectedLen int) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	if len(data) != expectedLen {
		return nil, fmt.Errorf("expected %d bytes, got %d", expectedLen, len(data))
	}
	return data, nil
}

func invalid(base error, cause error) error {
	if app, ok := base.(*apperrors.AppError); ok && cause != nil {
		return apperrors.Wrap(app.Code, app.Message, cause)
	}
	return base
}
