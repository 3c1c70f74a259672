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

// Package redis publishes key-lifecycle events for the host chat
// platform: identity re-keys (so contacts can be warned their safety
// number changed) and low one-time-prekey pools (so clients are nudged
// to replenish). Events are advisory; the broker's correctness never
// depends on them being delivered.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// Channel and key prefixes.
	eventChannelPrefix = "keys:events:"  // keys:events:{userId}
	lowPoolMarkPrefix  = "keys:lowpool:" // keys:lowpool:{userId} - dedupe marker

	// A draining pool would otherwise emit an event per claim.
	lowPoolDedupeTTL = 1 * time.Hour
)

const (
	EventIdentityRekeyed = "identity_rekeyed"
	EventLowPreKeyPool   = "low_prekey_pool"
)

type KeyEvent struct {
	EventID   string `json:"event_id"`
	Type      string `json:"type"`
	UserID    string `json:"user_id"`
	DeviceID  string `json:"device_id,omitempty"`
	KeyID     string `json:"key_id,omitempty"`
	Remaining *int   `json:"remaining,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type EventPublisher struct {
	rdb *redis.Client
}

func NewEventPublisher(rdb *redis.Client) *EventPublisher {
	return &EventPublisher{rdb: rdb}
}

// PublishRekey announces that a device replaced its identity key. KeyID
// is the new key's fingerprint; raw key bytes never enter the event.
func (p *EventPublisher) PublishRekey(ctx context.Context, userID, deviceID, keyID string) error {
	event := KeyEvent{
		EventID:   uuid.NewString(),
		Type:      EventIdentityRekeyed,
		UserID:    userID,
		DeviceID:  deviceID,
		KeyID:     keyID,
		Timestamp: time.Now().Unix(),
	}
	return p.publish(ctx, userID, event)
}

// PublishLowPool announces that the user's one-time prekey pool dropped
// below the configured threshold. Deduplicated with a TTL'd marker so
// repeated claims against a low pool emit at most one event per window.
func (p *EventPublisher) PublishLowPool(ctx context.Context, userID string, remaining int) error {
	set, err := p.rdb.SetNX(ctx, lowPoolMarkPrefix+userID, 1, lowPoolDedupeTTL).Result()
	if err != nil {
		return err
	}
	if !set {
		return nil
	}

	event := KeyEvent{
		EventID:   uuid.NewString(),
		Type:      EventLowPreKeyPool,
		UserID:    userID,
		Remaining: &remaining,
		Timestamp: time.Now().Unix(),
	}
	return p.publish(ctx, userID, event)
}

// ClearLowPoolMark drops the dedupe marker after a replenish, so the next
// time the pool drains a fresh event fires.
func (p *EventPublisher) ClearLowPoolMark(ctx context.Context, userID string) error {
	return p.rdb.Del(ctx, lowPoolMarkPrefix+userID).Err()
}

func (p *EventPublisher) publish(ctx context.Context, userID string, event KeyEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, eventChannelPrefix+userID, data).Err()
}
