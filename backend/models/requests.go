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

// Request payloads. All key material is base64 (std encoding) on the
// wire and decoded to raw fixed-length bytes at the service boundary.

type SignedPreKeyUpload struct {
	KeyID     int    `json:"key_id"`
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
}

type OneTimePreKeyUpload struct {
	KeyID     int    `json:"key_id"`
	PublicKey string `json:"public_key"`
}

type KeyRegistration struct {
	DeviceID       string                `json:"device_id"`
	IdentityKey    string                `json:"identity_key"`
	SignedPreKey   SignedPreKeyUpload    `json:"signed_pre_key"`
	OneTimePreKeys []OneTimePreKeyUpload `json:"one_time_pre_keys"`
}

// RegistrationResult reports what the atomic registration transaction
// wrote. IdentityRekeyed is true when the submitted identity key replaced
// a different existing key; callers should warn the user that prior
// out-of-band verification no longer applies.
type RegistrationResult struct {
	IdentityKeyID   string `json:"identity_key_id"`
	SignedPreKeyID  *int   `json:"signed_pre_key_id,omitempty"`
	OneTimePreKeys  int    `json:"one_time_pre_key_count"`
	IdentityRekeyed bool   `json:"identity_rekeyed"`
}

type ReplenishRequest struct {
	OneTimePreKeys []OneTimePreKeyUpload `json:"one_time_pre_keys"`
}

type ReplenishResult struct {
	Added     int `json:"added"`
	Remaining int `json:"remaining"`
	BatchHint int `json:"batch_hint"`
}

type RotateRequest struct {
	SignedPreKey SignedPreKeyUpload `json:"signed_pre_key"`
}

type PreKeyCount struct {
	Remaining int `json:"remaining"`
	MinPool   int `json:"min_pool"`
}

type SafetyNumber struct {
	UserID       string `json:"user_id"`
	PeerID       string `json:"peer_id"`
	SafetyNumber string `json:"safety_number"`
}
