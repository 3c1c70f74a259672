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

// Package testkeys generates complete key pairs for test fixtures.
//
// The broker never handles private keys; this package exists so tests can
// produce realistic client-side material. It must only ever be imported
// from _test.go files, which keeps it out of the production binary.
package testkeys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/crypto/curve25519"
)

// Device is a full client-side key set: a signing identity plus the
// private halves tests need to produce signatures.
type Device struct {
	IdentityPub  ed25519.PublicKey
	IdentityPriv ed25519.PrivateKey
}

func NewDevice() (*Device, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Device{IdentityPub: pub, IdentityPriv: priv}, nil
}

// NewX25519 returns a fresh Curve25519 key pair, private key clamped per
// RFC 7748.
func NewX25519() (priv, pub []byte, err error) {
	priv = make([]byte, 32)
	if _, err = rand.Read(priv); err != nil {
		return nil, nil, err
	}
	priv[0] &= 248
	priv[31] &= 127
	priv[31] |= 64

	pub, err = curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return nil, nil, err
	}
	return priv, pub, nil
}

// SignedPreKey generates an X25519 prekey and signs its public bytes with
// the device identity key.
func (d *Device) SignedPreKey() (pub, sig []byte, err error) {
	_, pub, err = NewX25519()
	if err != nil {
		return nil, nil, err
	}
	sig = ed25519.Sign(d.IdentityPriv, pub)
	return pub, sig, nil
}

// OneTimePreKeys generates n X25519 public keys.
func OneTimePreKeys(n int) ([][]byte, error) {
	keys := make([][]byte, n)
	for i := range keys {
		_, pub, err := NewX25519()
		if err != nil {
			return nil, err
		}
		keys[i] = pub
	}
	return keys, nil
}

// B64 is standard base64 without newlines, the wire encoding for all key
// material.
func B64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }
