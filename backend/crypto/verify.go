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

package crypto

import (
	"crypto/ed25519"
)

// VerifyPreKeySignature checks that sig is a valid Ed25519 signature by
// identityKey over the signed prekey's public bytes. The client already
// proved possession of the private identity key elsewhere; this is
// defense in depth so a broken client cannot publish a prekey its
// identity key never endorsed.
func VerifyPreKeySignature(identityKey, preKey, sig []byte) bool {
	if len(identityKey) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(identityKey), preKey, sig)
}
