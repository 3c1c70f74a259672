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

package apperrors

var (
	// Bundle assembly. Both mean "not currently reachable for secure
	// messaging" to the caller.
	ErrNoIdentityKey  = NotFound("no identity key registered")
	ErrNoSignedPreKey = NotFound("no current signed prekey")

	ErrIdentityKeyNotFound = NotFound("identity key not found")
	ErrKeyRevoked          = Conflict("identity key is revoked")

	// Registration and rotation input validation.
	ErrInvalidIdentityKey   = InvalidArg("identity key must be 32 bytes, base64 encoded")
	ErrInvalidSignedPreKey  = InvalidArg("signed prekey must be 32 bytes, base64 encoded")
	ErrInvalidSignature     = InvalidArg("signature must be 64 bytes, base64 encoded")
	ErrInvalidOneTimePreKey = InvalidArg("one-time prekey must be 32 bytes, base64 encoded")
	ErrDuplicatePreKeyID    = InvalidArg("duplicate one-time prekey id in batch")
	ErrBadPreKeySignature   = InvalidArg("signed prekey signature does not verify against identity key")
	ErrMissingUserID        = InvalidArg("user id is required")
	ErrMissingDeviceID      = InvalidArg("device id is required")
	ErrMissingSignedPreKey  = InvalidArg("signed prekey is required")
)

func ErrStorage(cause error) error {
	return Wrap(CodeInternal, "storage failure", cause)
}
