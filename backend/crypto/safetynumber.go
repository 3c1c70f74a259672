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
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"
)

// SafetyNumber derives a human-comparable fingerprint from two identity
// keys. The keys are ordered bytewise ascending before hashing, so both
// parties compute the same string regardless of argument order.
//
// The rendering is six 5-digit groups, e.g. "12345 67890 ...", read out
// loud or compared over any out-of-band channel.
func SafetyNumber(keyA, keyB []byte) string {
	lo, hi := keyA, keyB
	if bytes.Compare(lo, hi) > 0 {
		lo, hi = hi, lo
	}

	h := sha256.New()
	h.Write(lo)
	h.Write(hi)
	sum := h.Sum(nil)

	groups := make([]string, 6)
	for i := range groups {
		chunk := binary.BigEndian.Uint32(sum[i*4 : i*4+4])
		groups[i] = fmt.Sprintf("%05d", chunk%100000)
	}
	return strings.Join(groups, " ")
}
