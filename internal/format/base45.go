// Copyright 2025 Dominik Schlosser
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package format

import (
	"fmt"

	"github.com/dasio/base45"
)

// base45Alphabet is the RFC 9285 alphabet, index = value.
const base45Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%*+-./:"

var base45Values [256]int8

func init() {
	for i := range base45Values {
		base45Values[i] = -1
	}
	for i := 0; i < len(base45Alphabet); i++ {
		base45Values[base45Alphabet[i]] = int8(i)
	}
}

// DecodeBase45 decodes an RFC 9285 base45 string. Every group of three
// characters yields two bytes; a trailing pair yields one byte.
func DecodeBase45(s string) ([]byte, error) {
	if err := checkBase45(s); err != nil {
		return nil, err
	}
	b, err := base45.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("base45: %w", err)
	}
	return b, nil
}

// checkBase45 applies the RFC 9285 rejections the codec skips: it
// tolerates CR/LF and truncates groups that overflow.
func checkBase45(s string) error {
	if len(s)%3 == 1 {
		return fmt.Errorf("base45: invalid length %d", len(s))
	}
	for i := 0; i < len(s); i += 3 {
		end := min(i+3, len(s))
		n, mul := 0, 1
		for j := i; j < end; j++ {
			v := base45Values[s[j]]
			if v < 0 {
				return fmt.Errorf("base45: illegal character %q at offset %d", s[j], j)
			}
			n += int(v) * mul
			mul *= 45
		}
		if end-i == 3 && n > 0xffff {
			return fmt.Errorf("base45: group at offset %d overflows 16 bits", i)
		}
		if end-i == 2 && n > 0xff {
			return fmt.Errorf("base45: trailing group at offset %d overflows 8 bits", i)
		}
	}
	return nil
}

// EncodeBase45 encodes bytes using the RFC 9285 alphabet.
func EncodeBase45(b []byte) string {
	return base45.EncodeToString(b)
}
