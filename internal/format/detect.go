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

import "strings"

// Barcode scheme prefixes.
const (
	PrefixMDoc  = "mdoc:"
	PrefixHCERT = "HC1"
	PrefixNZCP  = "NZCP:/1/"
)

// CutScheme removes prefix from input and, when sep is non-zero, one
// directly following sep byte. The match is case-sensitive: every scheme
// defines the exact casing of its prefix.
func CutScheme(input, prefix string, sep byte) (string, bool) {
	rest, ok := strings.CutPrefix(input, prefix)
	if !ok {
		return input, false
	}
	if sep != 0 && len(rest) > 0 && rest[0] == sep {
		rest = rest[1:]
	}
	return rest, true
}

// LooksLikeJWT reports whether the first dot-separated segment of input
// decodes to a JSON object. This is the only match test that parses
// content, so the JWT decoder runs it after every prefix test.
func LooksLikeJWT(input string) bool {
	_, err := ParseJWTHeader(input)
	return err == nil
}
