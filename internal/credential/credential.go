// Copyright 2026 Dominik Schlosser
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

// Package credential defines the result and decoder contract shared by all
// barcode schemes.
package credential

import "context"

// Meta keys. CBOR-based schemes store iat/exp as milliseconds since the
// Unix epoch; JWT copies its claims through unchanged.
const (
	MetaIssuer           = "iss"
	MetaSubject          = "sub"
	MetaAudience         = "aud"
	MetaIssuedAt         = "iat"
	MetaExpiresAt        = "exp"
	MetaNotBefore        = "nbf"
	MetaCWTID            = "cti"
	MetaJWTID            = "jti"
	MetaKind             = "kind"
	MetaSecurity         = "security"
	MetaRetrievalMethods = "deviceRetrievalMethods"
)

// Result is the decoded form of a barcode. Maps are never nil.
type Result struct {
	Raw  map[string]any `json:"raw"`
	Data map[string]any `json:"data"`
	Meta map[string]any `json:"meta"`
}

// Empty returns a result with no content, used when no scheme matches.
func Empty() *Result {
	return &Result{
		Raw:  map[string]any{},
		Data: map[string]any{},
		Meta: map[string]any{},
	}
}

// Decoder recognises and decodes one barcode scheme.
//
// IsMatch must stay a cheap syntactic test. Decode may assume IsMatch
// returned true for the same input.
type Decoder interface {
	Scheme() string
	IsMatch(input string) bool
	Decode(ctx context.Context, input string) (*Result, error)
}
