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

package mock

import (
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/zhenwenc/sandbox-viper/internal/format"
)

// NZCPConfig holds options for generating an NZ COVID Pass barcode.
type NZCPConfig struct {
	Issuer    string
	NotBefore time.Time
	ExpiresAt time.Time
	// ID is the credential identifier (claim 7). A random UUID is used
	// when unset.
	ID      uuid.UUID
	Subject map[string]any
	Key     *ecdsa.PrivateKey
	// Compress deflates the COSE message before base32 encoding.
	Compress bool
}

// GenerateNZCP builds an "NZCP:/1/" barcode. The published passes are not
// compressed, so Compress defaults to off.
func GenerateNZCP(cfg NZCPConfig) (string, error) {
	key, err := ensureKey(cfg.Key)
	if err != nil {
		return "", err
	}

	id := cfg.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	subject := cfg.Subject
	if subject == nil {
		subject = NZCPSubject()
	}
	notBefore := cfg.NotBefore
	if notBefore.IsZero() {
		notBefore = time.Now()
	}
	expiresAt := cfg.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = notBefore.Add(30 * 24 * time.Hour)
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "did:web:nzcp.covid19.health.nz"
	}

	claims := map[any]any{
		1: issuer,
		4: expiresAt.Unix(),
		5: notBefore.Unix(),
		7: id[:],
		"vc": map[string]any{
			"@context": []any{
				"https://www.w3.org/2018/credentials/v1",
				"https://nzcp.covid19.health.nz/contexts/v1",
			},
			"version":           "1.0.0",
			"type":              []any{"VerifiableCredential", "PublicCovidPass"},
			"credentialSubject": subject,
		},
	}
	payload, err := cbor.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("encoding NZCP claims: %w", err)
	}

	signed, err := sealSign1(payload, key, []byte("key-1"))
	if err != nil {
		return "", err
	}
	if cfg.Compress {
		if signed, err = format.Deflate(signed); err != nil {
			return "", err
		}
	}
	return format.PrefixNZCP + format.EncodeBase32(signed), nil
}
