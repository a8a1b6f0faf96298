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
	"github.com/zhenwenc/sandbox-viper/internal/format"
)

// HCERTConfig holds options for generating an EU DCC barcode.
type HCERTConfig struct {
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	// Cert is the DCC body stored under claim -260/1. Defaults to
	// VaccinationCert().
	Cert  map[string]any
	Key   *ecdsa.PrivateKey
	KeyID []byte
}

// GenerateHCERT builds an "HC1:" barcode: CWT claims, COSE_Sign1, zlib,
// base45.
func GenerateHCERT(cfg HCERTConfig) (string, error) {
	key, err := ensureKey(cfg.Key)
	if err != nil {
		return "", err
	}

	cert := cfg.Cert
	if cert == nil {
		cert = VaccinationCert()
	}
	issuedAt := cfg.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now()
	}
	expiresAt := cfg.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = issuedAt.Add(365 * 24 * time.Hour)
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "DE"
	}

	claims := map[any]any{
		1:    issuer,
		4:    expiresAt.Unix(),
		6:    issuedAt.Unix(),
		-260: map[any]any{1: cert},
	}
	payload, err := cbor.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("encoding HCERT claims: %w", err)
	}

	signed, err := sealSign1(payload, key, cfg.KeyID)
	if err != nil {
		return "", err
	}
	compressed, err := format.Deflate(signed)
	if err != nil {
		return "", err
	}
	return format.PrefixHCERT + ":" + format.EncodeBase45(compressed), nil
}
