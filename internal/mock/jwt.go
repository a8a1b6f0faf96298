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
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zhenwenc/sandbox-viper/internal/format"
)

// JWTConfig holds options for generating a compact JWT.
type JWTConfig struct {
	Issuer    string
	Subject   string
	IssuedAt  time.Time
	ExpiresIn time.Duration
	Claims    map[string]any
	Key       *ecdsa.PrivateKey
}

// GenerateJWT creates an ES256 JWT with all claims in the payload.
// iat and exp are NumericDate seconds.
func GenerateJWT(cfg JWTConfig) (string, error) {
	key, err := ensureKey(cfg.Key)
	if err != nil {
		return "", err
	}

	issuedAt := cfg.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now()
	}

	payload := map[string]any{
		"iat": issuedAt.Unix(),
	}
	if cfg.Issuer != "" {
		payload["iss"] = cfg.Issuer
	}
	if cfg.Subject != "" {
		payload["sub"] = cfg.Subject
	}
	if cfg.ExpiresIn > 0 {
		payload["exp"] = issuedAt.Add(cfg.ExpiresIn).Unix()
	}
	for name, value := range cfg.Claims {
		payload[name] = value
	}

	header := map[string]any{
		"alg": "ES256",
		"typ": "JWT",
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", fmt.Errorf("marshaling header: %w", err)
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling payload: %w", err)
	}

	headerB64 := format.EncodeBase64URL(headerJSON)
	payloadB64 := format.EncodeBase64URL(payloadJSON)

	// JWS signature is r||s
	sigInput := headerB64 + "." + payloadB64
	h := sha256.Sum256([]byte(sigInput))

	sig, err := signECDSA(key, h[:])
	if err != nil {
		return "", fmt.Errorf("signing: %w", err)
	}

	return sigInput + "." + format.EncodeBase64URL(sig), nil
}

func signECDSA(key *ecdsa.PrivateKey, hash []byte) ([]byte, error) {
	r, s, err := ecdsa.Sign(rand.Reader, key, hash)
	if err != nil {
		return nil, err
	}
	keySize := (key.Curve.Params().BitSize + 7) / 8
	return append(padToSize(r.Bytes(), keySize), padToSize(s.Bytes(), keySize)...), nil
}
