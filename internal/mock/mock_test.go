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
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/zhenwenc/sandbox-viper/internal/cwt"
	"github.com/zhenwenc/sandbox-viper/internal/format"
)

func TestGenerateHCERT(t *testing.T) {
	iat := time.Unix(1620000000, 0)
	out, err := GenerateHCERT(HCERTConfig{
		Issuer:    "AT",
		IssuedAt:  iat,
		ExpiresAt: iat.Add(time.Hour),
		KeyID:     []byte("kid-1"),
	})
	if err != nil {
		t.Fatalf("GenerateHCERT: %v", err)
	}

	body, ok := strings.CutPrefix(out, "HC1:")
	if !ok {
		t.Fatalf("missing HC1: prefix in %q", out)
	}
	compressed, err := format.DecodeBase45(body)
	if err != nil {
		t.Fatalf("base45: %v", err)
	}
	if !format.IsZlib(compressed) {
		t.Fatal("expected zlib stream")
	}
	signed, err := format.Inflate(compressed)
	if err != nil {
		t.Fatalf("inflate: %v", err)
	}

	env, err := cwt.OpenSign1(signed)
	if err != nil {
		t.Fatalf("OpenSign1: %v", err)
	}
	if env.Algorithm != "ES256" {
		t.Errorf("alg = %q, want ES256", env.Algorithm)
	}
	if string(env.KeyID) != "kid-1" {
		t.Errorf("kid = %q", env.KeyID)
	}

	claims, err := cwt.DecodeMap(env.Payload)
	if err != nil {
		t.Fatalf("claims: %v", err)
	}
	if iss, _ := claims.String(cwt.ClaimIssuer); iss != "AT" {
		t.Errorf("iss = %q", iss)
	}
	if got, _ := claims.Int64(cwt.ClaimIssuedAt); got != 1620000000 {
		t.Errorf("iat = %d", got)
	}
	if got, _ := claims.Int64(cwt.ClaimExpiration); got != 1620003600 {
		t.Errorf("exp = %d", got)
	}
	container, ok := claims.Map(cwt.ClaimHCERT)
	if !ok {
		t.Fatal("missing -260")
	}
	cert, ok := container.Map(1)
	if !ok {
		t.Fatal("missing -260/1")
	}
	if ver, _ := cert.String("ver"); ver != "1.3.0" {
		t.Errorf("ver = %q", ver)
	}
}

func TestGenerateNZCP(t *testing.T) {
	id := uuid.MustParse("60a4f54d-4e30-4332-be33-ad78b1eafa4b")

	for _, compress := range []bool{false, true} {
		out, err := GenerateNZCP(NZCPConfig{ID: id, Compress: compress})
		if err != nil {
			t.Fatalf("GenerateNZCP: %v", err)
		}
		body, ok := strings.CutPrefix(out, "NZCP:/1/")
		if !ok {
			t.Fatalf("missing prefix in %q", out)
		}
		if strings.Contains(body, "=") {
			t.Error("base32 body should be unpadded")
		}
		raw, err := format.DecodeBase32(body)
		if err != nil {
			t.Fatalf("base32: %v", err)
		}
		if format.IsZlib(raw) != compress {
			t.Errorf("compress=%v but IsZlib=%v", compress, format.IsZlib(raw))
		}
		raw, err = format.Inflate(raw)
		if err != nil {
			t.Fatalf("inflate: %v", err)
		}

		payload, err := cwt.DecodeCoseEnvelope(raw)
		if err != nil {
			t.Fatalf("envelope: %v", err)
		}
		claims, err := cwt.DecodeMap(payload)
		if err != nil {
			t.Fatalf("claims: %v", err)
		}
		cti, _ := claims.Bytes(cwt.ClaimCWTID)
		if got, _ := uuid.FromBytes(cti); got != id {
			t.Errorf("cti = %v, want %v", got, id)
		}
		if _, ok := claims.Map("vc"); !ok {
			t.Error("missing vc claim")
		}
	}
}

func TestGenerateEngagement(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	out, err := GenerateEngagement(EngagementConfig{Key: &key.PublicKey})
	if err != nil {
		t.Fatalf("GenerateEngagement: %v", err)
	}
	body, ok := strings.CutPrefix(out, "mdoc:")
	if !ok {
		t.Fatalf("missing prefix in %q", out)
	}
	b, err := format.DecodeBase64URL(body)
	if err != nil {
		t.Fatalf("base64url: %v", err)
	}
	m, err := cwt.DecodeMap(b)
	if err != nil {
		t.Fatalf("cbor: %v", err)
	}
	if v, _ := m.String(0); v != "1.0" {
		t.Errorf("version = %q", v)
	}
	if _, ok := m.Lookup(1); !ok {
		t.Error("missing security")
	}
}

func TestGenerateJWT(t *testing.T) {
	out, err := GenerateJWT(JWTConfig{
		Issuer:    "https://issuer.example",
		IssuedAt:  time.Unix(1700000000, 0),
		ExpiresIn: time.Hour,
		Claims:    map[string]any{"name": "Erika"},
	})
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	header, payload, sig, err := format.ParseJWTParts(out)
	if err != nil {
		t.Fatalf("ParseJWTParts: %v", err)
	}
	if header["alg"] != "ES256" {
		t.Errorf("alg = %v", header["alg"])
	}
	if len(sig) != 64 {
		t.Errorf("signature length = %d, want 64", len(sig))
	}
	if payload["iat"] != json.Number("1700000000") {
		t.Errorf("iat = %v", payload["iat"])
	}
	if payload["exp"] != json.Number("1700003600") {
		t.Errorf("exp = %v", payload["exp"])
	}
	if payload["name"] != "Erika" {
		t.Errorf("name = %v", payload["name"])
	}
}

func TestPublicKeyJWK(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	jwk := PublicKeyJWK(&key.PublicKey)
	for _, want := range []string{`"kty": "EC"`, `"crv": "P-256"`, `"x"`, `"y"`} {
		if !strings.Contains(jwk, want) {
			t.Errorf("JWK missing %s: %s", want, jwk)
		}
	}
}
