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

package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"

	"github.com/zhenwenc/sandbox-viper/internal/format"
)

// COSE_Key labels (RFC 9052 section 7).
const (
	coseKeyType  int64 = 1
	coseKeyCurve int64 = -1
	coseKeyX     int64 = -2
	coseKeyY     int64 = -3

	coseKeyTypeEC2 = 2
)

// coseCurves only lists the curves device engagement producers use in
// practice. Other identifiers leave crv unset.
var coseCurves = map[int64]string{
	1: "P-256",
	2: "P-384",
}

// CurveName maps a COSE elliptic curve identifier to its JOSE name.
func CurveName(id int64) (string, bool) {
	name, ok := coseCurves[id]
	return name, ok
}

// FromCOSEKey converts a decoded COSE_Key map into a JWK-shaped map
// {alg, crv, x, y} with base64url coordinates. The key type is not
// checked: OKP keys (X25519, X448) come out with x only and no crv.
func FromCOSEKey(m map[any]any) (map[string]any, error) {
	jwk := map[string]any{"alg": "EC"}

	if crv, ok := intLabel(m, coseKeyCurve); ok {
		if name, ok := CurveName(crv); ok {
			jwk["crv"] = name
		}
	}
	for label, name := range map[int64]string{coseKeyX: "x", coseKeyY: "y"} {
		v, ok := m[label]
		if !ok {
			continue
		}
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("COSE key coordinate %s is %T, want bytes", name, v)
		}
		jwk[name] = format.EncodeBase64URL(b)
	}
	return jwk, nil
}

func intLabel(m map[any]any, label int64) (int64, bool) {
	switch v := m[label].(type) {
	case int64:
		return v, true
	case uint64:
		return int64(v), true
	}
	return 0, false
}

// ToCOSEKey encodes an EC public key as a COSE_Key map.
func ToCOSEKey(pub *ecdsa.PublicKey) (map[int64]any, error) {
	var crv int64
	for id, name := range coseCurves {
		if pub.Curve.Params().Name == name {
			crv = id
		}
	}
	if crv == 0 {
		return nil, fmt.Errorf("unsupported curve %s", pub.Curve.Params().Name)
	}

	size := (pub.Curve.Params().BitSize + 7) / 8
	return map[int64]any{
		coseKeyType:  int64(coseKeyTypeEC2),
		coseKeyCurve: crv,
		coseKeyX:     pad(pub.X.Bytes(), size),
		coseKeyY:     pad(pub.Y.Bytes(), size),
	}, nil
}

func pad(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}

// ParseJWK parses an EC JWK (kty or alg "EC") into a public key.
func ParseJWK(data []byte) (*ecdsa.PublicKey, error) {
	var jwk map[string]any
	if err := json.Unmarshal(data, &jwk); err != nil {
		return nil, fmt.Errorf("not a valid JWK: %w", err)
	}
	return ecJWK(jwk)
}

func ecJWK(jwk map[string]any) (*ecdsa.PublicKey, error) {
	kty, _ := jwk["kty"].(string)
	if kty == "" {
		kty, _ = jwk["alg"].(string)
	}
	if kty != "EC" {
		return nil, fmt.Errorf("unsupported JWK key type: %q", kty)
	}

	crv, _ := jwk["crv"].(string)
	xB64, _ := jwk["x"].(string)
	yB64, _ := jwk["y"].(string)

	xBytes, err := format.DecodeBase64URL(xB64)
	if err != nil {
		return nil, fmt.Errorf("decoding x: %w", err)
	}
	yBytes, err := format.DecodeBase64URL(yB64)
	if err != nil {
		return nil, fmt.Errorf("decoding y: %w", err)
	}

	var curve elliptic.Curve
	switch crv {
	case "P-256":
		curve = elliptic.P256()
	case "P-384":
		curve = elliptic.P384()
	default:
		return nil, fmt.Errorf("unsupported curve: %q", crv)
	}

	return &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}, nil
}

// LoadPrivateKey reads an EC private key from a PEM file (SEC 1 or PKCS #8).
func LoadPrivateKey(path string) (*ecdsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%s: no PEM block found", path)
	}

	switch block.Type {
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		ec, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%s: key is %T, want EC", path, key)
		}
		return ec, nil
	default:
		return nil, fmt.Errorf("unsupported PEM block type: %s", block.Type)
	}
}
