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
	"encoding/base64"
	"encoding/json"
	"testing"
)

func makeJWT(header, payload map[string]any, sig string) string {
	h, _ := json.Marshal(header)
	p, _ := json.Marshal(payload)
	return base64.RawURLEncoding.EncodeToString(h) + "." +
		base64.RawURLEncoding.EncodeToString(p) + "." +
		base64.RawURLEncoding.EncodeToString([]byte(sig))
}

func TestParseJWTParts_Valid(t *testing.T) {
	jwt := makeJWT(
		map[string]any{"alg": "ES256", "typ": "JWT"},
		map[string]any{"sub": "user123", "iat": 1700000000},
		"test-sig",
	)

	header, payload, sig, err := ParseJWTParts(jwt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if header["alg"] != "ES256" {
		t.Errorf("header.alg = %v, want ES256", header["alg"])
	}
	if payload["sub"] != "user123" {
		t.Errorf("payload.sub = %v, want user123", payload["sub"])
	}
	if payload["iat"] != json.Number("1700000000") {
		t.Errorf("payload.iat = %#v, want json.Number(1700000000)", payload["iat"])
	}
	if string(sig) != "test-sig" {
		t.Errorf("sig = %q, want test-sig", sig)
	}
}

func TestParseJWTParts_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"two parts", "part1.part2"},
		{"bad header base64", "not*base64.e30.sig"},
		{"header not object", base64.RawURLEncoding.EncodeToString([]byte("[1]")) + ".e30.sig"},
		{"payload not json", "e30." + base64.RawURLEncoding.EncodeToString([]byte("nope")) + ".sig"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, _, err := ParseJWTParts(tt.input); err == nil {
				t.Errorf("ParseJWTParts(%q) expected error", tt.input)
			}
		})
	}
}

func TestParseJWTHeader(t *testing.T) {
	h, err := ParseJWTHeader("eyJhbGciOiJFUzI1NiJ9.anything")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h["alg"] != "ES256" {
		t.Errorf("alg = %v, want ES256", h["alg"])
	}

	for _, in := range []string{"", ".e30.x", "HC1:NCF", "bnVsbA.x"} {
		if _, err := ParseJWTHeader(in); err == nil {
			t.Errorf("ParseJWTHeader(%q) expected error", in)
		}
	}
}
