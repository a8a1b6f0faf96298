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

package hcert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zhenwenc/sandbox-viper/internal/format"
	"github.com/zhenwenc/sandbox-viper/internal/mock"
)

func generate(t *testing.T, cert map[string]any) string {
	t.Helper()
	iat := time.Unix(1620000000, 0)
	out, err := mock.GenerateHCERT(mock.HCERTConfig{
		Issuer:    "DE",
		IssuedAt:  iat,
		ExpiresAt: iat.Add(24 * time.Hour),
		Cert:      cert,
	})
	if err != nil {
		t.Fatalf("GenerateHCERT: %v", err)
	}
	return out
}

func TestIsMatch(t *testing.T) {
	d := NewDecoder(nil)
	tests := []struct {
		input string
		want  bool
	}{
		{"HC1:NCFOXN", true},
		{"HC1NCFOXN", true},
		{"hc1:NCFOXN", false},
		{"NZCP:/1/2KCE", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := d.IsMatch(tt.input); got != tt.want {
			t.Errorf("IsMatch(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestDecode(t *testing.T) {
	res, err := NewDecoder(nil).Decode(context.Background(), generate(t, mock.VaccinationCert()))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if res.Meta["iss"] != "DE" {
		t.Errorf("iss = %v", res.Meta["iss"])
	}
	if res.Meta["iat"] != int64(1620000000000) {
		t.Errorf("iat = %v, want milliseconds", res.Meta["iat"])
	}
	if res.Meta["exp"] != int64(1620086400000) {
		t.Errorf("exp = %v, want milliseconds", res.Meta["exp"])
	}
	if res.Meta["kind"] != KindVaccination {
		t.Errorf("kind = %v", res.Meta["kind"])
	}
	if res.Data["ver"] != "1.3.0" {
		t.Errorf("data.ver = %v", res.Data["ver"])
	}
	nam, ok := res.Data["nam"].(map[string]any)
	if !ok || nam["fn"] != "Mustermann" {
		t.Errorf("data.nam = %v", res.Data["nam"])
	}
	if _, ok := res.Raw["-260"]; !ok {
		t.Errorf("raw missing -260: %v", res.Raw)
	}
}

func TestDecodeWithoutPrefixColon(t *testing.T) {
	input := generate(t, mock.TestCert())
	res, err := NewDecoder(nil).Decode(context.Background(), "HC1"+input[len("HC1:"):])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if res.Meta["kind"] != KindTest {
		t.Errorf("kind = %v", res.Meta["kind"])
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		cert map[string]any
		want string
	}{
		{"vaccination", map[string]any{"v": []any{}}, KindVaccination},
		{"test", map[string]any{"t": []any{}}, KindTest},
		{"recovery", map[string]any{"r": []any{}}, KindRecovery},
		{"v wins over t", map[string]any{"t": []any{}, "v": []any{}}, KindVaccination},
		{"t wins over r", map[string]any{"r": []any{}, "t": []any{}}, KindTest},
		{"none", map[string]any{"ver": "1.3.0"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Kind(tt.cert); got != tt.want {
				t.Errorf("Kind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeKindAbsent(t *testing.T) {
	res, err := NewDecoder(nil).Decode(context.Background(), generate(t, map[string]any{"ver": "1.3.0"}))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, ok := res.Meta["kind"]; ok {
		t.Errorf("kind should be absent, got %v", res.Meta["kind"])
	}
}

func TestDecodeErrors(t *testing.T) {
	d := NewDecoder(nil)
	tests := []struct {
		name  string
		input string
	}{
		{"invalid base45", "HC1:!!!"},
		{"empty body", "HC1:"},
		{"not cose", "HC1:" + format.EncodeBase45([]byte{0x01, 0x02})},
		{"corrupt zlib", "HC1:" + format.EncodeBase45([]byte{0x78, 0x00, 0x01})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := d.Decode(context.Background(), tt.input); err == nil {
				t.Error("expected error")
			}
		})
	}
}

type stubValidator struct {
	gotVer string
	out    map[string]any
	err    error
}

func (s *stubValidator) Validate(_ context.Context, ver string, cert map[string]any) (map[string]any, error) {
	s.gotVer = ver
	if s.err != nil {
		return nil, s.err
	}
	if s.out != nil {
		return s.out, nil
	}
	return cert, nil
}

func TestDecodeValidator(t *testing.T) {
	input := generate(t, mock.RecoveryCert())

	t.Run("passes version and uses result", func(t *testing.T) {
		v := &stubValidator{out: map[string]any{"ver": "1.3.0", "r": []any{"rewritten"}}}
		res, err := NewDecoder(v).Decode(context.Background(), input)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if v.gotVer != "1.3.0" {
			t.Errorf("validator got ver %q", v.gotVer)
		}
		if r, _ := res.Data["r"].([]any); len(r) != 1 || r[0] != "rewritten" {
			t.Errorf("data.r = %v", res.Data["r"])
		}
		if res.Meta["kind"] != KindRecovery {
			t.Errorf("kind = %v", res.Meta["kind"])
		}
	})

	t.Run("returns validator error", func(t *testing.T) {
		sentinel := errors.New("boom")
		_, err := NewDecoder(&stubValidator{err: sentinel}).Decode(context.Background(), input)
		if !errors.Is(err, sentinel) {
			t.Errorf("err = %v, want %v", err, sentinel)
		}
	})
}
