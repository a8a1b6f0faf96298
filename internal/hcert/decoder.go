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

// Package hcert decodes EU Digital COVID Certificate barcodes.
package hcert

import (
	"context"
	"fmt"

	"github.com/zhenwenc/sandbox-viper/internal/credential"
	"github.com/zhenwenc/sandbox-viper/internal/cwt"
	"github.com/zhenwenc/sandbox-viper/internal/format"
)

const Scheme = "hcert"

// Certificate kinds reported in meta.kind.
const (
	KindVaccination = "Vaccination"
	KindTest        = "Test"
	KindRecovery    = "Recovery"
)

// kinds is checked in order; the first group present wins.
var kinds = []struct {
	key  string
	kind string
}{
	{"v", KindVaccination},
	{"t", KindTest},
	{"r", KindRecovery},
}

// Validator checks a decoded certificate against the DCC schema for its
// declared version and returns the object to expose as data.
type Validator interface {
	Validate(ctx context.Context, ver string, cert map[string]any) (map[string]any, error)
}

// Decoder reads "HC1:" barcodes. Signatures are not verified.
type Decoder struct {
	validator Validator
}

// NewDecoder returns an HCERT decoder. v may be nil to skip validation.
func NewDecoder(v Validator) *Decoder {
	return &Decoder{validator: v}
}

func (d *Decoder) Scheme() string { return Scheme }

func (d *Decoder) IsMatch(input string) bool {
	_, ok := format.CutScheme(input, format.PrefixHCERT, ':')
	return ok
}

// Unwrap strips the prefix and the transport encodings and returns the
// COSE_Sign1 message bytes.
func Unwrap(input string) ([]byte, error) {
	body, ok := format.CutScheme(input, format.PrefixHCERT, ':')
	if !ok {
		return nil, fmt.Errorf("missing %q prefix", format.PrefixHCERT)
	}

	compressed, err := format.DecodeBase45(body)
	if err != nil {
		return nil, err
	}
	return format.Inflate(compressed)
}

func (d *Decoder) Decode(ctx context.Context, input string) (*credential.Result, error) {
	signed, err := Unwrap(input)
	if err != nil {
		return nil, err
	}
	payload, err := cwt.DecodeCoseEnvelope(signed)
	if err != nil {
		return nil, err
	}
	claims, err := cwt.DecodeMap(payload)
	if err != nil {
		return nil, fmt.Errorf("CWT claims: %w", err)
	}

	container, ok := claims.Map(cwt.ClaimHCERT)
	if !ok {
		return nil, fmt.Errorf("missing hcert claim (%d)", cwt.ClaimHCERT)
	}
	cert, ok := container.Map(1)
	if !ok {
		return nil, fmt.Errorf("missing health certificate in claim %d", cwt.ClaimHCERT)
	}
	data := cert.Normalize()

	if d.validator != nil {
		ver, _ := data["ver"].(string)
		data, err = d.validator.Validate(ctx, ver, data)
		if err != nil {
			return nil, err
		}
	}

	res := credential.Empty()
	res.Raw = claims.Normalize()
	res.Data = data
	if iss, ok := claims.String(cwt.ClaimIssuer); ok {
		res.Meta[credential.MetaIssuer] = iss
	}
	if iat, ok := claims.Int64(cwt.ClaimIssuedAt); ok {
		res.Meta[credential.MetaIssuedAt] = cwt.EpochMillis(iat)
	}
	if exp, ok := claims.Int64(cwt.ClaimExpiration); ok {
		res.Meta[credential.MetaExpiresAt] = cwt.EpochMillis(exp)
	}
	if kind := Kind(data); kind != "" {
		res.Meta[credential.MetaKind] = kind
	}
	return res, nil
}

// Kind classifies a certificate by its v/t/r group, or "" when none is
// present.
func Kind(cert map[string]any) string {
	for _, k := range kinds {
		if _, ok := cert[k.key]; ok {
			return k.kind
		}
	}
	return ""
}
