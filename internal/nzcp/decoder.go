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

// Package nzcp decodes NZ COVID Pass barcodes.
package nzcp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/zhenwenc/sandbox-viper/internal/credential"
	"github.com/zhenwenc/sandbox-viper/internal/cwt"
	"github.com/zhenwenc/sandbox-viper/internal/format"
)

const Scheme = "nzcp"

// Decoder reads "NZCP:/1/" barcodes. Signatures are not verified.
type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

func (d *Decoder) Scheme() string { return Scheme }

func (d *Decoder) IsMatch(input string) bool {
	_, ok := format.CutScheme(input, format.PrefixNZCP, 0)
	return ok
}

// Unwrap strips the prefix and the transport encodings and returns the
// COSE_Sign1 message bytes.
func Unwrap(input string) ([]byte, error) {
	body, ok := format.CutScheme(input, format.PrefixNZCP, 0)
	if !ok {
		return nil, fmt.Errorf("missing %q prefix", format.PrefixNZCP)
	}

	raw, err := format.DecodeBase32(body)
	if err != nil {
		return nil, fmt.Errorf("base32: %w", err)
	}
	return format.Inflate(raw)
}

func (d *Decoder) Decode(_ context.Context, input string) (*credential.Result, error) {
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

	// Early passes put credentialSubject at the top level instead of
	// inside vc.
	data, ok := claims.Map("vc")
	if !ok {
		data, ok = claims.Map("credentialSubject")
	}
	if !ok {
		return nil, fmt.Errorf("missing vc claim")
	}

	res := credential.Empty()
	res.Raw = claims.Normalize()
	res.Data = data.Normalize()
	if iss, ok := claims.String(cwt.ClaimIssuer); ok {
		res.Meta[credential.MetaIssuer] = iss
	}
	if nbf, ok := claims.Int64(cwt.ClaimNotBefore); ok {
		res.Meta[credential.MetaIssuedAt] = cwt.EpochMillis(nbf)
	}
	if exp, ok := claims.Int64(cwt.ClaimExpiration); ok {
		res.Meta[credential.MetaExpiresAt] = cwt.EpochMillis(exp)
	}
	if cti, ok := claims.Bytes(cwt.ClaimCWTID); ok {
		id, err := uuid.FromBytes(cti)
		if err != nil {
			return nil, fmt.Errorf("cti: %w", err)
		}
		res.Meta[credential.MetaCWTID] = id.String()
		res.Meta[credential.MetaJWTID] = id.URN()
	}
	return res, nil
}
