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

// Package jwt decodes compact JWTs as a fallback barcode scheme.
package jwt

import (
	"context"

	"github.com/zhenwenc/sandbox-viper/internal/credential"
	"github.com/zhenwenc/sandbox-viper/internal/format"
)

const Scheme = "jwt"

// metaClaims are copied into meta unchanged. Unlike the CWT schemes, iat
// and exp stay in seconds.
var metaClaims = []string{
	credential.MetaIssuer,
	credential.MetaSubject,
	credential.MetaAudience,
	credential.MetaJWTID,
	credential.MetaNotBefore,
	credential.MetaExpiresAt,
	credential.MetaIssuedAt,
}

// Decoder reads compact JWTs without verifying the signature.
type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

func (d *Decoder) Scheme() string { return Scheme }

func (d *Decoder) IsMatch(input string) bool {
	return format.LooksLikeJWT(input)
}

func (d *Decoder) Decode(_ context.Context, input string) (*credential.Result, error) {
	header, payload, _, err := format.ParseJWTParts(input)
	if err != nil {
		return nil, err
	}

	res := credential.Empty()
	res.Raw = map[string]any{
		"header":  header,
		"payload": payload,
	}
	res.Data = payload
	for _, name := range metaClaims {
		if v, ok := payload[name]; ok {
			res.Meta[name] = v
		}
	}
	return res, nil
}
