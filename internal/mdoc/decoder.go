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

package mdoc

import (
	"context"
	"fmt"

	"github.com/zhenwenc/sandbox-viper/internal/credential"
	"github.com/zhenwenc/sandbox-viper/internal/format"
)

// Decoder reads ISO 18013-5 device engagement QR codes ("mdoc:" +
// base64url CBOR). Engagement carries no subject claims, so Data is empty.
type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

func (d *Decoder) Scheme() string { return Scheme }

func (d *Decoder) IsMatch(input string) bool {
	_, ok := format.CutScheme(input, format.PrefixMDoc, ':')
	return ok
}

func (d *Decoder) Decode(_ context.Context, input string) (*credential.Result, error) {
	payload, ok := format.CutScheme(input, format.PrefixMDoc, ':')
	if !ok {
		return nil, fmt.Errorf("missing %q prefix", format.PrefixMDoc)
	}

	data, err := format.DecodeBase64URL(payload)
	if err != nil {
		return nil, fmt.Errorf("base64url: %w", err)
	}

	eng, raw, err := ParseEngagement(data)
	if err != nil {
		return nil, err
	}

	methods := make([]any, len(eng.RetrievalMethods))
	for i, m := range eng.RetrievalMethods {
		methods[i] = m.toMeta()
	}

	res := credential.Empty()
	res.Raw = raw.Normalize()
	res.Meta[credential.MetaSecurity] = map[string]any{
		"cipherSuite": eng.CipherSuite,
		"deviceKey":   eng.DeviceKey,
	}
	res.Meta[credential.MetaRetrievalMethods] = methods
	return res, nil
}
