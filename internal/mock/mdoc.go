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

	"github.com/fxamacker/cbor/v2"
	"github.com/zhenwenc/sandbox-viper/internal/format"
	"github.com/zhenwenc/sandbox-viper/internal/keys"
)

// EngagementConfig holds options for generating an mdoc device engagement.
type EngagementConfig struct {
	// Key is the ephemeral device key. A fresh P-256 key is used when nil.
	Key *ecdsa.PublicKey
	// Methods are raw DeviceRetrievalMethod entries, either a bare type
	// integer or [type, version, options]. Defaults to a single BLE entry.
	Methods []any
}

// GenerateEngagement builds an "mdoc:" device engagement QR payload.
func GenerateEngagement(cfg EngagementConfig) (string, error) {
	pub := cfg.Key
	if pub == nil {
		priv, err := GenerateKey()
		if err != nil {
			return "", err
		}
		pub = &priv.PublicKey
	}

	coseKey, err := keys.ToCOSEKey(pub)
	if err != nil {
		return "", err
	}
	keyBytes, err := cbor.Marshal(coseKey)
	if err != nil {
		return "", fmt.Errorf("encoding device key: %w", err)
	}

	methods := cfg.Methods
	if methods == nil {
		methods = []any{
			[]any{2, 1, map[any]any{0: false, 1: true}},
		}
	}

	engagement := map[any]any{
		0: "1.0",
		1: []any{1, cbor.Tag{Number: 24, Content: keyBytes}},
		2: methods,
	}
	b, err := cbor.Marshal(engagement)
	if err != nil {
		return "", fmt.Errorf("encoding device engagement: %w", err)
	}
	return format.PrefixMDoc + format.EncodeBase64URL(b), nil
}
