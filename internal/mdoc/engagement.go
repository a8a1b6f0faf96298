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
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/zhenwenc/sandbox-viper/internal/cwt"
	"github.com/zhenwenc/sandbox-viper/internal/keys"
)

// ParseEngagement decodes CBOR DeviceEngagement bytes.
func ParseEngagement(data []byte) (*Engagement, cwt.Claims, error) {
	m, err := cwt.DecodeMap(data)
	if err != nil {
		return nil, nil, fmt.Errorf("device engagement: %w", err)
	}

	eng := &Engagement{}
	if v, ok := m.String(keyVersion); ok {
		eng.Version = v
	}

	sec, ok := m.Lookup(keySecurity)
	if !ok {
		return nil, nil, fmt.Errorf("device engagement: missing security (key 1)")
	}
	if err := parseSecurity(eng, sec); err != nil {
		return nil, nil, err
	}

	if rm, ok := m.Lookup(keyRetrievalMethods); ok {
		methods, err := parseRetrievalMethods(rm)
		if err != nil {
			return nil, nil, err
		}
		eng.RetrievalMethods = methods
	}

	return eng, m, nil
}

// parseSecurity reads Security = [cipherSuite, EDeviceKeyBytes].
func parseSecurity(eng *Engagement, v any) error {
	arr, ok := v.([]any)
	if !ok || len(arr) < 2 {
		return fmt.Errorf("security: expected [cipherSuite, deviceKeyBytes], got %T", v)
	}

	suite, ok := arr[0].(int64)
	if !ok {
		return fmt.Errorf("security: cipher suite is %T, want integer", arr[0])
	}
	eng.CipherSuite = suite

	keyBytes, err := unwrapTag24(arr[1])
	if err != nil {
		return fmt.Errorf("security: %w", err)
	}
	coseKey, err := cwt.DecodeMap(keyBytes)
	if err != nil {
		return fmt.Errorf("security: device key: %w", err)
	}
	jwk, err := keys.FromCOSEKey(coseKey)
	if err != nil {
		return fmt.Errorf("security: device key: %w", err)
	}
	eng.DeviceKey = jwk
	return nil
}

// unwrapTag24 returns the embedded CBOR bytes of #6.24(bstr), or the value
// itself when it is a plain byte string.
func unwrapTag24(v any) ([]byte, error) {
	switch val := v.(type) {
	case []byte:
		return val, nil
	case cbor.Tag:
		if val.Number != 24 {
			return nil, fmt.Errorf("unexpected tag %d", val.Number)
		}
		b, ok := val.Content.([]byte)
		if !ok {
			return nil, fmt.Errorf("tag 24 content is not bstr")
		}
		return b, nil
	default:
		return nil, fmt.Errorf("device key bytes are %T, want bstr", v)
	}
}

func parseRetrievalMethods(v any) ([]RetrievalMethod, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("retrieval methods: expected array, got %T", v)
	}

	methods := make([]RetrievalMethod, 0, len(arr))
	for i, entry := range arr {
		var m RetrievalMethod
		switch e := entry.(type) {
		case int64:
			m.Type = e
		case []any:
			if len(e) == 0 {
				return nil, fmt.Errorf("retrieval method %d: empty entry", i)
			}
			t, ok := e[0].(int64)
			if !ok {
				return nil, fmt.Errorf("retrieval method %d: type is %T", i, e[0])
			}
			m.Type = t
			if len(e) > 1 {
				m.Version, _ = e[1].(int64)
			}
			if len(e) > 2 {
				if opts, ok := cwt.Normalize(e[2]).(map[string]any); ok {
					m.Options = opts
				}
			}
		default:
			return nil, fmt.Errorf("retrieval method %d: unexpected %T", i, entry)
		}
		methods = append(methods, m)
	}
	return methods, nil
}
