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

// Package cwt navigates the CBOR and COSE structures shared by the CWT
// based barcode schemes.
package cwt

import (
	"fmt"
	"math"
	"strconv"

	"github.com/fxamacker/cbor/v2"
)

var decMode cbor.DecMode

func init() {
	var err error
	decMode, err = cbor.DecOptions{
		IntDec: cbor.IntDecConvertSigned,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Well-known CWT claim keys (RFC 8392) and the HCERT container claim.
const (
	ClaimIssuer     int64 = 1
	ClaimSubject    int64 = 2
	ClaimAudience   int64 = 3
	ClaimExpiration int64 = 4
	ClaimNotBefore  int64 = 5
	ClaimIssuedAt   int64 = 6
	ClaimCWTID      int64 = 7
	ClaimHCERT      int64 = -260
)

// Claims is a decoded CBOR map. Integer keys are always int64.
type Claims map[any]any

// Decode decodes a single CBOR data item into a generic Go value.
func Decode(data []byte) (any, error) {
	var v any
	if err := decMode.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decoding CBOR: %w", err)
	}
	return v, nil
}

// DecodeMap decodes a CBOR map.
func DecodeMap(data []byte) (Claims, error) {
	v, err := Decode(data)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[any]any)
	if !ok {
		return nil, fmt.Errorf("expected CBOR map, got %T", v)
	}
	return Claims(m), nil
}

// Lookup returns the value under key. Go int keys are matched against the
// int64 keys produced by the decoder.
func (c Claims) Lookup(key any) (any, bool) {
	if k, ok := key.(int); ok {
		key = int64(k)
	}
	v, ok := c[key]
	return v, ok
}

// Int64 returns an integer claim. Integral floats are accepted since
// some issuers encode timestamps as floats.
func (c Claims) Int64(key any) (int64, bool) {
	v, ok := c.Lookup(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		return integralFloat(n)
	case float32:
		return integralFloat(float64(n))
	}
	return 0, false
}

func integralFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

func (c Claims) String(key any) (string, bool) {
	v, ok := c.Lookup(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (c Claims) Bytes(key any) ([]byte, bool) {
	v, ok := c.Lookup(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

func (c Claims) Map(key any) (Claims, bool) {
	v, ok := c.Lookup(key)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[any]any)
	return Claims(m), ok
}

// Normalize renders the claims as a JSON-friendly map.
func (c Claims) Normalize() map[string]any {
	return normalizeMap(c)
}

// EpochMillis converts a CWT NumericDate (seconds) to milliseconds.
// It is the single place where the unit changes.
func EpochMillis(seconds int64) int64 {
	return seconds * 1000
}

// Normalize converts a decoded CBOR value into something encoding/json can
// render: map keys become strings, tag 24 content is decoded and other
// tags are replaced by their content.
func Normalize(v any) any {
	switch val := v.(type) {
	case map[any]any:
		return normalizeMap(val)
	case Claims:
		return normalizeMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Normalize(item)
		}
		return out
	case cbor.Tag:
		if val.Number == 24 {
			if b, ok := val.Content.([]byte); ok {
				if decoded, err := Decode(b); err == nil {
					return Normalize(decoded)
				}
			}
		}
		return Normalize(val.Content)
	default:
		return v
	}
}

func normalizeMap(m map[any]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[keyString(k)] = Normalize(v)
	}
	return out
}

func keyString(k any) string {
	switch key := k.(type) {
	case string:
		return key
	case int64:
		return strconv.FormatInt(key, 10)
	default:
		return fmt.Sprintf("%v", k)
	}
}
