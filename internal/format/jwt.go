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
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJWTParts splits a compact JWT into its three parts (header, payload, signature)
// and decodes the header and payload as JSON maps. Numbers are kept as
// json.Number so claim values survive unchanged.
func ParseJWTParts(raw string) (header, payload map[string]any, sig []byte, err error) {
	parts := strings.SplitN(raw, ".", 3)
	if len(parts) != 3 {
		return nil, nil, nil, fmt.Errorf("expected 3 parts separated by '.', got %d", len(parts))
	}

	header, err = decodeJSONSegment(parts[0])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("header: %w", err)
	}

	payload, err = decodeJSONSegment(parts[1])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("payload: %w", err)
	}

	sig, _ = DecodeBase64URL(parts[2])

	return header, payload, sig, nil
}

// ParseJWTHeader decodes only the protected header of a compact JWT.
func ParseJWTHeader(raw string) (map[string]any, error) {
	seg, _, _ := strings.Cut(raw, ".")
	return decodeJSONSegment(seg)
}

func decodeJSONSegment(seg string) (map[string]any, error) {
	if seg == "" {
		return nil, fmt.Errorf("empty segment")
	}
	b, err := DecodeBase64URL(seg)
	if err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("unmarshaling: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("not a JSON object")
	}
	return m, nil
}
