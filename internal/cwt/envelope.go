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

package cwt

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"
)

const (
	tagCOSESign1 = 18
	tagCWT       = 61
)

// DecodeCoseEnvelope decodes a COSE_Sign1-shaped structure
// [protected, unprotected, payload, signature], optionally wrapped in CWT
// and COSE tags, and returns the embedded payload bytes at index 2.
func DecodeCoseEnvelope(data []byte) ([]byte, error) {
	v, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("COSE envelope: %w", err)
	}

	for {
		tag, ok := v.(cbor.Tag)
		if !ok {
			break
		}
		v = tag.Content
	}

	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("COSE envelope: expected array, got %T", v)
	}
	if len(arr) < 3 {
		return nil, fmt.Errorf("COSE envelope: expected at least 3 elements, got %d", len(arr))
	}

	switch payload := arr[2].(type) {
	case []byte:
		return payload, nil
	case nil:
		return nil, fmt.Errorf("COSE envelope: detached payload")
	default:
		return nil, fmt.Errorf("COSE envelope: payload is %T, want byte string", payload)
	}
}

// Envelope is the header view of a COSE_Sign1 message. The signature is
// carried but never verified.
type Envelope struct {
	Algorithm string
	KeyID     []byte
	Payload   []byte
	Signature []byte
}

// OpenSign1 parses a COSE_Sign1 message with go-cose and exposes its
// headers. Tagged (18), CWT-tagged (61) and untagged messages are accepted.
func OpenSign1(data []byte) (*Envelope, error) {
	data = stripCWTTag(data)

	var headers cose.Headers
	env := &Envelope{}
	if len(data) > 0 && data[0] == 0xc0|tagCOSESign1 {
		var msg cose.Sign1Message
		if err := msg.UnmarshalCBOR(data); err != nil {
			return nil, fmt.Errorf("parsing COSE_Sign1: %w", err)
		}
		headers, env.Payload, env.Signature = msg.Headers, msg.Payload, msg.Signature
	} else {
		var msg cose.UntaggedSign1Message
		if err := msg.UnmarshalCBOR(data); err != nil {
			return nil, fmt.Errorf("parsing untagged COSE_Sign1: %w", err)
		}
		headers, env.Payload, env.Signature = msg.Headers, msg.Payload, msg.Signature
	}

	if alg, err := headers.Protected.Algorithm(); err == nil {
		env.Algorithm = alg.String()
	}
	env.KeyID = keyID(headers)
	return env, nil
}

func stripCWTTag(data []byte) []byte {
	var raw cbor.RawTag
	if err := decMode.Unmarshal(data, &raw); err != nil || raw.Number != tagCWT {
		return data
	}
	return raw.Content
}

// keyID prefers the protected kid, as the EU DCC rules require, and falls
// back to the unprotected bucket.
func keyID(h cose.Headers) []byte {
	for _, bucket := range []map[any]any{h.Protected, h.Unprotected} {
		if kid, ok := bucket[cose.HeaderLabelKeyID].([]byte); ok {
			return kid
		}
	}
	return nil
}
