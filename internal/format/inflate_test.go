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
	"testing"
)

func TestInflate_PassThrough(t *testing.T) {
	tests := [][]byte{
		{0xd2, 0x84, 0x4d, 0xa2},
		{0x00},
		{0x79, 0x9c},
		{},
	}
	for _, in := range tests {
		got, err := Inflate(in)
		if err != nil {
			t.Fatalf("Inflate(% x) error: %v", in, err)
		}
		if !bytes.Equal(got, in) {
			t.Errorf("Inflate(% x) = % x, want input unchanged", in, got)
		}
	}
}

func TestInflate_ZlibRoundTrip(t *testing.T) {
	plain := bytes.Repeat([]byte("covid pass "), 40)
	compressed, err := Deflate(plain)
	if err != nil {
		t.Fatalf("Deflate: %v", err)
	}
	if !IsZlib(compressed) {
		t.Fatalf("Deflate output starts with 0x%02x, want 0x78", compressed[0])
	}

	got, err := Inflate(compressed)
	if err != nil {
		t.Fatalf("Inflate: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Error("inflated bytes differ from original")
	}
}

func TestInflate_MagicByteAlwaysAttempts(t *testing.T) {
	// 0x78 followed by garbage must be treated as zlib and fail, never
	// passed through.
	_, err := Inflate([]byte{0x78, 0x00, 0x01, 0x02})
	if err == nil {
		t.Fatal("expected inflate error for corrupt zlib stream")
	}
}

func TestIsZlib(t *testing.T) {
	if IsZlib(nil) {
		t.Error("IsZlib(nil) = true")
	}
	if !IsZlib([]byte{0x78, 0xda}) {
		t.Error("IsZlib(78 da) = false")
	}
	if IsZlib([]byte{0xd2}) {
		t.Error("IsZlib(d2) = true")
	}
}
