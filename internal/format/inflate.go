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
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// zlibMagic is the CMF byte of a zlib stream with a 32K window and DEFLATE,
// which is what every HCERT/NZCP producer emits.
const zlibMagic = 0x78

// MaxInflatedSize caps decompressed output.
const MaxInflatedSize = 1 << 20

// IsZlib reports whether b starts with the zlib magic byte. A non-zlib
// buffer that happens to start with 0x78 is misclassified; inflate then
// fails and the caller reports a malformed payload.
func IsZlib(b []byte) bool {
	return len(b) > 0 && b[0] == zlibMagic
}

// Inflate decompresses b when it carries the zlib magic byte and returns
// it unchanged otherwise.
func Inflate(b []byte) ([]byte, error) {
	if !IsZlib(b) {
		return b, nil
	}

	r, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("opening zlib stream: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(io.LimitReader(r, MaxInflatedSize+1))
	if err != nil {
		return nil, fmt.Errorf("inflating: %w", err)
	}
	if len(out) > MaxInflatedSize {
		return nil, fmt.Errorf("inflated payload exceeds %d bytes", MaxInflatedSize)
	}
	return out, nil
}

// Deflate compresses b into a zlib stream.
func Deflate(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(b); err != nil {
		return nil, fmt.Errorf("deflating: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing zlib stream: %w", err)
	}
	return buf.Bytes(), nil
}
