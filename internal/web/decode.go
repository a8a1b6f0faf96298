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

package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/zhenwenc/sandbox-viper/internal/credential"
	"github.com/zhenwenc/sandbox-viper/internal/decoder"
)

func (s *server) decode(w http.ResponseWriter, r *http.Request, barcode string) {
	if strings.TrimSpace(barcode) == "" {
		writeError(w, http.StatusBadRequest, "barcode is required", nil)
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res, err := decoder.Decode(ctx, s.decoders, barcode)
	if err != nil {
		var schemaErr *credential.SchemaError
		var violations []string
		if errors.As(err, &schemaErr) {
			violations = schemaErr.Violations
		}
		writeError(w, statusFor(err), err.Error(), violations)
		return
	}

	writeJSON(w, res)
}
