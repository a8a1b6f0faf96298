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

package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedPayload = errors.New("invalid payload")
	ErrSchemaValidation = errors.New("schema validation failed")
	ErrRemoteFetch      = errors.New("remote fetch failed")
)

// DecodeError reports a failed decode by a matched scheme.
type DecodeError struct {
	Scheme string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Scheme, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Malformed tags err as a malformed payload unless it already carries a
// classification. Context cancellation and deadlines count as one.
func Malformed(err error) error {
	switch {
	case errors.Is(err, ErrMalformedPayload), errors.Is(err, ErrSchemaValidation), errors.Is(err, ErrRemoteFetch):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
}

// SchemaError lists every schema violation of a structurally valid payload.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%v: %s", ErrSchemaValidation, strings.Join(e.Violations, "; "))
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchemaValidation }
