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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/zhenwenc/sandbox-viper/internal/credential"
	"github.com/zhenwenc/sandbox-viper/internal/decoder"
	"github.com/zhenwenc/sandbox-viper/internal/mock"
	"github.com/zhenwenc/sandbox-viper/internal/schema"
)

func newTestMux(decoders []credential.Decoder) http.Handler {
	if decoders == nil {
		decoders = decoder.BuildDecoders(decoder.Options{})
	}
	return NewMux(decoders, nil, 5*time.Second)
}

func apiGet(t *testing.T, h http.Handler, barcode string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/decode?barcode="+url.QueryEscape(barcode), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func apiPost(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/decode", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// decodeResponse unmarshals the response body into a map.
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON response: %v\nbody: %s", err, w.Body.String())
	}
	return result
}

func TestDecode_GetAndPostAgree(t *testing.T) {
	barcode, err := mock.GenerateHCERT(mock.HCERTConfig{})
	if err != nil {
		t.Fatal(err)
	}
	h := newTestMux(nil)

	get := apiGet(t, h, barcode)
	body, _ := json.Marshal(map[string]string{"barcode": barcode})
	post := apiPost(t, h, string(body))

	for _, w := range []*httptest.ResponseRecorder{get, post} {
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
	}
	if get.Body.String() != post.Body.String() {
		t.Errorf("GET and POST differ:\n%s\n%s", get.Body.String(), post.Body.String())
	}

	result := decodeResponse(t, get)
	meta := result["meta"].(map[string]any)
	if meta["kind"] != "Vaccination" {
		t.Errorf("meta.kind = %v", meta["kind"])
	}
}

func TestDecode_NoMatchReturnsEmptyResult(t *testing.T) {
	w := apiGet(t, newTestMux(nil), "just some text")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	result := decodeResponse(t, w)
	for _, k := range []string{"raw", "data", "meta"} {
		m, ok := result[k].(map[string]any)
		if !ok || len(m) != 0 {
			t.Errorf("%s = %v, want empty object", k, result[k])
		}
	}
}

func TestDecode_BadRequests(t *testing.T) {
	h := newTestMux(nil)
	tests := []struct {
		name string
		w    *httptest.ResponseRecorder
	}{
		{"missing query", apiGet(t, h, "")},
		{"blank query", apiGet(t, h, "   ")},
		{"invalid json", apiPost(t, h, "{")},
		{"missing field", apiPost(t, h, `{"input":"HC1:abc"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", tt.w.Code)
			}
			if decodeResponse(t, tt.w)["error"] == "" {
				t.Error("expected error message")
			}
		})
	}
}

func TestDecode_BodyTooLarge(t *testing.T) {
	body := fmt.Sprintf(`{"barcode":%q}`, strings.Repeat("A", maxRequestBody+1))
	w := apiPost(t, newTestMux(nil), body)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestDecode_MalformedPayload(t *testing.T) {
	w := apiGet(t, newTestMux(nil), "HC1:~~~")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	if msg, _ := decodeResponse(t, w)["error"].(string); !strings.Contains(msg, "hcert") {
		t.Errorf("error = %q", msg)
	}
}

type failingDecoder struct{ err error }

func (failingDecoder) Scheme() string      { return "failing" }
func (failingDecoder) IsMatch(string) bool { return true }
func (f failingDecoder) Decode(context.Context, string) (*credential.Result, error) {
	return nil, f.err
}

func TestDecode_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"schema", &credential.SchemaError{Violations: []string{"/dob: missing", "/v/0/dn: too small"}}, http.StatusUnprocessableEntity},
		{"remote", fmt.Errorf("%w: HTTP 500", credential.ErrRemoteFetch), http.StatusBadGateway},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"remote timeout", fmt.Errorf("%w: %w", credential.ErrRemoteFetch, context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"malformed", errors.New("bad cbor"), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guarded := decoder.Guard(failingDecoder{tt.err}, discardLogger)
			w := apiGet(t, newTestMux([]credential.Decoder{guarded}), "x")
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}

	w := apiGet(t, newTestMux([]credential.Decoder{failingDecoder{errors.New("boom")}}), "x")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("unclassified error status = %d, want 500", w.Code)
	}
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixedDecoder struct{ res *credential.Result }

func (fixedDecoder) Scheme() string      { return "fixed" }
func (fixedDecoder) IsMatch(string) bool { return true }
func (f fixedDecoder) Decode(context.Context, string) (*credential.Result, error) {
	return f.res, nil
}

func TestDecode_UnencodableResult(t *testing.T) {
	res := credential.Empty()
	res.Raw["1"] = math.NaN()

	w := apiGet(t, newTestMux([]credential.Decoder{fixedDecoder{res}}), "x")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if msg, _ := decodeResponse(t, w)["error"].(string); !strings.Contains(msg, "NaN") {
		t.Errorf("error = %q", msg)
	}
}

func TestDecode_SchemaFetchDeadline(t *testing.T) {
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer upstream.Close()
	defer close(release)

	repo := schema.NewRepository(upstream.Client(), upstream.URL+"/{ref}/schema.json", upstream.URL+"/{ref}/{uri}")
	validator := schema.NewValidator(repo, schema.ValidatorOptions{
		Policy:       schema.PolicyStrict,
		FetchTimeout: time.Second,
	})
	decoders := decoder.BuildDecoders(decoder.Options{Validator: validator})
	h := NewMux(decoders, nil, 50*time.Millisecond)

	barcode, err := mock.GenerateHCERT(mock.HCERTConfig{})
	if err != nil {
		t.Fatal(err)
	}
	w := apiGet(t, h, barcode)
	if w.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504 (body %s)", w.Code, w.Body.String())
	}
}

func TestDecode_SchemaViolationsListed(t *testing.T) {
	schemaErr := &credential.SchemaError{Violations: []string{"/dob: missing", "/v/0/dn: too small"}}
	w := apiGet(t, newTestMux([]credential.Decoder{failingDecoder{schemaErr}}), "x")

	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Violations) != 2 {
		t.Errorf("violations = %v", resp.Violations)
	}
}

func TestHealthz(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	newTestMux(nil).ServeHTTP(w, req)
	if w.Code != http.StatusOK || decodeResponse(t, w)["status"] != "ok" {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/decode", nil)
	w := httptest.NewRecorder()
	newTestMux(nil).ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}
