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

// Package schema validates decoded EU DCC certificates against the
// published JSON schema and resolves value-set codes to display values.
package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/zhenwenc/sandbox-viper/internal/credential"
)

// Default locations in the ehn-dcc-schema repository. {ref} is a git ref,
// {uri} the valueset-uri annotation of a schema node.
const (
	DefaultSchemaURL   = "https://raw.githubusercontent.com/ehn-dcc-development/ehn-dcc-schema/{ref}/DCC.combined-schema.json"
	DefaultValueSetURL = "https://raw.githubusercontent.com/ehn-dcc-development/ehn-dcc-schema/{ref}/{uri}"
)

const maxDocumentSize = 4 << 20

// Ref maps a certificate "ver" to the schema repository ref.
func Ref(ver string) string {
	if ver == "" {
		return "main"
	}
	return "release/" + ver
}

// ValueSet is one ehn-dcc value-set document.
type ValueSet struct {
	ID     string                   `json:"valueSetId"`
	Date   string                   `json:"valueSetDate"`
	Values map[string]ValueSetEntry `json:"valueSetValues"`
}

type ValueSetEntry struct {
	Display string `json:"display"`
	Lang    string `json:"lang"`
	Active  bool   `json:"active"`
	Version string `json:"version"`
	System  string `json:"system"`
}

// Repository fetches schema and value-set documents over HTTP.
type Repository struct {
	client      *http.Client
	schemaURL   string
	valueSetURL string
}

// NewRepository returns a repository using the given URL templates. Empty
// templates fall back to the defaults.
func NewRepository(client *http.Client, schemaURL, valueSetURL string) *Repository {
	if client == nil {
		client = http.DefaultClient
	}
	if schemaURL == "" {
		schemaURL = DefaultSchemaURL
	}
	if valueSetURL == "" {
		valueSetURL = DefaultValueSetURL
	}
	return &Repository{client: client, schemaURL: schemaURL, valueSetURL: valueSetURL}
}

// SchemaURL returns the schema location for ref.
func (r *Repository) SchemaURL(ref string) string {
	return strings.NewReplacer("{ref}", ref).Replace(r.schemaURL)
}

// Schema fetches the raw combined schema for ref.
func (r *Repository) Schema(ctx context.Context, ref string) ([]byte, error) {
	return r.fetch(ctx, r.SchemaURL(ref))
}

// ValueSet fetches the value set referenced by uri at ref.
func (r *Repository) ValueSet(ctx context.Context, ref, uri string) (ValueSet, error) {
	url := strings.NewReplacer("{ref}", ref, "{uri}", strings.TrimPrefix(uri, "/")).Replace(r.valueSetURL)
	b, err := r.fetch(ctx, url)
	if err != nil {
		return ValueSet{}, err
	}
	var vs ValueSet
	if err := json.Unmarshal(b, &vs); err != nil {
		return ValueSet{}, fmt.Errorf("%w: parsing value set %s: %w", credential.ErrRemoteFetch, uri, err)
	}
	return vs, nil
}

func (r *Repository) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", credential.ErrRemoteFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %w", credential.ErrRemoteFetch, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetching %s: HTTP %d", credential.ErrRemoteFetch, url, resp.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", credential.ErrRemoteFetch, url, err)
	}
	return b, nil
}
