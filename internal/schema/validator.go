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

package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/zhenwenc/sandbox-viper/internal/credential"
)

// Policy controls how remote fetch failures are handled.
type Policy string

const (
	// PolicyOff disables validation.
	PolicyOff Policy = "off"
	// PolicySoft logs fetch failures and returns the certificate as decoded.
	PolicySoft Policy = "soft"
	// PolicyStrict fails the decode when the schema cannot be fetched.
	PolicyStrict Policy = "strict"
)

// ParsePolicy accepts "off", "soft" or "strict".
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(s)); p {
	case PolicyOff, PolicySoft, PolicyStrict:
		return p, nil
	}
	return "", fmt.Errorf("unknown validation policy %q", s)
}

// maxRefDepth bounds $ref resolution while walking schema nodes.
const maxRefDepth = 32

type compiledSchema struct {
	schema *jsonschema.Schema
	doc    map[string]any
}

// Validator checks certificates against the DCC schema for their version.
type Validator struct {
	repo      *Repository
	policy    Policy
	logger    *slog.Logger
	schemas   *Cache[*compiledSchema]
	valueSets *Cache[ValueSet]
}

// ValidatorOptions configures a Validator.
type ValidatorOptions struct {
	Policy       Policy
	TTL          time.Duration
	FetchTimeout time.Duration
	Logger       *slog.Logger
}

func NewValidator(repo *Repository, opts ValidatorOptions) *Validator {
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 15 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Policy == "" {
		opts.Policy = PolicySoft
	}
	return &Validator{
		repo:      repo,
		policy:    opts.Policy,
		logger:    opts.Logger,
		schemas:   NewCache[*compiledSchema](opts.TTL, opts.FetchTimeout),
		valueSets: NewCache[ValueSet](opts.TTL, opts.FetchTimeout),
	}
}

// Validate checks cert against the schema selected by ver, then replaces
// every value-set coded field with its display value. Violations are
// returned as *credential.SchemaError.
func (v *Validator) Validate(ctx context.Context, ver string, cert map[string]any) (map[string]any, error) {
	if v.policy == PolicyOff {
		return cert, nil
	}
	ref := Ref(ver)

	cs, err := v.schemas.Get(ctx, ref, func(ctx context.Context) (*compiledSchema, error) {
		return v.compile(ctx, ref)
	})
	if err != nil {
		return cert, v.fetchFailed(ctx, ref, err)
	}

	instance, err := toJSON(cert)
	if err != nil {
		return nil, err
	}
	if err := cs.schema.Validate(instance); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return nil, &credential.SchemaError{Violations: violations(verr)}
		}
		return nil, err
	}

	rw := &rewriter{ctx: ctx, v: v, ref: ref, root: cs.doc}
	out := rw.walk(cs.doc, instance, 0)
	if rw.err != nil {
		return cert, v.fetchFailed(ctx, ref, rw.err)
	}
	if m, ok := out.(map[string]any); ok {
		return m, nil
	}
	return cert, nil
}

// fetchFailed applies the policy to a remote failure.
func (v *Validator) fetchFailed(ctx context.Context, ref string, err error) error {
	if !errors.Is(err, credential.ErrRemoteFetch) &&
		(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		err = fmt.Errorf("%w: %w", credential.ErrRemoteFetch, err)
	}
	if v.policy == PolicyStrict || !errors.Is(err, credential.ErrRemoteFetch) {
		return err
	}
	v.logger.LogAttrs(ctx, slog.LevelWarn, "schema validation skipped",
		slog.String("ref", ref),
		slog.String("error", err.Error()),
	)
	return nil
}

func (v *Validator) compile(ctx context.Context, ref string) (*compiledSchema, error) {
	raw, err := v.repo.Schema(ctx, ref)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing schema %s: %w", credential.ErrRemoteFetch, ref, err)
	}

	url := v.repo.SchemaURL(ref)
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%w: loading schema %s: %w", credential.ErrRemoteFetch, ref, err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("%w: compiling schema %s: %w", credential.ErrRemoteFetch, ref, err)
	}

	v.logger.LogAttrs(ctx, slog.LevelDebug, "schema compiled", slog.String("ref", ref))
	return &compiledSchema{schema: s, doc: doc}, nil
}

func (v *Validator) valueSet(ctx context.Context, ref, uri string) (ValueSet, error) {
	return v.valueSets.Get(ctx, ref+" "+uri, func(ctx context.Context) (ValueSet, error) {
		return v.repo.ValueSet(ctx, ref, uri)
	})
}

// toJSON copies cert into its encoding/json form, which is what the
// schema validator understands. Numbers become json.Number.
func toJSON(cert map[string]any) (any, error) {
	b, err := json.Marshal(cert)
	if err != nil {
		return nil, fmt.Errorf("encoding certificate: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("encoding certificate: %w", err)
	}
	return out, nil
}

// violations flattens the error tree into "location: message" leaves.
func violations(err *jsonschema.ValidationError) []string {
	var out []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			out = append(out, loc+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(err)
	sort.Strings(out)
	return out
}

// rewriter walks schema nodes alongside the instance and swaps value-set
// codes for display values. The first fetch error stops further fetches.
type rewriter struct {
	ctx  context.Context
	v    *Validator
	ref  string
	root map[string]any
	err  error
}

func (rw *rewriter) walk(node any, instance any, depth int) any {
	n, ok := node.(map[string]any)
	if !ok || depth > maxRefDepth {
		return instance
	}

	if ref, ok := n["$ref"].(string); ok {
		instance = rw.walk(rw.resolve(ref), instance, depth+1)
	}
	for _, key := range []string{"allOf", "anyOf", "oneOf"} {
		if branches, ok := n[key].([]any); ok {
			for _, b := range branches {
				instance = rw.walk(b, instance, depth+1)
			}
		}
	}

	switch inst := instance.(type) {
	case string:
		if uri, ok := n["valueset-uri"].(string); ok {
			return rw.display(uri, inst)
		}
	case map[string]any:
		if props, ok := n["properties"].(map[string]any); ok {
			for name, sub := range props {
				if val, ok := inst[name]; ok {
					inst[name] = rw.walk(sub, val, depth)
				}
			}
		}
	case []any:
		if items, ok := n["items"]; ok {
			for i := range inst {
				inst[i] = rw.walk(items, inst[i], depth)
			}
		}
	}
	return instance
}

// resolve handles local "#/$defs/name" references only.
func (rw *rewriter) resolve(ref string) any {
	name, ok := strings.CutPrefix(ref, "#/$defs/")
	if !ok {
		return nil
	}
	defs, _ := rw.root["$defs"].(map[string]any)
	return defs[name]
}

func (rw *rewriter) display(uri, code string) any {
	if rw.err != nil {
		return code
	}
	vs, err := rw.v.valueSet(rw.ctx, rw.ref, uri)
	if err != nil {
		rw.err = err
		return code
	}
	if entry, ok := vs.Values[code]; ok && entry.Display != "" {
		return entry.Display
	}
	return code
}
