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

// Package decoder holds the ordered scheme registry and the dispatcher
// that routes a barcode to the first matching scheme.
package decoder

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/zhenwenc/sandbox-viper/internal/credential"
	"github.com/zhenwenc/sandbox-viper/internal/hcert"
	"github.com/zhenwenc/sandbox-viper/internal/jwt"
	"github.com/zhenwenc/sandbox-viper/internal/mdoc"
	"github.com/zhenwenc/sandbox-viper/internal/nzcp"
)

// Order is the dispatch priority. Prefix-matched schemes come first; JWT
// matches on content shape and must stay last.
var Order = []string{
	mdoc.Scheme,
	hcert.Scheme,
	nzcp.Scheme,
	jwt.Scheme,
}

// Options configures the built decoders.
type Options struct {
	Logger *slog.Logger
	// Validator enables HCERT schema validation when non-nil.
	Validator hcert.Validator
}

// BuildDecoders returns one guarded decoder per entry in Order.
func BuildDecoders(opts Options) []credential.Decoder {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	decoders := make([]credential.Decoder, 0, len(Order))
	for _, scheme := range Order {
		var d credential.Decoder
		switch scheme {
		case mdoc.Scheme:
			d = mdoc.NewDecoder()
		case hcert.Scheme:
			d = hcert.NewDecoder(opts.Validator)
		case nzcp.Scheme:
			d = nzcp.NewDecoder()
		case jwt.Scheme:
			d = jwt.NewDecoder()
		}
		decoders = append(decoders, Guard(d, logger))
	}
	return decoders
}

// Decode hands barcode to the first decoder whose IsMatch accepts it.
// A failing decoder does not fall through to later ones. When nothing
// matches, an empty result and a nil error are returned.
func Decode(ctx context.Context, decoders []credential.Decoder, barcode string) (*credential.Result, error) {
	barcode = strings.TrimSpace(barcode)
	d, ok := Find(decoders, barcode)
	if !ok {
		return credential.Empty(), nil
	}
	return d.Decode(ctx, barcode)
}

// Find returns the first decoder that accepts barcode.
func Find(decoders []credential.Decoder, barcode string) (credential.Decoder, bool) {
	barcode = strings.TrimSpace(barcode)
	for _, d := range decoders {
		if d.IsMatch(barcode) {
			return d, true
		}
	}
	return nil, false
}

type guard struct {
	next   credential.Decoder
	logger *slog.Logger
}

// Guard wraps d so that failures are logged and returned as
// *credential.DecodeError. Unclassified errors are tagged
// credential.ErrMalformedPayload.
func Guard(d credential.Decoder, logger *slog.Logger) credential.Decoder {
	return &guard{next: d, logger: logger.With("scheme", d.Scheme())}
}

func (g *guard) Scheme() string { return g.next.Scheme() }

func (g *guard) IsMatch(input string) bool { return g.next.IsMatch(input) }

func (g *guard) Decode(ctx context.Context, input string) (*credential.Result, error) {
	res, err := g.next.Decode(ctx, input)
	if err != nil {
		err = credential.Malformed(err)
		// the payload may carry personal data; log its size only
		g.logger.LogAttrs(ctx, slog.LevelWarn, "decode failed",
			slog.Int("inputLength", len(input)),
			slog.String("error", err.Error()),
		)
		return nil, &credential.DecodeError{Scheme: g.next.Scheme(), Err: err}
	}
	if res == nil {
		res = credential.Empty()
	}
	g.logger.LogAttrs(ctx, slog.LevelDebug, "decoded", slog.Int("inputLength", len(input)))
	return res, nil
}
