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

package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zhenwenc/sandbox-viper/internal/credential"
	"github.com/zhenwenc/sandbox-viper/internal/cwt"
	"github.com/zhenwenc/sandbox-viper/internal/decoder"
	"github.com/zhenwenc/sandbox-viper/internal/format"
	"github.com/zhenwenc/sandbox-viper/internal/hcert"
	"github.com/zhenwenc/sandbox-viper/internal/nzcp"
	"github.com/zhenwenc/sandbox-viper/internal/output"
	"github.com/zhenwenc/sandbox-viper/internal/qr"
)

var (
	decodeQR     string
	decodeScreen bool
)

var decodeCmd = &cobra.Command{
	Use:   "decode [input]",
	Short: "Auto-detect and decode a credential barcode",
	Long:  "Decodes a barcode payload, auto-detecting the scheme (mdoc:, HC1:, NZCP:/1/ or a compact JWT). Input can be a raw payload, a file path, a URL, piped via stdin, or a QR code image.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDecode,
}

func init() {
	decodeCmd.Flags().StringVar(&decodeQR, "qr", "", "Read the barcode from a QR code image (PNG or JPEG)")
	decodeCmd.Flags().BoolVar(&decodeScreen, "screen", false, "Select a screen region holding a QR code (macOS)")
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	raw, err := readBarcode(cmd.Context(), args)
	if err != nil {
		return err
	}

	decoders, err := buildDecoders()
	if err != nil {
		return err
	}

	scheme, res, err := dispatch(cmd.Context(), decoders, raw)
	if err != nil {
		return err
	}

	opts := output.Options{JSON: jsonOutput, Verbose: verbose}
	output.PrintResult(scheme, res, opts)

	if verbose && !jsonOutput {
		printEnvelope(scheme, raw)
	}
	return nil
}

// dispatch decodes raw with the first matching decoder and reports its
// scheme, or "" with an empty result when nothing matches.
func dispatch(ctx context.Context, decoders []credential.Decoder, raw string) (string, *credential.Result, error) {
	raw = strings.TrimSpace(raw)
	d, ok := decoder.Find(decoders, raw)
	if !ok {
		return "", credential.Empty(), nil
	}
	res, err := d.Decode(ctx, raw)
	return d.Scheme(), res, err
}

func readBarcode(ctx context.Context, args []string) (string, error) {
	switch {
	case decodeQR != "":
		return qr.ScanFile(decodeQR)
	case decodeScreen:
		return qr.ScanScreen(ctx)
	}

	input := ""
	if len(args) > 0 {
		input = args[0]
	}
	return format.ReadInput(input)
}

// printEnvelope shows the COSE headers of the CWT based schemes.
func printEnvelope(scheme, raw string) {
	var unwrap func(string) ([]byte, error)
	switch scheme {
	case hcert.Scheme:
		unwrap = hcert.Unwrap
	case nzcp.Scheme:
		unwrap = nzcp.Unwrap
	default:
		return
	}

	signed, err := unwrap(raw)
	if err != nil {
		return
	}
	env, err := cwt.OpenSign1(signed)
	if err != nil {
		logger.Debug("COSE_Sign1 headers unavailable", "scheme", scheme, "error", err)
		return
	}
	output.PrintEnvelope(env)
}
