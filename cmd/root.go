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
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/zhenwenc/sandbox-viper/internal/config"
	"github.com/zhenwenc/sandbox-viper/internal/credential"
	"github.com/zhenwenc/sandbox-viper/internal/decoder"
	"github.com/zhenwenc/sandbox-viper/internal/output"
	"github.com/zhenwenc/sandbox-viper/internal/schema"
)

var (
	jsonOutput bool
	noColor    bool
	verbose    bool
	configPath string
	logLevel   string

	cfg    = config.Default()
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

var rootCmd = &cobra.Command{
	Use:   "sandbox-viper",
	Short: "Decode credential barcodes (mDoc engagement, EU DCC, NZ COVID Pass, JWT)",
	Long:  "Decodes the payload of credential barcodes: ISO 18013-5 device engagement, EU Digital COVID Certificates (HC1), NZ COVID Passes and compact JWTs. Signatures are never verified.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			color.NoColor = true
		}

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}

		logger, err = newLogger(os.Stderr, cfg.Log)
		return err
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $"+config.EnvVar+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		output.PrintDecodeError(err)
		return err
	}
	return nil
}

// newLogger builds the stderr logger from the log config.
func newLogger(w io.Writer, lc config.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", lc.Level)
	}
	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// buildDecoders wires the scheme registry, with HCERT schema validation
// when the config enables it.
func buildDecoders() ([]credential.Decoder, error) {
	opts := decoder.Options{Logger: logger}

	policy, err := schema.ParsePolicy(cfg.Schema.Validation)
	if err != nil {
		return nil, err
	}
	if policy != schema.PolicyOff {
		client := &http.Client{Timeout: cfg.Schema.FetchTimeout}
		repo := schema.NewRepository(client, cfg.Schema.SchemaURL, cfg.Schema.ValueSetURL)
		opts.Validator = schema.NewValidator(repo, schema.ValidatorOptions{
			Policy:       policy,
			TTL:          cfg.Schema.TTL,
			FetchTimeout: cfg.Schema.FetchTimeout,
			Logger:       logger,
		})
	}

	return decoder.BuildDecoders(opts), nil
}
