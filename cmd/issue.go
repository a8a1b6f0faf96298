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
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/zhenwenc/sandbox-viper/internal/keys"
	"github.com/zhenwenc/sandbox-viper/internal/mock"
	"github.com/zhenwenc/sandbox-viper/internal/qr"
)

var (
	issueKeyPath string
	issueQROut   string

	hcertIssuer  string
	hcertExpires string
	hcertKind    string
	hcertKeyID   string

	nzcpIssuer   string
	nzcpExpires  string
	nzcpCompress bool

	jwtIssuer  string
	jwtSubject string
	jwtExpires string
	jwtClaims  string
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Generate test barcode payloads",
	Long:  "Generate signed test payloads for every supported barcode scheme. Uses an ephemeral P-256 key unless --key is given.",
}

var issueHCERTCmd = &cobra.Command{
	Use:   "hcert",
	Short: "Generate an EU Digital COVID Certificate (HC1:)",
	Args:  cobra.NoArgs,
	RunE:  runIssueHCERT,
}

var issueNZCPCmd = &cobra.Command{
	Use:   "nzcp",
	Short: "Generate an NZ COVID Pass (NZCP:/1/)",
	Args:  cobra.NoArgs,
	RunE:  runIssueNZCP,
}

var issueMDocCmd = &cobra.Command{
	Use:   "mdoc",
	Short: "Generate an ISO 18013-5 device engagement (mdoc:)",
	Args:  cobra.NoArgs,
	RunE:  runIssueMDoc,
}

var issueJWTCmd = &cobra.Command{
	Use:   "jwt",
	Short: "Generate an ES256 compact JWT",
	Args:  cobra.NoArgs,
	RunE:  runIssueJWT,
}

func init() {
	rootCmd.AddCommand(issueCmd)
	issueCmd.AddCommand(issueHCERTCmd, issueNZCPCmd, issueMDocCmd, issueJWTCmd)

	issueCmd.PersistentFlags().StringVar(&issueKeyPath, "key", "", "EC private key file (PEM); ephemeral P-256 if omitted")
	issueCmd.PersistentFlags().StringVar(&issueQROut, "qr", "", "Also write the payload as a QR code PNG to this path")

	issueHCERTCmd.Flags().StringVar(&hcertIssuer, "iss", "DE", "Issuing country")
	issueHCERTCmd.Flags().StringVar(&hcertExpires, "exp", "8760h", "Validity duration")
	issueHCERTCmd.Flags().StringVar(&hcertKind, "kind", "v", "Certificate kind: v (vaccination), t (test), r (recovery)")
	issueHCERTCmd.Flags().StringVar(&hcertKeyID, "kid", "", "Key identifier for the protected header")

	issueNZCPCmd.Flags().StringVar(&nzcpIssuer, "iss", "did:web:nzcp.covid19.health.nz", "Issuer DID")
	issueNZCPCmd.Flags().StringVar(&nzcpExpires, "exp", "720h", "Validity duration")
	issueNZCPCmd.Flags().BoolVar(&nzcpCompress, "compress", false, "Deflate the COSE message before base32 encoding")

	issueJWTCmd.Flags().StringVar(&jwtIssuer, "iss", "https://issuer.example", "Issuer")
	issueJWTCmd.Flags().StringVar(&jwtSubject, "sub", "", "Subject")
	issueJWTCmd.Flags().StringVar(&jwtExpires, "exp", "24h", "Expiration duration")
	issueJWTCmd.Flags().StringVar(&jwtClaims, "claims", "", "Extra claims as JSON string or @filepath")
}

func runIssueHCERT(cmd *cobra.Command, args []string) error {
	key, err := loadOrGenerateIssueKey()
	if err != nil {
		return err
	}
	validity, err := parseIssueExpiry(hcertExpires)
	if err != nil {
		return err
	}
	cert, err := hcertForKind(hcertKind)
	if err != nil {
		return err
	}

	now := time.Now()
	result, err := mock.GenerateHCERT(mock.HCERTConfig{
		Issuer:    hcertIssuer,
		IssuedAt:  now,
		ExpiresAt: now.Add(validity),
		Cert:      cert,
		Key:       key,
		KeyID:     []byte(hcertKeyID),
	})
	if err != nil {
		return fmt.Errorf("generating HCERT: %w", err)
	}
	return emitIssued(cmd, result)
}

func runIssueNZCP(cmd *cobra.Command, args []string) error {
	key, err := loadOrGenerateIssueKey()
	if err != nil {
		return err
	}
	validity, err := parseIssueExpiry(nzcpExpires)
	if err != nil {
		return err
	}

	now := time.Now()
	result, err := mock.GenerateNZCP(mock.NZCPConfig{
		Issuer:    nzcpIssuer,
		NotBefore: now,
		ExpiresAt: now.Add(validity),
		Key:       key,
		Compress:  nzcpCompress,
	})
	if err != nil {
		return fmt.Errorf("generating NZCP: %w", err)
	}
	return emitIssued(cmd, result)
}

func runIssueMDoc(cmd *cobra.Command, args []string) error {
	key, err := loadOrGenerateIssueKey()
	if err != nil {
		return err
	}

	result, err := mock.GenerateEngagement(mock.EngagementConfig{Key: &key.PublicKey})
	if err != nil {
		return fmt.Errorf("generating device engagement: %w", err)
	}
	return emitIssued(cmd, result)
}

func runIssueJWT(cmd *cobra.Command, args []string) error {
	key, err := loadOrGenerateIssueKey()
	if err != nil {
		return err
	}
	validity, err := parseIssueExpiry(jwtExpires)
	if err != nil {
		return err
	}
	claims, err := resolveIssueClaims(jwtClaims)
	if err != nil {
		return err
	}

	result, err := mock.GenerateJWT(mock.JWTConfig{
		Issuer:    jwtIssuer,
		Subject:   jwtSubject,
		ExpiresIn: validity,
		Claims:    claims,
		Key:       key,
	})
	if err != nil {
		return fmt.Errorf("generating JWT: %w", err)
	}
	return emitIssued(cmd, result)
}

func emitIssued(cmd *cobra.Command, payload string) error {
	fmt.Fprintln(cmd.OutOrStdout(), payload)

	if issueQROut != "" {
		if err := qr.WritePNGFile(issueQROut, payload, qr.DefaultSize); err != nil {
			return fmt.Errorf("writing QR code: %w", err)
		}
		fmt.Fprintf(os.Stderr, "QR code written to %s\n", issueQROut)
	}
	return nil
}

func loadOrGenerateIssueKey() (*ecdsa.PrivateKey, error) {
	if issueKeyPath != "" {
		key, err := keys.LoadPrivateKey(issueKeyPath)
		if err != nil {
			return nil, fmt.Errorf("loading key: %w", err)
		}
		return key, nil
	}

	key, err := mock.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating ephemeral key: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Ephemeral signing key (public JWK):")
	fmt.Fprintln(os.Stderr, mock.PublicKeyJWK(&key.PublicKey))
	return key, nil
}

func parseIssueExpiry(value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid --exp duration: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("--exp must be positive, got %s", value)
	}
	return d, nil
}

func hcertForKind(kind string) (map[string]any, error) {
	switch strings.ToLower(kind) {
	case "v", "vaccination":
		return mock.VaccinationCert(), nil
	case "t", "test":
		return mock.TestCert(), nil
	case "r", "recovery":
		return mock.RecoveryCert(), nil
	}
	return nil, fmt.Errorf("unknown --kind %q (want v, t or r)", kind)
}

func resolveIssueClaims(value string) (map[string]any, error) {
	if value == "" {
		return nil, nil
	}

	var data []byte
	if strings.HasPrefix(value, "@") {
		var err error
		data, err = os.ReadFile(value[1:])
		if err != nil {
			return nil, fmt.Errorf("reading claims file: %w", err)
		}
	} else {
		data = []byte(value)
	}

	var claims map[string]any
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, fmt.Errorf("parsing claims JSON: %w", err)
	}
	return claims, nil
}
