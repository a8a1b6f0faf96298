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

package output

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/zhenwenc/sandbox-viper/internal/credential"
	"github.com/zhenwenc/sandbox-viper/internal/cwt"
)

// Options controls how results are rendered.
type Options struct {
	JSON    bool
	Verbose bool
}

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	labelColor  = color.New(color.FgYellow)
	valueColor  = color.New(color.FgWhite)
	dimColor    = color.New(color.Faint)
	errorColor  = color.New(color.FgRed)
	warnColor   = color.New(color.FgYellow)

	// timeNow is the function used to get the current time. Override in tests.
	timeNow = time.Now
)

var schemeTitles = map[string]string{
	"mdoc":  "mDoc Device Engagement",
	"hcert": "EU Digital COVID Certificate (HCERT)",
	"nzcp":  "NZ COVID Pass",
	"jwt":   "JWT",
}

// timeClaims are rendered as dates in terminal output.
var timeClaims = map[string]bool{
	credential.MetaIssuedAt:  true,
	credential.MetaExpiresAt: true,
	credential.MetaNotBefore: true,
}

// relativeTime returns a human-readable relative duration string for t.
// Future times return "in X units", past times return "X units ago".
func relativeTime(t time.Time) string {
	now := timeNow()
	d := t.Sub(now)
	if d < 0 {
		d = -d
		return formatDuration(d) + " ago"
	}
	return "in " + formatDuration(d)
}

func formatDuration(d time.Duration) string {
	const day = 24 * time.Hour
	switch {
	case d >= 60*day:
		months := int(d / (30 * day))
		if months == 1 {
			return "1 month"
		}
		return fmt.Sprintf("%d months", months)
	case d >= 2*day:
		days := int(d / day)
		return fmt.Sprintf("%d days", days)
	case d >= day:
		return "1 day"
	case d >= 2*time.Hour:
		return fmt.Sprintf("%d hours", int(d.Hours()))
	case d >= time.Hour:
		return "1 hour"
	case d >= 2*time.Minute:
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	default:
		return "1 minute"
	}
}

// BuildResultJSON returns the JSON-serializable form of a decode result.
func BuildResultJSON(scheme string, res *credential.Result) map[string]any {
	out := map[string]any{
		"raw":  res.Raw,
		"data": res.Data,
		"meta": res.Meta,
	}
	if scheme != "" {
		out["scheme"] = scheme
	}
	return out
}

// PrintResult prints a decoded barcode. scheme is empty when no decoder
// matched.
func PrintResult(scheme string, res *credential.Result, opts Options) {
	if opts.JSON {
		PrintJSON(BuildResultJSON(scheme, res))
		return
	}

	if scheme == "" {
		warnColor.Println("No barcode scheme matched the input")
		return
	}

	title := schemeTitles[scheme]
	if title == "" {
		title = scheme
	}
	headerColor.Println(title)
	headerColor.Println(strings.Repeat("─", 50))

	if len(res.Meta) > 0 {
		printSection("Meta")
		// JWT carries NumericDate seconds, the CWT schemes milliseconds
		millis := scheme != "jwt"
		for _, k := range sortedKeys(res.Meta) {
			v := res.Meta[k]
			if timeClaims[k] {
				if t, ok := metaTime(v, millis); ok {
					printKV(k, t.UTC().Format(time.RFC3339)+dimColor.Sprintf(" (%s)", relativeTime(t)), 1)
					continue
				}
			}
			labelColor.Printf("  %s: ", k)
			fmt.Println(formatValue(v))
		}
	}

	if len(res.Data) > 0 {
		printSection("Data")
		printMap(res.Data, 1)
	}

	if opts.Verbose && len(res.Raw) > 0 {
		printSection("Raw")
		printMap(res.Raw, 1)
	}

	fmt.Println()
}

// PrintEnvelope prints the COSE_Sign1 headers of a CWT based barcode.
func PrintEnvelope(env *cwt.Envelope) {
	printSection("COSE_Sign1 (signature not verified)")
	if env.Algorithm != "" {
		printKV("Algorithm", env.Algorithm, 1)
	}
	if len(env.KeyID) > 0 {
		printKV("Key ID", hex.EncodeToString(env.KeyID), 1)
	}
	printKV("Payload", fmt.Sprintf("%d bytes", len(env.Payload)), 1)
	printKV("Signature", fmt.Sprintf("%d bytes", len(env.Signature)), 1)
	fmt.Println()
}

// metaTime interprets an epoch value from meta.
func metaTime(v any, millis bool) (time.Time, bool) {
	var n int64
	switch val := v.(type) {
	case int64:
		n = val
	case json.Number:
		i, err := strconv.ParseInt(val.String(), 10, 64)
		if err != nil {
			f, ferr := val.Float64()
			if ferr != nil {
				return time.Time{}, false
			}
			i = int64(f)
		}
		n = i
	case float64:
		n = int64(val)
	default:
		return time.Time{}, false
	}
	if millis {
		return time.UnixMilli(n), true
	}
	return time.Unix(n, 0), true
}

func printSection(title string) {
	fmt.Println()
	headerColor.Printf("┌ %s\n", title)
}

func printKV(key, value string, indent int) {
	prefix := strings.Repeat("  ", indent)
	labelColor.Printf("%s%s: ", prefix, key)
	valueColor.Println(value)
}

func printMap(m map[string]any, indent int) {
	prefix := strings.Repeat("  ", indent)
	for _, k := range sortedKeys(m) {
		labelColor.Printf("%s%s: ", prefix, k)
		fmt.Println(formatValue(m[k]))
	}
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	case nil:
		return "null"
	case []byte:
		return fmt.Sprintf("(%d bytes)", len(val))
	case map[string]any:
		b, _ := json.MarshalIndent(val, "    ", "  ")
		return string(b)
	case []any:
		if isSimpleArray(val) {
			b, _ := json.Marshal(val)
			return string(b)
		}
		b, _ := json.MarshalIndent(val, "    ", "  ")
		return string(b)
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}

func isSimpleArray(arr []any) bool {
	for _, v := range arr {
		switch v.(type) {
		case map[string]any, []any:
			return false
		}
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PrintError prints an error message.
func PrintError(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorColor.Sprint("Error:"), msg)
}

// PrintDecodeError prints a decode failure, listing schema violations one
// per line.
func PrintDecodeError(err error) {
	var schemaErr *credential.SchemaError
	if !errors.As(err, &schemaErr) {
		PrintError(err.Error())
		return
	}
	PrintError(credential.ErrSchemaValidation.Error())
	for _, v := range schemaErr.Violations {
		fmt.Fprintf(os.Stderr, "  %s %s\n", errorColor.Sprint("✗"), v)
	}
}
