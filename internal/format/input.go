package format

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

var httpClient = &http.Client{
	Timeout: 15 * time.Second,
}

// ReadInput resolves barcode input from a URL, a file path, "-" for stdin,
// or returns the argument itself as the raw barcode text.
func ReadInput(input string) (string, error) {
	return readInput(input, os.Stdin)
}

func readInput(input string, stdin *os.File) (string, error) {
	input = strings.TrimSpace(input)

	if input == "-" || input == "" {
		stat, err := stdin.Stat()
		if err != nil {
			return "", fmt.Errorf("cannot read stdin: %w", err)
		}
		if (stat.Mode() & os.ModeCharDevice) != 0 {
			return "", fmt.Errorf("no input provided (use a barcode string, file path, URL, or pipe to stdin)")
		}
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	// Barcode payloads are never URLs, so an http(s) prefix means "fetch".
	if strings.HasPrefix(input, "https://") || strings.HasPrefix(input, "http://") {
		return fetchURL(input)
	}

	// Scheme prefixes contain ':' and '/', so only stat plausible paths.
	if !hasSchemePrefix(input) {
		if _, err := os.Stat(input); err == nil {
			b, err := os.ReadFile(input)
			if err != nil {
				return "", fmt.Errorf("reading file %s: %w", input, err)
			}
			return strings.TrimSpace(string(b)), nil
		}
	}

	return input, nil
}

func hasSchemePrefix(input string) bool {
	for _, p := range []string{PrefixMDoc, PrefixHCERT, PrefixNZCP} {
		if strings.HasPrefix(input, p) {
			return true
		}
	}
	return false
}

func fetchURL(url string) (string, error) {
	resp, err := httpClient.Get(url)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: HTTP %d", url, resp.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading response from %s: %w", url, err)
	}

	return strings.TrimSpace(string(b)), nil
}
