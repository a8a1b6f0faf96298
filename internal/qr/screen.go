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

package qr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrCaptureCancelled is returned when the region selection is aborted.
var ErrCaptureCancelled = errors.New("screen capture cancelled")

// ScanScreen lets the user select a screen region holding a barcode
// (macOS only) and decodes it.
func ScanScreen(ctx context.Context) (string, error) {
	if runtime.GOOS != "darwin" {
		return "", fmt.Errorf("--screen is only supported on macOS; use --qr with an image file instead")
	}

	tmpDir, err := os.MkdirTemp("", "sandbox-viper-qr-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	capture := filepath.Join(tmpDir, "capture.png")
	if err := captureRegion(ctx, capture); err != nil {
		return "", err
	}
	return ScanFile(capture)
}

// captureRegion runs the interactive screencapture crosshair.
func captureRegion(ctx context.Context, out string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "screencapture", "-i", out)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if strings.Contains(msg, "cannot capture") || strings.Contains(msg, "image from rect") {
			_ = exec.Command("open", "x-apple.systempreferences:com.apple.preference.security?Privacy_ScreenCapture").Run()
			return fmt.Errorf("screen recording permission denied; grant access to your terminal in System Settings and retry")
		}
		return fmt.Errorf("screencapture failed: %s", msg)
	}

	// Escape leaves no file behind
	if _, err := os.Stat(out); err != nil {
		return ErrCaptureCancelled
	}
	return nil
}
