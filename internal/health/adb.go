package health

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// AdbChecker verifies the adb binary works and, when a serial is set, that
// the device is attached. The log scraper depends on both.
type AdbChecker struct {
	binaryPath string
	serial     string
	timeout    time.Duration
}

// NewAdbChecker creates an adb checker. An empty binaryPath looks adb up in PATH.
func NewAdbChecker(binaryPath, serial string) *AdbChecker {
	if binaryPath == "" {
		binaryPath = "adb"
	}

	return &AdbChecker{
		binaryPath: binaryPath,
		serial:     serial,
		timeout:    5 * time.Second,
	}
}

func (a *AdbChecker) Name() string {
	return "adb"
}

func (a *AdbChecker) Check(ctx context.Context) error {
	if err := a.checkBinary(ctx); err != nil {
		return fmt.Errorf("adb binary check failed: %w", err)
	}

	if a.serial != "" {
		if err := a.checkDevice(ctx); err != nil {
			return fmt.Errorf("device check failed: %w", err)
		}
	}

	return nil
}

func (a *AdbChecker) checkBinary(ctx context.Context) error {
	if !filepath.IsAbs(a.binaryPath) {
		if _, err := exec.LookPath(a.binaryPath); err != nil {
			return fmt.Errorf("adb binary not executable: %w", err)
		}
	}

	cmdCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	output, err := exec.CommandContext(cmdCtx, a.binaryPath, "version").Output()
	if err != nil {
		return fmt.Errorf("adb version failed: %w", err)
	}

	if !strings.Contains(string(output), "Android Debug Bridge") {
		return fmt.Errorf("unexpected adb version output")
	}

	return nil
}

func (a *AdbChecker) checkDevice(ctx context.Context) error {
	cmdCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	output, err := exec.CommandContext(cmdCtx, a.binaryPath, "-s", a.serial, "get-state").Output()
	if err != nil {
		return fmt.Errorf("device %s unavailable: %w", a.serial, err)
	}

	if state := strings.TrimSpace(string(output)); state != "device" {
		return fmt.Errorf("device %s is %q", a.serial, state)
	}

	return nil
}
