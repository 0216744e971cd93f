package logscrape

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Source returns a snapshot of the device log, oldest line first.
type Source interface {
	Dump(ctx context.Context) ([]string, error)
}

// AdbSource reads the log buffer of an attached device with adb logcat.
type AdbSource struct {
	binaryPath string
	serial     string
}

// NewAdbSource creates an adb backed source. An empty serial lets adb pick
// the only attached device.
func NewAdbSource(binaryPath, serial string) *AdbSource {
	if binaryPath == "" {
		binaryPath = "adb"
	}
	return &AdbSource{binaryPath: binaryPath, serial: serial}
}

// Dump runs `adb logcat -d`, which prints the buffer and exits.
func (a *AdbSource) Dump(ctx context.Context) ([]string, error) {
	out, err := a.run(ctx, "logcat", "-d")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// Clear empties the device log buffer so the next Dump only holds lines
// from the current run.
func (a *AdbSource) Clear(ctx context.Context) error {
	_, err := a.run(ctx, "logcat", "-c")
	return err
}

func (a *AdbSource) run(ctx context.Context, args ...string) ([]byte, error) {
	if a.serial != "" {
		args = append([]string{"-s", a.serial}, args...)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, a.binaryPath, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("adb %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

func splitLines(out []byte) []string {
	text := strings.TrimRight(string(out), "\r\n")
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// StaticSource serves a fixed snapshot. Useful for replaying a saved logcat.
type StaticSource []string

func (s StaticSource) Dump(context.Context) ([]string, error) {
	return append([]string(nil), s...), nil
}
