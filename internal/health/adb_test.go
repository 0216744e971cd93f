package health

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdb writes a shell script standing in for adb.
func fakeAdb(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "adb")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestNewAdbChecker(t *testing.T) {
	checker := NewAdbChecker("", "")
	assert.Equal(t, "adb", checker.binaryPath)
	assert.Equal(t, 5*time.Second, checker.timeout)
	assert.Equal(t, "adb", checker.Name())
}

func TestAdbChecker_Check(t *testing.T) {
	const healthy = `case "$1" in
version) echo "Android Debug Bridge version 1.0.41";;
-s) echo "device";;
esac
`
	tests := []struct {
		name    string
		script  string
		serial  string
		wantErr string
	}{
		{name: "binary only", script: healthy},
		{name: "attached device", script: healthy, serial: "emulator-5554"},
		{
			name:    "offline device",
			script:  "case \"$1\" in\nversion) echo \"Android Debug Bridge\";;\n-s) echo offline;;\nesac\n",
			serial:  "emulator-5554",
			wantErr: "offline",
		},
		{name: "not adb", script: "echo something else\n", wantErr: "unexpected adb version output"},
		{name: "failing binary", script: "exit 1\n", wantErr: "adb version failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewAdbChecker(fakeAdb(t, tt.script), tt.serial)
			err := checker.Check(context.Background())
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAdbChecker_MissingBinary(t *testing.T) {
	err := NewAdbChecker("/nonexistent/adb", "").Check(context.Background())
	assert.Error(t, err)
}
