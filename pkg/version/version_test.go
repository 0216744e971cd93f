package version

import (
	"encoding/json"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withVersion(t *testing.T, v string) {
	t.Helper()
	old := Version
	Version = v
	t.Cleanup(func() { Version = old })
}

func TestGetInfoReflectsBuildStamp(t *testing.T) {
	withVersion(t, "1.4.0")

	info := GetInfo()
	assert.Equal(t, "1.4.0", info.Version)
	assert.Equal(t, GitCommit, info.GitCommit)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.OS+"/"+info.Arch)
}

func TestInfoJSONShape(t *testing.T) {
	data, err := json.Marshal(Info{Version: "1.4.0", GitCommit: "abc123", BuildTime: "2025-03-01", GoVersion: "go1.23", OS: "linux", Arch: "arm64"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"1.4.0","git_commit":"abc123","build_time":"2025-03-01","go_version":"go1.23","os":"linux","arch":"arm64"}`, string(data))
}

func TestInfoLines(t *testing.T) {
	info := Info{Version: "1.4.0", GitCommit: "abc123", BuildTime: "2025-03-01", GoVersion: "go1.23", OS: "linux", Arch: "arm64"}

	assert.Equal(t, "mockingress 1.4.0 (commit: abc123, built: 2025-03-01, go: go1.23, os/arch: linux/arm64)", info.String())
	assert.Equal(t, "mockingress 1.4.0", info.Short())
}

func TestUserAgent(t *testing.T) {
	withVersion(t, "1.4.0")

	ua := UserAgent("collector")
	assert.True(t, strings.HasPrefix(ua, "mockingress-collector/1.4.0 ("), ua)
	assert.True(t, strings.HasSuffix(ua, runtime.GOOS+"/"+runtime.GOARCH+")"), ua)
	assert.NotEqual(t, ua, UserAgent("dashboard"))
}
