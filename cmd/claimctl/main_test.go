package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var claims atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/claims", func(w http.ResponseWriter, r *http.Request) {
		claims.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"message":"Claim validated successfully","data":{"address":"1.2.3.4","claimedOption":"bnu","claimedAt":"2026-01-01T00:00:00Z","linkage":"https://pan.baidu.com/s/1ehElAltU7dL9OT4K3lU3vw?pwd=talk","extractionCode":"talk"}}`))
	})
	mux.HandleFunc("/api/v1/catalog", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":[{"id":"bnu","name":"北师大版"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &claims
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestClaimctl(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	srv, claims := fakeServer(t)
	stateDir := t.TempDir()
	common := []string{"--server", srv.URL, "--state-dir", stateDir}

	out, err := run(t, append([]string{"status"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Device: unrestricted")

	out, err = run(t, append([]string{"claim", "bnu"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Claimed bnu")
	assert.Contains(t, out, "Extraction code: talk")
	assert.FileExists(t, filepath.Join(stateDir, "claim_info.json"))

	out, err = run(t, append([]string{"status"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Device: restricted (30 days remaining)")
	assert.Contains(t, out, "Option: bnu")

	_, err = run(t, append([]string{"claim", "yilin"}, common...)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already claimed materials on this device")
	assert.Equal(t, int32(1), claims.Load())

	out, err = run(t, append([]string{"reset"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Device record cleared.")

	out, err = run(t, append([]string{"catalog"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "bnu")
	assert.Contains(t, out, "北师大版")
}

func TestClaimctl_EnvConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	srv, _ := fakeServer(t)
	stateDir := t.TempDir()
	t.Setenv("CLAIMCTL_SERVER", srv.URL)
	t.Setenv("CLAIMCTL_STATE_DIR", stateDir)

	out, err := run(t, "claim", "bnu")
	require.NoError(t, err)
	assert.Contains(t, out, "Claimed bnu")
	assert.FileExists(t, filepath.Join(stateDir, "claim_info.json"))
}

func TestClaimctl_ConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	srv, _ := fakeServer(t)
	stateDir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(home, ".claimctl"), 0o755))
	cfg := "server: " + srv.URL + "\nstate-dir: " + stateDir + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, ".claimctl", "config.yaml"), []byte(cfg), 0o600))

	out, err := run(t, "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "bnu")
}

func TestClaimctl_ServerDown(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := run(t, "claim", "bnu", "--server", url, "--state-dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Network connection failed")
}
