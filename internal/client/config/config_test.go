package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	want := Config{ServerURL: "http://127.0.0.1:8000", Timeout: 10 * time.Second}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestJsonThenFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server_url":"http://json:1","timeout":"3s"}`), 0o600))

	var c Config
	c.LoadDefaults()
	args := []string{"-c", path, "-timeout", "7s", "-unrelated", "x"}

	require.NoError(t, parseJson(&c, args))
	require.NoError(t, parseFlags(&c, args))

	want := Config{ServerURL: "http://json:1", Timeout: 7 * time.Second}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseJson_Errors(t *testing.T) {
	var c Config
	require.Error(t, parseJson(&c, []string{"-c", filepath.Join(t.TempDir(), "missing.json")}))

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))
	require.Error(t, parseJson(&c, []string{"-config=" + path}))
}

func TestParseFlags_BadDuration(t *testing.T) {
	var c Config
	require.Error(t, parseFlags(&c, []string{"-timeout", "soon"}))
}
