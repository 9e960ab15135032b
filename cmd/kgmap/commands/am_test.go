package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/kgmap/am"
)

func runAm(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	AmCmd.SetOut(&buf)
	AmCmd.SetErr(&buf)
	AmCmd.SetArgs(args)
	defer AmCmd.SetArgs(nil)
	err := AmCmd.Execute()
	return buf.String(), err
}

func TestAmSetThenGet(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	am.Reset()
	t.Cleanup(am.Reset)

	_, err := runAm(t, "set", "server.port", "9000")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(home, ".kgmap", "am.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "port = 9000")

	out, err := runAm(t, "get", "server.port")
	require.NoError(t, err)
	assert.Equal(t, "9000", strings.TrimSpace(out))

	_, err = runAm(t, "set", "server.port", "0")
	assert.Error(t, err)

	_, err = runAm(t, "get", "server.nope")
	assert.Error(t, err)
}

func TestAmShowFormats(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	am.Reset()
	t.Cleanup(am.Reset)
	t.Cleanup(func() { configFormat = "toml" })

	tests := []struct {
		format string
		want   string
	}{
		{"toml", "containment_type"},
		{"json", `"containment_type"`},
		{"yaml", "containment_type:"},
	}
	for _, tt := range tests {
		out, err := runAm(t, "show", "--format", tt.format)
		require.NoError(t, err)
		if !strings.Contains(out, tt.want) {
			t.Errorf("am show --format %s missing %q:\n%s", tt.format, tt.want, out)
		}
	}

	_, err := runAm(t, "show", "--format", "xml")
	assert.Error(t, err)
}
