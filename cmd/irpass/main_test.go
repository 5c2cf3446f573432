package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPasses(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, listPasses(&buf, nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "F.conv3d "))
	assert.Contains(t, lines[0], "priority=10")
}

func TestListPasses_Config(t *testing.T) {
	path := filepath.Join(t.TempDir(), "irpass.yaml")
	require.NoError(t, os.WriteFile(path, []byte("disable: [\"F.conv3d/*\"]\n"), 0o600))

	var buf bytes.Buffer
	require.NoError(t, listPasses(&buf, []string{"-config", path}))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))

	require.Error(t, listPasses(&buf, []string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}))
	require.Error(t, listPasses(&buf, []string{"-bogus"}))
}
