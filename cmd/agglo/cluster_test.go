package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hupe1980/agglo/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ratingsCSV = `user,item,rating
alice,matrix,5
alice,alien,4
bob,matrix,5
bob,alien,4
carol,notebook,2
carol,matrix,1
dave,notebook,2
dave,matrix,1
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestClusterCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.csv")
	require.NoError(t, os.WriteFile(path, []byte(ratingsCSV), 0o600))

	out, err := execute(t, "cluster", path, "--tree", "--workers", "2", "--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, out, "user     leaves=4 merges=")
	assert.Contains(t, out, "content  leaves=3 merges=")
	assert.Contains(t, out, "user tree:")
	for _, label := range []string{"alice", "bob", "carol", "dave", "matrix", "alien", "notebook"} {
		assert.Contains(t, out, label)
	}
}

func TestClusterCmd_Config(t *testing.T) {
	dir := t.TempDir()
	data := strings.ReplaceAll(ratingsCSV, ",", ";")
	ratings := filepath.Join(dir, "ratings.csv")
	require.NoError(t, os.WriteFile(ratings, []byte(data), 0o600))

	cfg := filepath.Join(dir, "agglo.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
input:
  path: `+ratings+`
  delimiter: ";"
cluster:
  disable_cache: true
log:
  level: error
`), 0o600))

	out, err := execute(t, "cluster", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "leaves=4")
}

func TestClusterCmd_Errors(t *testing.T) {
	_, err := execute(t, "cluster")
	assert.ErrorContains(t, err, "no ratings file")

	_, err = execute(t, "cluster", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, err = execute(t, "cluster", "x.csv", "--acuity", "-1")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger(&buf, config.LogConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	l.Info("dropped")
	l.Warn("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"msg":"kept"`)

	_, err = newLogger(&buf, config.LogConfig{Level: "verbose"})
	assert.Error(t, err)

	_, err = execute(t, "cluster", "x.csv", "--log-level", "verbose")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "agglo dev\n", out)
}
