package data_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/l1jgo/origin/internal/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `
entry: launch
procedures: [launch, login]
timers:
  - func: heartbeat
    delay: 5
    loop: true
    unscaled: true
  - func: warmup
    delay: 0.5
`

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bootstrap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleManifest), 0o644))

	m, err := data.LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "launch", m.Entry)
	assert.Equal(t, []string{"launch", "login"}, m.Procedures)
	require.Len(t, m.Timers, 2)
	assert.Equal(t, data.TimerEntry{Func: "heartbeat", Delay: 5, Loop: true, Unscaled: true}, m.Timers[0])
	assert.False(t, m.Timers[1].Loop)
	assert.True(t, m.Enabled("login"))
	assert.False(t, m.Enabled("preload"))
}

func TestLoadManifestMissingFile(t *testing.T) {
	m, err := data.LoadManifest(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, m.Entry)
	assert.True(t, m.Enabled("anything"))
	assert.NoError(t, m.Validate(nil))
}

func TestLoadManifestBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bootstrap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("entry: [unterminated"), 0o644))
	_, err := data.LoadManifest(path)
	assert.Error(t, err)
}

func TestValidateManifest(t *testing.T) {
	m := &data.Manifest{
		Entry:      "launch",
		Procedures: []string{"launch", "shop"},
		Timers: []data.TimerEntry{
			{Func: "", Delay: 1},
			{Func: "tick", Delay: -1},
			{Func: "ok", Delay: 0},
		},
	}

	err := m.Validate([]string{"launch"})
	require.Error(t, err)
	assert.ErrorIs(t, err, data.ErrUndefinedProcedure)
	assert.ErrorIs(t, err, data.ErrBadTimer)
	assert.Contains(t, err.Error(), `"shop"`)
	assert.NotContains(t, err.Error(), "ok has")

	m.Procedures = []string{"launch"}
	m.Timers = m.Timers[2:]
	assert.NoError(t, m.Validate([]string{"launch"}))
}

func TestValidateEntryMustBeListed(t *testing.T) {
	m := &data.Manifest{Entry: "login", Procedures: []string{"launch"}}
	err := m.Validate([]string{"launch", "login"})
	assert.ErrorIs(t, err, data.ErrEntryNotListed)
	assert.NotErrorIs(t, err, data.ErrUndefinedProcedure)

	m.Procedures = nil
	assert.NoError(t, m.Validate([]string{"launch", "login"}))
}
