package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundry-lang/foundry/workspace"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "foundry.yml"), []byte(content), 0644))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.False(t, cfg.Load.Strict)
	assert.True(t, cfg.Load.MetadataFallback)
	assert.Empty(t, cfg.Apply.DisabledChanges)
	assert.Equal(t, 100*time.Millisecond, cfg.Debounce())
	assert.Equal(t, 50*time.Millisecond, cfg.RetryDelay())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
load:
  strict: true
  metadata_fallback: false
apply:
  disabled_changes:
    - RemoveProject
    - ChangeCompileOptions
watch:
  debounce_ms: 250
text:
  retry_delay_ms: 10
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.True(t, cfg.Load.Strict)
	assert.False(t, cfg.Load.MetadataFallback)
	assert.Equal(t, []string{"RemoveProject", "ChangeCompileOptions"}, cfg.Apply.DisabledChanges)
	assert.Equal(t, 250*time.Millisecond, cfg.Debounce())
	assert.Equal(t, 10*time.Millisecond, cfg.RetryDelay())
}

func TestLoadRejectsUnknownChangeKind(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
apply:
  disabled_changes:
    - FrobnicateProject
`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FrobnicateProject")
}

func TestLoadRejectsNegativeDurations(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
watch:
  debounce_ms: -5
`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "debounce_ms")
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "load: [broken")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestCapabilitiesDisableConfiguredKinds(t *testing.T) {
	cfg := &Config{Apply: ApplyConfig{DisabledChanges: []string{"RemoveDocument"}}}

	caps := cfg.Capabilities()
	assert.False(t, caps.CanApply(workspace.ChangeRemoveDocument))
	assert.True(t, caps.CanApply(workspace.ChangeAddDocument))
}

func TestCapabilitiesDefaultAllowsEverything(t *testing.T) {
	cfg := &Config{}

	caps := cfg.Capabilities()
	assert.True(t, caps.CanApply(workspace.ChangeRemoveProject))
	assert.True(t, caps.CanApply(workspace.ChangeDocumentText))
}
