package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStyleMap(t *testing.T) {
	m := DefaultStyleMap()

	rule, ok := m.Rule("Heading3")
	require.True(t, ok)
	assert.Equal(t, "title", rule.Tag)
	assert.Equal(t, 3, rule.Level)

	rule, ok = m.Rule("ListBullet2")
	require.True(t, ok)
	assert.Equal(t, "item", rule.Tag)
	assert.Equal(t, "bullet", rule.List)
	assert.Equal(t, 2, rule.ListLvl)

	name, ok := m.InlineName("Surname")
	require.True(t, ok)
	assert.Equal(t, "surname", name)

	_, ok = m.Rule("NoSuchStyle")
	assert.False(t, ok)

	assert.Equal(t, "Figure", m.Labels["figure"])
	assert.Contains(t, m.Connectors, "and")
}

func TestLoadStyleMapEmptyPathUsesDefaults(t *testing.T) {
	m, err := LoadStyleMap("")
	require.NoError(t, err)
	_, ok := m.Rule("Heading1")
	assert.True(t, ok)
}

func TestLoadStyleMapLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "styles.yaml")
	yaml := `
styles:
  HouseHeading:
    tag: title
    level: 2
  Heading1:
    tag: p
run_styles:
  HouseCite: cite
labels:
  figure: Abbildung
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	m, err := LoadStyleMap(path)
	require.NoError(t, err)

	// New rules are added.
	rule, ok := m.Rule("HouseHeading")
	require.True(t, ok)
	assert.Equal(t, "title", rule.Tag)
	assert.Equal(t, 2, rule.Level)

	// Existing rules are overridden.
	rule, _ = m.Rule("Heading1")
	assert.Equal(t, "p", rule.Tag)

	// Untouched defaults survive.
	rule, ok = m.Rule("Heading2")
	require.True(t, ok)
	assert.Equal(t, "title", rule.Tag)

	name, _ := m.InlineName("HouseCite")
	assert.Equal(t, "cite", name)
	assert.Equal(t, "Abbildung", m.Labels["figure"])
	assert.Equal(t, "Table", m.Labels["table"])
}

func TestLoadStyleMapErrors(t *testing.T) {
	_, err := LoadStyleMap(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("styles: [not, a, map]"), 0o644))
	_, err = LoadStyleMap(bad)
	assert.Error(t, err)
}

func TestConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("WORDPUB_API_KEY", "")
	t.Setenv("MAX_UPLOAD_BYTES", "")

	cfg := Load()
	assert.Equal(t, "8091", cfg.Port)
	assert.EqualValues(t, 52428800, cfg.MaxUploadBytes)
	assert.Error(t, cfg.Validate(), "server requires an API key")

	t.Setenv("WORDPUB_API_KEY", "secret")
	cfg = Load()
	assert.NoError(t, cfg.Validate())
}
