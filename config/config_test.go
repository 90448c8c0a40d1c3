package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s := Default()
	assert.Equal(t, ModeAuto, s.Mode)
	assert.Equal(t, 400, s.Validation.Status)
	assert.Equal(t, []string{"HEAD", "OPTIONS"}, s.Validation.IgnoreVerbs)
	assert.Equal(t, "info", s.Log.Level)
	require.NoError(t, Validate(s))
}

func TestLoadFileMissingFileUsesDefaults(t *testing.T) {
	s, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ModeAuto, s.Mode)
	assert.Equal(t, 400, s.Validation.Status)
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typedroutes.yaml")
	content := []byte("mode: manual\nvalidation:\n  status: 422\ndoc:\n  title: Catalog API\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ModeManual, s.Mode)
	assert.Equal(t, 422, s.Validation.Status)
	assert.Equal(t, "Catalog API", s.Doc.Title)
	assert.Equal(t, "0.1.0", s.Doc.Version, "unset keys keep their defaults")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TYPEDROUTES_MODE", "manual")
	t.Setenv("TYPEDROUTES_VALIDATION_STATUS", "422")
	t.Setenv("TYPEDROUTES_LOG_LEVEL", "debug")

	s, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, ModeManual, s.Mode)
	assert.Equal(t, 422, s.Validation.Status)
	assert.Equal(t, "debug", s.Log.Level)
}

func TestLoadEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typedroutes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: manual\n"), 0o600))
	t.Setenv("TYPEDROUTES_MODE", "auto")

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ModeAuto, s.Mode)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"unknown mode", func(s *Settings) { s.Mode = "strict" }},
		{"status below 4xx", func(s *Settings) { s.Validation.Status = 200 }},
		{"status above 4xx", func(s *Settings) { s.Validation.Status = 500 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(s)
			assert.Error(t, Validate(s))
		})
	}
}

func TestLoadRejectsInvalidFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typedroutes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: strict\n"), 0o600))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid mode")
}
