// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

// writeConfig writes a config file into a temporary directory.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// clearEnv keeps the host environment out of a test.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LMC_API_URL", "")
	t.Setenv("LMC_API_KEY", "")
	t.Setenv("LMC_MODEL", "")
}

const sampleConfig = `
[default]
api_url = "https://api.example.com/v1"
api_key = "sk-default"
model = "base-model"
system_prompt = "Be brief."
temperature = 0.5

[local]
extends = "default"
api_url = "http://localhost:11434/v1"
model = "llama3"

[local-creative]
extends = "local"
temperature = 1.2
renderer = "glamour"
`

// =============================================================================
// PROFILE RESOLUTION TESTS
// =============================================================================

func TestResolve_ExtendsMergesChain(t *testing.T) {
	profiles, err := Parse(sampleConfig)
	require.NoError(t, err)

	p, err := profiles.Resolve("local-creative")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:11434/v1", *p.APIURL)
	require.Equal(t, "llama3", *p.Model)
	require.Equal(t, "sk-default", *p.APIKey, "inherited from the root profile")
	require.Equal(t, "Be brief.", *p.SystemPrompt)
	require.Equal(t, 1.2, *p.Temperature)
	require.Equal(t, "glamour", *p.Renderer)
}

func TestResolve_DefaultProfile(t *testing.T) {
	profiles, err := Parse(sampleConfig)
	require.NoError(t, err)

	p, err := profiles.Resolve("")
	require.NoError(t, err)
	require.Equal(t, "base-model", *p.Model)
}

func TestResolve_MissingDefaultIsEmpty(t *testing.T) {
	p, err := Profiles{}.Resolve("")
	require.NoError(t, err)
	require.Nil(t, p.APIURL)
	require.Nil(t, p.Model)
}

func TestResolve_MissingProfile(t *testing.T) {
	profiles, err := Parse(sampleConfig)
	require.NoError(t, err)

	_, err = profiles.Resolve("remote")
	require.ErrorIs(t, err, ErrProfileNotFound)
	require.Contains(t, err.Error(), `"remote"`)
}

func TestResolve_MissingParent(t *testing.T) {
	profiles, err := Parse(`
[child]
extends = "ghost"
`)
	require.NoError(t, err)

	_, err = profiles.Resolve("child")
	require.ErrorIs(t, err, ErrProfileNotFound)
	require.Contains(t, err.Error(), `"ghost"`)
}

func TestResolve_CircularExtends(t *testing.T) {
	profiles, err := Parse(`
[a]
extends = "b"

[b]
extends = "c"

[c]
extends = "a"
`)
	require.NoError(t, err)

	_, err = profiles.Resolve("a")
	require.ErrorIs(t, err, ErrCircularExtends)
}

func TestResolve_SelfReference(t *testing.T) {
	profiles, err := Parse(`
[loop]
extends = "loop"
model = "m"
`)
	require.NoError(t, err)

	_, err = profiles.Resolve("loop")
	require.ErrorIs(t, err, ErrCircularExtends)
}

func TestProfiles_Names(t *testing.T) {
	profiles, err := Parse(sampleConfig)
	require.NoError(t, err)
	require.Equal(t, []string{"default", "local", "local-creative"}, profiles.Names())
}

// =============================================================================
// PARSE TESTS
// =============================================================================

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse(`
[default]
model = "m"
colour = "blue"
`)
	var unknown *UnknownFieldError
	require.True(t, errors.As(err, &unknown))
	require.Equal(t, "default.colour", unknown.Key)
}

func TestParse_InvalidTOML(t *testing.T) {
	_, err := Parse("[default\nmodel = ")
	require.Error(t, err)
}

// =============================================================================
// LOAD TESTS
// =============================================================================

func TestLoad_ProfileWithDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, sampleConfig)

	cfg, err := Load(Options{Path: path, Profile: "local"})
	require.NoError(t, err)
	require.Equal(t, "local", cfg.Profile)
	require.Equal(t, "http://localhost:11434/v1", cfg.APIURL)
	require.Equal(t, "llama3", cfg.Model)
	require.True(t, cfg.Stream)
	require.Equal(t, RendererHighlight, cfg.Renderer)
	require.Zero(t, cfg.RequestsPerMinute)
	require.NotNil(t, cfg.Temperature)
	require.Equal(t, 0.5, *cfg.Temperature)
}

func TestLoad_OverridesTakePrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("LMC_MODEL", "env-model")
	t.Setenv("LMC_API_KEY", "sk-env")
	path := writeConfig(t, sampleConfig)

	cfg, err := Load(Options{
		Path: path,
		Overrides: Profile{
			Model:  ptr("flag-model"),
			Stream: ptr(false),
		},
	})
	require.NoError(t, err)
	require.Equal(t, "flag-model", cfg.Model, "flags beat the environment")
	require.Equal(t, "sk-env", cfg.APIKey, "the environment beats the profile")
	require.Equal(t, "https://api.example.com/v1", cfg.APIURL)
	require.False(t, cfg.Stream)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(Options{Path: filepath.Join(t.TempDir(), "nope.toml")})
	require.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoad_MissingDefaultFileUsesOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(Options{Overrides: Profile{
		APIURL: ptr("http://localhost:8080/v1"),
		Model:  ptr("m"),
	}})
	require.NoError(t, err)
	require.Equal(t, DefaultProfile, cfg.Profile)
	require.Equal(t, "m", cfg.Model)
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[default]
model = "m"
`)
	_, err := Load(Options{Path: path})
	require.ErrorIs(t, err, ErrMissingField)
	require.Contains(t, err.Error(), `"api_url"`)

	path = writeConfig(t, `
[default]
api_url = "http://localhost/v1"
`)
	_, err = Load(Options{Path: path})
	require.ErrorIs(t, err, ErrMissingField)
	require.Contains(t, err.Error(), `"model"`)
}

func TestLoadFile_FixesPermissions(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	require.NoError(t, os.Chmod(path, 0644))

	_, err := LoadFile(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{APIURL: "https://api.example.com/v1", Model: "m", Renderer: RendererHighlight}
	}

	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"bad scheme", func(c *Config) { c.APIURL = "ftp://example.com" }, "api_url"},
		{"no host", func(c *Config) { c.APIURL = "http://" }, "api_url"},
		{"renderer", func(c *Config) { c.Renderer = "fancy" }, "renderer"},
		{"rate", func(c *Config) { c.RequestsPerMinute = -1 }, "requests_per_minute"},
		{"temperature", func(c *Config) { c.Temperature = ptr(3.0) }, "temperature"},
	}

	require.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)

			err := cfg.Validate()
			var errs ValidateErrors
			require.True(t, errors.As(err, &errs))
			require.Len(t, errs, 1)
			require.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestMaskedAPIKey(t *testing.T) {
	cfg := &Config{}
	require.Equal(t, "[not set]", cfg.MaskedAPIKey())

	cfg.APIKey = "sk-secret"
	masked := cfg.MaskedAPIKey()
	require.NotContains(t, masked, "sk-")
	require.Contains(t, masked, "length=9")
}
