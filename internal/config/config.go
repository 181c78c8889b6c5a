// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultProfile is used when no profile is selected.
const DefaultProfile = "default"

// Renderer names accepted by the "renderer" key.
const (
	RendererHighlight = "highlight"
	RendererGlamour   = "glamour"
)

// Error variables for configuration failures.
var (
	// ErrProfileNotFound indicates a selected or extended profile does not exist.
	ErrProfileNotFound = errors.New("no such configuration profile")

	// ErrCircularExtends indicates a profile chain that extends itself.
	ErrCircularExtends = errors.New(`circular "extends" references`)

	// ErrMissingField indicates a required setting was not provided anywhere.
	ErrMissingField = errors.New("missing required setting")

	// ErrConfigNotFound indicates an explicitly given config file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)

// UnknownFieldError reports a key the configuration file may not contain.
type UnknownFieldError struct {
	Key string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown configuration key %q", e.Key)
}

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Profile is one table of the configuration file. Unset keys are nil so an
// inheriting profile only overrides what it names.
type Profile struct {
	Extends           *string  `toml:"extends"`
	APIURL            *string  `toml:"api_url"`
	APIKey            *string  `toml:"api_key"`
	Model             *string  `toml:"model"`
	SystemPrompt      *string  `toml:"system_prompt"`
	Temperature       *float64 `toml:"temperature"`
	Stream            *bool    `toml:"stream"`
	Renderer          *string  `toml:"renderer"`
	RequestsPerMinute *int     `toml:"requests_per_minute"`
}

// Merge overlays every key set in other onto p. Extends is not merged.
func (p *Profile) Merge(other Profile) {
	if other.APIURL != nil {
		p.APIURL = other.APIURL
	}
	if other.APIKey != nil {
		p.APIKey = other.APIKey
	}
	if other.Model != nil {
		p.Model = other.Model
	}
	if other.SystemPrompt != nil {
		p.SystemPrompt = other.SystemPrompt
	}
	if other.Temperature != nil {
		p.Temperature = other.Temperature
	}
	if other.Stream != nil {
		p.Stream = other.Stream
	}
	if other.Renderer != nil {
		p.Renderer = other.Renderer
	}
	if other.RequestsPerMinute != nil {
		p.RequestsPerMinute = other.RequestsPerMinute
	}
}

// Profiles are the named profiles of a configuration file.
type Profiles map[string]Profile

// Names returns the profile names in sorted order.
func (ps Profiles) Names() []string {
	names := make([]string, 0, len(ps))
	for name := range ps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve flattens the named profile with every profile it extends. Keys
// set closer to the named profile win. An empty name selects
// DefaultProfile, which may be absent.
func (ps Profiles) Resolve(name string) (Profile, error) {
	if name == "" {
		if _, ok := ps[DefaultProfile]; !ok {
			return Profile{}, nil
		}
		name = DefaultProfile
	}

	current, ok := ps[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}

	chain := []Profile{current}
	visited := map[string]bool{name: true}
	for current.Extends != nil {
		parent := *current.Extends
		if visited[parent] {
			return Profile{}, fmt.Errorf("%w: %q", ErrCircularExtends, parent)
		}
		visited[parent] = true

		current, ok = ps[parent]
		if !ok {
			return Profile{}, fmt.Errorf("%w: %q", ErrProfileNotFound, parent)
		}
		chain = append(chain, current)
	}

	var resolved Profile
	for i := len(chain) - 1; i >= 0; i-- {
		resolved.Merge(chain[i])
	}
	return resolved, nil
}

// Config is the resolved configuration for one run.
type Config struct {
	Profile           string
	APIURL            string
	APIKey            string
	Model             string
	SystemPrompt      string
	Temperature       *float64
	Stream            bool
	Renderer          string
	RequestsPerMinute int
}

// Options select the configuration to load and carry command-line overrides.
type Options struct {
	// Path is the configuration file; empty selects DefaultPath.
	Path string

	// Profile is the profile name; empty selects DefaultProfile.
	Profile string

	// Overrides are applied after the profile and the environment.
	Overrides Profile
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the lmc configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".lmc"), nil
}

// DefaultPath returns the path of the default configuration file.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// HistoryPath returns the path of the interactive input history file.
func HistoryPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history"), nil
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files hold API keys and should be 0600 (owner read/write only).
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the configuration file, resolves the selected profile, applies
// environment and command-line overrides, fills defaults and validates the
// result.
func Load(opts Options) (*Config, error) {
	profiles, err := loadProfiles(opts.Path)
	if err != nil {
		return nil, err
	}

	profile, err := profiles.Resolve(opts.Profile)
	if err != nil {
		return nil, err
	}
	ApplyEnvOverrides(&profile)
	profile.Merge(opts.Overrides)

	name := opts.Profile
	if name == "" {
		name = DefaultProfile
	}
	cfg := build(name, profile)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadProfiles reads path, or the default file when path is empty. Only a
// missing default file is tolerated.
func loadProfiles(path string) (Profiles, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if explicit {
				return nil, fmt.Errorf("%w: %q", ErrConfigNotFound, path)
			}
			return Profiles{}, nil
		}
		return nil, fmt.Errorf("failed to access config file: %w", err)
	}
	return LoadFile(path)
}

// LoadFile decodes the profiles of a TOML configuration file.
// SECURITY: Checks and fixes file permissions on load.
func LoadFile(path string) (Profiles, error) {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems.
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	profiles, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return profiles, nil
}

// Parse decodes profiles from TOML source. Keys that are not profile
// settings are rejected.
func Parse(source string) (Profiles, error) {
	profiles := Profiles{}
	md, err := toml.Decode(source, &profiles)
	if err != nil {
		return nil, fmt.Errorf("failed to decode TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, &UnknownFieldError{Key: undecoded[0].String()}
	}
	return profiles, nil
}

// ApplyEnvOverrides applies LMC_* environment variables to a profile.
//
// Supported environment variables:
//   - LMC_API_URL: overrides api_url
//   - LMC_API_KEY: overrides api_key
//   - LMC_MODEL: overrides model
func ApplyEnvOverrides(p *Profile) {
	if v := os.Getenv("LMC_API_URL"); v != "" {
		p.APIURL = &v
	}
	if v := os.Getenv("LMC_API_KEY"); v != "" {
		p.APIKey = &v
	}
	if v := os.Getenv("LMC_MODEL"); v != "" {
		p.Model = &v
	}
}

// build turns a resolved profile into a Config with defaults filled in.
func build(name string, p Profile) *Config {
	cfg := &Config{
		Profile:     name,
		Temperature: p.Temperature,
		Stream:      true,
		Renderer:    RendererHighlight,
	}
	if p.APIURL != nil {
		cfg.APIURL = strings.TrimSpace(*p.APIURL)
	}
	if p.APIKey != nil {
		cfg.APIKey = strings.TrimSpace(*p.APIKey)
	}
	if p.Model != nil {
		cfg.Model = strings.TrimSpace(*p.Model)
	}
	if p.SystemPrompt != nil {
		cfg.SystemPrompt = *p.SystemPrompt
	}
	if p.Stream != nil {
		cfg.Stream = *p.Stream
	}
	if p.Renderer != nil && *p.Renderer != "" {
		cfg.Renderer = strings.ToLower(*p.Renderer)
	}
	if p.RequestsPerMinute != nil {
		cfg.RequestsPerMinute = *p.RequestsPerMinute
	}
	return cfg
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks that required settings are present and the rest hold
// usable values.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("%w: no %q provided", ErrMissingField, "api_url")
	}
	if c.Model == "" {
		return fmt.Errorf("%w: no %q provided", ErrMissingField, "model")
	}

	var errs ValidateErrors
	if u, err := url.Parse(c.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "api_url",
			Message: fmt.Sprintf("invalid URL %q, must be an http or https URL", c.APIURL),
		})
	}
	if c.Renderer != RendererHighlight && c.Renderer != RendererGlamour {
		errs = append(errs, ValidationError{
			Field:   "renderer",
			Message: fmt.Sprintf("invalid renderer %q, must be one of: highlight, glamour", c.Renderer),
		})
	}
	if c.RequestsPerMinute < 0 {
		errs = append(errs, ValidationError{
			Field:   "requests_per_minute",
			Message: "must not be negative",
		})
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		errs = append(errs, ValidationError{
			Field:   "temperature",
			Message: fmt.Sprintf("%g is out of range 0-2", *c.Temperature),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// MaskedAPIKey returns a display form of the API key that reveals only
// whether one is set and its length.
// SECURITY: Never exposes API key fragments.
func (c *Config) MaskedAPIKey() string {
	if c.APIKey == "" {
		return "[not set]"
	}
	return fmt.Sprintf("[REDACTED, length=%d]", len(c.APIKey))
}
