// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads lmc configuration profiles.
//
// The configuration file is TOML. Every top-level table is a named profile;
// a profile may inherit from another one with "extends":
//
//	[default]
//	api_url = "https://api.openai.com/v1"
//	api_key = "sk-..."
//	model = "gpt-4o-mini"
//
//	[local]
//	extends = "default"
//	api_url = "http://localhost:11434/v1"
//	model = "llama3"
//
// # Configuration Precedence
//
// Settings are resolved from (highest first):
//   - Command-line flags
//   - Environment variables (LMC_API_URL, LMC_API_KEY, LMC_MODEL)
//   - The selected profile, then each profile it extends
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load(config.Options{Profile: "local"})
//	if err != nil {
//	    return err
//	}
package config
