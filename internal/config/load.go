package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// configVersion is the only accepted config schema version.
const configVersion = "v1"

// Load loads and processes the config with immediate env var resolution
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var rawConfig map[string]any
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		return Config{}, fmt.Errorf("parsing config JSON: %w", err)
	}

	version, ok := rawConfig["version"].(string)
	if !ok {
		return Config{}, fmt.Errorf("config version is required")
	}
	if !strings.HasPrefix(version, configVersion) {
		return Config{}, fmt.Errorf("unsupported config version: %s", version)
	}

	if err := validateRawConfig(rawConfig); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	// Parse into the typed Config; custom UnmarshalJSON resolves env
	// references and duration strings immediately.
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if err := ValidateConfig(&config); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// validateRawConfig validates structure before environment resolution, so
// plaintext secrets are rejected even when the env vars happen to be set.
func validateRawConfig(rawConfig map[string]any) error {
	gateway, ok := rawConfig["gateway"].(map[string]any)
	if !ok {
		return fmt.Errorf("gateway section is required")
	}

	secrets := []struct {
		section string
		field   string
	}{
		{"provider", "anonKey"},
		{"oauth", "clientSecret"},
		{"", "stateSigningKey"},
	}

	for _, secret := range secrets {
		container := gateway
		if secret.section != "" {
			section, ok := gateway[secret.section].(map[string]any)
			if !ok {
				continue
			}
			container = section
		}

		value, exists := container[secret.field]
		if !exists {
			continue
		}
		if _, isString := value.(string); isString {
			return fmt.Errorf("%s must use environment variable reference for security", secret.field)
		}
		if refMap, isMap := value.(map[string]any); isMap {
			if _, hasEnv := refMap["$env"]; !hasEnv {
				return fmt.Errorf("%s must use {\"$env\": \"VAR_NAME\"} format", secret.field)
			}
		}
	}

	return nil
}
