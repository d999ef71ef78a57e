package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// ValidationResult holds validation errors and warnings
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// ValidationError represents a validation issue
type ValidationError struct {
	Path    string
	Message string
}

// IsValid returns true if there are no errors
func (v *ValidationResult) IsValid() bool {
	return len(v.Errors) == 0
}

// ValidateConfig checks a resolved config for hard errors.
func ValidateConfig(cfg *Config) error {
	g := &cfg.Gateway

	if g.BaseURL == "" {
		return fmt.Errorf("gateway.baseURL is required")
	}
	if u, err := url.Parse(g.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("gateway.baseURL must be an absolute URL")
	}
	if g.Addr == "" {
		return fmt.Errorf("gateway.addr is required")
	}
	if g.Provider.URL == "" {
		return fmt.Errorf("gateway.provider.url is required")
	}
	if g.Provider.AnonKey == "" {
		return fmt.Errorf("gateway.provider.anonKey is required")
	}
	if g.StateSigningKey == "" {
		return fmt.Errorf("gateway.stateSigningKey is required")
	}
	if len(g.StateSigningKey) < 32 {
		return fmt.Errorf("gateway.stateSigningKey must be at least 32 bytes")
	}

	if g.OAuth != nil {
		if g.OAuth.ClientID == "" {
			return fmt.Errorf("gateway.oauth.clientId is required")
		}
		if g.OAuth.AuthURL == "" || g.OAuth.TokenURL == "" {
			return fmt.Errorf("gateway.oauth.authUrl and tokenUrl are required")
		}
	}

	switch g.Storage {
	case StorageMemory:
	case StorageFirestore:
		if g.GCPProject == "" {
			return fmt.Errorf("gateway.gcpProject is required for firestore storage")
		}
	default:
		return fmt.Errorf("unsupported storage kind: %s", g.Storage)
	}

	if g.Admin != nil && g.Admin.Enabled && g.Admin.TokenHash == "" {
		return fmt.Errorf("gateway.admin.tokenHash is required when admin is enabled")
	}

	if g.ListenTimeout <= 0 {
		return fmt.Errorf("gateway.listenTimeout must be positive")
	}
	if g.SignOutGrace <= 0 {
		return fmt.Errorf("gateway.signOutGrace must be positive")
	}

	return nil
}

// ValidateFile validates a config file structure without requiring env vars
func ValidateFile(path string) (*ValidationResult, error) {
	result := &ValidationResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var rawConfig map[string]any
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Message: fmt.Sprintf("invalid JSON: %v", err),
		})
		return result, nil
	}

	version, ok := rawConfig["version"].(string)
	if !ok {
		result.Errors = append(result.Errors, ValidationError{
			Path:    "version",
			Message: "version field is required. Hint: Add \"version\": \"v1\"",
		})
	} else if !strings.HasPrefix(version, configVersion) {
		result.Errors = append(result.Errors, ValidationError{
			Path:    "version",
			Message: fmt.Sprintf("unsupported version '%s' - use '%s'", version, configVersion),
		})
	}

	gateway, ok := rawConfig["gateway"].(map[string]any)
	if !ok {
		result.Errors = append(result.Errors, ValidationError{
			Path:    "gateway",
			Message: "gateway section is required",
		})
		return result, nil
	}

	for _, field := range []string{"baseURL", "addr"} {
		if _, ok := gateway[field].(string); !ok {
			result.Errors = append(result.Errors, ValidationError{
				Path:    "gateway." + field,
				Message: field + " is required",
			})
		}
	}

	provider, ok := gateway["provider"].(map[string]any)
	if !ok {
		result.Errors = append(result.Errors, ValidationError{
			Path:    "gateway.provider",
			Message: "provider section is required",
		})
	} else {
		if _, ok := provider["url"].(string); !ok {
			result.Errors = append(result.Errors, ValidationError{
				Path:    "gateway.provider.url",
				Message: "provider url is required",
			})
		}
		checkEnvRef(provider["anonKey"], "gateway.provider.anonKey", result)
	}

	checkEnvRef(gateway["stateSigningKey"], "gateway.stateSigningKey", result)

	if oauth, ok := gateway["oauth"].(map[string]any); ok {
		checkEnvRef(oauth["clientSecret"], "gateway.oauth.clientSecret", result)
	}

	if storage, ok := gateway["storage"].(string); ok {
		if storage != string(StorageMemory) && storage != string(StorageFirestore) {
			result.Errors = append(result.Errors, ValidationError{
				Path:    "gateway.storage",
				Message: fmt.Sprintf("unsupported storage kind '%s'", storage),
			})
		}
		if storage == string(StorageFirestore) {
			if _, ok := gateway["gcpProject"].(string); !ok {
				result.Errors = append(result.Errors, ValidationError{
					Path:    "gateway.gcpProject",
					Message: "gcpProject is required for firestore storage",
				})
			}
		}
	}

	if admin, ok := gateway["admin"].(map[string]any); ok {
		if enabled, _ := admin["enabled"].(bool); enabled {
			if _, ok := admin["tokenHash"].(string); !ok {
				result.Warnings = append(result.Warnings, ValidationError{
					Path:    "gateway.admin.tokenHash",
					Message: "admin enabled without a token hash; the admin surface will be rejected at load",
				})
			}
		}
	}

	return result, nil
}

func checkEnvRef(value any, path string, result *ValidationResult) {
	switch v := value.(type) {
	case nil:
		result.Errors = append(result.Errors, ValidationError{
			Path:    path,
			Message: "value is required",
		})
	case string:
		result.Errors = append(result.Errors, ValidationError{
			Path:    path,
			Message: "must use {\"$env\": \"VAR_NAME\"} reference, not a plaintext value",
		})
	case map[string]any:
		if _, ok := v["$env"]; !ok {
			result.Errors = append(result.Errors, ValidationError{
				Path:    path,
				Message: "reference object must contain \"$env\"",
			})
		}
	default:
		result.Errors = append(result.Errors, ValidationError{
			Path:    path,
			Message: "must be an env reference object",
		})
	}
}
