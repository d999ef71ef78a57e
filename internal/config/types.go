package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Secret is a string type that redacts itself when printed
type Secret string

// String implements fmt.Stringer to redact the secret
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "***"
}

// MarshalJSON implements json.Marshaler to prevent secrets in JSON logs
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal("")
	}
	return json.Marshal("***")
}

// StorageKind selects the audit-trail backend.
type StorageKind string

const (
	StorageMemory    StorageKind = "memory"
	StorageFirestore StorageKind = "firestore"
)

// ProviderConfig points at the hosted identity provider project.
type ProviderConfig struct {
	URL     string `json:"url"`
	AnonKey Secret `json:"anonKey"`
}

// OAuthSignInConfig configures the gated OAuth sign-in entry point.
type OAuthSignInConfig struct {
	ClientID     string   `json:"clientId"`
	ClientSecret Secret   `json:"clientSecret"`
	AuthURL      string   `json:"authUrl"`
	TokenURL     string   `json:"tokenUrl"`
	Scopes       []string `json:"scopes,omitempty"`
}

// BillingConfig points at the subscription capability endpoint.
type BillingConfig struct {
	URL string `json:"url"`
}

// AdminConfig configures the admin surface: the bearer token hash guarding
// it, and the config-level (super) admin emails that bypass the
// subscription gate.
type AdminConfig struct {
	Enabled     bool     `json:"enabled"`
	AdminEmails []string `json:"adminEmails,omitempty"`
	TokenHash   string   `json:"tokenHash,omitempty"`
}

// GatewayConfig is the resolved gateway configuration.
type GatewayConfig struct {
	BaseURL string `json:"baseURL"`
	Addr    string `json:"addr"`
	Name    string `json:"name"`

	Provider ProviderConfig     `json:"provider"`
	OAuth    *OAuthSignInConfig `json:"oauth,omitempty"`
	Billing  BillingConfig      `json:"billing"`
	Admin    *AdminConfig       `json:"admin,omitempty"`

	Storage           StorageKind `json:"storage,omitempty"`
	GCPProject        string      `json:"gcpProject,omitempty"`
	FirestoreDatabase string      `json:"firestoreDatabase,omitempty"`

	StateSigningKey Secret `json:"stateSigningKey"`

	ListenTimeout time.Duration `json:"-"`
	SignOutGrace  time.Duration `json:"-"`
	PollInterval  time.Duration `json:"-"`
	SessionTTL    time.Duration `json:"-"`
}

// Config represents the config structure with resolved values
type Config struct {
	Version string        `json:"version"`
	Gateway GatewayConfig `json:"gateway"`
}

// resolveValue parses a JSON value that is either a plain string or an
// {"$env": "VAR"} reference resolved against the environment.
func resolveValue(raw json.RawMessage) (string, error) {
	if raw == nil {
		return "", nil
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, nil
	}

	var ref map[string]string
	if err := json.Unmarshal(raw, &ref); err != nil {
		return "", fmt.Errorf("config value must be string or reference object")
	}

	envVar, ok := ref["$env"]
	if !ok {
		return "", fmt.Errorf("unknown reference type in config value")
	}
	value := os.Getenv(envVar)
	if value == "" {
		return "", fmt.Errorf("environment variable %s not set", envVar)
	}
	// Strip surrounding quotes if present (only matching pairs)
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			value = value[1 : len(value)-1]
		}
	}
	return value, nil
}

func parseDuration(raw, field string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", field, err)
	}
	return d, nil
}

// UnmarshalJSON resolves env references and duration strings immediately,
// so the rest of the gateway only ever sees final values.
func (g *GatewayConfig) UnmarshalJSON(data []byte) error {
	type rawProvider struct {
		URL     string          `json:"url"`
		AnonKey json.RawMessage `json:"anonKey"`
	}
	type rawOAuth struct {
		ClientID     string          `json:"clientId"`
		ClientSecret json.RawMessage `json:"clientSecret"`
		AuthURL      string          `json:"authUrl"`
		TokenURL     string          `json:"tokenUrl"`
		Scopes       []string        `json:"scopes"`
	}
	type rawGateway struct {
		BaseURL           string          `json:"baseURL"`
		Addr              string          `json:"addr"`
		Name              string          `json:"name"`
		Provider          rawProvider     `json:"provider"`
		OAuth             *rawOAuth       `json:"oauth"`
		Billing           BillingConfig   `json:"billing"`
		Admin             *AdminConfig    `json:"admin"`
		Storage           string          `json:"storage"`
		GCPProject        string          `json:"gcpProject"`
		FirestoreDatabase string          `json:"firestoreDatabase"`
		StateSigningKey   json.RawMessage `json:"stateSigningKey"`
		ListenTimeout     string          `json:"listenTimeout"`
		SignOutGrace      string          `json:"signOutGrace"`
		PollInterval      string          `json:"pollInterval"`
		SessionTTL        string          `json:"sessionTtl"`
	}

	var raw rawGateway
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	g.BaseURL = raw.BaseURL
	g.Addr = raw.Addr
	g.Name = raw.Name
	g.Billing = raw.Billing
	g.Admin = raw.Admin
	g.GCPProject = raw.GCPProject
	g.FirestoreDatabase = raw.FirestoreDatabase

	g.Storage = StorageKind(raw.Storage)
	if g.Storage == "" {
		g.Storage = StorageMemory
	}

	g.Provider.URL = raw.Provider.URL
	anonKey, err := resolveValue(raw.Provider.AnonKey)
	if err != nil {
		return fmt.Errorf("parsing provider.anonKey: %w", err)
	}
	g.Provider.AnonKey = Secret(anonKey)

	if raw.OAuth != nil {
		secret, err := resolveValue(raw.OAuth.ClientSecret)
		if err != nil {
			return fmt.Errorf("parsing oauth.clientSecret: %w", err)
		}
		g.OAuth = &OAuthSignInConfig{
			ClientID:     raw.OAuth.ClientID,
			ClientSecret: Secret(secret),
			AuthURL:      raw.OAuth.AuthURL,
			TokenURL:     raw.OAuth.TokenURL,
			Scopes:       raw.OAuth.Scopes,
		}
	}

	signingKey, err := resolveValue(raw.StateSigningKey)
	if err != nil {
		return fmt.Errorf("parsing stateSigningKey: %w", err)
	}
	g.StateSigningKey = Secret(signingKey)

	if g.ListenTimeout, err = parseDuration(raw.ListenTimeout, "listenTimeout", 8*time.Second); err != nil {
		return err
	}
	if g.SignOutGrace, err = parseDuration(raw.SignOutGrace, "signOutGrace", 750*time.Millisecond); err != nil {
		return err
	}
	if g.PollInterval, err = parseDuration(raw.PollInterval, "pollInterval", 250*time.Millisecond); err != nil {
		return err
	}
	if g.SessionTTL, err = parseDuration(raw.SessionTTL, "sessionTtl", 24*time.Hour); err != nil {
		return err
	}

	return nil
}
