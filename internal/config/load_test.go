package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `{
  "version": "v1",
  "gateway": {
    "baseURL": "https://app.example.com",
    "addr": ":8080",
    "name": "authgw",
    "provider": {
      "url": "https://project.supabase.co",
      "anonKey": {"$env": "TEST_ANON_KEY"}
    },
    "oauth": {
      "clientId": "client-id",
      "clientSecret": {"$env": "TEST_CLIENT_SECRET"},
      "authUrl": "https://accounts.google.com/o/oauth2/v2/auth",
      "tokenUrl": "https://oauth2.googleapis.com/token",
      "scopes": ["openid", "email"]
    },
    "billing": {"url": "https://billing.example.com"},
    "admin": {
      "enabled": true,
      "adminEmails": ["admin@example.com"],
      "tokenHash": "$2a$10$abcdefghijklmnopqrstuv"
    },
    "storage": "memory",
    "stateSigningKey": {"$env": "TEST_SIGNING_KEY"},
    "listenTimeout": "5s",
    "signOutGrace": "500ms",
    "pollInterval": "100ms",
    "sessionTtl": "12h"
  }
}`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func setTestSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("TEST_ANON_KEY", "anon-key-value")
	t.Setenv("TEST_CLIENT_SECRET", "client-secret-value")
	t.Setenv("TEST_SIGNING_KEY", "0123456789abcdef0123456789abcdef")
}

func TestLoad(t *testing.T) {
	setTestSecrets(t)

	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	g := cfg.Gateway
	assert.Equal(t, "https://app.example.com", g.BaseURL)
	assert.Equal(t, ":8080", g.Addr)
	assert.Equal(t, Secret("anon-key-value"), g.Provider.AnonKey)
	assert.Equal(t, Secret("0123456789abcdef0123456789abcdef"), g.StateSigningKey)
	assert.Equal(t, StorageMemory, g.Storage)

	require.NotNil(t, g.OAuth)
	assert.Equal(t, "client-id", g.OAuth.ClientID)
	assert.Equal(t, Secret("client-secret-value"), g.OAuth.ClientSecret)

	assert.Equal(t, 5*time.Second, g.ListenTimeout)
	assert.Equal(t, 500*time.Millisecond, g.SignOutGrace)
	assert.Equal(t, 100*time.Millisecond, g.PollInterval)
	assert.Equal(t, 12*time.Hour, g.SessionTTL)
}

func TestLoadDefaults(t *testing.T) {
	setTestSecrets(t)
	minimal := `{
  "version": "v1",
  "gateway": {
    "baseURL": "https://app.example.com",
    "addr": ":8080",
    "provider": {
      "url": "https://project.supabase.co",
      "anonKey": {"$env": "TEST_ANON_KEY"}
    },
    "stateSigningKey": {"$env": "TEST_SIGNING_KEY"}
  }
}`

	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)

	g := cfg.Gateway
	assert.Equal(t, StorageMemory, g.Storage)
	assert.Equal(t, 8*time.Second, g.ListenTimeout)
	assert.Equal(t, 750*time.Millisecond, g.SignOutGrace)
	assert.Equal(t, 250*time.Millisecond, g.PollInterval)
	assert.Equal(t, 24*time.Hour, g.SessionTTL)
	assert.Nil(t, g.OAuth)
}

func TestLoadRejectsPlaintextSecrets(t *testing.T) {
	setTestSecrets(t)
	plaintext := `{
  "version": "v1",
  "gateway": {
    "baseURL": "https://app.example.com",
    "addr": ":8080",
    "provider": {
      "url": "https://project.supabase.co",
      "anonKey": "plaintext-secret"
    },
    "stateSigningKey": {"$env": "TEST_SIGNING_KEY"}
  }
}`

	_, err := Load(writeConfig(t, plaintext))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anonKey")
}

func TestLoadMissingEnvVar(t *testing.T) {
	t.Setenv("TEST_ANON_KEY", "anon-key-value")
	t.Setenv("TEST_CLIENT_SECRET", "client-secret-value")
	t.Setenv("TEST_SIGNING_KEY", "")

	_, err := Load(writeConfig(t, validConfig))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEST_SIGNING_KEY")
}

func TestLoadStripsQuotedEnvValues(t *testing.T) {
	setTestSecrets(t)
	t.Setenv("TEST_ANON_KEY", `"quoted-value"`)

	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)
	assert.Equal(t, Secret("quoted-value"), cfg.Gateway.Provider.AnonKey)
}

func TestLoadVersionChecks(t *testing.T) {
	setTestSecrets(t)

	t.Run("missing version", func(t *testing.T) {
		_, err := Load(writeConfig(t, `{"gateway": {}}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "version")
	})

	t.Run("unsupported version", func(t *testing.T) {
		_, err := Load(writeConfig(t, `{"version": "v2", "gateway": {}}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported")
	})
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoadShortSigningKey(t *testing.T) {
	setTestSecrets(t)
	t.Setenv("TEST_SIGNING_KEY", "too-short")

	_, err := Load(writeConfig(t, validConfig))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")
}

func TestLoadBadDuration(t *testing.T) {
	setTestSecrets(t)
	bad := `{
  "version": "v1",
  "gateway": {
    "baseURL": "https://app.example.com",
    "addr": ":8080",
    "provider": {
      "url": "https://project.supabase.co",
      "anonKey": {"$env": "TEST_ANON_KEY"}
    },
    "stateSigningKey": {"$env": "TEST_SIGNING_KEY"},
    "listenTimeout": "not-a-duration"
  }
}`

	_, err := Load(writeConfig(t, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listenTimeout")
}

func TestSecretRedaction(t *testing.T) {
	s := Secret("very-secret")
	assert.Equal(t, "***", s.String())
	assert.Equal(t, "***", fmt.Sprintf("%v", s))

	data, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"***"`, string(data))

	empty := Secret("")
	assert.Equal(t, "", empty.String())
}
