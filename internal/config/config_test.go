package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"nbexit/res"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

// clearEnv unsets the credential variables for the duration of the test
// so values leaking in from the host environment cannot skew results.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"NETBIRD_API_URL", "NETBIRD_ACCESS_TOKEN"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewReadsFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[api]
api_url = "https://api.netbird.example"
access_token = "file-token"
`)

	cfg, err := New(path, false)
	require.NoError(t, err)
	assert.Equal(t, "https://api.netbird.example", cfg.API.URL)
	assert.Equal(t, "file-token", cfg.API.AccessToken)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
	assert.Equal(t, time.Minute, cfg.TrayRefresh())
}

func TestNewEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[api]
api_url = "https://file.example"
access_token = "file-token"
`)
	t.Setenv("NETBIRD_API_URL", "https://env.example")

	cfg, err := New(path, false)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example", cfg.API.URL)
	assert.Equal(t, "file-token", cfg.API.AccessToken, "unset variables fall back to the file")
}

func TestNewSkipConfigUsesEnvironmentOnly(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[api]
api_url = "https://file.example"
access_token = "file-token"
`)
	t.Setenv("NETBIRD_API_URL", "https://env.example")
	t.Setenv("NETBIRD_ACCESS_TOKEN", "env-token")

	cfg, err := New(path, true)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example", cfg.API.URL)
	assert.Equal(t, "env-token", cfg.API.AccessToken)
}

func TestNewMissingFileFallsBackToEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("NETBIRD_API_URL", "https://env.example")

	cfg, err := New(filepath.Join(t.TempDir(), "nope.toml"), false)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example", cfg.API.URL)
}

func TestNewKeyringFallbackForToken(t *testing.T) {
	clearEnv(t)
	keyring.MockInit()
	require.NoError(t, keyring.Set(res.KeyringService, keyringUser, "keyring-token"))

	path := writeConfig(t, `
[api]
api_url = "https://api.netbird.example"
`)

	cfg, err := New(path, false)
	require.NoError(t, err)
	assert.Equal(t, "keyring-token", cfg.API.AccessToken)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"complete", Config{API: API{URL: "https://api.netbird.example", AccessToken: "tok"}}, true},
		{"missing url", Config{API: API{AccessToken: "tok"}}, false},
		{"bad scheme", Config{API: API{URL: "api.netbird.example", AccessToken: "tok"}}, false},
		{"missing token", Config{API: API{URL: "https://api.netbird.example"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrIncomplete)
			}
		})
	}
}

func TestSaveStoresTokenInKeyring(t *testing.T) {
	clearEnv(t)
	keyring.MockInit()
	path := filepath.Join(t.TempDir(), "config.toml")

	inKeyring, err := Save(path, "https://api.netbird.example/", "super-secret")
	require.NoError(t, err)
	assert.True(t, inKeyring)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "super-secret", "token must stay out of the file")
	assert.Contains(t, string(raw), "https://api.netbird.example", "trailing slash trimmed")

	cfg, err := New(path, false)
	require.NoError(t, err)
	assert.Equal(t, "https://api.netbird.example", cfg.API.URL)
	assert.Equal(t, "super-secret", cfg.API.AccessToken)
}

func TestSavePreservesUnrelatedSettings(t *testing.T) {
	clearEnv(t)
	keyring.MockInit()
	path := writeConfig(t, `
request_timeout_seconds = 5

[tray]
refresh_seconds = 10
`)

	_, err := Save(path, "https://api.netbird.example", "tok")
	require.NoError(t, err)

	cfg, err := New(path, false)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 10*time.Second, cfg.TrayRefresh())
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "***", MaskToken("short"))
	assert.Equal(t, "nbp_AAAA...ZZZZ", MaskToken("nbp_AAAABBBBCCCCZZZZ"))
}
