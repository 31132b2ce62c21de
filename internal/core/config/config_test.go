package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecretID = "0123456789abcdef0123456789abcdef"
	testSecret   = "dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w"
	otherSecret  = "YW5vdGhlcnNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stemkeeper.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestHMACSecrets(t *testing.T) {
	t.Run("single secret", func(t *testing.T) {
		t.Setenv("SK_HMAC_SECRET", testSecretID+":"+testSecret)

		secrets, err := HMACSecrets()
		require.NoError(t, err)
		assert.Len(t, secrets, 1)
		assert.Contains(t, secrets, testSecretID)
	})

	t.Run("multiple numbered secrets", func(t *testing.T) {
		t.Setenv("SK_HMAC_SECRET_1", testSecretID+":"+testSecret)
		t.Setenv("SK_HMAC_SECRET_2", "fedcba9876543210fedcba9876543210:"+otherSecret)

		secrets, err := HMACSecrets()
		require.NoError(t, err)
		assert.Len(t, secrets, 2)
	})

	t.Run("numbering stops at first gap", func(t *testing.T) {
		t.Setenv("SK_HMAC_SECRET_1", testSecretID+":"+testSecret)
		t.Setenv("SK_HMAC_SECRET_3", "fedcba9876543210fedcba9876543210:"+otherSecret)

		secrets, err := HMACSecrets()
		require.NoError(t, err)
		assert.Len(t, secrets, 1)
	})

	errorCases := []struct {
		name string
		env  map[string]string
	}{
		{"invalid format", map[string]string{"SK_HMAC_SECRET": "invalid_format"}},
		{"short secret_id", map[string]string{"SK_HMAC_SECRET": "short:" + testSecret}},
		{"non-hex secret_id", map[string]string{"SK_HMAC_SECRET": "0123456789abcdefGHIJKLMNOPQRSTUV:" + testSecret}},
		{"duplicate numbered", map[string]string{
			"SK_HMAC_SECRET_1": testSecretID + ":" + testSecret,
			"SK_HMAC_SECRET_2": testSecretID + ":" + otherSecret,
		}},
		{"duplicate single and numbered", map[string]string{
			"SK_HMAC_SECRET":   testSecretID + ":" + testSecret,
			"SK_HMAC_SECRET_1": testSecretID + ":" + otherSecret,
		}},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := HMACSecrets()
			assert.Error(t, err)
		})
	}
}

func TestParseHMACSecretWithID(t *testing.T) {
	id, secret, err := ParseHMACSecretWithID(testSecretID + ":" + testSecret)
	require.NoError(t, err)
	assert.Equal(t, testSecretID, id)

	gotID, gotSecret, err := ParseHMACSecretWithID(FormatHMACSecret(id, secret))
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
	assert.Equal(t, secret, gotSecret)

	for _, bad := range []string{
		testSecretID,
		testSecretID + ":not-valid-base64!!!",
		testSecretID + ":c2hvcnQ=",
	} {
		_, _, err := ParseHMACSecretWithID(bad)
		assert.Error(t, err, "ParseHMACSecretWithID(%q)", bad)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "-", cfg.Assembly.Input)
	assert.Equal(t, "-", cfg.Assembly.Output)
	assert.Equal(t, "numeric", cfg.Assembly.Reclip)
	assert.Equal(t, "0.0.0.0:50051", cfg.Server.Addr())
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.False(t, cfg.Server.RequireAuth)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.DB.URL)
}

func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	t.Setenv("SK_SERVER_PORT", "9999")
	t.Setenv("SK_SERVER_HOST", "127.0.0.1")
	t.Setenv("SK_ASSEMBLY_RECLIP", "ceiling")
	t.Setenv("SK_DB_URL", "sqlite:///tmp/journal.db")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr())
	assert.Equal(t, "ceiling", cfg.Assembly.Reclip)
	assert.Equal(t, "sqlite:///tmp/journal.db", cfg.DB.URL)
}

func TestLoadConfig_EnvironmentBeatsFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n  require_auth: true\nlog:\n  format: text\n")
	t.Setenv("SK_SERVER_PORT", "8080")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port, "port from environment")
	assert.True(t, cfg.Server.RequireAuth, "require_auth from file")
	assert.Equal(t, "text", cfg.Log.Format, "log.format from file")
}

func TestLoadConfig_RejectsSecretInFile(t *testing.T) {
	path := writeConfig(t, "server:\n  host: localhost\n  hmac_secret: should_be_rejected\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SK_HMAC_SECRET")
}

func TestLoadConfig_SecretInEnvironmentAllowed(t *testing.T) {
	t.Setenv("SK_HMAC_SECRET", testSecretID+":"+testSecret)
	_, err := LoadConfig("")
	assert.NoError(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port too large", "SK_SERVER_PORT", "70000"},
		{"zero timeout", "SK_SERVER_REQUEST_TIMEOUT", "0s"},
		{"unknown reclip", "SK_ASSEMBLY_RECLIP", "sideways"},
		{"unknown level", "SK_LOG_LEVEL", "loud"},
		{"unknown format", "SK_LOG_FORMAT", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := LoadConfig("")
			assert.Error(t, err, "%s=%s", tt.key, tt.val)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
