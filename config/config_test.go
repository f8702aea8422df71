package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("CONFIG_PATH", path)
}

const minimalConfig = `
http:
  addr: ":8080"
mongo:
  uri: "mongodb://localhost:27017"
identity:
  baseUrl: "https://id.example.com"
ai:
  baseUrl: "https://ai.example.com"
  model: "gpt-4o-mini"
`

func TestLoadConfigDefaults(t *testing.T) {
	writeConfig(t, minimalConfig)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "chatgrid", cfg.Mongo.Database)
	assert.Equal(t, "http://localhost:5173", cfg.HTTP.AllowedOrigin)
	assert.Equal(t, "chat-service", cfg.Logging.Service)
	assert.Equal(t, "dev", cfg.Logging.Env)
	assert.Equal(t, 5*time.Second, cfg.IdentityTimeout())
	assert.Equal(t, 60*time.Second, cfg.AITimeout())
}

func TestLoadConfigSecretsFromEnv(t *testing.T) {
	writeConfig(t, minimalConfig)
	t.Setenv("AI_API_KEY", "sk-live")
	t.Setenv("IDENTITY_API_KEY", "idk-live")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sk-live", cfg.Secrets.AIAPIKey)
	assert.Equal(t, "idk-live", cfg.Secrets.IdentityAPIKey)
}

func TestLoadConfigTimeouts(t *testing.T) {
	writeConfig(t, minimalConfig+`
  timeout: "10s"
`)
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.AITimeout())
	// identity.timeout не задан — дефолт
	assert.Equal(t, 5*time.Second, cfg.IdentityTimeout())
}

func TestLoadConfigMissingRequired(t *testing.T) {
	for name, body := range map[string]string{
		"no http addr": `
mongo: {uri: "mongodb://x"}
identity: {baseUrl: "https://id"}
ai: {baseUrl: "https://ai", model: "m"}
`,
		"no mongo uri": `
http: {addr: ":8080"}
identity: {baseUrl: "https://id"}
ai: {baseUrl: "https://ai", model: "m"}
`,
		"no ai model": `
http: {addr: ":8080"}
mongo: {uri: "mongodb://x"}
identity: {baseUrl: "https://id"}
ai: {baseUrl: "https://ai"}
`,
	} {
		writeConfig(t, body)
		_, err := LoadConfig()
		assert.Error(t, err, name)
	}
}
