package config

import (
	"testing"

	"chat-with-pdf-be/internal/constant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HISTORY_MAX_TURNS", "not-a-number")
	t.Setenv("LLM_TEMPERATURE", "0.3")

	cfg := Load()

	assert.Equal(t, constant.PDFChunkSize, cfg.Rag.ChunkSize)
	assert.Equal(t, constant.PDFChunkOverlap, cfg.Rag.ChunkOverlap)
	assert.Equal(t, constant.RetrieverTopK, cfg.Rag.TopK)
	assert.Equal(t, constant.HistoryMaxTurns, cfg.Rag.HistoryMaxTurns)
	assert.Equal(t, constant.BackendLocal, cfg.Rag.DefaultBackend)
	assert.InDelta(t, 0.3, cfg.Gateway.Temperature, 1e-6)
	assert.Equal(t, constant.RemoteDBPort, cfg.RemoteDB.Port)
	assert.Equal(t, "require", cfg.RemoteDB.SSLMode)
}

func TestLoad_ProductionFlag(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	assert.True(t, Load().IsProduction())

	t.Setenv("GO_ENV", "development")
	assert.False(t, Load().IsProduction())
}

func TestRemoteDBConfig_Validate(t *testing.T) {
	err := RemoteDBConfig{User: "u"}.Validate()
	require.ErrorIs(t, err, ErrMissingRemoteConfig)
	assert.Contains(t, err.Error(), "REMOTE_DB_ADDRESS")
	assert.Contains(t, err.Error(), "REMOTE_DB_PASSWORD")
	assert.NotContains(t, err.Error(), "REMOTE_DB_USER")

	assert.NoError(t, RemoteDBConfig{Address: "db.example.com", User: "u", Password: "p"}.Validate())
}

func TestConfig_ValidateSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	assert.ErrorIs(t, Load().ValidateSessionSecret(), ErrDefaultSessionSecret)

	cfg := &Config{Keys: APIKeys{SessionSecret: defaultSessionSecret}}
	assert.ErrorIs(t, cfg.ValidateSessionSecret(), ErrDefaultSessionSecret)

	cfg.Keys.SessionSecret = "a-long-random-secret"
	assert.NoError(t, cfg.ValidateSessionSecret())
}
