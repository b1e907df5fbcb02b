package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"folio/internal/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "test-key")
}

func TestLoadConfig(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_HOST", "test-host")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, "test-host", cfg.DBHost)
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, "http://docling:8000", cfg.DoclingURL)
	assert.Equal(t, "eng", cfg.OCRLanguage)
	assert.Equal(t, 8081, cfg.ServerPort)
	assert.Equal(t, int64(50), cfg.MaxUploadSizeMB)
	assert.True(t, cfg.EnableAPI)
	assert.True(t, cfg.EnableWorker)
}

func TestLoadConfig_FromEnvFile(t *testing.T) {
	setRequired(t)
	content := []byte("DB_HOST=loaded-from-file")
	err := os.WriteFile(".env", content, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(".env")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, "loaded-from-file", cfg.DBHost)
}

func TestLoadConfig_Toggles(t *testing.T) {
	setRequired(t)
	t.Setenv("ENABLE_API", "false")
	t.Setenv("ENABLE_WORKER", "false")
	t.Setenv("OCR_LANGUAGE", "eng+deu")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.False(t, cfg.EnableAPI)
	assert.False(t, cfg.EnableWorker)
	assert.Equal(t, "eng+deu", cfg.OCRLanguage)
}

func TestLoadConfig_MissingGeminiKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := config.Load()
	assert.ErrorIs(t, err, config.ErrMissingRequired)
}
