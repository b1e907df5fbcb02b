package config_test

import (
	"errors"
	"testing"

	"folio/internal/config"

	"github.com/stretchr/testify/assert"
)

func validConfig() config.Config {
	return config.Config{
		DBHost:       "localhost",
		DBUser:       "user",
		DBName:       "db",
		GeminiAPIKey: "key",
		DoclingURL:   "http://docling:8000",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{"valid config", func(c *config.Config) {}, false},
		{"missing DBHost", func(c *config.Config) { c.DBHost = "" }, true},
		{"missing DBUser", func(c *config.Config) { c.DBUser = "" }, true},
		{"missing DBName", func(c *config.Config) { c.DBName = "" }, true},
		{"missing GeminiAPIKey", func(c *config.Config) { c.GeminiAPIKey = "" }, true},
		{"missing DoclingURL", func(c *config.Config) { c.DoclingURL = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, config.ErrMissingRequired))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
