// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolateEnv unsets every mapped variable and CONFIG_PATH for the duration
// of the test.
func isolateEnv(t *testing.T) {
	t.Helper()
	keys := []string{ConfigPathEnvVar}
	for k := range envMappings {
		keys = append(keys, strings.ToUpper(k))
	}
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			os.Unsetenv(k)
			t.Cleanup(func() { os.Setenv(k, v) })
		}
	}
}

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	// Server defaults
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", cfg.Server.Host)
	}
	if !cfg.IsDevelopment() {
		t.Errorf("Server.Environment = %q, want development", cfg.Server.Environment)
	}

	// Artifact defaults (local only)
	if cfg.Artifacts.RemoteURL != "" {
		t.Errorf("Artifacts.RemoteURL should be empty by default, got %q", cfg.Artifacts.RemoteURL)
	}
	if cfg.Artifacts.Dir != "/data/artifacts" {
		t.Errorf("Artifacts.Dir = %q, want /data/artifacts", cfg.Artifacts.Dir)
	}

	// Recommend defaults
	if cfg.Recommend.Alpha != 0.5 || cfg.Recommend.Beta != 0.3 {
		t.Errorf("Recommend weights = %v/%v, want 0.5/0.3", cfg.Recommend.Alpha, cfg.Recommend.Beta)
	}
	if cfg.Recommend.DefaultTopN != 10 {
		t.Errorf("Recommend.DefaultTopN = %d, want 10", cfg.Recommend.DefaultTopN)
	}
	if cfg.Recommend.KSimilarUsers != 50 {
		t.Errorf("Recommend.KSimilarUsers = %d, want 50", cfg.Recommend.KSimilarUsers)
	}
	if cfg.Recommend.TextCacheTTL != 30*time.Minute {
		t.Errorf("Recommend.TextCacheTTL = %v, want 30m", cfg.Recommend.TextCacheTTL)
	}

	// Security defaults
	if cfg.Security.RateLimitReqs != 100 {
		t.Errorf("Security.RateLimitReqs = %d, want 100", cfg.Security.RateLimitReqs)
	}
	if len(cfg.Security.CORSOrigins) != 1 || cfg.Security.CORSOrigins[0] != "*" {
		t.Errorf("Security.CORSOrigins = %v, want [*]", cfg.Security.CORSOrigins)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig().Validate() = %v, want nil", err)
	}
}

// TestEnvTransformFunc verifies environment variable name transformations
func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Server
		{"HTTP_PORT", "server.port"},
		{"HTTP_HOST", "server.host"},
		{"REQUEST_TIMEOUT", "server.request_timeout"},
		{"ENVIRONMENT", "server.environment"},

		// Artifacts
		{"ARTIFACTS_DIR", "artifacts.dir"},
		{"ARTIFACTS_REMOTE_URL", "artifacts.remote_url"},
		{"ARTIFACTS_BREAKER_FAILURE_RATIO", "artifacts.breaker_failure_ratio"},
		{"WARMUP_TIMEOUT", "artifacts.warmup_timeout"},

		// Encoder
		{"ENCODER_URL", "encoder.url"},
		{"ENCODER_API_KEY", "encoder.api_key"},

		// Recommend
		{"RECOMMEND_MEDIA", "recommend.media"},
		{"RECOMMEND_ALPHA", "recommend.alpha"},
		{"RECOMMEND_K_SIMILAR_USERS", "recommend.k_similar_users"},

		// Security
		{"CORS_ORIGINS", "security.cors_origins"},
		{"RATE_LIMIT_REQUESTS", "security.rate_limit_reqs"},
		{"DISABLE_RATE_LIMIT", "security.rate_limit_disabled"},

		// Logging
		{"LOG_LEVEL", "logging.level"},
		{"log_format", "logging.format"},

		// Builder
		{"BUILD_TFIDF_COMPONENTS", "build.tfidf_components"},

		// Unknown (should return empty)
		{"RANDOM_VAR", ""},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := envTransformFunc(tt.input)
			if result != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// TestFindConfigFile verifies config file discovery
func TestFindConfigFile(t *testing.T) {
	isolateEnv(t)
	tmpDir := t.TempDir()

	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(origDir); err != nil {
			t.Errorf("Failed to restore working directory: %v", err)
		}
	})
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}

	t.Run("no config file exists", func(t *testing.T) {
		if result := findConfigFile(); result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})

	t.Run("config.yaml exists", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "config.yaml")
		if err := os.WriteFile(configPath, []byte("test: true"), 0o644); err != nil {
			t.Fatalf("Failed to create config file: %v", err)
		}
		defer os.Remove(configPath)

		if result := findConfigFile(); result != "config.yaml" {
			t.Errorf("findConfigFile() = %q, want config.yaml", result)
		}
	})

	t.Run("CONFIG_PATH env var takes precedence", func(t *testing.T) {
		customPath := filepath.Join(tmpDir, "custom_config.yaml")
		if err := os.WriteFile(customPath, []byte("test: true"), 0o644); err != nil {
			t.Fatalf("Failed to create custom config file: %v", err)
		}
		t.Setenv(ConfigPathEnvVar, customPath)

		if result := ConfigFilePath(); result != customPath {
			t.Errorf("ConfigFilePath() = %q, want %q", result, customPath)
		}
	})

	t.Run("CONFIG_PATH env var with non-existent file", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "/non/existent/config.yaml")

		// Falls back to default paths, which don't exist in the temp dir
		if result := findConfigFile(); result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})
}

// TestLoadWithKoanfEnvVars tests loading configuration from environment variables
func TestLoadWithKoanfEnvVars(t *testing.T) {
	isolateEnv(t)

	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RECOMMEND_MEDIA", "books")
	t.Setenv("RECOMMEND_METHODS", "tfidf, sbert")
	t.Setenv("RECOMMEND_ALPHA", "0.7")
	t.Setenv("RECOMMEND_TEXT_CACHE_TTL", "5m")
	t.Setenv("CORS_ORIGINS", "http://a.example.com,http://b.example.com")
	t.Setenv("DISABLE_RATE_LIMIT", "true")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if len(cfg.Recommend.Media) != 1 || cfg.Recommend.Media[0] != "books" {
		t.Errorf("Recommend.Media = %v, want [books]", cfg.Recommend.Media)
	}
	if len(cfg.Recommend.Methods) != 2 || cfg.Recommend.Methods[1] != "sbert" {
		t.Errorf("Recommend.Methods = %v, want [tfidf sbert]", cfg.Recommend.Methods)
	}
	if cfg.Recommend.Alpha != 0.7 {
		t.Errorf("Recommend.Alpha = %v, want 0.7", cfg.Recommend.Alpha)
	}
	if cfg.Recommend.TextCacheTTL != 5*time.Minute {
		t.Errorf("Recommend.TextCacheTTL = %v, want 5m", cfg.Recommend.TextCacheTTL)
	}
	if len(cfg.Security.CORSOrigins) != 2 {
		t.Errorf("Security.CORSOrigins = %v, want 2 origins", cfg.Security.CORSOrigins)
	}
	if !cfg.Security.RateLimitDisabled {
		t.Error("Security.RateLimitDisabled = false, want true")
	}

	// Defaults are still applied for unset values
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0 (default)", cfg.Server.Host)
	}
	if cfg.Recommend.Beta != 0.3 {
		t.Errorf("Recommend.Beta = %v, want 0.3 (default)", cfg.Recommend.Beta)
	}
}

// TestLoadWithKoanfConfigFile tests loading configuration from a YAML file
func TestLoadWithKoanfConfigFile(t *testing.T) {
	isolateEnv(t)

	configContent := `
server:
  port: 8888
  host: "127.0.0.1"

artifacts:
  dir: "/srv/artifacts"
  remote_url: "https://blobs.example.com/mediarec"

recommend:
  media: ["movies"]
  methods: ["tfidf"]
  k_similar_users: 25

logging:
  level: "warn"
`
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, configPath)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 8888 {
		t.Errorf("Server.Port = %d, want 8888", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Artifacts.Dir != "/srv/artifacts" {
		t.Errorf("Artifacts.Dir = %q, want /srv/artifacts", cfg.Artifacts.Dir)
	}
	if cfg.Recommend.KSimilarUsers != 25 {
		t.Errorf("Recommend.KSimilarUsers = %d, want 25", cfg.Recommend.KSimilarUsers)
	}
	if got := cfg.Variants(); len(got) != 1 || got[0].String() != "movies/tfidf" {
		t.Errorf("Variants() = %v, want [movies/tfidf]", got)
	}
	if rc := cfg.RemoteConfig(); rc == nil || rc.BaseURL != "https://blobs.example.com/mediarec" {
		t.Errorf("RemoteConfig() = %+v, want base URL from file", rc)
	}

	// Defaults are still applied for unset values
	if cfg.Artifacts.CacheDir != "/data/cache" {
		t.Errorf("Artifacts.CacheDir = %q, want /data/cache (default)", cfg.Artifacts.CacheDir)
	}
}

// TestLoadWithKoanfEnvOverridesFile tests that env vars override config file
func TestLoadWithKoanfEnvOverridesFile(t *testing.T) {
	isolateEnv(t)

	configContent := `
server:
  port: 8888

encoder:
  url: "http://encoder.local:8080"

logging:
  level: "warn"
`
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, configPath)
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("ARTIFACTS_DIR", "/custom/artifacts")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Encoder.URL != "http://encoder.local:8080" {
		t.Errorf("Encoder.URL = %q, want http://encoder.local:8080 (from file)", cfg.Encoder.URL)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999 (env override)", cfg.Server.Port)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, want error (env override)", cfg.Logging.Level)
	}
	if cfg.Artifacts.Dir != "/custom/artifacts" {
		t.Errorf("Artifacts.Dir = %q, want /custom/artifacts (env override)", cfg.Artifacts.Dir)
	}
}

// TestLoadWithKoanfValidation tests that validation runs on the merged config
func TestLoadWithKoanfValidation(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		errMsg  string
	}{
		{
			name:    "defaults only",
			envVars: map[string]string{},
		},
		{
			name:    "weights sum above one",
			envVars: map[string]string{"RECOMMEND_ALPHA": "0.8", "RECOMMEND_BETA": "0.5"},
			errMsg:  "alpha + beta",
		},
		{
			name:    "unknown medium",
			envVars: map[string]string{"RECOMMEND_MEDIA": "movies,games"},
			errMsg:  "must be one of: movies, books",
		},
		{
			name:    "invalid log level",
			envVars: map[string]string{"LOG_LEVEL": "verbose"},
			errMsg:  "LOG_LEVEL",
		},
		{
			name:    "encoder URL with path",
			envVars: map[string]string{"ENCODER_URL": "http://encoder.local/v1/embeddings"},
			errMsg:  "ENCODER_URL",
		},
		{
			name:    "wildcard CORS in production",
			envVars: map[string]string{"ENVIRONMENT": "production"},
			errMsg:  "CORS_ORIGINS",
		},
		{
			name: "production with explicit origins",
			envVars: map[string]string{
				"ENVIRONMENT":  "production",
				"CORS_ORIGINS": "https://app.example.com",
			},
		},
		{
			name:    "port out of range",
			envVars: map[string]string{"HTTP_PORT": "70000"},
			errMsg:  "Port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			_, err := LoadWithKoanf()

			if tt.errMsg == "" {
				if err != nil {
					t.Errorf("LoadWithKoanf() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("LoadWithKoanf() error = %v, want error containing %q", err, tt.errMsg)
			}
		})
	}
}
