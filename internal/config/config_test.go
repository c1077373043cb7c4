package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var allKeys = []string{
	"MEALPLAN_CONFIG", "MEALPLAN_SESSION_SECRET", "PORT", "DATABASE_PATH",
	"MEALPLAN_LOG_LEVEL", "MEALPLAN_SESSION_TTL", "MEALPLAN_JOIN_CODE_TTL",
	"MEALPLAN_CORS_ORIGINS", "BLOB_DRIVER", "BLOB_FS_PATH", "BLOB_S3_BUCKET",
	"BLOB_S3_REGION", "BLOB_S3_ENDPOINT", "BLOB_S3_PATH_STYLE", "BLOB_PUBLIC_URL",
	"GEMINI_API_KEY", "TELEGRAM_BOT_TOKEN", "MEALPLAN_API_URL", "MEALPLAN_API_TOKEN",
}

// clearEnv unsets every key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MEALPLAN_SESSION_SECRET", "s3cret")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.Port != "8080" {
			t.Errorf("Expected Port '8080', got '%s'", cfg.Port)
		}
		if cfg.DatabasePath != "data/mealplan.db" {
			t.Errorf("Expected default DatabasePath, got '%s'", cfg.DatabasePath)
		}
		if cfg.SessionTTL != 720*time.Hour {
			t.Errorf("Expected SessionTTL 720h, got %s", cfg.SessionTTL)
		}
		if cfg.JoinCodeTTL != time.Hour {
			t.Errorf("Expected JoinCodeTTL 1h, got %s", cfg.JoinCodeTTL)
		}
		if cfg.BlobDriver != "fs" {
			t.Errorf("Expected BlobDriver 'fs', got '%s'", cfg.BlobDriver)
		}
		if len(cfg.CORSOrigins) != 0 {
			t.Errorf("Expected no CORS origins, got %v", cfg.CORSOrigins)
		}
	})

	t.Run("MissingSessionSecret", func(t *testing.T) {
		clearEnv(t)

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing MEALPLAN_SESSION_SECRET, got nil")
		}
		expectedError := "MEALPLAN_SESSION_SECRET environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("ClientDoesNotNeedSecret", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MEALPLAN_API_URL", "http://api.test/")

		cfg, err := ClientFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.APIURL != "http://api.test" {
			t.Errorf("Expected trailing slash trimmed, got '%s'", cfg.APIURL)
		}
	})

	t.Run("S3RequiresBucket", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MEALPLAN_SESSION_SECRET", "s3cret")
		t.Setenv("BLOB_DRIVER", "s3")

		_, err := NewFromEnv()
		if err == nil || err.Error() != "BLOB_S3_BUCKET environment variable not set" {
			t.Errorf("Expected missing bucket error, got %v", err)
		}
	})

	t.Run("InvalidDuration", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MEALPLAN_SESSION_SECRET", "s3cret")
		t.Setenv("MEALPLAN_JOIN_CODE_TTL", "soon")

		if _, err := NewFromEnv(); err == nil {
			t.Error("Expected an error for an unparsable duration")
		}
	})

	t.Run("FileOverlay", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "mealplan.yaml")
		content := "MEALPLAN_SESSION_SECRET: from-file\nPORT: \"9090\"\nMEALPLAN_CORS_ORIGINS: http://a.test, http://b.test\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Setenv("MEALPLAN_CONFIG", path)
		t.Setenv("PORT", "7070")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.SessionSecret != "from-file" {
			t.Errorf("Expected secret from file, got '%s'", cfg.SessionSecret)
		}
		if cfg.Port != "7070" {
			t.Errorf("Expected environment to win over file, got '%s'", cfg.Port)
		}
		if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
			t.Errorf("Unexpected CORS origins %v", cfg.CORSOrigins)
		}
	})
}
