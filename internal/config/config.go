package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the configuration for the application.
type Config struct {
	Port          string
	DatabasePath  string
	LogLevel      string
	SessionSecret string
	SessionTTL    time.Duration
	JoinCodeTTL   time.Duration
	CORSOrigins   []string

	// Image storage
	BlobDriver      string
	BlobFSPath      string
	BlobS3Bucket    string
	BlobS3Region    string
	BlobS3Endpoint  string
	BlobS3PathStyle bool
	BlobPublicURL   string

	// Optional integrations
	GeminiAPIKey     string
	TelegramBotToken string

	// CLI client
	APIURL   string
	APIToken string
}

// lookup resolves a key from the environment first and the config file second.
type lookup func(key string) string

// NewFromEnv creates a new Config object from environment variables. When
// MEALPLAN_CONFIG names a YAML file, its values are used for any variable
// not present in the environment.
func NewFromEnv() (*Config, error) {
	get, err := sources()
	if err != nil {
		return nil, err
	}
	return build(get, true)
}

// ClientFromEnv loads only what the CLI needs to talk to a running server.
// The session secret is not required there.
func ClientFromEnv() (*Config, error) {
	get, err := sources()
	if err != nil {
		return nil, err
	}
	return build(get, false)
}

func sources() (lookup, error) {
	file := map[string]string{}
	if path := os.Getenv("MEALPLAN_CONFIG"); path != "" {
		var err error
		file, err = readFile(path)
		if err != nil {
			return nil, err
		}
	}
	get := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return file[key]
	}
	return get, nil
}

func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	out := map[string]string{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return out, nil
}

func build(get lookup, requireSecret bool) (*Config, error) {
	secret := get("MEALPLAN_SESSION_SECRET")
	if secret == "" && requireSecret {
		return nil, fmt.Errorf("MEALPLAN_SESSION_SECRET environment variable not set")
	}

	sessionTTL, err := duration(get, "MEALPLAN_SESSION_TTL", 720*time.Hour)
	if err != nil {
		return nil, err
	}
	joinCodeTTL, err := duration(get, "MEALPLAN_JOIN_CODE_TTL", 60*time.Minute)
	if err != nil {
		return nil, err
	}

	driver := withDefault(get("BLOB_DRIVER"), "fs")
	if driver != "fs" && driver != "s3" {
		return nil, fmt.Errorf("BLOB_DRIVER must be fs or s3, got %q", driver)
	}
	bucket := get("BLOB_S3_BUCKET")
	if driver == "s3" && bucket == "" {
		return nil, fmt.Errorf("BLOB_S3_BUCKET environment variable not set")
	}

	var pathStyle bool
	if v := get("BLOB_S3_PATH_STYLE"); v != "" {
		pathStyle, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid BLOB_S3_PATH_STYLE: %w", err)
		}
	}

	return &Config{
		Port:             withDefault(get("PORT"), "8080"),
		DatabasePath:     withDefault(get("DATABASE_PATH"), "data/mealplan.db"),
		LogLevel:         withDefault(get("MEALPLAN_LOG_LEVEL"), "info"),
		SessionSecret:    secret,
		SessionTTL:       sessionTTL,
		JoinCodeTTL:      joinCodeTTL,
		CORSOrigins:      splitList(get("MEALPLAN_CORS_ORIGINS")),
		BlobDriver:       driver,
		BlobFSPath:       withDefault(get("BLOB_FS_PATH"), "data/images"),
		BlobS3Bucket:     bucket,
		BlobS3Region:     withDefault(get("BLOB_S3_REGION"), "us-east-1"),
		BlobS3Endpoint:   get("BLOB_S3_ENDPOINT"),
		BlobS3PathStyle:  pathStyle,
		BlobPublicURL:    strings.TrimRight(get("BLOB_PUBLIC_URL"), "/"),
		GeminiAPIKey:     get("GEMINI_API_KEY"),
		TelegramBotToken: get("TELEGRAM_BOT_TOKEN"),
		APIURL:           strings.TrimRight(withDefault(get("MEALPLAN_API_URL"), "http://localhost:8080"), "/"),
		APIToken:         get("MEALPLAN_API_TOKEN"),
	}, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func duration(get lookup, key string, def time.Duration) (time.Duration, error) {
	v := get(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
