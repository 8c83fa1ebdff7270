// Package config assembles runtime configuration from .env files,
// environment variables and flags.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string

	// Sui endpoints, keyed by network name.
	RPCEndpoints map[string]string
	WSEndpoints  map[string]string

	GeminiAPIKey string
	Model        string
	LLMTimeout   time.Duration

	// DatabaseURL selects the Postgres result-cache backend; empty means
	// in-memory only.
	DatabaseURL string

	// DepLookup is "strict" or "cross"; see the pipeline package.
	DepLookup string

	Archive ArchiveConfig
}

type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port: *port,
		Env:  env,
		RPCEndpoints: map[string]string{
			"mainnet": firstNonEmpty(strings.TrimSpace(os.Getenv("SUI_RPC_MAINNET")), "https://fullnode.mainnet.sui.io:443"),
			"testnet": firstNonEmpty(strings.TrimSpace(os.Getenv("SUI_RPC_TESTNET")), "https://fullnode.testnet.sui.io:443"),
		},
		WSEndpoints: map[string]string{
			"mainnet": firstNonEmpty(strings.TrimSpace(os.Getenv("SUI_WS_MAINNET")), "wss://fullnode.mainnet.sui.io:443"),
			"testnet": strings.TrimSpace(os.Getenv("SUI_WS_TESTNET")),
		},
		GeminiAPIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		Model:        firstNonEmpty(strings.TrimSpace(os.Getenv("REDFLAG_MODEL")), "gemini-2.0-flash"),
		LLMTimeout:   resolveLLMTimeout(),
		DatabaseURL:  strings.TrimSpace(os.Getenv("RESULT_CACHE_PG_DSN")),
		DepLookup:    firstNonEmpty(strings.ToLower(strings.TrimSpace(os.Getenv("DEP_LOOKUP"))), "cross"),
		Archive:      loadArchiveConfig(env),
	}, nil
}

func resolveLLMTimeout() time.Duration {
	raw := strings.TrimSpace(os.Getenv("LLM_TIMEOUT_SEC"))
	if raw == "" {
		return 90 * time.Second
	}
	sec, err := strconv.Atoi(raw)
	if err != nil || sec <= 0 {
		return 90 * time.Second
	}
	return time.Duration(sec) * time.Second
}

func loadArchiveConfig(env string) ArchiveConfig {
	endpoint := resolveArchiveEndpoint(env)
	return ArchiveConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_BUCKET")), "redflag-cards"),
		UseSSL:    resolveArchiveUseSSL(env),
	}
}

func resolveArchiveEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(os.Getenv("ARCHIVE_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("ARCHIVE_S3_ENDPOINT"))
}

func resolveArchiveUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("ARCHIVE_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
