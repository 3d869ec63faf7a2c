package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/trackify/internal/flagx"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// parseEnv overlays TRACKIFY_* variables. A dotenv file named by -env is
// loaded first and must exist; otherwise ./.env is loaded when present.
// Variables already set in the process environment win over the file.
func parseEnv(config *Config, args []string) {
	if envFile := flagx.EnvFileFlag(args); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			panic(err)
		}
	} else if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	lookupString(&config.EndpointAddrHTTP, "TRACKIFY_HTTP_ADDR")
	lookupString(&config.StorageBackend, "TRACKIFY_STORAGE")
	lookupString(&config.DatabaseDSN, "TRACKIFY_DATABASE_DSN")
	lookupString(&config.SecretKey, "TRACKIFY_SECRET_KEY")
	lookupDuration(&config.AccessTokenValidityDuration, "TRACKIFY_ACCESS_TOKEN_TTL")
	lookupDuration(&config.RefreshTokenValidityDuration, "TRACKIFY_REFRESH_TOKEN_TTL")
	lookupString(&config.CurrencyAPIBaseURL, "TRACKIFY_CURRENCY_API_URL")
	lookupString(&config.CurrencyTarget, "TRACKIFY_CURRENCY_TARGET")
	lookupFloat(&config.CurrencyFallbackRate, "TRACKIFY_CURRENCY_FALLBACK_RATE")
	lookupString(&config.S3RootUser, "TRACKIFY_S3_USER")
	lookupString(&config.S3RootPassword, "TRACKIFY_S3_PASSWORD")
	lookupString(&config.S3Bucket, "TRACKIFY_S3_BUCKET")
	lookupString(&config.S3Region, "TRACKIFY_S3_REGION")
	lookupString(&config.S3BaseEndpoint, "TRACKIFY_S3_ENDPOINT")
	lookupString(&config.LogLevel, "TRACKIFY_LOG_LEVEL")
	lookupString(&config.Env, "TRACKIFY_ENV")
}

func lookupString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func lookupDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Errorf("%s: %w", key, err))
	}
	*dst = d
}

func lookupFloat(dst *float64, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		panic(fmt.Errorf("%s: %w", key, err))
	}
	*dst = f
}
