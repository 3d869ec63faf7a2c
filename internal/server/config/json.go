package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/trackify/internal/flagx"
	"github.com/dmitrijs2005/trackify/internal/timex"
)

// JsonConfig is the file representation of Config. Durations accept
// "1m" strings or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	StorageBackend               string         `json:"storage_backend"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	CurrencyAPIBaseURL           string         `json:"currency_api_base_url"`
	CurrencyTarget               string         `json:"currency_target"`
	CurrencyFallbackRate         float64        `json:"currency_fallback_rate"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	LogLevel                     string         `json:"log_level"`
	Env                          string         `json:"env"`
}

// parseJson overlays values from the file named by -c/-config. Keys that
// are absent from the file leave the current values untouched.
func parseJson(config *Config, args []string) {
	jsonConfigFile := flagx.ConfigFileFlag(args)

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration > 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	setString(&config.CurrencyAPIBaseURL, c.CurrencyAPIBaseURL)
	setString(&config.CurrencyTarget, c.CurrencyTarget)
	if c.CurrencyFallbackRate > 0 {
		config.CurrencyFallbackRate = c.CurrencyFallbackRate
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.Env, c.Env)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
