package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/usersvc/internal/flagx"
	"github.com/dmitrijs2005/usersvc/internal/timex"
)

// JsonConfig is the on-disk shape of the optional config file. Durations
// use timex.Duration so they can be written as "30m" or as nanoseconds.
// Fields left out of the file keep their current value.
type JsonConfig struct {
	AppName     string `json:"app_name"`
	AppVersion  string `json:"app_version"`
	Environment string `json:"environment"`
	Debug       *bool  `json:"debug"`

	EndpointAddrHTTP string `json:"http_addr"`
	EndpointAddrGRPC string `json:"grpc_addr"`
	APIPrefix        string `json:"api_prefix"`

	DatabaseDSN     string         `json:"database_dsn"`
	MaxOpenConns    int            `json:"max_open_conns"`
	MaxIdleConns    int            `json:"max_idle_conns"`
	ConnMaxLifetime timex.Duration `json:"conn_max_lifetime"`

	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	BcryptCost                  int            `json:"bcrypt_cost"`

	CORSAllowedOrigins []string `json:"cors_allowed_origins"`

	HealthInterval  timex.Duration `json:"health_interval"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`

	LogBackend string `json:"log_backend"`
	LogFormat  string `json:"log_format"`
	LogLevel   string `json:"log_level"`
	LogFile    string `json:"log_file"`
}

// parseJson loads the file named by -c/-config (or USERSVC_CONFIG), if any,
// and overlays it onto config.
func parseJson(config *Config) error {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:], EnvPrefix+"CONFIG")

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	c.applyTo(config)
	return nil
}

func (c *JsonConfig) applyTo(config *Config) {
	setString(&config.AppName, c.AppName)
	setString(&config.AppVersion, c.AppVersion)
	setString(&config.Environment, c.Environment)
	if c.Debug != nil {
		config.Debug = *c.Debug
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.APIPrefix, c.APIPrefix)

	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setInt(&config.MaxOpenConns, c.MaxOpenConns)
	setInt(&config.MaxIdleConns, c.MaxIdleConns)
	setDuration(&config.ConnMaxLifetime, c.ConnMaxLifetime)

	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setInt(&config.BcryptCost, c.BcryptCost)

	if c.CORSAllowedOrigins != nil {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}

	setDuration(&config.HealthInterval, c.HealthInterval)
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)

	setString(&config.LogBackend, c.LogBackend)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFile, c.LogFile)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
