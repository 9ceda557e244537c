// Конфигурация сервиса: флаги, переменные окружения и JSON-файл.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
)

type ServerConfig struct {
	RunAddr         string `env:"SERVER_ADDRESS" json:"server_address"`
	RedirectBaseURL string `env:"BASE_URL" json:"base_url"`
	FileStoragePath string `env:"FILE_STORAGE_PATH" json:"file_storage_path"`
	DatabaseDSN     string `env:"DATABASE_DSN" json:"database_dsn"`
	Secret          string `env:"SECRET" json:"-"`
	TLSCertPath     string `env:"TLS_CERT_PATH" json:"tls_cert_path"`
	TLSKeyPath      string `env:"TLS_KEY_PATH" json:"tls_key_path"`
	Config          string `env:"CONFIG" json:"-"`
	EnableHTTPS     bool   `env:"ENABLE_HTTPS" json:"enable_https"`
	ProfileMode     bool   `env:"PROFILE_MODE" json:"-"`
}

var config ServerConfig

func ParseFlags() (*ServerConfig, error) {
	flag.StringVar(&config.RunAddr, "a", ":8080", "address and port to run server")
	flag.StringVar(&config.RedirectBaseURL, "b", "http://localhost:8080", "public URI prefix encoded into QR images")
	flag.StringVar(&config.FileStoragePath, "f", "", "file storage path")
	flag.StringVar(&config.DatabaseDSN, "d", "", "Data Source Name (DSN)")
	flag.StringVar(&config.Secret, "s", "b4952c3809196592c026529df00774e46bfb5be0", "session cookie signing secret")
	flag.StringVar(&config.TLSCertPath, "cert", "./certs/cert.pem", "TLS certificate path")
	flag.StringVar(&config.TLSKeyPath, "key", "./certs/private.pem", "TLS private key path")
	flag.StringVar(&config.Config, "c", "", "JSON config file path")
	flag.BoolVar(&config.EnableHTTPS, "https", false, "enable HTTPS with self-signed certificates")
	flag.BoolVar(&config.ProfileMode, "p", false, "register pprof routes")
	flag.Parse()

	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("error parsing env variables: %w", err)
	}

	if config.Config != "" {
		if err := mergeConfigFile(config.Config, &config); err != nil {
			return nil, err
		}
	}

	return &config, nil
}

// mergeConfigFile fills zero-valued fields from a JSON file. Flags and env
// variables win over the file.
func mergeConfigFile(path string, c *ServerConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	var fileConfig ServerConfig
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}

	if c.RunAddr == "" {
		c.RunAddr = fileConfig.RunAddr
	}
	if c.RedirectBaseURL == "" {
		c.RedirectBaseURL = fileConfig.RedirectBaseURL
	}
	if c.FileStoragePath == "" {
		c.FileStoragePath = fileConfig.FileStoragePath
	}
	if c.DatabaseDSN == "" {
		c.DatabaseDSN = fileConfig.DatabaseDSN
	}
	if c.TLSCertPath == "" {
		c.TLSCertPath = fileConfig.TLSCertPath
	}
	if c.TLSKeyPath == "" {
		c.TLSKeyPath = fileConfig.TLSKeyPath
	}
	if !c.EnableHTTPS {
		c.EnableHTTPS = fileConfig.EnableHTTPS
	}

	return nil
}
