// Package config resolves run settings from the environment and an optional
// .env file. Every setting has a default pointing at the live shop.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the settings of one process.
type Config struct {
	OrderPageURL string
	OrdersURL    string
	OrdersFile   string
	OutputDir    string

	Headless         bool
	ChromeBin        string
	ChromeControlURL string

	DatabaseURL         string
	AzureVisionEndpoint string
	AzureVisionKey      string

	LogLevel string

	SandboxAddr      string
	SandboxErrorRate float64
}

// Environment variable names.
const (
	EnvOrderPageURL        = "ORDER_PAGE_URL"
	EnvOrdersURL           = "ORDERS_URL"
	EnvOrdersFile          = "ORDERS_FILE"
	EnvOutputDir           = "OUTPUT_DIR"
	EnvHeadless            = "HEADLESS"
	EnvChromeBin           = "CHROME_BIN"
	EnvChromeControlURL    = "CHROME_CONTROL_URL"
	EnvDatabaseURL         = "DATABASE_URL"
	EnvAzureVisionEndpoint = "AZURE_VISION_ENDPOINT"
	EnvAzureVisionKey      = "AZURE_VISION_KEY"
	EnvLogLevel            = "LOG_LEVEL"
	EnvSandboxAddr         = "SANDBOX_ADDR"
	EnvSandboxErrorRate    = "SANDBOX_ERROR_RATE"
)

// Load reads envFile into the process environment, without overriding
// variables already set, and resolves the configuration. A missing envFile
// is not an error. Empty variables count as unset and fall back to defaults.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetDefault(EnvOrderPageURL, "https://robotsparebinindustries.com/#/robot-order")
	v.SetDefault(EnvOrdersURL, "https://robotsparebinindustries.com/orders.csv")
	v.SetDefault(EnvOrdersFile, "orders.csv")
	v.SetDefault(EnvOutputDir, "output")
	v.SetDefault(EnvHeadless, true)
	v.SetDefault(EnvLogLevel, "info")
	v.SetDefault(EnvSandboxAddr, "127.0.0.1:8099")
	v.SetDefault(EnvSandboxErrorRate, 0.2)
	v.AutomaticEnv()

	cfg := Config{
		OrderPageURL:        v.GetString(EnvOrderPageURL),
		OrdersURL:           v.GetString(EnvOrdersURL),
		OrdersFile:          v.GetString(EnvOrdersFile),
		OutputDir:           v.GetString(EnvOutputDir),
		Headless:            v.GetBool(EnvHeadless),
		ChromeBin:           v.GetString(EnvChromeBin),
		ChromeControlURL:    v.GetString(EnvChromeControlURL),
		DatabaseURL:         v.GetString(EnvDatabaseURL),
		AzureVisionEndpoint: v.GetString(EnvAzureVisionEndpoint),
		AzureVisionKey:      v.GetString(EnvAzureVisionKey),
		LogLevel:            v.GetString(EnvLogLevel),
		SandboxAddr:         v.GetString(EnvSandboxAddr),
		SandboxErrorRate:    v.GetFloat64(EnvSandboxErrorRate),
	}
	return cfg, nil
}

// OCREnabled reports whether receipt transcription is configured.
func (c Config) OCREnabled() bool {
	return c.AzureVisionEndpoint != "" && c.AzureVisionKey != ""
}
