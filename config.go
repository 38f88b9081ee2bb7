package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the configuration struct for the service.
type Config struct {
	// FMPAPIkey is the FMP service API Key.
	FMPAPIKey string
	// StrategyConfigPath is the filepath to the strategy roster config.
	StrategyConfigPath string
	// ChartTicker is the ticker plotted on the consensus chart.
	ChartTicker string
	// HistoryStart is the earliest date history is fetched from.
	HistoryStart string
	// ListenAddr is the signal server listen address.
	ListenAddr string
	// DatabaseEndpoint is the rqlite connection endpoint, persistence is
	// skipped when empty.
	DatabaseEndpoint string
	// DatabaseUser is the database user.
	DatabaseUser string
	// DatabasePass is the database user pass.
	DatabasePass string

	registeredFlags map[string]bool
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.FMPAPIKey == "" {
		errs = errors.Join(errs, fmt.Errorf("fmp api key cannot be an empty string"))
	}
	if cfg.StrategyConfigPath == "" {
		errs = errors.Join(errs, fmt.Errorf("strategy config path cannot be an empty string"))
	}

	return errs
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
func (cfg *Config) registerFlag(name string, value interface{}, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(strings.ToUpper(name))
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	switch val.Elem().Kind() {
	case reflect.String:
		flag.StringVar(value.(*string), name, defValue, usage)
	case reflect.Bool:
		var def bool
		if defValue != "" {
			def, _ = strconv.ParseBool(defValue)
		}
		flag.BoolVar(value.(*bool), name, def, usage)
	case reflect.Int:
		var def int
		if defValue != "" {
			def, _ = strconv.Atoi(defValue)
		}
		flag.IntVar(value.(*int), name, def, usage)
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// loadConfig loads the configuration from environment variables and command line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	// Register command line arguments using loaded environment variables as defaults.
	err = cfg.registerFlag("fmpapikey", &cfg.FMPAPIKey, "the FMP api key")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("strategyconfig", &cfg.StrategyConfigPath, "the strategy roster config filepath")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("chartticker", &cfg.ChartTicker, "the ticker plotted on the consensus chart")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("historystart", &cfg.HistoryStart, "the earliest date history is fetched from")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("listenaddr", &cfg.ListenAddr, "the signal server listen address")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("dbendpoint", &cfg.DatabaseEndpoint, "the rqlite connection endpoint")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("dbuser", &cfg.DatabaseUser, "the database user")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("dbpass", &cfg.DatabasePass, "the database user pass")
	if err != nil {
		return err
	}

	// Parse command-line flags.
	flag.Parse()

	if cfg.ChartTicker == "" {
		cfg.ChartTicker = "SPY"
	}
	if cfg.HistoryStart == "" {
		cfg.HistoryStart = "1980-01-01"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}

	return cfg.Validate()
}
