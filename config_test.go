package main

import (
	"flag"
	"os"
	"strings"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr []string
	}{
		{
			name: "valid config",
			cfg: Config{
				FMPAPIKey:          "apikey",
				StrategyConfigPath: "/tmp/strategies.yml",
			},
			wantErr: nil,
		},
		{
			name: "missing FMPAPIKey",
			cfg: Config{
				StrategyConfigPath: "/tmp/strategies.yml",
			},
			wantErr: []string{"fmp api key cannot be an empty string"},
		},
		{
			name: "missing strategy config path",
			cfg: Config{
				FMPAPIKey: "apikey",
			},
			wantErr: []string{"strategy config path cannot be an empty string"},
		},
		{
			name: "missing both",
			cfg:  Config{},
			wantErr: []string{
				"fmp api key cannot be an empty string",
				"strategy config path cannot be an empty string",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Errorf("expected no error, got: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("expected error(s) %v, got none", tt.wantErr)
					return
				}
				for _, want := range tt.wantErr {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("expected error to contain %q, got %v", want, err)
					}
				}
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	// Save and restore original os.Args and environment
	origArgs := os.Args
	origEnv := os.Environ()
	defer func() {
		os.Args = origArgs
		for _, kv := range origEnv {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) == 2 {
				os.Setenv(parts[0], parts[1])
			}
		}
	}()

	tests := []struct {
		name        string
		env         map[string]string
		args        []string
		expectErr   bool
		expectInErr []string
		expectCfg   Config
	}{
		{
			name: "all from env",
			env: map[string]string{
				"FMPAPIKEY":      "apikey",
				"STRATEGYCONFIG": "/tmp/strategies.yml",
			},
			args:      []string{"cmd"},
			expectErr: false,
			expectCfg: Config{
				FMPAPIKey:          "apikey",
				StrategyConfigPath: "/tmp/strategies.yml",
			},
		},
		{
			name:      "all from flags",
			env:       map[string]string{},
			args:      []string{"cmd", "-fmpapikey=apikey", "-strategyconfig=/tmp/strategies.yml"},
			expectErr: false,
			expectCfg: Config{
				FMPAPIKey:          "apikey",
				StrategyConfigPath: "/tmp/strategies.yml",
			},
		},
		{
			name:        "missing fmpapikey and strategyconfig",
			env:         map[string]string{},
			args:        []string{"cmd"},
			expectErr:   true,
			expectInErr: []string{"fmp api key cannot be an empty string", "strategy config path cannot be an empty string"},
		},
		{
			name: "defaults applied",
			env: map[string]string{
				"FMPAPIKEY":      "apikey",
				"STRATEGYCONFIG": "/tmp/strategies.yml",
			},
			args:      []string{"cmd"},
			expectErr: false,
			expectCfg: Config{
				FMPAPIKey:          "apikey",
				StrategyConfigPath: "/tmp/strategies.yml",
				ChartTicker:        "SPY",
				HistoryStart:       "1980-01-01",
				ListenAddr:         ":8080",
			},
		},
		{
			name: "defaults overridden by flags",
			env: map[string]string{
				"FMPAPIKEY":      "apikey",
				"STRATEGYCONFIG": "/tmp/strategies.yml",
			},
			args:      []string{"cmd", "-chartticker=QQQ", "-listenaddr=:9090"},
			expectErr: false,
			expectCfg: Config{
				FMPAPIKey:          "apikey",
				StrategyConfigPath: "/tmp/strategies.yml",
				ChartTicker:        "QQQ",
				HistoryStart:       "1980-01-01",
				ListenAddr:         ":9090",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset flags for each test
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

			// Set environment variables
			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			// Set command-line arguments
			os.Args = tt.args

			var cfg Config
			err := loadConfig(&cfg, "") // don't load .env file

			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				for _, want := range tt.expectInErr {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("expected error to contain %q, got %v", want, err)
					}
				}
			} else {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if tt.expectCfg.FMPAPIKey != "" && cfg.FMPAPIKey != tt.expectCfg.FMPAPIKey {
					t.Errorf("FMPAPIKey: got %v, want %v", cfg.FMPAPIKey, tt.expectCfg.FMPAPIKey)
				}
				if tt.expectCfg.StrategyConfigPath != "" && cfg.StrategyConfigPath != tt.expectCfg.StrategyConfigPath {
					t.Errorf("StrategyConfigPath: got %v, want %v", cfg.StrategyConfigPath, tt.expectCfg.StrategyConfigPath)
				}
				if tt.expectCfg.ChartTicker != "" && cfg.ChartTicker != tt.expectCfg.ChartTicker {
					t.Errorf("ChartTicker: got %v, want %v", cfg.ChartTicker, tt.expectCfg.ChartTicker)
				}
				if tt.expectCfg.HistoryStart != "" && cfg.HistoryStart != tt.expectCfg.HistoryStart {
					t.Errorf("HistoryStart: got %v, want %v", cfg.HistoryStart, tt.expectCfg.HistoryStart)
				}
				if tt.expectCfg.ListenAddr != "" && cfg.ListenAddr != tt.expectCfg.ListenAddr {
					t.Errorf("ListenAddr: got %v, want %v", cfg.ListenAddr, tt.expectCfg.ListenAddr)
				}
			}

			// Clean up env
			for k := range tt.env {
				os.Unsetenv(k)
			}
		})
	}
}
