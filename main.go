package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/mlowry/papersig/service"
	"github.com/mlowry/papersig/shared"
	"github.com/mlowry/papersig/strategy"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

func main() {
	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		log.Printf("loading config: %v", err)
		return
	}

	strategyCfg, err := strategy.LoadConfig(cfg.StrategyConfigPath)
	if err != nil {
		log.Printf("loading strategy config: %v", err)
		return
	}

	roster, err := strategyCfg.Build()
	if err != nil {
		log.Printf("building strategy roster: %v", err)
		return
	}

	historyStart, err := shared.ParseDay(cfg.HistoryStart)
	if err != nil {
		log.Printf("parsing history start: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	papersigCfg := service.PapersigConfig{
		FMPAPIKey:        cfg.FMPAPIKey,
		Strategies:       roster,
		ChartTicker:      cfg.ChartTicker,
		HistoryStart:     historyStart,
		ListenAddr:       cfg.ListenAddr,
		DatabaseEndpoint: cfg.DatabaseEndpoint,
		DatabaseUser:     cfg.DatabaseUser,
		DatabasePass:     cfg.DatabasePass,
		Cancel:           cancel,
	}
	papersig, err := service.NewPapersig(ctx, &papersigCfg)
	if err != nil {
		log.Printf("creating papersig service: %v", err)
		return
	}

	go handleTermination(ctx, cancel)
	papersig.Run(ctx)
}
