// Replay runs the decision core over a CSV of historical candles and prints
// a trade summary. Everything is wired synchronously, so two runs over the
// same file produce identical commands.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"nur_bot/internal/modules/config"
	enginesvc "nur_bot/internal/modules/engine/service"
	execsvc "nur_bot/internal/modules/executor/service"
	feedsvc "nur_bot/internal/modules/feed/service"
	healthsvc "nur_bot/internal/modules/health/service"
	journalsvc "nur_bot/internal/modules/journal/service"
	"nur_bot/internal/notify"
	"nur_bot/internal/runner"
	"nur_bot/pkg/logger"
)

func main() {
	viper.SetConfigName("replay")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("configs")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("REPLAY")
	viper.AutomaticEnv()

	viper.SetDefault("symbol", "XAU-USDT")
	viper.SetDefault("timeframe", "1m")
	viper.SetDefault("debug", false)

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			fmt.Fprintf(os.Stderr, "read replay config: %v\n", err)
			os.Exit(1)
		}
	}

	csvPath := viper.GetString("csv")
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	if csvPath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay <candles.csv>")
		os.Exit(1)
	}

	if err := logger.Init(viper.GetBool("debug")); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetServiceName("nur_replay")

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	cfg.Symbol = viper.GetString("symbol")
	cfg.Timeframe = viper.GetString("timeframe")

	n := notify.NewStdout()
	eng := enginesvc.NewEngine(cfg, n)
	src := feedsvc.NewReplaySource(csvPath, cfg.Symbol, cfg.Period())
	exec := execsvc.NewPaper()
	jrnl := journalsvc.NewMemory()
	health := healthsvc.NewState()

	r := runner.New(eng, src, exec, jrnl, n, health)
	if err := r.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "replay failed: %v\n", err)
		os.Exit(1)
	}

	s := jrnl.Summary()
	fmt.Printf("\n=== replay summary: %s %s ===\n", cfg.Symbol, cfg.Timeframe)
	fmt.Printf("trades:      %d\n", s.Trades)
	fmt.Printf("wins/losses: %d/%d\n", s.Wins, s.Losses)
	fmt.Printf("net points:  %.5f\n", s.NetPoints)
	fmt.Printf("engine:      %s\n", eng.Dump())
}
