package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
)

// Strategy holds every numeric knob of the decision core. Immutable for the
// lifetime of a run.
type Strategy struct {
	EMAPeriod int `yaml:"ema_period"` // trend filter, 200
	ATRPeriod int `yaml:"atr_period"` // volatility lookback, 14

	// Continuation confirmation
	TrendBars       int     `yaml:"trend_bars"`        // consecutive closes establishing the trend
	PullbackBandATR float64 `yaml:"pullback_band_atr"` // |close-ema| <= atr*band counts as pullback

	// Risk gate
	ATRMin         float64 `yaml:"atr_min"`
	ATRMax         float64 `yaml:"atr_max"`
	MinEMADistance float64 `yaml:"min_ema_distance"` // whipsaw guard, price units

	// Trade management
	StopATR         float64 `yaml:"stop_atr"`  // initial SL distance in ATRs
	TPATR           float64 `yaml:"tp_atr"`    // take profit distance in ATRs
	TrailATR        float64 `yaml:"trail_atr"` // trailing distance in ATRs
	CooldownCandles int     `yaml:"cooldown_candles"`
}

type Config struct {
	Symbol    string `yaml:"symbol"`
	Timeframe string `yaml:"timeframe"` // "1m", "5m", "15m", "1H"

	DB string `yaml:"db_dsn"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Service struct {
		HealthAddr string `yaml:"health_addr"`
	} `yaml:"service"`

	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	Feed struct {
		WSURL       string `yaml:"ws_url"`
		RESTURL     string `yaml:"rest_url"`
		BackfillMin int    `yaml:"backfill_min"` // extra bars on top of warm-up need
	} `yaml:"feed"`

	Strategy Strategy `yaml:"strategy"`

	Debug bool `yaml:"debug"`
}

func NewConfig() (*Config, error) {
	config := Config{
		Symbol:    getenvDefault("SYMBOL", "XAU-USDT"),
		Timeframe: getenvDefault("TIMEFRAME", "1m"),
		Strategy: Strategy{
			EMAPeriod:       intFromEnv("EMA_PERIOD", 200),
			ATRPeriod:       intFromEnv("ATR_PERIOD", 14),
			TrendBars:       intFromEnv("TREND_BARS", 3),
			PullbackBandATR: floatFromEnv("PULLBACK_BAND_ATR", 0.25),
			ATRMin:          floatFromEnv("ATR_MIN", 0.05),
			ATRMax:          floatFromEnv("ATR_MAX", 50),
			MinEMADistance:  floatFromEnv("MIN_EMA_DISTANCE", 0.15),
			StopATR:         floatFromEnv("STOP_ATR", 1.5),
			TPATR:           floatFromEnv("TP_ATR", 3.0),
			TrailATR:        floatFromEnv("TRAIL_ATR", 1.2),
			CooldownCandles: intFromEnv("COOLDOWN_CANDLES", 30),
		},
	}
	config.Service.HealthAddr = getenvDefault("HEALTH_ADDR", ":8080")
	config.Feed.WSURL = "wss://ws.okx.com:8443/ws/v5/business"
	config.Feed.RESTURL = "https://www.okx.com"
	config.Feed.BackfillMin = 30

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err == nil {
		defer func() {
			_ = file.Close()
		}()
		if err := yaml.NewDecoder(file).Decode(&config); err != nil {
			return nil, errors.Wrap(err, "failed to decode config file")
		}
	}

	if token := os.Getenv(tokenTelegramENV); token != "" {
		config.Telegram.Token = token
	}
	if dsn := os.Getenv(databaseDSN); dsn != "" {
		config.DB = dsn
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	s := c.Strategy
	switch {
	case c.Symbol == "":
		return errors.New("symbol is required")
	case c.Period() <= 0:
		return errors.Errorf("bad timeframe %q", c.Timeframe)
	case s.EMAPeriod < 2:
		return errors.New("ema_period must be >= 2")
	case s.ATRPeriod < 1:
		return errors.New("atr_period must be >= 1")
	case s.TrendBars < 1:
		return errors.New("trend_bars must be >= 1")
	case s.PullbackBandATR <= 0:
		return errors.New("pullback_band_atr must be > 0")
	case s.ATRMin < 0 || s.ATRMax <= s.ATRMin:
		return errors.New("atr bounds must satisfy 0 <= atr_min < atr_max")
	case s.MinEMADistance < 0:
		return errors.New("min_ema_distance must be >= 0")
	case s.StopATR <= 0 || s.TPATR <= 0 || s.TrailATR <= 0:
		return errors.New("stop_atr, tp_atr and trail_atr must be > 0")
	case s.CooldownCandles < 0:
		return errors.New("cooldown_candles must be >= 0")
	}
	return nil
}

// Period is the candle duration for the configured timeframe.
func (c *Config) Period() time.Duration {
	return TimeframeDuration(c.Timeframe)
}

// TimeframeDuration maps OKX-style timeframe names to durations.
// Unknown names return 0.
func TimeframeDuration(tf string) time.Duration {
	switch tf {
	case "1m":
		return time.Minute
	case "3m":
		return 3 * time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "30m":
		return 30 * time.Minute
	case "1H":
		return time.Hour
	case "4H":
		return 4 * time.Hour
	case "1D":
		return 24 * time.Hour
	}
	return 0
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
