package renderapi

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type AppConfig struct {
	Mode      string
	ApiPort   string
	WarmStart bool
	Render    RenderConfig
}

// RenderConfig carries the engine and per-grammar tunables. The default
// timeouts and settle delays were tuned against the library versions pinned
// in the generators, so they are env-overridable rather than constants.
type RenderConfig struct {
	ChromePath         string
	MaxTimeout         time.Duration
	StabilizationDelay time.Duration
	PollInterval       time.Duration
	ChartTimeout       time.Duration
	GraphTimeout       time.Duration
	GraphQuietPeriod   time.Duration
	GraphSettleCeiling time.Duration
	AppletTimeout      time.Duration
	AppletBootTimeout  time.Duration
	AppletSettleDelay  time.Duration
	DiagramTimeout     time.Duration
}

var config AppConfig

func InitConfig(envfile string) {
	if err := godotenv.Load(envfile); err != nil {
		log.Printf("No %s file loaded (%s), relying on process environment", envfile, err)
	}
	config = AppConfig{
		Mode:      GetEnv("RUN_MODE", "release"),
		ApiPort:   getEnvOrPanic("API_PORT"),
		WarmStart: GetEnv("WARM_START", "true") == "true",
		Render: RenderConfig{
			ChromePath:         GetEnv("CHROME_PATH", ""),
			MaxTimeout:         getDurationEnvOrDefault("RENDER_MAX_TIMEOUT_MS", 120_000),
			StabilizationDelay: getDurationEnvOrDefault("RENDER_STABILIZATION_MS", 300),
			PollInterval:       getDurationEnvOrDefault("RENDER_POLL_INTERVAL_MS", 100),
			ChartTimeout:       getDurationEnvOrDefault("CHART_TIMEOUT_MS", 10_000),
			GraphTimeout:       getDurationEnvOrDefault("GRAPH_TIMEOUT_MS", 15_000),
			GraphQuietPeriod:   getDurationEnvOrDefault("GRAPH_QUIET_PERIOD_MS", 200),
			GraphSettleCeiling: getDurationEnvOrDefault("GRAPH_SETTLE_CEILING_MS", 3_000),
			AppletTimeout:      getDurationEnvOrDefault("APPLET_TIMEOUT_MS", 30_000),
			AppletBootTimeout:  getDurationEnvOrDefault("APPLET_BOOT_TIMEOUT_MS", 10_000),
			AppletSettleDelay:  getDurationEnvOrDefault("APPLET_SETTLE_MS", 2_000),
			DiagramTimeout:     getDurationEnvOrDefault("DIAGRAM_TIMEOUT_MS", 10_000),
		},
	}

	Logger = initLogger()
}

func GetConfig() AppConfig {
	return config
}

func getEnvOrPanic(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("%s must be set", key)
	}
	return value
}

func GetEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDurationEnvOrDefault(key string, defaultMs int) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(defaultMs) * time.Millisecond
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return time.Duration(defaultMs) * time.Millisecond
	}
	return time.Duration(value) * time.Millisecond
}

func initLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
		NoColor:    false,
		FormatLevel: func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
		},
		FormatMessage: func(i interface{}) string {
			return fmt.Sprintf("  %s  ", i)
		},
		FormatFieldName: func(i interface{}) string {
			return fmt.Sprintf("%s=", i)
		},
		FormatFieldValue: func(i interface{}) string {
			return fmt.Sprintf("%s", i)
		},
	}

	return zerolog.New(output).With().Timestamp().Caller().Logger()
}
