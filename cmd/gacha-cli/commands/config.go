package commands

import (
	"errors"
	"fmt"
	"gacha-backend/internal/components/telemetry"
	"gacha-backend/pkg/configutil"
	"os"
	"time"
)

const configName = "gacha.json5"

type FetcherConfig struct {
	TimeoutMs         int     `json:"timeout_ms"`
	SectionDelayMs    int     `json:"section_delay_ms"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	CloudflareBypass  bool    `json:"cloudflare_bypass"`
	Debug             bool    `json:"debug"`
}

func (c FetcherConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func (c FetcherConfig) SectionDelay() time.Duration {
	return time.Duration(c.SectionDelayMs) * time.Millisecond
}

type Config struct {
	Telemetry telemetry.Config `json:"telemetry"`
	Fetcher   FetcherConfig    `json:"fetcher"`
}

// loadConfig reads gacha.json5 from the working directory or any of its parents, a missing file
// means defaults.
func loadConfig() (Config, error) {
	cfg, err := configutil.ReadRecursively[Config](configName)
	if errors.Is(err, os.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", configName, err)
	}
	return cfg, nil
}
