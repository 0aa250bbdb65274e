package config

import (
	"log"
	"os"
	"sync"
	"time"
)

const defaultOptimizerTimeout = 30 * time.Second

type OptimizerConfig struct {
	BaseURL string
	Timeout time.Duration
}

var (
	optimizerConfig *OptimizerConfig
	optimizerOnce   sync.Once
)

func LoadOptimizerConfig() *OptimizerConfig {
	optimizerOnce.Do(func() {
		optimizerConfig = ParseOptimizerConfig(os.Getenv("OPTIMIZER_URL"), os.Getenv("OPTIMIZER_TIMEOUT"))
	})
	return optimizerConfig
}

// ParseOptimizerConfig falls back to the local engine and a 30s timeout.
func ParseOptimizerConfig(baseURL, timeout string) *OptimizerConfig {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8000"
	}
	cfg := &OptimizerConfig{BaseURL: baseURL, Timeout: defaultOptimizerTimeout}
	if timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil || d <= 0 {
			log.Printf("Warning: invalid OPTIMIZER_TIMEOUT %q, using %s", timeout, defaultOptimizerTimeout)
		} else {
			cfg.Timeout = d
		}
	}
	return cfg
}
