// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with only a watch target set.
// Use WatchURL to validate and normalize the target before starting ingestion.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/onnwee/livechat/youtubeapi"
)

type Config struct {
	// Watch target (exactly one)
	VideoID   string
	ChannelID string
	URL       string

	// Polling
	PollInterval time.Duration

	// YouTube transport
	BaseURL     string
	HTTPTimeout time.Duration
	UserAgent   string

	// HTTP surface; empty disables the server
	HTTPAddr  string
	HubBuffer int

	// Database; empty disables checkpoints
	DBDsn string

	// Logging
	LogLevel  string
	LogFormat string

	// Tracing; empty endpoint disables it
	OTLPEndpoint string
	OTLPInsecure bool
}

// Load reads environment variables and applies defaults. A missing watch target is not an
// error here; it is reported by WatchURL so CLI flags can fill it in first.
func Load() (*Config, error) {
	cfg := &Config{
		VideoID:   os.Getenv("LIVECHAT_VIDEO_ID"),
		ChannelID: os.Getenv("LIVECHAT_CHANNEL_ID"),
		URL:       os.Getenv("LIVECHAT_URL"),
		DBDsn:     os.Getenv("DB_DSN"),
	}

	var err error
	if cfg.PollInterval, err = durationEnv("CHAT_POLL_INTERVAL", 3*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = durationEnv("YT_HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	cfg.BaseURL = strings.TrimRight(os.Getenv("YT_BASE_URL"), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = youtubeapi.DefaultBaseURL
	}
	cfg.UserAgent = os.Getenv("YT_USER_AGENT")
	if cfg.UserAgent == "" {
		cfg.UserAgent = youtubeapi.DefaultUserAgent
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	switch strings.ToLower(cfg.HTTPAddr) {
	case "":
		cfg.HTTPAddr = ":8080"
	case "off", "none", "disabled":
		cfg.HTTPAddr = ""
	}

	cfg.HubBuffer = 64
	if v := os.Getenv("HUB_BUFFER"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid HUB_BUFFER %q: must be a positive integer", v)
		}
		cfg.HubBuffer = n
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.LogFormat = strings.ToLower(os.Getenv("LOG_FORMAT"))
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}

	cfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	cfg.OTLPInsecure = os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "1" || strings.EqualFold(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE"), "true")

	return cfg, nil
}

// WatchURL validates that exactly one target form is set and returns the watch page URL.
func (c *Config) WatchURL() (string, error) {
	set := 0
	for _, v := range []string{c.VideoID, c.ChannelID, c.URL} {
		if v != "" {
			set++
		}
	}
	switch {
	case set == 0:
		return "", errors.New("missing watch target: set one of LIVECHAT_VIDEO_ID, LIVECHAT_CHANNEL_ID, LIVECHAT_URL")
	case set > 1:
		return "", errors.New("ambiguous watch target: set only one of LIVECHAT_VIDEO_ID, LIVECHAT_CHANNEL_ID, LIVECHAT_URL")
	}
	switch {
	case c.VideoID != "":
		return youtubeapi.VideoWatchURL(c.BaseURL, c.VideoID), nil
	case c.ChannelID != "":
		return youtubeapi.ChannelLiveURL(c.BaseURL, c.ChannelID), nil
	default:
		return youtubeapi.ParseWatchURL(c.URL)
	}
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive duration", key, v)
	}
	return d, nil
}
