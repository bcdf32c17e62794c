package config

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type TTSConfig struct {
	Mode             string `yaml:"mode"` // remote, mock
	Endpoint         string `yaml:"endpoint"`
	AppID            string `yaml:"app_id"`
	AccessToken      string `yaml:"access_token"`
	ResourceID       string `yaml:"resource_id"`
	DefaultVoice     string `yaml:"default_voice"`
	Format           string `yaml:"format"`
	SampleRate       int    `yaml:"sample_rate"`
	RequestTimeoutMS int    `yaml:"request_timeout_ms"`
}

type BatchConfig struct {
	MaxWorkers int `yaml:"max_workers"`
}

type Config struct {
	ServiceName string          `yaml:"service_name"`
	Environment string          `yaml:"environment"`
	HTTP        HTTPConfig      `yaml:"http"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Bus         BusConfig       `yaml:"bus"`
	TTS         TTSConfig       `yaml:"tts"`
	Batch       BatchConfig     `yaml:"batch"`
}

func Default() Config {
	return Config{
		ServiceName: "voxbatch",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8080,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPEndpoint: "",
			OTLPInsecure: true,
		},
		Bus: BusConfig{
			Enabled:        false,
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		TTS: TTSConfig{
			Mode:             "remote",
			Endpoint:         "https://openspeech.bytedance.com/api/v3/tts/unidirectional",
			DefaultVoice:     "zh_female_vv_uranus_bigtts",
			Format:           "mp3",
			SampleRate:       24000,
			RequestTimeoutMS: 60000,
		},
		Batch: BatchConfig{
			MaxWorkers: 10,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := ioutil.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.ServiceName, "VOX_SERVICE_NAME")
	overrideString(&cfg.Environment, "VOX_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "VOX_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "VOX_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "VOX_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "VOX_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "VOX_TELEMETRY_OTLP_INSECURE")
	overrideBool(&cfg.Bus.Enabled, "VOX_BUS_ENABLED")
	overrideBool(&cfg.Bus.Embedded, "VOX_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "VOX_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "VOX_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "VOX_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "VOX_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "VOX_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "VOX_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "VOX_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.TTS.Mode, "VOX_TTS_MODE")
	overrideString(&cfg.TTS.Endpoint, "VOX_TTS_ENDPOINT")
	overrideString(&cfg.TTS.AppID, "VOX_TTS_APP_ID")
	overrideString(&cfg.TTS.AccessToken, "VOX_TTS_ACCESS_TOKEN")
	overrideString(&cfg.TTS.ResourceID, "VOX_TTS_RESOURCE_ID")
	overrideString(&cfg.TTS.DefaultVoice, "VOX_TTS_DEFAULT_VOICE")
	overrideString(&cfg.TTS.Format, "VOX_TTS_FORMAT")
	overrideInt(&cfg.TTS.SampleRate, "VOX_TTS_SAMPLE_RATE")
	overrideInt(&cfg.TTS.RequestTimeoutMS, "VOX_TTS_REQUEST_TIMEOUT_MS")
	overrideInt(&cfg.Batch.MaxWorkers, "VOX_BATCH_MAX_WORKERS")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.ServiceName == "" {
		return errors.New("service_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Enabled {
		if cfg.Bus.Embedded {
			if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
				return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	switch cfg.TTS.Mode {
	case "remote", "mock":
	default:
		return errors.New("tts.mode must be one of remote|mock")
	}
	if cfg.TTS.Mode == "remote" {
		if cfg.TTS.Endpoint == "" {
			return errors.New("tts.endpoint must not be empty when mode=remote")
		}
		if cfg.TTS.AppID == "" || cfg.TTS.AccessToken == "" || cfg.TTS.ResourceID == "" {
			return errors.New("tts.app_id, tts.access_token and tts.resource_id must be set when mode=remote")
		}
	}
	if cfg.TTS.Format == "" {
		return errors.New("tts.format must not be empty")
	}
	if cfg.TTS.SampleRate <= 0 {
		return errors.New("tts.sample_rate must be positive")
	}
	if cfg.TTS.RequestTimeoutMS <= 0 {
		return errors.New("tts.request_timeout_ms must be positive")
	}
	if cfg.Batch.MaxWorkers <= 0 {
		return errors.New("batch.max_workers must be >= 1")
	}
	return nil
}
