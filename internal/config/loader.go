package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidVoices lists the OpenAI synthesis voices known at the time of writing.
// Used by [Validate] to warn about likely typos; unknown voices are not an
// error since the platform adds voices faster than we release.
var ValidVoices = []string{
	"alloy", "ash", "coral", "echo", "fable", "nova", "onyx", "sage", "shimmer",
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, expands ${ENV} references,
// applies defaults, and validates the result. Useful in tests where configs
// are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	raw = []byte(os.Expand(string(raw), envMapper))

	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envMapper resolves ${VAR} references. Unset variables expand to the empty
// string so that optional secrets can be omitted locally.
func envMapper(name string) string {
	return os.Getenv(name)
}

// applyDefaults fills zero values with sensible local-development defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Providers.OpenAI.ChatModel == "" {
		cfg.Providers.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if cfg.Providers.OpenAI.TranscribeModel == "" {
		cfg.Providers.OpenAI.TranscribeModel = "whisper-1"
	}
	if cfg.Providers.OpenAI.SpeechModel == "" {
		cfg.Providers.OpenAI.SpeechModel = "tts-1"
	}
	if cfg.Providers.OpenAI.Voice == "" {
		cfg.Providers.OpenAI.Voice = "nova"
	}
	if cfg.Gateway.Attempts == 0 {
		cfg.Gateway.Attempts = 3
	}
	if cfg.Gateway.CallTimeoutSeconds == 0 {
		cfg.Gateway.CallTimeoutSeconds = 60
	}
	if cfg.Encounter.Language == "" {
		cfg.Encounter.Language = "es"
	}
	if cfg.Audio.Dir == "" {
		cfg.Audio.Dir = "data/audio"
	}
	if cfg.Audio.BaseURL == "" {
		cfg.Audio.BaseURL = "http://localhost:8080/audio"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "encuentro"
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" {
			errs = append(errs, errors.New("server.tls.cert_file is required when tls is set"))
		}
		if cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls.key_file is required when tls is set"))
		}
	}

	// Providers
	if cfg.Providers.OpenAI.APIKey == "" {
		errs = append(errs, errors.New("providers.openai.api_key is required"))
	}
	if v := cfg.Providers.OpenAI.Voice; v != "" && !slices.Contains(ValidVoices, v) {
		slog.Warn("unknown synthesis voice — may be a typo or a newly released voice",
			"voice", v,
			"known", ValidVoices,
		)
	}

	// Gateway
	if cfg.Gateway.CallTimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("gateway.call_timeout_seconds %d must not be negative", cfg.Gateway.CallTimeoutSeconds))
	}

	// Persistence availability
	if cfg.Database.PostgresDSN == "" {
		slog.Warn("database.postgres_dsn is empty; running on in-memory stores, AI call ledger will not survive restarts")
	}

	// Log shipping
	if cfg.LogShip.Endpoint != "" && cfg.LogShip.Token == "" {
		slog.Warn("log_ship.endpoint is set but log_ship.token is empty; sink requests will be unauthenticated")
	}
	if cfg.LogShip.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("log_ship.queue_size %d must not be negative", cfg.LogShip.QueueSize))
	}

	return errors.Join(errs...)
}
