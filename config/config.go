// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// AppConfig is the full application configuration, loaded from the
// environment (optionally seeded by a .env file).
type AppConfig struct {
	Name     string `mapstructure:"service_name" validate:"required"`
	Version  string `mapstructure:"version" validate:"required"`
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"required"`
	LogPath  string `mapstructure:"log_path"`

	// TLS on the control surface decides the transport scheme for
	// same-origin worker resolution (secure page ⇒ wss).
	TLSCertFile string `mapstructure:"tls_cert_file"`
	TLSKeyFile  string `mapstructure:"tls_key_file"`

	// WorkerAddr is either an explicit host:port for the conversational
	// service or the literal "same-origin" marker.
	WorkerAddr string `mapstructure:"worker_addr" validate:"required"`
	WorkerPath string `mapstructure:"worker_path" validate:"required"`

	// Session configuration payload, sent as the first protocol message.
	VoicePrompt string `mapstructure:"voice_prompt" validate:"required"`
	TextPrompt  string `mapstructure:"text_prompt" validate:"required"`

	// Recording settings are fixed configuration, not runtime parameters.
	RecordingMime        string `mapstructure:"recording_mime" validate:"required"`
	RecordingBitrate     int    `mapstructure:"recording_bitrate" validate:"required"`
	RecordingTimesliceMs int    `mapstructure:"recording_timeslice_ms" validate:"required"`

	// MicPipe, when set, is a path to a raw-PCM source (FIFO or file) that
	// the local capture collaborator feeds into the recording mix.
	MicPipe string `mapstructure:"mic_pipe"`
}

// Secure reports whether the control surface is served over TLS.
func (c *AppConfig) Secure() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// InitConfig reads configuration from the environment, with optional .env
// file support via ENV_PATH, and validates the result.
func InitConfig() (*AppConfig, error) {
	vConfig := viper.NewWithOptions(viper.KeyDelimiter("__"))

	vConfig.AddConfigPath(".")
	vConfig.SetConfigName(".env")
	vConfig.SetConfigType("env")
	if path := os.Getenv("ENV_PATH"); path != "" {
		vConfig.SetConfigFile(path)
	}
	vConfig.AutomaticEnv()
	setDefault(vConfig)
	if err := vConfig.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		// No .env file is fine; environment variables still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := vConfig.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefault(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "voicebridge")
	v.SetDefault("VERSION", "0.1.0")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 8998)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PATH", "")

	v.SetDefault("TLS_CERT_FILE", "")
	v.SetDefault("TLS_KEY_FILE", "")

	v.SetDefault("WORKER_ADDR", "same-origin")
	v.SetDefault("WORKER_PATH", "/ws")

	v.SetDefault("VOICE_PROMPT", "NATF0.pt")
	v.SetDefault("TEXT_PROMPT", "You are a helpful assistant.")

	v.SetDefault("RECORDING_MIME", "audio/wav")
	v.SetDefault("RECORDING_BITRATE", 128000)
	v.SetDefault("RECORDING_TIMESLICE_MS", 250)

	v.SetDefault("MIC_PIPE", "")
}
