package main

import "time"

type Config struct {
	Host string `env:"HOST,default=0.0.0.0"`
	Port int    `env:"PORT,default=3000" validate:"gt=0"`

	// IPHashSecret keys address redaction. Leaving it unset falls back
	// to an insecure built-in key with a loud warning at startup.
	IPHashSecret   string `env:"IP_HASH_SECRET"`
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	TLSCertFile    string `env:"TLS_CERT_FILE"`
	TLSKeyFile     string `env:"TLS_KEY_FILE"`

	HistoryLimit     int           `env:"HISTORY_LIMIT,default=200" validate:"gt=0"`
	MessageInterval  time.Duration `env:"MESSAGE_INTERVAL,default=500ms" validate:"gt=0"`
	MaxMessageLength int           `env:"MAX_MESSAGE_LENGTH,default=1000" validate:"gt=0"`

	BufferSize           int           `env:"BUFFER_SIZE,default=256" validate:"gt=0"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64" validate:"gt=0"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=1s" validate:"gt=0"`

	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
	StatsInterval   time.Duration `env:"STATS_INTERVAL,default=30s" validate:"gt=0"`
	DebugPort       int           `env:"DEBUG_PORT"`
	LogLevel        string        `env:"LOG_LEVEL,default=info"`
}
