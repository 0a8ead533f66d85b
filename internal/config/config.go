// Package config loads nsd/ssd configuration: built-in defaults, overlaid by
// an optional YAML file. Environment variables (LANGOS_NSD_* / LANGOS_SSD_*)
// override a key only when a config file was read and that file sets the
// key; with no config file the defaults are used as they are. No key is read
// from command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LoggingConfig controls the internal/logger package.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry tracing of NS↔SS transactions.
type TelemetryConfig struct {
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled"`
	ServiceName string  `mapstructure:"service_name" yaml:"service_name"`
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure    bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// ProfilingConfig controls the optional Pyroscope continuous profiler.
type ProfilingConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
}

// NSConfig is the Name Server's configuration.
type NSConfig struct {
	// ListenAddr is the TCP address clients and SSs connect to ("VERB;..." protocol).
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr" validate:"required"`
	// AdminAddr is the HTTP address for /healthz and /metrics, off the wire protocol.
	AdminAddr string `mapstructure:"admin_addr" yaml:"admin_addr"`
	// DataDir holds user_data.dat and file_metadata.dat.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir" validate:"required"`
	// ShutdownTimeout bounds how long Serve waits for in-flight sessions to drain.
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required,gt=0"`
	Logging         LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry       TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Profiling       ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// SSConfig is a Storage Server's configuration.
type SSConfig struct {
	// ListenAddr is the TCP address this SS binds.
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr" validate:"required"`
	// AdvertiseIP/AdvertisePort are what this SS tells the NS to route clients to;
	// may differ from ListenAddr behind NAT.
	AdvertiseIP   string `mapstructure:"advertise_ip" yaml:"advertise_ip" validate:"required"`
	AdvertisePort int    `mapstructure:"advertise_port" yaml:"advertise_port" validate:"required,gt=0"`
	// NSAddr is the Name Server this SS registers with on startup.
	NSAddr string `mapstructure:"ns_addr" yaml:"ns_addr" validate:"required"`
	// RootDir is the local directory that owns all file bytes and .bak/.ckpt siblings.
	RootDir         string          `mapstructure:"root_dir" yaml:"root_dir" validate:"required"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required,gt=0"`
	Logging         LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry       TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Profiling       ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

func defaultLogging() LoggingConfig {
	return LoggingConfig{Level: "INFO", Format: "text", Output: "stdout"}
}

// DefaultNSConfig returns the configuration nsd runs with absent a config file.
func DefaultNSConfig() *NSConfig {
	return &NSConfig{
		ListenAddr:      ":8080",
		AdminAddr:       ":8090",
		DataDir:         "./ns_data",
		ShutdownTimeout: 30 * time.Second,
		Logging:         defaultLogging(),
	}
}

// DefaultSSConfig returns the configuration ssd runs with absent a config file.
func DefaultSSConfig() *SSConfig {
	return &SSConfig{
		ListenAddr:      ":9001",
		AdvertiseIP:     "127.0.0.1",
		AdvertisePort:   9001,
		NSAddr:          "127.0.0.1:8080",
		RootDir:         "./ss_files",
		ShutdownTimeout: 30 * time.Second,
		Logging:         defaultLogging(),
	}
}

var validate = validator.New()

// LoadNSConfig reads configPath (or env/defaults if empty) into an NSConfig.
func LoadNSConfig(configPath string) (*NSConfig, error) {
	cfg := DefaultNSConfig()
	v := newViper("LANGOS_NSD", configPath)
	found, err := readIfPresent(v, configPath)
	if err != nil {
		return nil, err
	}
	if found {
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("unmarshal ns config: %w", err)
		}
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid ns config: %w", err)
	}
	return cfg, nil
}

// LoadSSConfig reads configPath (or env/defaults if empty) into an SSConfig.
func LoadSSConfig(configPath string) (*SSConfig, error) {
	cfg := DefaultSSConfig()
	v := newViper("LANGOS_SSD", configPath)
	found, err := readIfPresent(v, configPath)
	if err != nil {
		return nil, err
	}
	if found {
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("unmarshal ss config: %w", err)
		}
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid ss config: %w", err)
	}
	return cfg, nil
}

func newViper(envPrefix, configPath string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if configPath != "" {
		v.SetConfigFile(configPath)
	}
	return v
}

func readIfPresent(v *viper.Viper, configPath string) (bool, error) {
	if configPath == "" {
		return false, nil
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return false, fmt.Errorf("config file not found: %s", configPath)
	}
	if err := v.ReadInConfig(); err != nil {
		return false, fmt.Errorf("read config file: %w", err)
	}
	return true, nil
}

// Save writes cfg to path as YAML, creating parent directories as needed.
func Save(cfg any, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
