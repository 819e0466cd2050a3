package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Source selects how GPS is ingested: "gpsd" (TCP to a running daemon)
	// or "nmea" (direct serial). When empty, defaults to "gpsd".
	Source string `yaml:"source"`

	// Attempts is the poll budget for one run.
	Attempts int `yaml:"attempts"`

	// Verbose logs the raw reports consumed from the source.
	Verbose bool `yaml:"verbose"`

	GPSD GPSDConfig `yaml:"gpsd"`
	NMEA NMEAConfig `yaml:"nmea"`
}

type GPSDConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`

	// Scaled requests degrees/meters/m-per-s units from gpsd. Defaults to
	// true; set false to get the daemon's raw units.
	Scaled *bool `yaml:"scaled"`

	DialTimeout time.Duration `yaml:"dial_timeout"`
}

type NMEAConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

// Default returns the built-in configuration: gpsd on localhost:2947 with
// a scaled JSON watch and a budget of 9 polls.
func Default() Config {
	scaled := true
	return Config{
		Source:   "gpsd",
		Attempts: 9,
		GPSD: GPSDConfig{
			Host:        "localhost",
			Port:        "2947",
			Scaled:      &scaled,
			DialTimeout: 2 * time.Second,
		},
		NMEA: NMEAConfig{Baud: 9600},
	}
}

// Load reads the YAML config at path, applying defaults for absent keys.
// An empty path yields Default().
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.Source == "" {
		cfg.Source = "gpsd"
	}
	if cfg.Source != "gpsd" && cfg.Source != "nmea" {
		return Config{}, fmt.Errorf("source must be 'gpsd' or 'nmea'")
	}

	if cfg.Attempts < 0 {
		return Config{}, fmt.Errorf("attempts must be > 0")
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 9
	}

	if cfg.GPSD.Host == "" {
		cfg.GPSD.Host = "localhost"
	}
	if cfg.GPSD.Port == "" {
		cfg.GPSD.Port = "2947"
	}
	if cfg.GPSD.Scaled == nil {
		scaled := true
		cfg.GPSD.Scaled = &scaled
	}
	if cfg.GPSD.DialTimeout <= 0 {
		cfg.GPSD.DialTimeout = 2 * time.Second
	}

	if cfg.Source == "nmea" && cfg.NMEA.Device == "" {
		return Config{}, fmt.Errorf("nmea.device is required when source is 'nmea'")
	}
	if cfg.NMEA.Baud < 0 {
		return Config{}, fmt.Errorf("nmea.baud must be > 0")
	}
	if cfg.NMEA.Baud == 0 {
		cfg.NMEA.Baud = 9600
	}

	return cfg, nil
}
