// Package config holds the backend configuration and its optional YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the validated runtime configuration.
type Config struct {
	Port          int    `validate:"required,min=1,max=65535"`
	ResourcesRoot string `validate:"required"`
	Engine        Engine
	ScaffolderURL string            `validate:"required,url"`
	CallbackURL   string            `validate:"omitempty,url"`
	AdvertiseURL  string            `validate:"omitempty,url"`
	RedisURL      string            `validate:"omitempty,url"`
	EventBus      string            `validate:"oneof=gochannel kafka"`
	KafkaBrokers  []string          `validate:"required_if=EventBus kafka"`
	SpecLister    string            `validate:"oneof=fixed dir"`
	OTel          bool              `validate:"-"`
	LogLevel      string            `validate:"oneof=debug info warn error"`
	Services      map[string]string `validate:"dive,keys,required,endkeys,url"`
}

// Engine configures the launched workflow engine.
type Engine struct {
	BaseURL        string        `validate:"required,url"`
	Port           int           `validate:"required,min=1,max=65535"`
	ResourcesPath  string        `validate:"required"`
	ContainerPath  string        `validate:"required"`
	Image          string        `validate:"required"`
	Launcher       string        `validate:"oneof=docker testcontainers none"`
	StderrPolicy   string        `validate:"oneof=fail warn"`
	HealthInterval time.Duration `validate:"gt=0"`
	HealthAttempts int           `validate:"min=1"`
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

// File is the structure of the optional YAML configuration file.
type File struct {
	Services map[string]string `yaml:"services"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return &file, nil
}

// MergeServices combines file services with explicit entries; explicit
// entries win.
func MergeServices(file *File, explicit map[string]string) map[string]string {
	services := make(map[string]string)

	if file != nil {
		for name, url := range file.Services {
			services[name] = url
		}
	}

	for name, url := range explicit {
		if url != "" {
			services[name] = url
		}
	}

	return services
}
