package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type SourceConfig struct {
	Name   string                 `yaml:"name"`
	Config map[string]interface{} `yaml:"config"`
}

type Config struct {
	Sources []SourceConfig `yaml:"sources"`
}

func (config *Config) GetSourceConfig(name string) (map[string]interface{}, error) {
	for i := range config.Sources {
		if config.Sources[i].Name == name {
			return config.Sources[i].Config, nil
		}
	}

	return nil, ErrNotFound
}

func ReadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't open file")
	}
	defer f.Close()

	var config Config

	err = yaml.NewDecoder(f).Decode(&config)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't decode yaml configuration")
	}

	return &config, nil
}
