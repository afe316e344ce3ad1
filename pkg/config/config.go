// Package config loads shardfeed settings from YAML files and the
// environment. A YAML file provides the base, a .env file can add
// environment variables, and real environment variables win.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	sferrors "github.com/shardfeed/shardfeed/pkg/common/errors"
	"github.com/shardfeed/shardfeed/pkg/data/dataset"
	"github.com/shardfeed/shardfeed/pkg/data/pipeline"
)

// Variant is the file representation of one pipeline variant.
type Variant struct {
	Variant          string `mapstructure:"variant"`
	Dataset          string `mapstructure:"dataset"`
	Split            string `mapstructure:"split"`
	BatchSize        int    `mapstructure:"batch_size"`
	Pipeline         string `mapstructure:"pipeline"`
	NumParallelCalls int    `mapstructure:"num_parallel_calls"`
	Prefetch         int    `mapstructure:"prefetch"`
	ShuffleBuffer    int    `mapstructure:"shuffle_buffer"`
	ShuffleSeed      int64  `mapstructure:"shuffle_seed"`
	Cache            string `mapstructure:"cache"`
}

// File is the root of a shardfeed config file.
type File struct {
	DataDir   string             `mapstructure:"data_dir"`
	ManualDir string             `mapstructure:"manual_dir"`
	TryGCS    bool               `mapstructure:"try_gcs"`
	Variants  map[string]Variant `mapstructure:"variants"`
}

// PipelineConfig converts a file variant into a pipeline.Config,
// applying the file-level dataset options.
func (f File) PipelineConfig(name string) (pipeline.Config, error) {
	v, ok := f.Variants[name]
	if !ok {
		return pipeline.Config{}, fmt.Errorf("%w: variant %q not configured", sferrors.ErrConfiguration, name)
	}
	return pipeline.Config{
		Variant:          v.Variant,
		Dataset:          v.Dataset,
		Split:            v.Split,
		BatchSize:        v.BatchSize,
		Pipeline:         v.Pipeline,
		NumParallelCalls: v.NumParallelCalls,
		Prefetch:         v.Prefetch,
		ShuffleBuffer:    v.ShuffleBuffer,
		ShuffleSeed:      v.ShuffleSeed,
		Cache:            v.Cache,
		Options: dataset.Options{
			DataDir:   f.DataDir,
			ManualDir: f.ManualDir,
			TryGCS:    f.TryGCS,
		},
	}, nil
}

// PipelineConfigs converts every configured variant.
func (f File) PipelineConfigs() (map[string]pipeline.Config, error) {
	configs := make(map[string]pipeline.Config, len(f.Variants))
	for name := range f.Variants {
		cfg, err := f.PipelineConfig(name)
		if err != nil {
			return nil, err
		}
		configs[name] = cfg
	}
	return configs, nil
}

// Options control where Load looks for files.
type Options struct {
	// ConfigFile is an explicit YAML path. Empty searches ./config.yml
	// and ./config/config.yml.
	ConfigFile string

	// EnvFile is an explicit .env path. Empty searches ./.env.
	EnvFile string
}

// Option mutates load Options.
type Option func(*Options)

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) Option {
	return func(o *Options) { o.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) Option {
	return func(o *Options) { o.EnvFile = path }
}

// Load reads configuration into cfg. Missing files are not an error;
// a present but unreadable config file is.
func Load(cfg interface{}, opts ...Option) error {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	if o.EnvFile == "" {
		o.EnvFile = firstExisting(".env")
	}
	if o.EnvFile != "" && exists(o.EnvFile) {
		if err := godotenv.Load(o.EnvFile); err != nil {
			return fmt.Errorf("%w: loading env file %s: %v", sferrors.ErrConfiguration, o.EnvFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("SHARDFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if o.ConfigFile == "" {
		o.ConfigFile = firstExisting("config.yml", "config/config.yml")
	}
	if o.ConfigFile != "" {
		v.SetConfigFile(o.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("%w: reading config file %s: %v", sferrors.ErrConfiguration, o.ConfigFile, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("%w: unmarshaling config: %v", sferrors.ErrConfiguration, err)
	}
	return nil
}

func firstExisting(paths ...string) string {
	for _, path := range paths {
		if exists(path) {
			return path
		}
	}
	return ""
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
