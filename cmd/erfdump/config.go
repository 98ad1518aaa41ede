/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/zoomoid/go-erf"
)

// Config stores all configuration of erfdump.
// The values are read by viper from flags, a config file or environment variables.
type Config struct {
	Format     string        `mapstructure:"format"`
	Workers    int           `mapstructure:"workers"`
	Metrics    bool          `mapstructure:"metrics"`
	DumpSchema bool          `mapstructure:"dump-schema"`
	Log        LogConfig     `mapstructure:"log"`
	Schema     SchemaConfig  `mapstructure:"schema"`
	Decoder    DecoderConfig `mapstructure:"decoder"`
}

type LogConfig struct {
	Level     string `mapstructure:"level"`
	Verbosity int    `mapstructure:"verbosity"`
	Console   bool   `mapstructure:"console"`
}

type SchemaConfig struct {
	// Extra is a YAML template export whose sections and tags are added to the compiled-in ones.
	Extra string `mapstructure:"extra"`
}

type DecoderConfig struct {
	MaxExtensionHeaders int  `mapstructure:"max-extension-headers"`
	SkipCorrelation     bool `mapstructure:"skip-correlation"`
	OmitGenerated       bool `mapstructure:"omit-generated"`
	// TwoPass decodes every file twice so that records also link to metadata following them.
	TwoPass bool `mapstructure:"two-pass"`
}

func (c DecoderConfig) Options() erf.DecoderOptions {
	return erf.DecoderOptions{
		MaxExtensionHeaders: c.MaxExtensionHeaders,
		SkipCorrelation:     c.SkipCorrelation,
		OmitGeneratedFields: c.OmitGenerated,
	}
}

const (
	formatText = "text"
	formatJSON = "json"
)

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("erfdump", pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: erfdump [flags] FILE...\n\nFlags:\n")
		fs.PrintDefaults()
	}

	fs.String("config", "", "path to a YAML config file")
	fs.StringP("format", "f", formatText, "output format, one of text or json")
	fs.IntP("workers", "w", runtime.NumCPU(), "number of files decoded concurrently")
	fs.Bool("metrics", false, "print decoder metrics after all files are decoded")
	fs.Bool("dump-schema", false, "write the tag templates of the schema registry as YAML and exit")

	fs.String("log.level", "info", "log level")
	fs.IntP("log.verbosity", "v", 0, "decoder log verbosity")
	fs.Bool("log.console", false, "human readable logs instead of JSON")

	fs.String("schema.extra", "", "path to a YAML tag template export merged into the registry")

	fs.Int("decoder.max-extension-headers", erf.DefaultMaxExtensionHeaders, "maximum number of extension headers decoded per record")
	fs.Bool("decoder.skip-correlation", false, "do not relate records to their metadata records")
	fs.Bool("decoder.omit-generated", false, "omit generated cross references from the output")
	fs.Bool("decoder.two-pass", false, "decode each file twice to link records to later metadata")
	return fs
}

// loadConfig reads configuration from parsed flags, a config file and ERFDUMP_* environment
// variables. Flags take precedence.
func loadConfig(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	v.SetEnvPrefix("erfdump")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	switch cfg.Format {
	case formatText, formatJSON:
	default:
		return nil, fmt.Errorf("unknown output format %q", cfg.Format)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return cfg, nil
}
