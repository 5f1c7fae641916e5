package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// fileConfig mirrors the command line flags that may be defaulted from a
// TOML file. Flags given on the command line take precedence.
type fileConfig struct {
	Workdir       string `toml:"workdir"`
	Preserve      *bool  `toml:"preserve"`
	Jobs          int    `toml:"jobs"`
	MaxImageWidth *int   `toml:"max_image_width"`
	Quality       int    `toml:"quality"`
	NoProgress    *bool  `toml:"no_progress"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
}

func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return fileConfig{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fileConfig{}, fmt.Errorf("unknown keys in config %s: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// values returns flag name -> value for every key set in the file.
func (c fileConfig) values() map[string]string {
	v := make(map[string]string)
	if c.Workdir != "" {
		v["workdir"] = c.Workdir
	}
	if c.Preserve != nil {
		v["preserve"] = strconv.FormatBool(*c.Preserve)
	}
	if c.Jobs != 0 {
		v["jobs"] = strconv.Itoa(c.Jobs)
	}
	if c.MaxImageWidth != nil {
		v["max-image-width"] = strconv.Itoa(*c.MaxImageWidth)
	}
	if c.Quality != 0 {
		v["quality"] = strconv.Itoa(c.Quality)
	}
	if c.NoProgress != nil {
		v["no-progress"] = strconv.FormatBool(*c.NoProgress)
	}
	if c.LogLevel != "" {
		v["log-level"] = c.LogLevel
	}
	if c.LogFormat != "" {
		v["log-format"] = c.LogFormat
	}
	return v
}

// applyConfigFile loads --config, if given, and sets every flag that was
// not given explicitly on the command line.
func applyConfigFile(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return nil
	}
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	for name, value := range cfg.values() {
		if cmd.Flags().Changed(name) {
			continue
		}
		if err := cmd.Flags().Set(name, value); err != nil {
			return fmt.Errorf("config %s: %s: %w", path, name, err)
		}
	}
	return nil
}
