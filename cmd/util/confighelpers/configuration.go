// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package confighelpers

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/mitchellh/mapstructure"
	flag "github.com/spf13/pflag"
)

var ErrVersion = errors.New("version requested")

func ApplyOverrides(f *flag.FlagSet, k *koanf.Koanf) error {
	// Load defaults from command line defaults and config file
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return fmt.Errorf("error loading defaults: %w", err)
	}

	// Load configuration file overrides
	if err := loadConfigFiles(k); err != nil {
		return err
	}
	if s := k.String("conf.string"); s != "" {
		if err := k.Load(rawbytes.Provider([]byte(s)), json.Parser()); err != nil {
			return fmt.Errorf("error loading config string: %w", err)
		}
	}

	// Environment variables override configuration files
	if err := loadEnvironmentVariables(k); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}

	// Command line flags override everything else
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return fmt.Errorf("error loading command line flags: %w", err)
	}
	return nil
}

func loadConfigFiles(k *koanf.Koanf) error {
	for _, configFile := range k.Strings("conf.file") {
		if configFile == "" {
			continue
		}
		if err := k.Load(file.Provider(configFile), json.Parser()); err != nil {
			return fmt.Errorf("error loading local config file %s: %w", configFile, err)
		}
	}
	return nil
}

// loadEnvironmentVariables maps PREFIX_SECTION_SOME__KEY to section.some-key.
func loadEnvironmentVariables(k *koanf.Koanf) error {
	envPrefix := k.String("conf.env-prefix")
	if len(envPrefix) == 0 {
		return nil
	}
	return k.Load(env.Provider(envPrefix+"_", ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix+"_")
		s = strings.ToLower(s)
		s = strings.ReplaceAll(s, "__", "-")
		return strings.ReplaceAll(s, "_", ".")
	}), nil)
}

func BeginCommonParse(f *flag.FlagSet, args []string) (*koanf.Koanf, error) {
	for _, arg := range args {
		if arg == "--version" || arg == "-v" {
			return nil, ErrVersion
		}
	}
	if err := f.Parse(args); err != nil {
		return nil, err
	}
	if f.NArg() != 0 {
		// Unexpected number of parameters
		return nil, fmt.Errorf("unexpected parameter: %s", f.Arg(0))
	}

	var k = koanf.New(".")
	if err := ApplyOverrides(f, k); err != nil {
		return nil, err
	}
	return k, nil
}

func EndCommonParse(k *koanf.Koanf, config interface{}) error {
	decoderConfig := mapstructure.DecoderConfig{
		ErrorUnused: true,

		// Default values
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		Metadata:         nil,
		Result:           config,
		WeaklyTypedInput: true,
	}
	if err := k.UnmarshalWithConf("", config, koanf.UnmarshalConf{DecoderConfig: &decoderConfig}); err != nil {
		return err
	}
	return nil
}

// DumpConfig prints the active configuration as JSON, omitting the keys
// listed in exclude.
func DumpConfig(k *koanf.Koanf, exclude map[string]bool) error {
	values := make(map[string]interface{})
	keys := k.Keys()
	sort.Strings(keys)
	for _, key := range keys {
		if !exclude[key] {
			values[key] = k.Get(key)
		}
	}
	c := koanf.New(".")
	if err := c.Load(confmap.Provider(values, "."), nil); err != nil {
		return fmt.Errorf("error loading config to dump: %w", err)
	}
	data, err := c.Marshal(json.Parser())
	if err != nil {
		return fmt.Errorf("unable to marshal config to JSON: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}
