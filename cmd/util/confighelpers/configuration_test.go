// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package confighelpers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

type innerConfig struct {
	Interval time.Duration `koanf:"interval"`
	Names    []string      `koanf:"names"`
}

type testConfig struct {
	Conf struct {
		EnvPrefix string   `koanf:"env-prefix"`
		File      []string `koanf:"file"`
		String    string   `koanf:"string"`
	} `koanf:"conf"`
	Inner innerConfig `koanf:"inner"`
	Size  uint64      `koanf:"size"`
}

func testFlagSet() *flag.FlagSet {
	f := flag.NewFlagSet("test", flag.ContinueOnError)
	f.String("conf.env-prefix", "", "")
	f.StringSlice("conf.file", nil, "")
	f.String("conf.string", "", "")
	f.Duration("inner.interval", time.Second, "")
	f.StringSlice("inner.names", []string{"a"}, "")
	f.Uint64("size", 1, "")
	return f
}

func parse(t *testing.T, args ...string) (*testConfig, error) {
	t.Helper()
	k, err := BeginCommonParse(testFlagSet(), args)
	if err != nil {
		return nil, err
	}
	var config testConfig
	if err := EndCommonParse(k, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func TestDefaultsAndFlags(t *testing.T) {
	config, err := parse(t)
	require.NoError(t, err)
	require.Equal(t, time.Second, config.Inner.Interval)
	require.Equal(t, []string{"a"}, config.Inner.Names)

	config, err = parse(t, "--inner.interval", "3m", "--inner.names", "x,y", "--size", "9")
	require.NoError(t, err)
	require.Equal(t, 3*time.Minute, config.Inner.Interval)
	require.Equal(t, []string{"x", "y"}, config.Inner.Names)
	require.Equal(t, uint64(9), config.Size)
}

func TestOverridePrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"size": 5, "inner": {"interval": "10s"}}`), 0600))
	t.Setenv("CTCTEST_SIZE", "6")

	config, err := parse(t, "--conf.file", path)
	require.NoError(t, err)
	require.Equal(t, uint64(5), config.Size)
	require.Equal(t, 10*time.Second, config.Inner.Interval)

	config, err = parse(t, "--conf.file", path, "--conf.env-prefix", "CTCTEST")
	require.NoError(t, err)
	require.Equal(t, uint64(6), config.Size)

	config, err = parse(t, "--conf.file", path, "--conf.env-prefix", "CTCTEST", "--size", "7")
	require.NoError(t, err)
	require.Equal(t, uint64(7), config.Size)
}

func TestParseErrors(t *testing.T) {
	_, err := parse(t, "--version")
	require.ErrorIs(t, err, ErrVersion)
	_, err = parse(t, "stray")
	require.Error(t, err)
	_, err = parse(t, "--conf.string", `{"unknown": 1}`)
	require.Error(t, err)
}
