// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package genericconf

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"
)

func TestToSlogLevel(t *testing.T) {
	for input, expected := range map[string]any{
		"info":  log.LevelInfo,
		"WARN":  log.LevelWarn,
		"trace": log.LevelTrace,
		"3":     log.LevelInfo,
		"1":     log.LevelError,
	} {
		level, err := ToSlogLevel(input)
		require.NoError(t, err, input)
		require.Equal(t, expected, level, input)
	}
	_, err := ToSlogLevel("loud")
	require.Error(t, err)
	_, err = ToSlogLevel("9")
	require.Error(t, err)
}

func TestHandlerFromLogType(t *testing.T) {
	var buf bytes.Buffer
	handler, err := HandlerFromLogType("json", &buf)
	require.NoError(t, err)
	log.NewLogger(handler).Info("hello", "key", 7)
	require.Contains(t, buf.String(), `"key":7`)
	_, err = HandlerFromLogType("xml", &buf)
	require.Error(t, err)
}

func TestInitLogToFile(t *testing.T) {
	dir := t.TempDir()
	config := DefaultFileLoggingConfig
	config.Enable = true
	config.File = "node.log"
	require.NoError(t, InitLog("json", "info", &config, DefaultPathResolver(dir)))
	defer func() {
		require.NoError(t, InitLog("plaintext", "info", &DefaultFileLoggingConfig, DefaultPathResolver(dir)))
	}()
	log.Info("written to file")
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(filepath.Join(dir, "node.log"))
		return err == nil && bytes.Contains(data, []byte("written to file"))
	}, time.Second, 10*time.Millisecond)
}
