package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestLoadOverridesDefaults(t *testing.T) {
	r := require.New(t)
	path := filepath.Join(t.TempDir(), "ddbfile.yaml")
	r.NoError(os.WriteFile(path, []byte("data_directory: /tmp/ddb\npage_size: 8192\nlog_level: debug\n"), 0644))

	cfg, err := Load(path)
	r.NoError(err)
	r.Equal("/tmp/ddb", cfg.DataDir)
	r.Equal(uint16(8192), cfg.PageSize)
	r.Equal(logrus.DebugLevel, cfg.LogLevel)
}

func TestLoadMissingFileErrors(t *testing.T) {
	r := require.New(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	r.Error(err)
}

func TestDefaultConfig(t *testing.T) {
	r := require.New(t)
	cfg := Default()
	r.Equal(uint16(4096), cfg.PageSize)
	r.Equal(logrus.InfoLevel, cfg.LogLevel)
}
