package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadExplicitFileMissing(t *testing.T) {
	// SetConfigFile 指定的文件缺失是硬错误
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	// 切到空目录，搜索不到配置文件时全部走默认值
	t.Setenv("CABINET_CONFIG", "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "cabinet-controller", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, "none", cfg.Serial.Parity)
	assert.Equal(t, 100*time.Millisecond, cfg.Protocol.SettleTime)
	assert.Equal(t, time.Second, cfg.Protocol.StatusTimeout)
	assert.Equal(t, 10240, cfg.Protocol.MaxBufferBytes)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enable)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
app:
  name: cabinet-east-gate
serial:
  device: /dev/ttyS1
  baudRate: 19200
protocol:
  address: 2
  settleTime: 250ms
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cabinet-east-gate", cfg.App.Name)
	assert.Equal(t, "/dev/ttyS1", cfg.Serial.Device)
	assert.Equal(t, 19200, cfg.Serial.BaudRate)
	assert.Equal(t, 2, cfg.Protocol.Address)
	assert.Equal(t, 250*time.Millisecond, cfg.Protocol.SettleTime)
	// 文件未覆盖的键保持默认
	assert.Equal(t, 8, cfg.Serial.DataBits)
	assert.Equal(t, 10240, cfg.Protocol.MaxBufferBytes)
}
