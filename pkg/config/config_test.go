package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// empty path and no config.json in the working directory
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(wd)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultClientTimeout, cfg.ClientTimeout)
	assert.Equal(t, DefaultLogFile, cfg.LogFile)
	assert.Equal(t, "memory", cfg.Database.Driver)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"HOST": "192.168.1.10",
		"PORT": 65531,
		"TIMEOUT": 3,
		"CLIENT_TIMEOUT": 10,
		"LOG_FILE": "logs/node.log",
		"DATABASE": {
			"DRIVER": "postgres",
			"HOST": "db.local",
			"PORT": 5433,
			"USER": "bankuser",
			"NAME": "bankdb",
			"ENCRYPTED_PASSWORD": "abc123",
			"KEY_FILE": "encryption.key"
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.10", cfg.Host)
	assert.Equal(t, 65531, cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, 10*time.Second, cfg.ClientTimeout)
	assert.Equal(t, "logs/node.log", cfg.LogFile)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "db.local", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "abc123", cfg.Database.EncryptedPassword)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()

	badPort := filepath.Join(dir, "port.json")
	require.NoError(t, os.WriteFile(badPort, []byte(`{"PORT": 70000}`), 0o600))
	_, err := Load(badPort)
	assert.Error(t, err)

	badTimeout := filepath.Join(dir, "timeout.json")
	require.NoError(t, os.WriteFile(badTimeout, []byte(`{"TIMEOUT": 0}`), 0o600))
	_, err = Load(badTimeout)
	assert.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db.local", Port: 5432, User: "bank", Name: "bankdb"}
	assert.Equal(t,
		"host=db.local port=5432 user=bank password=pw dbname=bankdb sslmode=disable",
		d.DSN("pw"),
	)
}
