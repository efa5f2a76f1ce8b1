package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_LoadsAllFields(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{
		"database_dsn":      "postgres://db",
		"keys_file":         "k.json",
		"page_size":         10,
		"log_level":         "debug",
		"kind":              "folder",
		"backup_target":     "file",
		"backup_dir":        "/var/backups",
		"backup_passphrase": "pw",
		"s3_user":           "user",
		"s3_password":       "password",
		"s3_bucket":         "bucket",
		"s3_region":         "region",
		"s3_endpoint":       "endpoint",
	})
	withArgs(t, "-config", path)

	cfg := &Config{}
	require.NoError(t, parseJson(cfg))

	assert.Equal(t, Config{
		DatabaseDSN:      "postgres://db",
		KeysFile:         "k.json",
		PageSize:         10,
		LogLevel:         "debug",
		Kind:             "folder",
		BackupTarget:     "file",
		BackupDir:        "/var/backups",
		BackupPassphrase: "pw",
		S3User:           "user",
		S3Password:       "password",
		S3Bucket:         "bucket",
		S3Region:         "region",
		S3Endpoint:       "endpoint",
	}, *cfg)
}

func Test_parseJson_KeepsValuesNotInFile(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{"log_level": "warn"})
	withArgs(t, "-c", path)

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NoError(t, parseJson(cfg))

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 500, cfg.PageSize)
	assert.Equal(t, "keys.json", cfg.KeysFile)
}

func Test_parseJson_NoFlag(t *testing.T) {
	withArgs(t, "run")

	cfg := &Config{}
	require.NoError(t, parseJson(cfg))
	assert.Equal(t, Config{}, *cfg)
}

func Test_parseJson_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		withArgs(t, "-c", filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, parseJson(&Config{}))
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
		withArgs(t, "-c", path)
		assert.ErrorContains(t, parseJson(&Config{}), "parse config")
	})
}
