package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/passwords/internal/flagx"
)

// JsonConfig is the on-disk form of Config. Absent or zero values keep the
// value already in Config.
type JsonConfig struct {
	DatabaseDSN      string `json:"database_dsn"`
	KeysFile         string `json:"keys_file"`
	PageSize         int    `json:"page_size"`
	LogLevel         string `json:"log_level"`
	Kind             string `json:"kind"`
	BackupTarget     string `json:"backup_target"`
	BackupDir        string `json:"backup_dir"`
	BackupPassphrase string `json:"backup_passphrase"`
	S3User           string `json:"s3_user"`
	S3Password       string `json:"s3_password"`
	S3Bucket         string `json:"s3_bucket"`
	S3Region         string `json:"s3_region"`
	S3Endpoint       string `json:"s3_endpoint"`
}

// parseJson overlays values from the JSON file named by the -c or -config
// flag. Without the flag nothing is loaded.
func parseJson(config *Config) error {
	jsonConfigFile := flagx.ConfigFile()

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", jsonConfigFile, err)
	}

	overlay(&config.DatabaseDSN, c.DatabaseDSN)
	overlay(&config.KeysFile, c.KeysFile)
	overlay(&config.PageSize, c.PageSize)
	overlay(&config.LogLevel, c.LogLevel)
	overlay(&config.Kind, c.Kind)
	overlay(&config.BackupTarget, c.BackupTarget)
	overlay(&config.BackupDir, c.BackupDir)
	overlay(&config.BackupPassphrase, c.BackupPassphrase)
	overlay(&config.S3User, c.S3User)
	overlay(&config.S3Password, c.S3Password)
	overlay(&config.S3Bucket, c.S3Bucket)
	overlay(&config.S3Region, c.S3Region)
	overlay(&config.S3Endpoint, c.S3Endpoint)

	return nil
}

func overlay[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}
