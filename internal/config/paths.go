package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	AppDirName       = ".facility-planner"
	SQLiteDBFileName = "data.db"
	ConfigFileName   = "planner.toml"

	DistanceCacheFileName = "distance_cache.json"
)

// GetAppDir returns ~/.facility-planner, creating it if needed
func GetAppDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	appDir := filepath.Join(homeDir, AppDirName)
	if err := os.MkdirAll(appDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create app directory: %w", err)
	}

	return appDir, nil
}

// GetDefaultDBPath returns the default SQLite database path: ~/.facility-planner/data.db
func GetDefaultDBPath() (string, error) {
	appDir, err := GetAppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(appDir, SQLiteDBFileName), nil
}

// GetConfigFilePath returns ~/.facility-planner/planner.toml
func GetConfigFilePath() (string, error) {
	appDir, err := GetAppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(appDir, ConfigFileName), nil
}

// GetDistanceCachePath returns ~/.facility-planner/distance_cache.json, the
// cache used by solves that run without the database
func GetDistanceCachePath() (string, error) {
	appDir, err := GetAppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(appDir, DistanceCacheFileName), nil
}
