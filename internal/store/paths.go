package store

import (
	"os"
	"path/filepath"
)

const (
	appDirName = "tomato"
	dbFileName = "data.db"
)

// DefaultDataDir returns ~/.config/tomato (or the platform equivalent).
func DefaultDataDir() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", wrapKind(ErrStorageUnavailable, "resolve config dir", err)
	}
	return filepath.Join(cfg, appDirName), nil
}

// DefaultDBPath returns ~/.config/tomato/data.db
func DefaultDBPath() (string, error) {
	dir, err := DefaultDataDir()
	if err != nil {
		return "", err
	}
	return DBPath(dir), nil
}

// DBPath returns the database file location inside dataDir.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, dbFileName)
}
