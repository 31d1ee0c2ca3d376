// Package paths resolves the on-disk location of the logs database.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvDataDir is the environment variable that overrides the default data
// directory. It points at a directory; the database file is always named
// logs.db inside it.
const EnvDataDir = "LLM_HEAD_PATH"

// DatabaseFile is the name of the SQLite file inside the data directory.
const DatabaseFile = "logs.db"

// DataDir returns the directory holding logs.db.
//
// Resolution order:
//  1. LLM_HEAD_PATH environment variable
//  2. $XDG_DATA_HOME/llm-head
//  3. ~/.local/share/llm-head
func DataDir() (string, error) {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir, nil
	}

	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "llm-head"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "llm-head"), nil
}

// DatabasePath returns the full path to logs.db, creating the data
// directory if it does not exist yet.
func DatabasePath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return filepath.Join(dir, DatabaseFile), nil
}
