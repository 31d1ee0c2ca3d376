// Package cli implements the logic behind each llm-head command. Commands
// in cmd/llm-head stay thin: they open the database, call one function
// here, and print the result struct.
package cli

import (
	"fmt"

	"github.com/FergusFettes/llm-head/internal/paths"
	"github.com/FergusFettes/llm-head/internal/safedb"
	"github.com/FergusFettes/llm-head/internal/schema"
)

// OpenDatabase opens (and migrates) the logs database. An empty path means
// the default location from internal/paths.
func OpenDatabase(path string) (*safedb.DB, error) {
	if path == "" {
		var err error
		path, err = paths.DatabasePath()
		if err != nil {
			return nil, err
		}
	}

	raw, err := schema.OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := schema.Migrate(raw); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return safedb.New(raw), nil
}
