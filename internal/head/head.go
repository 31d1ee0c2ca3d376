// Package head owns the durable head pointer: the single state row naming
// the response the next exchange will continue from.
package head

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/FergusFettes/llm-head/internal/errs"
	"github.com/FergusFettes/llm-head/internal/store"
)

// stateKey is the key of the head row in the state table. The table holds
// exactly one logical head; the pointer is only ever overwritten, never
// deleted.
const stateKey = "head"

// Read returns the current head id, or ok=false when no head has been set.
func Read(ctx context.Context, q store.Querier) (string, bool, error) {
	var id string
	err := q.QueryRowContext(ctx, "SELECT value FROM state WHERE key = ?", stateKey).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errs.Classify(fmt.Errorf("read head: %w", err))
	}
	return id, true, nil
}

// Write points the head at id. Fails with ErrDanglingHead when id does not
// exist in the store. The existence check and the upsert must run inside
// the same transaction, so q should be a *sql.Tx for any caller that can
// race another writer.
func Write(ctx context.Context, q store.Querier, id string) error {
	ok, err := store.Exists(ctx, q, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("write head: %s: %w", id, errs.ErrDanglingHead)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		stateKey, id,
	)
	if err != nil {
		return errs.Classify(fmt.Errorf("write head: %w", err))
	}
	return nil
}
