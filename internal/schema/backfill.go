package schema

import (
	"database/sql"
	"fmt"
)

// BackfillParentIDs populates parent_id for responses recorded before head
// tracking existed. Within each conversation, responses ordered by
// datetime_utc form a chain: each row with a NULL parent_id is linked to
// the row immediately before it. Roots (the first response of a
// conversation) stay NULL. Returns the number of rows updated.
func BackfillParentIDs(db *sql.DB) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.Query(`
		SELECT id, conversation_id
		FROM responses
		WHERE conversation_id IS NOT NULL
		ORDER BY conversation_id, datetime_utc, id
	`)
	if err != nil {
		return 0, fmt.Errorf("query responses: %w", err)
	}

	type link struct {
		id     string
		parent string
	}
	var links []link
	var prevConv, prevID string
	for rows.Next() {
		var id, conv string
		if err := rows.Scan(&id, &conv); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("scan response: %w", err)
		}
		if conv == prevConv && prevID != "" {
			links = append(links, link{id: id, parent: prevID})
		}
		prevConv = conv
		prevID = id
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return 0, fmt.Errorf("iterate responses: %w", err)
	}
	_ = rows.Close()

	updated := 0
	for _, l := range links {
		res, err := tx.Exec(
			"UPDATE responses SET parent_id = ? WHERE id = ? AND parent_id IS NULL",
			l.parent, l.id,
		)
		if err != nil {
			return 0, fmt.Errorf("update response %s: %w", l.id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		updated += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return updated, nil
}
