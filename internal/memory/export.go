package memory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Snapshot is the portable export format. It round-trips through JSON.
type Snapshot struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	Count      int       `json:"count"`
	Memories   []*Memory `json:"memories"`
}

// ImportError records a single rejected record. The import carries on
// past it.
type ImportError struct {
	Memory string `json:"memory"`
	Error  string `json:"error"`
}

// ImportStats summarizes an import run.
type ImportStats struct {
	Total   int           `json:"total"`
	Created int           `json:"created"`
	Updated int           `json:"updated"`
	Skipped int           `json:"skipped"`
	Errors  []ImportError `json:"errors"`
}

// Export produces a snapshot of the store. Archived memories and metadata
// are included only on request.
func (s *Store) Export(ctx context.Context, includeArchived, includeMetadata bool) (*Snapshot, error) {
	query := fmt.Sprintf(`SELECT %s FROM memories`, memoryCols)
	args := []interface{}{}
	if !includeArchived {
		query += ` WHERE status = 'active'`
	}
	query += ` ORDER BY created_at`

	memories, err := s.queryMemories(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	if !includeMetadata {
		for _, mem := range memories {
			mem.Metadata = nil
		}
	}

	return &Snapshot{
		Version:    "1.0",
		ExportedAt: time.Now().UTC(),
		Count:      len(memories),
		Memories:   memories,
	}, nil
}

// Import reconciles a snapshot into the store inside one transaction. A
// bad record is reported in the stats and skipped; it never aborts the
// rest of the import. With overwrite false, records whose ID already
// exists are counted as skipped and left untouched, tags included.
func (s *Store) Import(ctx context.Context, snap *Snapshot, overwrite, preserveIDs bool) (*ImportStats, error) {
	if snap == nil || snap.Memories == nil {
		return nil, fmt.Errorf("invalid import data: missing memories array")
	}

	stats := &ImportStats{
		Total:  len(snap.Memories),
		Errors: []ImportError{},
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	for _, mem := range snap.Memories {
		if err := importOne(ctx, tx, mem, overwrite, preserveIDs, stats); err != nil {
			title := "unknown"
			if mem != nil && mem.Title != "" {
				title = mem.Title
			}
			stats.Errors = append(stats.Errors, ImportError{Memory: title, Error: err.Error()})
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}
	return stats, nil
}

// importOne reconciles a single record, bumping the matching counter.
// Existence is decided by ID, so without preserveIDs every record is a
// fresh insert.
func importOne(ctx context.Context, tx *sql.Tx, mem *Memory, overwrite, preserveIDs bool, stats *ImportStats) error {
	if mem == nil {
		return fmt.Errorf("empty record")
	}
	if mem.Title == "" {
		return fmt.Errorf("missing required field: title")
	}
	if mem.Content == "" {
		return fmt.Errorf("missing required field: content")
	}

	id := ""
	if preserveIDs {
		id = mem.ID
	}

	exists := false
	if id != "" {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM memories WHERE id = ?`, id).Scan(&one)
		if err == nil {
			exists = true
		} else if err != sql.ErrNoRows {
			return fmt.Errorf("failed to check record: %w", err)
		}
	}

	memType := mem.Type
	if memType == "" {
		memType = "memory"
	}
	status := mem.Status
	if status == "" {
		status = "active"
	}
	weight := mem.Weight
	if weight == 0 {
		weight = DefaultWeight
	}
	weight = clampWeight(weight)

	metadataJSON, err := encodeMetadata(mem.Metadata)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	switch {
	case exists && !overwrite:
		stats.Skipped++
		return nil

	case exists:
		_, err := tx.ExecContext(ctx, `
			UPDATE memories
			SET type = ?, title = ?, content = ?, weight = ?, pinned = ?,
			    emotional_flag = ?, status = ?, metadata = ?, updated_at = ?
			WHERE id = ?
		`, memType, mem.Title, mem.Content, weight, mem.Pinned,
			mem.EmotionalFlag, status, metadataJSON, now, id)
		if err != nil {
			return fmt.Errorf("failed to update record: %w", err)
		}
		stats.Updated++

	default:
		if id == "" {
			id = uuid.NewString()
		}
		createdAt := mem.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		lastAccessed := mem.LastAccessedAt
		if lastAccessed.IsZero() {
			lastAccessed = now
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO memories (
				id, type, title, content, weight, pinned, emotional_flag,
				created_at, updated_at, last_accessed_at, access_count, status, metadata
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, memType, mem.Title, mem.Content, weight, mem.Pinned,
			mem.EmotionalFlag, createdAt, now, lastAccessed, mem.AccessCount, status, metadataJSON)
		if err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
		stats.Created++
	}

	if len(mem.Tags) > 0 {
		if err := setMemoryTags(ctx, tx, id, mem.Tags); err != nil {
			return err
		}
	}
	if len(mem.Triggers) > 0 {
		if err := setMemoryTriggers(ctx, tx, id, mem.Triggers); err != nil {
			return err
		}
	}
	return nil
}
