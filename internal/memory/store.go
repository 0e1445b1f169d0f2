// Package memory provides the persistent memory store for Limbic
package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Weight model constants. Every persisted weight passes through
// clampWeight, so stored values never leave [MinWeight, MaxWeight].
const (
	MinWeight     = 0.1
	MaxWeight     = 1.0
	DefaultWeight = 0.8

	// DecayRate is the per-day multiplier DecayWeights applies to
	// un-pinned memories that have gone unaccessed.
	DecayRate = 0.99

	DefaultLimit = 20
	MaxLimit     = 100
)

// Memory represents a stored memory with its tags and trigger phrases
type Memory struct {
	ID             string                 `json:"id"`
	Type           string                 `json:"type"`
	Title          string                 `json:"title"`
	Content        string                 `json:"content"`
	Weight         float64                `json:"weight"`
	Pinned         bool                   `json:"pinned"`
	EmotionalFlag  bool                   `json:"emotional_flag"`
	Status         string                 `json:"status"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	LastAccessedAt time.Time              `json:"last_accessed_at"`
	AccessCount    int                    `json:"access_count"`
	Tags           []string               `json:"tags"`
	Triggers       []string               `json:"triggers"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// CreateParams holds the fields for creating a new memory. A zero Weight
// means DefaultWeight; an empty Type means "memory".
type CreateParams struct {
	Title     string
	Content   string
	Tags      []string
	Triggers  []string
	Pinned    bool
	Emotional bool
	Type      string
	Weight    float64
	Metadata  map[string]interface{}
}

// UpdateParams holds the optional fields for a partial update. Nil fields
// are left untouched. A non-nil Tags or Triggers slice, even an empty one,
// replaces the existing set wholesale.
type UpdateParams struct {
	Title     *string
	Content   *string
	Weight    *float64
	Pinned    *bool
	Emotional *bool
	Status    *string
	Tags      []string
	Triggers  []string
	Metadata  map[string]interface{}
}

// ListOptions controls List filtering, ordering, and pagination. An empty
// Status means all statuses.
type ListOptions struct {
	Status    string
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

// Page is a paginated result set.
type Page struct {
	Items   []*Memory `json:"items"`
	Total   int       `json:"total"`
	Limit   int       `json:"limit"`
	Offset  int       `json:"offset"`
	HasMore bool      `json:"has_more"`
}

// memoryCols is the canonical column list scanned by scanMemory. The two
// spellings exist because search queries alias the table as m.
const memoryCols = `id, type, title, content, weight, pinned, emotional_flag,
	created_at, updated_at, last_accessed_at, access_count, status, metadata`

const memoryColsM = `m.id, m.type, m.title, m.content, m.weight, m.pinned, m.emotional_flag,
	m.created_at, m.updated_at, m.last_accessed_at, m.access_count, m.status, m.metadata`

// Store provides durable memory storage using SQLite
type Store struct {
	db      *sql.DB
	dataDir string
	dbPath  string
}

// NewStore opens the memory store in the Limbic data directory, creating
// the directory and schema as needed.
func NewStore() (*Store, error) {
	// Determine data directory
	dataDir := os.Getenv("LIMBIC_DATA_DIR")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home dir: %w", err)
		}
		dataDir = filepath.Join(home, ".limbic")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "limbic.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, dataDir: dataDir, dbPath: dbPath}

	// Schema creation is idempotent, so it runs unconditionally on open
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return store, nil
}

// initSchema creates the database tables, the full-text index, and the
// triggers that keep it in sync with the memories table.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id TEXT PRIMARY KEY,
		type TEXT DEFAULT 'memory',
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		weight REAL DEFAULT 0.8,
		pinned BOOLEAN DEFAULT FALSE,
		emotional_flag BOOLEAN DEFAULT FALSE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		last_accessed_at DATETIME NOT NULL,
		access_count INTEGER DEFAULT 0,
		status TEXT DEFAULT 'active',
		metadata TEXT
	);

	CREATE TABLE IF NOT EXISTS tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS memory_tags (
		memory_id TEXT REFERENCES memories(id) ON DELETE CASCADE,
		tag_id INTEGER REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (memory_id, tag_id)
	);

	CREATE TABLE IF NOT EXISTS triggers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		memory_id TEXT REFERENCES memories(id) ON DELETE CASCADE,
		phrase TEXT NOT NULL
	);

	CREATE VIRTUAL TABLE IF NOT EXISTS memories_fts USING fts5(
		id UNINDEXED,
		title,
		content,
		content=memories,
		content_rowid=rowid
	);

	CREATE TRIGGER IF NOT EXISTS memories_ai AFTER INSERT ON memories BEGIN
		INSERT INTO memories_fts(rowid, id, title, content)
		VALUES (NEW.rowid, NEW.id, NEW.title, NEW.content);
	END;

	CREATE TRIGGER IF NOT EXISTS memories_ad AFTER DELETE ON memories BEGIN
		INSERT INTO memories_fts(memories_fts, rowid, id, title, content)
		VALUES ('delete', OLD.rowid, OLD.id, OLD.title, OLD.content);
	END;

	CREATE TRIGGER IF NOT EXISTS memories_au AFTER UPDATE ON memories BEGIN
		INSERT INTO memories_fts(memories_fts, rowid, id, title, content)
		VALUES ('delete', OLD.rowid, OLD.id, OLD.title, OLD.content);
		INSERT INTO memories_fts(rowid, id, title, content)
		VALUES (NEW.rowid, NEW.id, NEW.title, NEW.content);
	END;

	CREATE INDEX IF NOT EXISTS idx_memories_status ON memories(status);
	CREATE INDEX IF NOT EXISTS idx_memories_weight ON memories(weight DESC);
	CREATE INDEX IF NOT EXISTS idx_memories_created ON memories(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_memories_accessed ON memories(last_accessed_at DESC);
	CREATE INDEX IF NOT EXISTS idx_triggers_phrase ON triggers(phrase);
	`
	_, err := s.db.Exec(schema)
	return err
}

// NormalizeTag lower-cases and trims a tag name to its canonical form.
// Tag matching and storage always go through this.
func NormalizeTag(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeTrigger lower-cases and trims a trigger phrase.
func NormalizeTrigger(phrase string) string {
	return strings.ToLower(strings.TrimSpace(phrase))
}

// Create stores a new memory with its tags and trigger phrases as one
// transaction and returns the fully hydrated record.
func (s *Store) Create(ctx context.Context, p CreateParams) (*Memory, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	memType := p.Type
	if memType == "" {
		memType = "memory"
	}
	weight := p.Weight
	if weight == 0 {
		weight = DefaultWeight
	}
	weight = clampWeight(weight)

	metadataJSON, err := encodeMetadata(p.Metadata)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO memories (
			id, type, title, content, weight, pinned, emotional_flag,
			created_at, updated_at, last_accessed_at, access_count, status, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 'active', ?)
	`, id, memType, p.Title, p.Content, weight, p.Pinned, p.Emotional, now, now, now, metadataJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to insert memory: %w", err)
	}

	if len(p.Tags) > 0 {
		if err := setMemoryTags(ctx, tx, id, p.Tags); err != nil {
			return nil, err
		}
	}
	if len(p.Triggers) > 0 {
		if err := setMemoryTriggers(ctx, tx, id, p.Triggers); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit memory: %w", err)
	}

	return s.Get(ctx, id)
}

// Get returns a memory by ID, hydrated with its tags, triggers, and
// decoded metadata. Returns (nil, nil) when no memory has that ID. Access
// statistics are not touched; callers wanting that use RecordAccess.
func (s *Store) Get(ctx context.Context, id string) (*Memory, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+memoryCols+` FROM memories WHERE id = ?`, id)

	mem, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get memory: %w", err)
	}

	if err := s.hydrate(ctx, mem); err != nil {
		return nil, err
	}
	return mem, nil
}

// Update applies a partial update inside one transaction. updated_at is
// always refreshed, even when no other field changed. Returns (nil, nil)
// when no memory has that ID.
func (s *Store) Update(ctx context.Context, id string, p UpdateParams) (*Memory, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var one int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM memories WHERE id = ?`, id).Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check memory: %w", err)
	}

	updates := []string{}
	args := []interface{}{}

	if p.Title != nil {
		updates = append(updates, "title = ?")
		args = append(args, *p.Title)
	}
	if p.Content != nil {
		updates = append(updates, "content = ?")
		args = append(args, *p.Content)
	}
	if p.Weight != nil {
		updates = append(updates, "weight = ?")
		args = append(args, clampWeight(*p.Weight))
	}
	if p.Pinned != nil {
		updates = append(updates, "pinned = ?")
		args = append(args, *p.Pinned)
	}
	if p.Emotional != nil {
		updates = append(updates, "emotional_flag = ?")
		args = append(args, *p.Emotional)
	}
	if p.Status != nil {
		updates = append(updates, "status = ?")
		args = append(args, *p.Status)
	}
	if p.Metadata != nil {
		metadataJSON, err := encodeMetadata(p.Metadata)
		if err != nil {
			return nil, err
		}
		updates = append(updates, "metadata = ?")
		args = append(args, metadataJSON)
	}

	// Always refresh updated_at
	updates = append(updates, "updated_at = ?")
	args = append(args, time.Now().UTC())
	args = append(args, id)

	query := "UPDATE memories SET " + strings.Join(updates, ", ") + " WHERE id = ?"
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update memory: %w", err)
	}

	if p.Tags != nil {
		if err := setMemoryTags(ctx, tx, id, p.Tags); err != nil {
			return nil, err
		}
	}
	if p.Triggers != nil {
		if err := setMemoryTriggers(ctx, tx, id, p.Triggers); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", err)
	}

	return s.Get(ctx, id)
}

// Delete removes a memory. Tag links, triggers, and the full-text
// projection cascade with it; shared tag rows survive. Returns false when
// no memory had that ID.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete memory: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}

// listSortFields is the allow-list for List ordering. Anything else falls
// back to updated_at.
var listSortFields = map[string]bool{
	"weight":           true,
	"created_at":       true,
	"updated_at":       true,
	"last_accessed_at": true,
	"title":            true,
}

// List returns memories with optional status filtering and pagination.
func (s *Store) List(ctx context.Context, opts ListOptions) (*Page, error) {
	sortBy := opts.SortBy
	if !listSortFields[sortBy] {
		sortBy = "updated_at"
	}
	order := strings.ToLower(opts.SortOrder)
	if order != "asc" && order != "desc" {
		order = "desc"
	}
	limit, offset := clampPage(opts.Limit, opts.Offset)

	where := ""
	args := []interface{}{}
	if opts.Status != "" {
		where = "WHERE status = ?"
		args = append(args, opts.Status)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM memories "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count memories: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM memories
		%s
		ORDER BY %s %s
		LIMIT ? OFFSET ?
	`, memoryCols, where, sortBy, order)
	args = append(args, limit, offset)

	items, err := s.queryMemories(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return &Page{
		Items:   items,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+len(items) < total,
	}, nil
}

// Pin sets or clears the pinned flag. Pinned memories are exempt from
// weight decay.
func (s *Store) Pin(ctx context.Context, id string, pinned bool) (*Memory, error) {
	return s.Update(ctx, id, UpdateParams{Pinned: &pinned})
}

// RecordAccess stamps last_accessed_at and increments access_count. It is
// the only writer of those two fields. Returns (nil, nil) when no memory
// has that ID.
func (s *Store) RecordAccess(ctx context.Context, id string) (*Memory, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE memories
		SET last_accessed_at = ?, access_count = access_count + 1
		WHERE id = ?
	`, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to record access: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return nil, nil
	}
	return s.Get(ctx, id)
}

// Count returns the total number of memories across all statuses
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&count)
	return count, err
}

// Size returns the database file size as a human-readable string
func (s *Store) Size() (string, error) {
	info, err := os.Stat(s.dbPath)
	if err != nil {
		return "unknown", err
	}

	size := info.Size()
	if size < 1024 {
		return fmt.Sprintf("%d B", size), nil
	} else if size < 1024*1024 {
		return fmt.Sprintf("%.1f KB", float64(size)/1024), nil
	}
	return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024)), nil
}

// LastActivity returns the timestamp of the most recent memory write
func (s *Store) LastActivity(ctx context.Context) (time.Time, error) {
	var lastStr sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT MAX(updated_at) FROM memories`).Scan(&lastStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	if !lastStr.Valid || lastStr.String == "" {
		return time.Time{}, nil
	}
	// MAX() loses the column type, so the driver hands back a string
	last, err := time.Parse("2006-01-02 15:04:05.999999999-07:00", lastStr.String)
	if err != nil {
		last, err = time.Parse(time.RFC3339Nano, lastStr.String)
	}
	return last, err
}

// DataDir returns the directory holding the database file
func (s *Store) DataDir() string {
	return s.dataDir
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// CheckIntegrity verifies the schema and the derived state, returning a
// list of problems. An empty list means the store is healthy.
func (s *Store) CheckIntegrity(ctx context.Context) ([]string, error) {
	var problems []string

	for _, table := range []string{"memories", "tags", "memory_tags", "triggers", "memories_fts"} {
		var name string
		err := s.db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE name = ?`, table).Scan(&name)
		if err == sql.ErrNoRows {
			problems = append(problems, fmt.Sprintf("missing table: %s", table))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to check table %s: %w", table, err)
		}
	}

	var memCount, ftsCount int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&memCount); err != nil {
		return nil, fmt.Errorf("failed to count memories: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories_fts`).Scan(&ftsCount); err != nil {
		return nil, fmt.Errorf("failed to count search index: %w", err)
	}
	if memCount != ftsCount {
		problems = append(problems, fmt.Sprintf("search index out of sync: %d memories, %d indexed", memCount, ftsCount))
	}

	var orphanedLinks int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM memory_tags mt
		WHERE NOT EXISTS (SELECT 1 FROM memories m WHERE m.id = mt.memory_id)
	`).Scan(&orphanedLinks); err != nil {
		return nil, fmt.Errorf("failed to check tag links: %w", err)
	}
	if orphanedLinks > 0 {
		problems = append(problems, fmt.Sprintf("%d orphaned tag links", orphanedLinks))
	}

	var orphanedTriggers int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM triggers tr
		WHERE NOT EXISTS (SELECT 1 FROM memories m WHERE m.id = tr.memory_id)
	`).Scan(&orphanedTriggers); err != nil {
		return nil, fmt.Errorf("failed to check triggers: %w", err)
	}
	if orphanedTriggers > 0 {
		problems = append(problems, fmt.Sprintf("%d orphaned triggers", orphanedTriggers))
	}

	return problems, nil
}

// setMemoryTags replaces the memory's tag set inside the given
// transaction. Unknown tag names are created on the fly.
func setMemoryTags(ctx context.Context, tx *sql.Tx, memoryID string, tags []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM memory_tags WHERE memory_id = ?`, memoryID); err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}

	for _, tag := range tags {
		tagID, err := ensureTag(ctx, tx, NormalizeTag(tag))
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO memory_tags (memory_id, tag_id) VALUES (?, ?)`,
			memoryID, tagID); err != nil {
			return fmt.Errorf("failed to link tag: %w", err)
		}
	}
	return nil
}

// ensureTag returns the ID for a canonical tag name, creating the row if
// it does not exist. Callers normalize the name first.
func ensureTag(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to look up tag: %w", err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO tags (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("failed to create tag: %w", err)
	}
	return res.LastInsertId()
}

// setMemoryTriggers replaces the memory's trigger phrases inside the
// given transaction. Empty phrases are dropped.
func setMemoryTriggers(ctx context.Context, tx *sql.Tx, memoryID string, triggers []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM triggers WHERE memory_id = ?`, memoryID); err != nil {
		return fmt.Errorf("failed to clear triggers: %w", err)
	}

	for _, phrase := range triggers {
		phrase = NormalizeTrigger(phrase)
		if phrase == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO triggers (memory_id, phrase) VALUES (?, ?)`,
			memoryID, phrase); err != nil {
			return fmt.Errorf("failed to insert trigger: %w", err)
		}
	}
	return nil
}

// queryMemories runs a query selecting memoryCols and hydrates every
// result. Rows are drained before hydration issues further queries.
func (s *Store) queryMemories(ctx context.Context, query string, args ...interface{}) ([]*Memory, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}

	items := []*Memory{}
	for rows.Next() {
		mem, err := scanMemory(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		items = append(items, mem)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, mem := range items {
		if err := s.hydrate(ctx, mem); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// hydrate loads the tag and trigger lists for a memory. Every memory that
// leaves this package goes through here first.
func (s *Store) hydrate(ctx context.Context, mem *Memory) error {
	tags, err := s.memoryTags(ctx, mem.ID)
	if err != nil {
		return err
	}
	triggers, err := s.memoryTriggers(ctx, mem.ID)
	if err != nil {
		return err
	}
	mem.Tags = tags
	mem.Triggers = triggers
	return nil
}

func (s *Store) memoryTags(ctx context.Context, memoryID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name FROM tags t
		JOIN memory_tags mt ON t.id = mt.tag_id
		WHERE mt.memory_id = ?
		ORDER BY t.name
	`, memoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tags = append(tags, name)
	}
	return tags, rows.Err()
}

func (s *Store) memoryTriggers(ctx context.Context, memoryID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT phrase FROM triggers WHERE memory_id = ? ORDER BY phrase`, memoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load triggers: %w", err)
	}
	defer rows.Close()

	triggers := []string{}
	for rows.Next() {
		var phrase string
		if err := rows.Scan(&phrase); err != nil {
			return nil, err
		}
		triggers = append(triggers, phrase)
	}
	return triggers, rows.Err()
}

// rowScanner lets scanMemory work with both sql.Row and sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMemory(row rowScanner) (*Memory, error) {
	var mem Memory
	var metadataNull sql.NullString

	err := row.Scan(&mem.ID, &mem.Type, &mem.Title, &mem.Content, &mem.Weight,
		&mem.Pinned, &mem.EmotionalFlag, &mem.CreatedAt, &mem.UpdatedAt,
		&mem.LastAccessedAt, &mem.AccessCount, &mem.Status, &metadataNull)
	if err != nil {
		return nil, err
	}

	if metadataNull.Valid && metadataNull.String != "" {
		json.Unmarshal([]byte(metadataNull.String), &mem.Metadata)
	}

	return &mem, nil
}

// encodeMetadata serializes a metadata document for storage. Nil maps
// become SQL NULL.
func encodeMetadata(metadata map[string]interface{}) (interface{}, error) {
	if metadata == nil {
		return nil, nil
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	return string(b), nil
}

// clampPage applies the default and maximum page bounds.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
