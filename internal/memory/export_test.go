package memory

import (
	"context"
	"encoding/json"
	"testing"
)

// =============================================================================
// Export Tests
// =============================================================================

func TestExport_Basic(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := store.Create(ctx, CreateParams{Title: "First", Content: "a"}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Create(ctx, CreateParams{Title: "Second", Content: "b"}); err != nil {
		t.Fatal(err)
	}

	snap, err := store.Export(ctx, false, true)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Version != "1.0" {
		t.Errorf("expected version 1.0, got %q", snap.Version)
	}
	if snap.Count != 2 || len(snap.Memories) != 2 {
		t.Fatalf("expected 2 memories, got count=%d len=%d", snap.Count, len(snap.Memories))
	}
	if snap.ExportedAt.IsZero() {
		t.Error("expected exported_at to be set")
	}
	// Oldest first
	if snap.Memories[0].Title != "First" {
		t.Errorf("expected creation order, got %q first", snap.Memories[0].Title)
	}
}

func TestExport_ArchivedExcludedByDefault(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := store.Create(ctx, CreateParams{Title: "Active", Content: "c"}); err != nil {
		t.Fatal(err)
	}
	archived, err := store.Create(ctx, CreateParams{Title: "Archived", Content: "c"})
	if err != nil {
		t.Fatal(err)
	}
	status := "archived"
	if _, err := store.Update(ctx, archived.ID, UpdateParams{Status: &status}); err != nil {
		t.Fatal(err)
	}

	snap, err := store.Export(ctx, false, true)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Count != 1 {
		t.Errorf("expected only the active memory, got %d", snap.Count)
	}

	full, err := store.Export(ctx, true, true)
	if err != nil {
		t.Fatal(err)
	}
	if full.Count != 2 {
		t.Errorf("expected both with archived included, got %d", full.Count)
	}
}

func TestExport_MetadataStripped(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := store.Create(ctx, CreateParams{
		Title:    "Annotated",
		Content:  "c",
		Metadata: map[string]interface{}{"origin": "test"},
	}); err != nil {
		t.Fatal(err)
	}

	snap, err := store.Export(ctx, false, false)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Memories[0].Metadata != nil {
		t.Errorf("expected metadata stripped, got %v", snap.Memories[0].Metadata)
	}

	with, err := store.Export(ctx, false, true)
	if err != nil {
		t.Fatal(err)
	}
	if with.Memories[0].Metadata == nil {
		t.Error("expected metadata kept when requested")
	}
}

// =============================================================================
// Import Tests
// =============================================================================

func TestImport_RoundTrip(t *testing.T) {
	source, cleanupSource := setupTestStore(t)
	defer cleanupSource()
	ctx := context.Background()

	orig, err := source.Create(ctx, CreateParams{
		Title:    "Portable memory",
		Content:  "travels between stores",
		Tags:     []string{"export", "roundtrip"},
		Triggers: []string{"portable phrase"},
		Weight:   0.65,
		Pinned:   true,
		Metadata: map[string]interface{}{"origin": "source"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := source.RecordAccess(ctx, orig.ID); err != nil {
		t.Fatal(err)
	}

	snap, err := source.Export(ctx, false, true)
	if err != nil {
		t.Fatal(err)
	}

	// Through the wire format, the way the CLI moves snapshots around
	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	var decoded Snapshot
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}

	dest, cleanupDest := setupTestStore(t)
	defer cleanupDest()

	stats, err := dest.Import(ctx, &decoded, false, true)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Created != 1 || stats.Updated != 0 || stats.Skipped != 0 {
		t.Fatalf("unexpected import stats: %+v", stats)
	}

	got, err := dest.Get(ctx, orig.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected memory under its original ID")
	}
	if got.Title != orig.Title || got.Content != orig.Content {
		t.Errorf("content mismatch: got %q / %q", got.Title, got.Content)
	}
	if got.Weight != 0.65 {
		t.Errorf("expected weight preserved, got %v", got.Weight)
	}
	if !got.Pinned {
		t.Error("expected pinned flag preserved")
	}
	if len(got.Tags) != 2 || got.Tags[0] != "export" || got.Tags[1] != "roundtrip" {
		t.Errorf("tags mismatch: %v", got.Tags)
	}
	if len(got.Triggers) != 1 || got.Triggers[0] != "portable phrase" {
		t.Errorf("triggers mismatch: %v", got.Triggers)
	}
	if got.AccessCount != 1 {
		t.Errorf("expected access count preserved, got %d", got.AccessCount)
	}
	if !got.CreatedAt.Equal(orig.CreatedAt) {
		t.Errorf("created_at not preserved: %v vs %v", got.CreatedAt, orig.CreatedAt)
	}
	if got.Metadata["origin"] != "source" {
		t.Errorf("metadata not preserved: %v", got.Metadata)
	}
}

func TestImport_PartialFailureContinues(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	snap := &Snapshot{
		Version: "1.0",
		Memories: []*Memory{
			{Title: "Good one", Content: "fine"},
			{Title: "", Content: "no title"},
			{Title: "Also good", Content: "fine too"},
		},
	}

	stats, err := store.Import(ctx, snap, false, false)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 3 {
		t.Errorf("expected total 3, got %d", stats.Total)
	}
	if stats.Created != 2 {
		t.Errorf("expected 2 created despite the bad record, got %d", stats.Created)
	}
	if len(stats.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(stats.Errors))
	}
	if stats.Errors[0].Memory != "unknown" {
		t.Errorf("untitled record should report as unknown, got %q", stats.Errors[0].Memory)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("expected 2 stored, got %d", count)
	}
}

func TestImport_SkipsExistingWithoutOverwrite(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	snap := &Snapshot{
		Memories: []*Memory{
			{ID: "fixed-id-1", Title: "Original", Content: "v1", Tags: []string{"one"}},
		},
	}

	first, err := store.Import(ctx, snap, false, true)
	if err != nil {
		t.Fatal(err)
	}
	if first.Created != 1 {
		t.Fatalf("expected created on first import, got %+v", first)
	}

	// Same snapshot again with different content; nothing may change
	snap.Memories[0].Title = "Changed"
	snap.Memories[0].Tags = []string{"two"}

	second, err := store.Import(ctx, snap, false, true)
	if err != nil {
		t.Fatal(err)
	}
	if second.Skipped != 1 || second.Created != 0 || second.Updated != 0 {
		t.Fatalf("expected skip, got %+v", second)
	}

	got, err := store.Get(ctx, "fixed-id-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Original" {
		t.Errorf("skipped record must keep its title, got %q", got.Title)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "one" {
		t.Errorf("skipped record must keep its tags, got %v", got.Tags)
	}
}

func TestImport_OverwriteUpdates(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	snap := &Snapshot{
		Memories: []*Memory{
			{ID: "fixed-id-2", Title: "Before", Content: "old", Weight: 0.4},
		},
	}
	if _, err := store.Import(ctx, snap, false, true); err != nil {
		t.Fatal(err)
	}
	before, err := store.Get(ctx, "fixed-id-2")
	if err != nil {
		t.Fatal(err)
	}

	snap.Memories[0].Title = "After"
	snap.Memories[0].Weight = 0.7
	snap.Memories[0].Tags = []string{"refreshed"}

	stats, err := store.Import(ctx, snap, true, true)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Updated != 1 {
		t.Fatalf("expected update, got %+v", stats)
	}

	got, err := store.Get(ctx, "fixed-id-2")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "After" || got.Weight != 0.7 {
		t.Errorf("overwrite not applied: %q %v", got.Title, got.Weight)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "refreshed" {
		t.Errorf("expected tags replaced, got %v", got.Tags)
	}
	if !got.CreatedAt.Equal(before.CreatedAt) {
		t.Errorf("overwrite must not move created_at: %v vs %v", got.CreatedAt, before.CreatedAt)
	}
}

func TestImport_FreshIDsWithoutPreserve(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	snap := &Snapshot{
		Memories: []*Memory{
			{ID: "snapshot-id", Title: "Cloneable", Content: "c"},
		},
	}

	// Without preserved IDs every run inserts a fresh copy
	if _, err := store.Import(ctx, snap, false, false); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Import(ctx, snap, false, false); err != nil {
		t.Fatal(err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("expected 2 independent copies, got %d", count)
	}

	got, err := store.Get(ctx, "snapshot-id")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("snapshot ID must not be reused without preserve_ids")
	}
}

func TestImport_AppliesDefaultsAndClamping(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	snap := &Snapshot{
		Memories: []*Memory{
			{ID: "defaults-id", Title: "Sparse", Content: "c"},
			{ID: "clamped-id", Title: "Overweight", Content: "c", Weight: 7.5},
		},
	}
	if _, err := store.Import(ctx, snap, false, true); err != nil {
		t.Fatal(err)
	}

	sparse, err := store.Get(ctx, "defaults-id")
	if err != nil {
		t.Fatal(err)
	}
	if sparse.Type != "memory" || sparse.Status != "active" || sparse.Weight != DefaultWeight {
		t.Errorf("defaults not applied: type=%q status=%q weight=%v",
			sparse.Type, sparse.Status, sparse.Weight)
	}
	if sparse.CreatedAt.IsZero() || sparse.LastAccessedAt.IsZero() {
		t.Error("missing timestamps must fall back to now")
	}

	clamped, err := store.Get(ctx, "clamped-id")
	if err != nil {
		t.Fatal(err)
	}
	if clamped.Weight != MaxWeight {
		t.Errorf("imported weight must be clamped, got %v", clamped.Weight)
	}
}

func TestImport_InvalidSnapshot(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := store.Import(ctx, nil, false, false); err == nil {
		t.Error("expected error for nil snapshot")
	}
	if _, err := store.Import(ctx, &Snapshot{}, false, false); err == nil {
		t.Error("expected error for snapshot without memories array")
	}
}

func TestImport_EmptyMemoriesArray(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	stats, err := store.Import(context.Background(), &Snapshot{Memories: []*Memory{}}, false, false)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 0 || stats.Created != 0 {
		t.Errorf("expected empty import to be a no-op, got %+v", stats)
	}
}
