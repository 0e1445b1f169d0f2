package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_TextOnly(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.Create(ctx, CreateParams{Title: "PostgreSQL migration notes", Content: "steps for moving the schema"})
	require.NoError(t, err)
	_, err = store.Create(ctx, CreateParams{Title: "Redis eviction policy", Content: "allkeys-lru works best here"})
	require.NoError(t, err)

	page, err := store.Search(ctx, SearchOptions{Query: "postgresql"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "PostgreSQL migration notes", page.Items[0].Title)
}

func TestSearch_MatchesContent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.Create(ctx, CreateParams{Title: "Deploy notes", Content: "the failover procedure needs two approvals"})
	require.NoError(t, err)

	page, err := store.Search(ctx, SearchOptions{Query: "failover"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Deploy notes", page.Items[0].Title)
}

func TestSearch_RankOrdering(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	// Heavy on the term in both indexed columns
	_, err := store.Create(ctx, CreateParams{
		Title:   "Kubernetes deployment guide",
		Content: "kubernetes manifests, kubernetes operators, and kubernetes upgrade steps",
	})
	require.NoError(t, err)

	// One passing mention buried in a longer body
	_, err = store.Create(ctx, CreateParams{
		Title:   "Quarterly planning notes",
		Content: "somewhere in the middle of many unrelated topics we briefly touched kubernetes before moving on to staffing, budgets, and the office move",
	})
	require.NoError(t, err)

	page, err := store.Search(ctx, SearchOptions{Query: "kubernetes"})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Kubernetes deployment guide", page.Items[0].Title, "best match should rank first")
}

func TestSearch_TagsRequireAll(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	both, err := store.Create(ctx, CreateParams{Title: "Both tags", Content: "c", Tags: []string{"go", "database"}})
	require.NoError(t, err)
	_, err = store.Create(ctx, CreateParams{Title: "Only go", Content: "c", Tags: []string{"go"}})
	require.NoError(t, err)
	_, err = store.Create(ctx, CreateParams{Title: "Only database", Content: "c", Tags: []string{"database"}})
	require.NoError(t, err)

	// Every requested tag must be present
	page, err := store.Search(ctx, SearchOptions{Tags: []string{"go", "database"}})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, both.ID, page.Items[0].ID)

	// A single tag matches everything carrying it
	page, err = store.Search(ctx, SearchOptions{Tags: []string{"go"}})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
}

func TestSearch_TagsCaseInsensitive(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.Create(ctx, CreateParams{Title: "Tagged", Content: "c", Tags: []string{"infra"}})
	require.NoError(t, err)

	page, err := store.Search(ctx, SearchOptions{Tags: []string{"  INFRA  "}})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestSearch_TextAndTags(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	want, err := store.Create(ctx, CreateParams{Title: "Tuning the cache", Content: "cache sizing numbers", Tags: []string{"perf"}})
	require.NoError(t, err)
	// Same text, wrong tag
	_, err = store.Create(ctx, CreateParams{Title: "Cache invalidation war story", Content: "cache bugs", Tags: []string{"story"}})
	require.NoError(t, err)
	// Same tag, no text match
	_, err = store.Create(ctx, CreateParams{Title: "Profiling session", Content: "cpu flame graphs", Tags: []string{"perf"}})
	require.NoError(t, err)

	page, err := store.Search(ctx, SearchOptions{Query: "cache", Tags: []string{"perf"}})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, want.ID, page.Items[0].ID)
}

func TestSearch_TextAndTagsPagination(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Create(ctx, CreateParams{
			Title:   fmt.Sprintf("Alpha note %d", i),
			Content: "alpha details",
			Tags:    []string{"paged"},
		})
		require.NoError(t, err)
	}
	// Tag matches but the text does not; must not inflate the total
	_, err := store.Create(ctx, CreateParams{Title: "Beta note", Content: "beta details", Tags: []string{"paged"}})
	require.NoError(t, err)

	page, err := store.Search(ctx, SearchOptions{Query: "alpha", Tags: []string{"paged"}, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total, "total must count distinct matches, not tag join rows")
	assert.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)

	rest, err := store.Search(ctx, SearchOptions{Query: "alpha", Tags: []string{"paged"}, Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, rest.Items, 1)
	assert.False(t, rest.HasMore)
}

func TestSearch_NoFilterListsByWeight(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.Create(ctx, CreateParams{Title: "Faint", Content: "c", Weight: 0.3})
	require.NoError(t, err)
	_, err = store.Create(ctx, CreateParams{Title: "Vivid", Content: "c", Weight: 0.95})
	require.NoError(t, err)

	page, err := store.Search(ctx, SearchOptions{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Vivid", page.Items[0].Title)
	assert.Equal(t, "Faint", page.Items[1].Title)
}

func TestSearch_DefaultsToActiveStatus(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.Create(ctx, CreateParams{Title: "Active memo", Content: "shared term"})
	require.NoError(t, err)
	archived, err := store.Create(ctx, CreateParams{Title: "Archived memo", Content: "shared term"})
	require.NoError(t, err)

	status := "archived"
	_, err = store.Update(ctx, archived.ID, UpdateParams{Status: &status})
	require.NoError(t, err)

	page, err := store.Search(ctx, SearchOptions{Query: "shared"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Active memo", page.Items[0].Title)

	// An explicit status widens the search
	page, err = store.Search(ctx, SearchOptions{Query: "shared", Status: "archived"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "Archived memo", page.Items[0].Title)
}

func TestSearch_WhitespaceQueryMeansNoFilter(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.Create(ctx, CreateParams{Title: "Anything", Content: "c"})
	require.NoError(t, err)

	page, err := store.Search(ctx, SearchOptions{Query: "   "})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestSearch_SpecialCharactersDoNotBreakMatch(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.Create(ctx, CreateParams{Title: "State-machine refactor", Content: "the state-machine handles retries"})
	require.NoError(t, err)

	// Hyphens and stray quotes would be MATCH syntax without sanitizing
	page, err := store.Search(ctx, SearchOptions{Query: `state-machine`})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	_, err = store.Search(ctx, SearchOptions{Query: `broken "quote`})
	assert.NoError(t, err)

	_, err = store.Search(ctx, SearchOptions{Query: `AND OR NOT (`})
	assert.NoError(t, err)
}

func TestSearch_UpdateReindexes(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	mem, err := store.Create(ctx, CreateParams{Title: "Original wording", Content: "first draft"})
	require.NoError(t, err)

	title := "Rewritten entirely"
	_, err = store.Update(ctx, mem.ID, UpdateParams{Title: &title})
	require.NoError(t, err)

	stale, err := store.Search(ctx, SearchOptions{Query: "original"})
	require.NoError(t, err)
	assert.Equal(t, 0, stale.Total, "old text must leave the index on update")

	fresh, err := store.Search(ctx, SearchOptions{Query: "rewritten"})
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Total)
}

func TestSearch_DeleteRemovesFromIndex(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	mem, err := store.Create(ctx, CreateParams{Title: "Ephemeral", Content: "gone soon"})
	require.NoError(t, err)

	_, err = store.Delete(ctx, mem.ID)
	require.NoError(t, err)

	page, err := store.Search(ctx, SearchOptions{Query: "ephemeral"})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
}

func TestSearch_LimitBounds(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.Create(ctx, CreateParams{Title: "Bounded", Content: "c"})
	require.NoError(t, err)

	page, err := store.Search(ctx, SearchOptions{Limit: -5})
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, page.Limit)

	page, err = store.Search(ctx, SearchOptions{Limit: 5000})
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, page.Limit)
}

// --- Trigger Search Tests ---

func TestSearchByTrigger_Basic(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	mem, err := store.Create(ctx, CreateParams{
		Title:    "Database conventions",
		Content:  "naming and migrations",
		Triggers: []string{"when discussing databases", "schema questions"},
	})
	require.NoError(t, err)

	results, err := store.SearchByTrigger(ctx, "database", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, mem.ID, results[0].ID)
}

func TestSearchByTrigger_CaseInsensitive(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.Create(ctx, CreateParams{
		Title: "Laptop prefs", Content: "c",
		Triggers: []string{"talking about laptops"},
	})
	require.NoError(t, err)

	results, err := store.SearchByTrigger(ctx, "LAPTOPS", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchByTrigger_WeightOrder(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.Create(ctx, CreateParams{
		Title: "Weak association", Content: "c", Weight: 0.3,
		Triggers: []string{"planning season"},
	})
	require.NoError(t, err)
	_, err = store.Create(ctx, CreateParams{
		Title: "Strong association", Content: "c", Weight: 0.9,
		Triggers: []string{"planning meetings"},
	})
	require.NoError(t, err)

	results, err := store.SearchByTrigger(ctx, "planning", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Strong association", results[0].Title)
}

func TestSearchByTrigger_ExcludesArchived(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	mem, err := store.Create(ctx, CreateParams{
		Title: "Former habit", Content: "c",
		Triggers: []string{"morning routine"},
	})
	require.NoError(t, err)

	status := "archived"
	_, err = store.Update(ctx, mem.ID, UpdateParams{Status: &status})
	require.NoError(t, err)

	results, err := store.SearchByTrigger(ctx, "routine", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchByTrigger_NoMatch(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	results, err := store.SearchByTrigger(context.Background(), "nothing here", 10)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}
