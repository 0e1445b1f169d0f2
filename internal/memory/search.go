package memory

import (
	"context"
	"fmt"
	"strings"
)

// SearchOptions controls Search. An empty Status defaults to "active".
// Tags are matched with AND semantics: every tag must be present.
type SearchOptions struct {
	Query  string
	Tags   []string
	Status string
	Limit  int
	Offset int
}

// searchStrategy selects the query shape for a search. Each combination
// of text and tag filters gets its own SQL rather than one query trying
// to cover all four.
type searchStrategy int

const (
	searchNoFilter searchStrategy = iota
	searchTextOnly
	searchTagsOnly
	searchTextAndTags
)

func strategyFor(query string, tags []string) searchStrategy {
	switch {
	case query != "" && len(tags) > 0:
		return searchTextAndTags
	case query != "":
		return searchTextOnly
	case len(tags) > 0:
		return searchTagsOnly
	default:
		return searchNoFilter
	}
}

// searchQuery is a prepared fetch plus its matching count query.
type searchQuery struct {
	fetchSQL  string
	fetchArgs []interface{}
	countSQL  string
	countArgs []interface{}
}

// Search finds memories by full-text query, tag filters, or both,
// ordered by relevance. With no filters it degrades to a weight-ordered
// listing of the requested status.
func (s *Store) Search(ctx context.Context, opts SearchOptions) (*Page, error) {
	status := opts.Status
	if status == "" {
		status = "active"
	}
	limit, offset := clampPage(opts.Limit, opts.Offset)

	query := strings.TrimSpace(opts.Query)
	tags := []string{}
	for _, tag := range opts.Tags {
		if t := NormalizeTag(tag); t != "" {
			tags = append(tags, t)
		}
	}

	var sq searchQuery
	switch strategyFor(query, tags) {
	case searchTextAndTags:
		sq = buildTextAndTags(query, tags, status, limit, offset)
	case searchTextOnly:
		sq = buildTextOnly(query, status, limit, offset)
	case searchTagsOnly:
		sq = buildTagsOnly(tags, status, limit, offset)
	default:
		sq = buildNoFilter(status, limit, offset)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, sq.countSQL, sq.countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count search results: %w", err)
	}

	items, err := s.queryMemories(ctx, sq.fetchSQL, sq.fetchArgs...)
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

// buildTextAndTags matches the full-text query and requires every tag.
// The GROUP BY plus HAVING count enforces the AND across tag rows, and
// the count query wraps the same shape so total matches what paging over
// the fetch would yield.
func buildTextAndTags(query string, tags []string, status string, limit, offset int) searchQuery {
	placeholders := strings.Repeat("?, ", len(tags)-1) + "?"
	match := sanitizeFTS(query)

	tagArgs := make([]interface{}, 0, len(tags))
	for _, tag := range tags {
		tagArgs = append(tagArgs, tag)
	}

	fetchSQL := fmt.Sprintf(`
		SELECT DISTINCT %s
		FROM memories m
		JOIN memories_fts fts ON m.id = fts.id
		JOIN memory_tags mt ON m.id = mt.memory_id
		JOIN tags t ON mt.tag_id = t.id
		WHERE fts.memories_fts MATCH ?
		  AND t.name IN (%s)
		  AND m.status = ?
		GROUP BY m.id
		HAVING COUNT(DISTINCT t.name) = ?
		ORDER BY fts.rank, m.weight DESC
		LIMIT ? OFFSET ?
	`, memoryColsM, placeholders)

	fetchArgs := append([]interface{}{match}, tagArgs...)
	fetchArgs = append(fetchArgs, status, len(tags), limit, offset)

	countSQL := fmt.Sprintf(`
		SELECT COUNT(*) FROM (
			SELECT m.id
			FROM memories m
			JOIN memories_fts fts ON m.id = fts.id
			JOIN memory_tags mt ON m.id = mt.memory_id
			JOIN tags t ON mt.tag_id = t.id
			WHERE fts.memories_fts MATCH ?
			  AND t.name IN (%s)
			  AND m.status = ?
			GROUP BY m.id
			HAVING COUNT(DISTINCT t.name) = ?
		)
	`, placeholders)

	countArgs := append([]interface{}{match}, tagArgs...)
	countArgs = append(countArgs, status, len(tags))

	return searchQuery{fetchSQL, fetchArgs, countSQL, countArgs}
}

// buildTextOnly matches the full-text query, best rank first.
func buildTextOnly(query, status string, limit, offset int) searchQuery {
	match := sanitizeFTS(query)

	fetchSQL := fmt.Sprintf(`
		SELECT %s
		FROM memories m
		JOIN memories_fts fts ON m.id = fts.id
		WHERE fts.memories_fts MATCH ?
		  AND m.status = ?
		ORDER BY fts.rank, m.weight DESC
		LIMIT ? OFFSET ?
	`, memoryColsM)

	countSQL := `
		SELECT COUNT(*)
		FROM memories m
		JOIN memories_fts fts ON m.id = fts.id
		WHERE fts.memories_fts MATCH ?
		  AND m.status = ?
	`

	return searchQuery{
		fetchSQL:  fetchSQL,
		fetchArgs: []interface{}{match, status, limit, offset},
		countSQL:  countSQL,
		countArgs: []interface{}{match, status},
	}
}

// buildTagsOnly requires every tag, ordered by weight.
func buildTagsOnly(tags []string, status string, limit, offset int) searchQuery {
	placeholders := strings.Repeat("?, ", len(tags)-1) + "?"

	tagArgs := make([]interface{}, 0, len(tags))
	for _, tag := range tags {
		tagArgs = append(tagArgs, tag)
	}

	fetchSQL := fmt.Sprintf(`
		SELECT DISTINCT %s
		FROM memories m
		JOIN memory_tags mt ON m.id = mt.memory_id
		JOIN tags t ON mt.tag_id = t.id
		WHERE t.name IN (%s)
		  AND m.status = ?
		GROUP BY m.id
		HAVING COUNT(DISTINCT t.name) = ?
		ORDER BY m.weight DESC, m.updated_at DESC
		LIMIT ? OFFSET ?
	`, memoryColsM, placeholders)

	fetchArgs := append([]interface{}{}, tagArgs...)
	fetchArgs = append(fetchArgs, status, len(tags), limit, offset)

	countSQL := fmt.Sprintf(`
		SELECT COUNT(*) FROM (
			SELECT m.id
			FROM memories m
			JOIN memory_tags mt ON m.id = mt.memory_id
			JOIN tags t ON mt.tag_id = t.id
			WHERE t.name IN (%s)
			  AND m.status = ?
			GROUP BY m.id
			HAVING COUNT(DISTINCT t.name) = ?
		)
	`, placeholders)

	countArgs := append([]interface{}{}, tagArgs...)
	countArgs = append(countArgs, status, len(tags))

	return searchQuery{fetchSQL, fetchArgs, countSQL, countArgs}
}

// buildNoFilter lists by weight within the requested status.
func buildNoFilter(status string, limit, offset int) searchQuery {
	fetchSQL := fmt.Sprintf(`
		SELECT %s
		FROM memories m
		WHERE m.status = ?
		ORDER BY m.weight DESC, m.updated_at DESC
		LIMIT ? OFFSET ?
	`, memoryColsM)

	return searchQuery{
		fetchSQL:  fetchSQL,
		fetchArgs: []interface{}{status, limit, offset},
		countSQL:  `SELECT COUNT(*) FROM memories WHERE status = ?`,
		countArgs: []interface{}{status},
	}
}

// SearchByTrigger finds active memories whose trigger phrases contain the
// given phrase, strongest first. Matching is a case-insensitive substring
// match over normalized phrases.
func (s *Store) SearchByTrigger(ctx context.Context, phrase string, limit int) ([]*Memory, error) {
	phrase = NormalizeTrigger(phrase)
	if limit <= 0 {
		limit = 10
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT %s
		FROM memories m
		JOIN triggers tr ON m.id = tr.memory_id
		WHERE tr.phrase LIKE ?
		  AND m.status = 'active'
		ORDER BY m.weight DESC
		LIMIT ?
	`, memoryColsM)

	return s.queryMemories(ctx, query, "%"+phrase+"%", limit)
}

// sanitizeFTS quotes each token of a user query so FTS5 treats it as
// plain text. Without this, characters like - or " hit the MATCH grammar
// and turn typos into syntax errors.
func sanitizeFTS(query string) string {
	words := strings.Fields(query)
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(w, `"`)
		if w == "" {
			continue
		}
		quoted = append(quoted, `"`+w+`"`)
	}
	return strings.Join(quoted, " ")
}
