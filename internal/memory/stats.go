package memory

import (
	"context"
	"database/sql"
	"fmt"
	"math"
)

// TagCount pairs a tag name with how many active memories carry it.
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats is an aggregate view of the store. Weight figures cover active
// memories only.
type Stats struct {
	TotalMemories      int            `json:"total_memories"`
	ByStatus           map[string]int `json:"by_status"`
	WeightDistribution map[string]int `json:"weight_distribution"`
	AverageWeight      float64        `json:"average_weight"`
	PinnedCount        int            `json:"pinned_count"`
	EmotionalCount     int            `json:"emotional_count"`
	TopTags            []TagCount     `json:"top_tags"`
	TotalTriggers      int            `json:"total_triggers"`
}

// Stats computes the aggregate view in a handful of queries. It reads
// live state every time; nothing here is cached.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByStatus:           map[string]int{},
		WeightDistribution: map[string]int{},
		TopTags:            []TagCount{},
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM memories GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, err
		}
		stats.ByStatus[status] = count
		stats.TotalMemories += count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT CASE
			WHEN weight >= 0.9 THEN 'high (0.9-1.0)'
			WHEN weight >= 0.7 THEN 'medium (0.7-0.9)'
			WHEN weight >= 0.5 THEN 'low (0.5-0.7)'
			ELSE 'very_low (<0.5)'
		END AS bracket, COUNT(*)
		FROM memories
		WHERE status = 'active'
		GROUP BY bracket
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to compute weight distribution: %w", err)
	}
	for rows.Next() {
		var bracket string
		var count int
		if err := rows.Scan(&bracket, &count); err != nil {
			rows.Close()
			return nil, err
		}
		stats.WeightDistribution[bracket] = count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	var avg sql.NullFloat64
	if err := s.db.QueryRowContext(ctx,
		`SELECT AVG(weight) FROM memories WHERE status = 'active'`).Scan(&avg); err != nil {
		return nil, fmt.Errorf("failed to compute average weight: %w", err)
	}
	if avg.Valid {
		stats.AverageWeight = math.Round(avg.Float64*1000) / 1000
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories WHERE pinned = TRUE AND status = 'active'`).Scan(&stats.PinnedCount); err != nil {
		return nil, fmt.Errorf("failed to count pinned: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories WHERE emotional_flag = TRUE AND status = 'active'`).Scan(&stats.EmotionalCount); err != nil {
		return nil, fmt.Errorf("failed to count emotional: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT t.name, COUNT(*) AS count
		FROM tags t
		JOIN memory_tags mt ON t.id = mt.tag_id
		JOIN memories m ON mt.memory_id = m.id
		WHERE m.status = 'active'
		GROUP BY t.name
		ORDER BY count DESC
		LIMIT 10
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to rank tags: %w", err)
	}
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Name, &tc.Count); err != nil {
			rows.Close()
			return nil, err
		}
		stats.TopTags = append(stats.TopTags, tc)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM triggers`).Scan(&stats.TotalTriggers); err != nil {
		return nil, fmt.Errorf("failed to count triggers: %w", err)
	}

	return stats, nil
}
