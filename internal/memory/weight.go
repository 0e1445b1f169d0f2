package memory

import (
	"context"
	"fmt"
	"math"
	"time"
)

// clampWeight bounds a weight to [MinWeight, MaxWeight]. Every code path
// that persists a weight goes through here.
func clampWeight(w float64) float64 {
	return math.Max(MinWeight, math.Min(MaxWeight, w))
}

// DecayWeights lowers the weight of un-pinned active memories by
// DecayRate per day since last access, flooring at MinWeight. Memories
// accessed within the last day are untouched. Returns how many rows
// changed. updated_at is deliberately left alone so decay never masks
// real edits.
func (s *Store) DecayWeights(ctx context.Context) (int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, weight, last_accessed_at
		FROM memories
		WHERE pinned = 0 AND status = 'active' AND weight > ?
	`, MinWeight)
	if err != nil {
		return 0, fmt.Errorf("failed to query decay candidates: %w", err)
	}
	defer rows.Close()

	type decayUpdate struct {
		id     string
		weight float64
	}

	now := time.Now().UTC()
	var updates []decayUpdate

	for rows.Next() {
		var id string
		var weight float64
		var lastAccessed time.Time
		if err := rows.Scan(&id, &weight, &lastAccessed); err != nil {
			continue
		}

		daysSince := now.Sub(lastAccessed).Hours() / 24
		if daysSince < 1 {
			continue
		}

		newWeight := clampWeight(weight * math.Pow(DecayRate, daysSince))
		if newWeight != weight {
			updates = append(updates, decayUpdate{id: id, weight: newWeight})
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if len(updates) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin decay transaction: %w", err)
	}
	defer tx.Rollback()

	for _, u := range updates {
		if _, err := tx.ExecContext(ctx,
			`UPDATE memories SET weight = ? WHERE id = ?`, u.weight, u.id); err != nil {
			return 0, fmt.Errorf("failed to decay memory %s: %w", u.id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit decay: %w", err)
	}
	return len(updates), nil
}
