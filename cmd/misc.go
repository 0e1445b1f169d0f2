package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/SynapseHQ/limbic/internal/memory"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show detailed memory statistics",
	Long: `Show detailed memory statistics including weight distribution,
top tags, and trigger counts.

Examples:
  limbic stats`,
	RunE: func(cmd *cobra.Command, args []string) error { return runStats() },
}

var decayCmd = &cobra.Command{
	Use:   "decay",
	Short: "Decay weights of stale memories",
	Long: `Apply time-based decay to memory weights.

Memories that haven't been accessed recently lose 1% of their weight
per day since last access, down to a minimum of 0.1. Pinned and
archived memories are exempt.

Examples:
  limbic decay`,
	RunE: func(cmd *cobra.Command, args []string) error { return runDecay() },
}

// runStats prints the full statistics report
func runStats() error {
	store, err := memory.NewStore()
	if err != nil {
		return fmt.Errorf("failed to open memory store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()

	stats, err := store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to compute stats: %w", err)
	}

	fmt.Println("🧠 Limbic Memory Statistics")
	fmt.Println()
	fmt.Printf("Total memories: %d\n", stats.TotalMemories)

	if len(stats.ByStatus) > 0 {
		fmt.Println("\nBy status:")
		statuses := make([]string, 0, len(stats.ByStatus))
		for s := range stats.ByStatus {
			statuses = append(statuses, s)
		}
		sort.Strings(statuses)
		for _, s := range statuses {
			fmt.Printf("  %-10s %d\n", s, stats.ByStatus[s])
		}
	}

	if len(stats.WeightDistribution) > 0 {
		fmt.Println("\nWeight distribution (active):")
		for _, bracket := range []string{"high (0.9-1.0)", "medium (0.7-0.9)", "low (0.5-0.7)", "very_low (<0.5)"} {
			if n, ok := stats.WeightDistribution[bracket]; ok {
				fmt.Printf("  %-16s %d\n", bracket, n)
			}
		}
	}

	fmt.Printf("\nAverage weight: %.3f\n", stats.AverageWeight)
	fmt.Printf("Pinned: %d\n", stats.PinnedCount)
	fmt.Printf("Emotional: %d\n", stats.EmotionalCount)

	if len(stats.TopTags) > 0 {
		fmt.Println("\nTop tags:")
		for _, tc := range stats.TopTags {
			fmt.Printf("  %-20s %d\n", tc.Name, tc.Count)
		}
	}

	fmt.Printf("\nTriggers: %d\n", stats.TotalTriggers)
	return nil
}

// runDecay applies time-based decay to memory weights
func runDecay() error {
	store, err := memory.NewStore()
	if err != nil {
		return fmt.Errorf("failed to open memory store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()

	fmt.Println("Applying weight decay...")
	updated, err := store.DecayWeights(ctx)
	if err != nil {
		return fmt.Errorf("failed to decay weights: %w", err)
	}

	if updated == 0 {
		fmt.Println("✅ No memories needed decay (all are fresh, pinned, or at the floor)")
	} else {
		fmt.Printf("✅ Decayed weights for %d memories\n", updated)
		fmt.Println("   (Decay: 1% per day since last access, minimum 0.1)")
	}

	return nil
}
