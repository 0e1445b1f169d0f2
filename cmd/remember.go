package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/SynapseHQ/limbic/internal/memory"
	"github.com/spf13/cobra"
)

var rememberCmd = &cobra.Command{
	Use:   "remember <title> <content>",
	Short: "Store a memory from the command line",
	Long: `Store a memory without going through an MCP client.

Examples:
  limbic remember "Test naming" "always use snake_case for Go test names"
  limbic remember "Design rule" "prefer composition over inheritance" --tags "architecture,patterns"
  limbic remember "Standup format" "yesterday, today, blockers" --triggers "time for standup" --pin`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tagsStr, _ := cmd.Flags().GetString("tags")
		triggersStr, _ := cmd.Flags().GetString("triggers")
		pin, _ := cmd.Flags().GetBool("pin")
		return runRemember(args[0], args[1], tagsStr, triggersStr, pin)
	},
}

func init() {
	rememberCmd.Flags().String("tags", "", "Comma-separated tags")
	rememberCmd.Flags().String("triggers", "", "Comma-separated trigger phrases")
	rememberCmd.Flags().Bool("pin", false, "Pin the memory (exempt from decay)")
}

func runRemember(title, content, tagsStr, triggersStr string, pin bool) error {
	store, err := memory.NewStore()
	if err != nil {
		return fmt.Errorf("failed to open memory store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()

	mem, err := store.Create(ctx, memory.CreateParams{
		Title:    title,
		Content:  content,
		Tags:     splitList(tagsStr),
		Triggers: splitList(triggersStr),
		Pinned:   pin,
	})
	if err != nil {
		return fmt.Errorf("remember failed: %w", err)
	}

	fmt.Printf("✅ Remembered (%s)\n", mem.ID)
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
